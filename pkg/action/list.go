/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package action

import (
	"regexp"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/pkg/lock"
)

// List is the action for listing the locked packages.
type List struct {
	Config *Configuration

	// Filter is a regular expression package names have to match.
	Filter string
}

// NewList creates a new List object with the given configuration.
func NewList(cfg *Configuration) *List {
	return &List{Config: cfg}
}

// Run returns the locked packages, sorted by name. A project without a lock
// has none.
func (l *List) Run() ([]*lock.Entry, error) {
	if l.Config.Lock == nil {
		return []*lock.Entry{}, nil
	}
	if l.Filter == "" {
		return l.Config.Lock.Packages, nil
	}
	re, err := regexp.Compile(l.Filter)
	if err != nil {
		return nil, errors.Wrap(err, "invalid filter")
	}
	res := []*lock.Entry{}
	for _, e := range l.Config.Lock.Packages {
		if re.MatchString(e.Name) {
			res = append(res, e)
		}
	}
	return res, nil
}
