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

package version

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidVersionString is matched by every version or constraint parse
// failure, via errors.Is.
var ErrInvalidVersionString = errors.New("invalid version string")

// InvalidVersionError carries the offending input of a failed parse.
type InvalidVersionError struct {
	Input      string
	Constraint bool
	Reason     string
}

func (e *InvalidVersionError) Error() string {
	kind := "version"
	if e.Constraint {
		kind = "constraint"
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s string %q: %s", kind, e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid %s string %q", kind, e.Input)
}

// Is makes InvalidVersionError match ErrInvalidVersionString.
func (e *InvalidVersionError) Is(target error) bool {
	return target == ErrInvalidVersionString
}

func invalidVersion(input, reason string) error {
	return &InvalidVersionError{Input: input, Reason: reason}
}

func invalidConstraint(input, reason string) error {
	return &InvalidVersionError{Input: input, Constraint: true, Reason: reason}
}
