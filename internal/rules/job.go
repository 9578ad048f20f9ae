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

package rules

import (
	"fmt"

	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Action is what a job asks for.
type Action int

const (
	// ActionInstall asks for one version of a package to be installed.
	ActionInstall Action = iota
	// ActionUpdate is ActionInstall for a package that may already be
	// installed at another version.
	ActionUpdate
	// ActionRemove asks for every matching version to be absent.
	ActionRemove
	// ActionLock keeps the installed version of a package.
	ActionLock
)

func (a Action) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionUpdate:
		return "update"
	case ActionRemove:
		return "remove"
	case ActionLock:
		return "lock"
	}
	return "unknown"
}

// Job is a request from the user.
type Job struct {
	Action     Action
	Name       string
	Constraint version.Constraint
	// Pretty is the constraint as the user wrote it, for reports.
	Pretty string
}

func (j *Job) String() string {
	pretty := j.Pretty
	if pretty == "" {
		pretty = j.Constraint.String()
	}
	return fmt.Sprintf("%s %s %s", j.Action, j.Name, pretty)
}
