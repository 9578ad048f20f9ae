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
	"context"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Update is the action for updating the project's packages.
//
// Without names every requirement is resolved again. With names only the
// named packages may change and every other locked package keeps its
// version.
type Update struct {
	*Resolve

	DryRun bool
}

// NewUpdate creates a new Update object with the given configuration.
func NewUpdate(cfg *Configuration) *Update {
	return &Update{Resolve: &Resolve{Config: cfg}}
}

// Run updates the named packages, or all of them, and writes the lock
// unless DryRun is set.
func (u *Update) Run(ctx context.Context, names []string) (*Result, error) {
	cfg := u.Config
	m := cfg.Manifest

	named := map[string]bool{}
	for _, n := range names {
		n = pkg.NormalizeName(n)
		_, required := m.Require(n)
		if !required && cfg.Lock.Get(n) == nil {
			return nil, errors.Errorf("package %q is neither required nor locked", n)
		}
		named[n] = true
	}

	var jobs []*rules.Job
	if len(named) == 0 {
		jobs = requireJobs(m, rules.ActionUpdate, nil)
	} else {
		for _, n := range sortedNames(named) {
			if r, ok := m.Require(n); ok {
				jobs = append(jobs, &rules.Job{Action: rules.ActionUpdate, Name: n, Constraint: r.Constraint, Pretty: r.Pretty})
				continue
			}
			jobs = append(jobs, &rules.Job{Action: rules.ActionUpdate, Name: n, Constraint: version.MatchAll{}})
		}
		jobs = append(jobs, requireJobs(m, rules.ActionInstall, named)...)
		locked, err := lockJobs(cfg.Lock, func(name string) bool { return !named[name] })
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, locked...)
	}
	jobs = append(jobs, conflictJobs(m)...)

	res, err := u.Resolve.Run(ctx, jobs, cfg.Lock)
	if err != nil {
		return nil, err
	}
	if u.DryRun {
		return res, nil
	}
	if err := res.Lock.Write(cfg.LockPath()); err != nil {
		return nil, err
	}
	cfg.Lock = res.Lock
	return res, nil
}
