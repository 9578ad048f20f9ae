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
	"sort"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Remove is the action for removing requirements from the project.
//
// The named packages are dropped from the manifest and must not be
// installed anymore. Locked packages still pulled in by the remaining
// requirements keep their versions; the others go away.
type Remove struct {
	*Resolve

	// DryRun resolves without writing the manifest or the lock.
	DryRun bool
}

// NewRemove creates a new Remove object with the given configuration.
func NewRemove(cfg *Configuration) *Remove {
	return &Remove{Resolve: &Resolve{Config: cfg}}
}

// Run removes the named requirements.
func (r *Remove) Run(ctx context.Context, names []string) (*Result, error) {
	cfg := r.Config
	m := *cfg.Manifest
	m.Requires = append(m.Requires[:0:0], cfg.Manifest.Requires...)

	removed := map[string]bool{}
	for _, n := range names {
		n = pkg.NormalizeName(n)
		if !m.Drop(n) {
			return nil, errors.Errorf("package %q is not required by the project", n)
		}
		removed[n] = true
	}

	var jobs []*rules.Job
	for _, n := range sortedNames(removed) {
		jobs = append(jobs, &rules.Job{Action: rules.ActionRemove, Name: n, Constraint: version.MatchAll{}})
	}
	jobs = append(jobs, requireJobs(&m, rules.ActionInstall, nil)...)

	var roots []string
	for _, req := range m.Requires {
		roots = append(roots, req.Name)
	}
	kept := reachable(cfg.Lock, roots)
	locked, err := lockJobs(cfg.Lock, func(name string) bool { return kept[name] && !removed[name] })
	if err != nil {
		return nil, err
	}
	jobs = append(jobs, locked...)
	jobs = append(jobs, conflictJobs(&m)...)

	// resolve against the manifest without the removed requirements
	orig := cfg.Manifest
	cfg.Manifest = &m
	res, err := r.Resolve.Run(ctx, jobs, cfg.Lock)
	cfg.Manifest = orig
	if err != nil {
		return nil, err
	}
	if r.DryRun {
		return res, nil
	}

	if err := m.Write(cfg.ManifestPath()); err != nil {
		return nil, err
	}
	cfg.Manifest = &m
	if err := res.Lock.Write(cfg.LockPath()); err != nil {
		return nil, err
	}
	cfg.Lock = res.Lock
	return res, nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
