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
	"github.com/rancher-sandbox/hypsolve/internal/pool"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
	"github.com/rancher-sandbox/hypsolve/internal/solver"
	"github.com/rancher-sandbox/hypsolve/internal/transaction"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/lock"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
)

// Resolve runs one resolution of the project: it loads the pool, solves
// the jobs and turns the solution into a transaction and a lock.
//
// Install, Update and Remove build their jobs and hand them to Resolve.
type Resolve struct {
	Config *Configuration

	// NoOptimize keeps package versions that can never be selected in the
	// pool.
	NoOptimize bool
	// Verify checks the outcome against an independent SAT solver.
	Verify bool
}

// Result is a successful resolution.
type Result struct {
	// Packages are the selected packages, platform packages and aliases
	// included.
	Packages    []*pkg.Pkg
	Transaction *transaction.Transaction
	Lock        *lock.Lock
	Stats       solver.Stats
	// PoolSize is the number of packages considered, after optimization.
	PoolSize int
}

// Run resolves jobs against the configured repositories, starting from the
// packages and aliases of the installed lock, which may be nil.
//
// Unsatisfiable jobs return an *UnsatisfiableError. Running out of budget
// returns ErrTimedOut and a cancelled ctx returns ErrCancelled.
func (r *Resolve) Run(ctx context.Context, jobs []*rules.Job, installed *lock.Lock) (*Result, error) {
	cfg := r.Config
	m := cfg.Manifest
	logger := cfg.Log

	installedAliases, err := lockedAliases(installed)
	if err != nil {
		return nil, err
	}
	req := pool.Request{
		Installed:        installed.Descriptors(),
		Repositories:     cfg.Repositories,
		Platform:         cfg.Platform,
		RootAliases:      rootAliases(m),
		InstalledAliases: installedAliases,
		MinimumStability: m.MinimumStability,
		StabilityFlags:   m.StabilityFlags(),
	}
	for _, j := range jobs {
		if j.Action != rules.ActionRemove {
			req.Requires = append(req.Requires, pool.Requirement{Name: j.Name, Constraint: j.Constraint})
		}
	}

	p, err := pool.NewBuilder(logger).Build(ctx, req)
	if err != nil {
		switch errors.Cause(err) {
		case context.Canceled:
			return nil, ErrCancelled
		case context.DeadlineExceeded:
			return nil, ErrTimedOut
		}
		return nil, errors.Wrap(err, "couldn't load packages")
	}
	if !r.NoOptimize {
		n := p.Optimize(req.Requires)
		logger.Debugf("Optimizer removed %d packages, %d left", n, p.Len())
	}
	p.DebugPrint(logger)

	s := solver.New(p,
		solver.WithPolicy(solver.Policy{PreferStable: m.PreferStable, PreferLowest: m.PreferLowest}),
		solver.WithMaxSteps(cfg.MaxSteps),
		solver.WithTimeout(cfg.Timeout),
		solver.WithTrace(cfg.Trace),
	)
	for _, j := range jobs {
		logger.Debugf("Job: %s", j)
	}
	res := s.Solve(ctx, jobs)
	logger.Debugf("Solver %s: %d rules, %d decisions, %d conflicts, %d learned rules in %s",
		res.Status, res.Stats.Rules, res.Stats.Decisions, res.Stats.Conflicts, res.Stats.Learned, res.Stats.Duration)

	if r.Verify {
		if err := solver.Verify(res); err != nil {
			return nil, errors.Wrap(err, "verification failed")
		}
		logger.Debug("Outcome verified")
	}

	switch res.Status {
	case solver.Unsatisfiable:
		return nil, &UnsatisfiableError{Problems: res.Problems}
	case solver.TimedOut:
		return nil, ErrTimedOut
	case solver.Cancelled:
		return nil, ErrCancelled
	}

	hash, err := m.ContentHash()
	if err != nil {
		return nil, err
	}
	return &Result{
		Packages:    res.Packages,
		Transaction: transaction.New(append(p.Installed(), p.DroppedAliases()...), res.Packages),
		Lock:        lock.New(hash, res.Packages),
		Stats:       res.Stats,
		PoolSize:    p.Len(),
	}, nil
}

func rootAliases(m *manifest.Manifest) []pool.Alias {
	var aliases []pool.Alias
	for _, r := range m.Requires {
		if r.Alias != nil {
			aliases = append(aliases, pool.Alias{Name: r.Name, Version: r.Alias.Version, Alias: r.Alias.Alias})
		}
	}
	return aliases
}

// lockedAliases returns the aliases recorded in l.
func lockedAliases(l *lock.Lock) ([]pool.Alias, error) {
	if l == nil {
		return nil, nil
	}
	aliases := make([]pool.Alias, 0, len(l.Aliases))
	for _, e := range l.Aliases {
		v, err := version.Parse(e.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "locked alias of %s", e.Name)
		}
		av, err := version.Parse(e.Alias)
		if err != nil {
			return nil, errors.Wrapf(err, "locked alias of %s", e.Name)
		}
		aliases = append(aliases, pool.Alias{Name: e.Name, Version: v, Alias: av})
	}
	return aliases, nil
}

// requireJobs asks for every requirement of m, except the skipped names.
func requireJobs(m *manifest.Manifest, action rules.Action, skip map[string]bool) []*rules.Job {
	var jobs []*rules.Job
	for _, r := range m.Requires {
		if skip[r.Name] {
			continue
		}
		jobs = append(jobs, &rules.Job{Action: action, Name: r.Name, Constraint: r.Constraint, Pretty: r.Pretty})
	}
	return jobs
}

// conflictJobs forbids the versions the conflict table of m names.
func conflictJobs(m *manifest.Manifest) []*rules.Job {
	var jobs []*rules.Job
	for _, r := range m.Conflicts {
		jobs = append(jobs, &rules.Job{Action: rules.ActionRemove, Name: r.Name, Constraint: r.Constraint, Pretty: r.Pretty})
	}
	return jobs
}

// lockJobs keeps the locked version of every entry of l named in keep, or
// of every entry when keep is nil.
func lockJobs(l *lock.Lock, keep func(name string) bool) ([]*rules.Job, error) {
	if l == nil {
		return nil, nil
	}
	var jobs []*rules.Job
	for _, e := range l.Packages {
		if keep != nil && !keep(e.Name) {
			continue
		}
		v, err := version.Parse(e.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "locked package %s", e.Name)
		}
		jobs = append(jobs, &rules.Job{Action: rules.ActionLock, Name: e.Name, Constraint: version.Exact{Version: v}, Pretty: e.Version})
	}
	return jobs, nil
}

// reachable returns the names the given roots pull in, following the
// requires of the lock entries. Entries providing or replacing a reached
// name are reached too.
func reachable(l *lock.Lock, roots []string) map[string]bool {
	seen := map[string]bool{}
	if l == nil {
		return seen
	}
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := pkg.NormalizeName(queue[0])
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		for _, e := range l.Packages {
			if e.Name != name && e.Provides[name] == "" && e.Replaces[name] == "" {
				continue
			}
			seen[e.Name] = true
			for dep := range e.Requires {
				queue = append(queue, dep)
			}
		}
	}
	return seen
}
