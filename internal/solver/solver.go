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

package solver

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/pool"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
)

// Status is the outcome of a resolution.
type Status int

const (
	// Solved means Result.Packages satisfy every rule.
	Solved Status = iota
	// Unsatisfiable means no set of packages satisfies the rules, see
	// Result.Problems.
	Unsatisfiable
	// TimedOut means the step or time budget ran out first.
	TimedOut
	// Cancelled means the context was cancelled.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Unsatisfiable:
		return "unsatisfiable"
	case TimedOut:
		return "timed out"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Stats counts the work done by a resolution, problem reporting included.
type Stats struct {
	Rules        int
	Decisions    int
	Propagations int
	Conflicts    int
	Learned      int
	Duration     time.Duration
}

// Result is what Solve returns. Only the fields matching Status are set.
type Result struct {
	Status Status
	// Packages are the packages to have installed, in pool ID order,
	// platform packages and aliases included.
	Packages []*pkg.Pkg
	Problems []*Problem
	// Rules are the generated rules, without learned ones.
	Rules *rules.RuleSet
	Stats Stats
}

// Solver resolves jobs against one pool. A Solver can run Solve several
// times; each run starts from scratch.
type Solver struct {
	pool     *pool.Pool
	policy   Policy
	maxSteps int
	timeout  time.Duration
	trace    *logrus.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithPolicy sets how candidates are chosen at decisions.
func WithPolicy(p Policy) Option {
	return func(s *Solver) {
		s.policy = p
	}
}

// WithMaxSteps bounds the number of decisions and conflicts of a search.
// Zero means no bound.
func WithMaxSteps(n int) Option {
	return func(s *Solver) {
		s.maxSteps = n
	}
}

// WithTimeout bounds the wall time of Solve. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Solver) {
		s.timeout = d
	}
}

// WithTrace logs every decision, conflict, learned rule and backjump to l at
// debug level.
func WithTrace(l *logrus.Logger) Option {
	return func(s *Solver) {
		s.trace = l
	}
}

// New creates a Solver for p.
func New(p *pool.Pool, opts ...Option) *Solver {
	s := &Solver{pool: p}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve generates the rules for jobs and searches for a solution.
//
// A context deadline is reported as TimedOut, a cancellation as Cancelled;
// neither returns packages.
func (s *Solver) Solve(ctx context.Context, jobs []*rules.Job) *Result {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rs := rules.Generate(s.pool, jobs)
	res := &Result{Rules: rs}
	res.Stats.Rules = rs.Len()
	defer func() {
		res.Stats.Duration = time.Since(start)
	}()

	sr := s.search(ctx, rs, &res.Stats)
	switch st := sr.run(); st {
	case stateSatisfied:
		res.Status = Solved
		res.Packages = sr.installed()
	case stateUnsatisfiable:
		res.Status = Unsatisfiable
		res.Problems = s.problems(ctx, rs, sr.problem(), &res.Stats)
	case stateTimedOut:
		res.Status = TimedOut
	default:
		res.Status = Cancelled
	}
	return res
}

// problems collects the problem of a failed search, then disables its job
// rules and searches again, until the remaining jobs can be satisfied.
// Disabled rules are enabled again before returning.
func (s *Solver) problems(ctx context.Context, rs *rules.RuleSet, first *Problem, stats *Stats) []*Problem {
	var disabled []*rules.Rule
	defer func() {
		for _, r := range disabled {
			r.Enable()
		}
	}()

	problems := []*Problem{first}
	current := first
	for {
		jobRules := current.JobRules()
		if len(jobRules) == 0 {
			break
		}
		for _, r := range jobRules {
			r.Disable()
			disabled = append(disabled, r)
		}

		sr := s.search(ctx, rs, stats)
		if sr.run() != stateUnsatisfiable {
			break
		}
		current = sr.problem()
		problems = append(problems, current)
	}
	return problems
}
