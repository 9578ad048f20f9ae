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

	"github.com/sirupsen/logrus"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
)

type state int

const (
	statePropagating state = iota
	stateDeciding
	stateConflict
	stateBacktracking
	stateSatisfied
	stateUnsatisfiable
	stateTimedOut
	stateCancelled
)

var stateNames = [...]string{
	"propagating",
	"deciding",
	"conflict",
	"backtracking",
	"satisfied",
	"unsatisfiable",
	"timed out",
	"cancelled",
}

func (s state) String() string {
	return stateNames[s]
}

// clause is a rule as seen by propagation: lits[0] and lits[1] are watched.
type clause struct {
	rule *rules.Rule
	lits []rules.Literal
}

// search is one run of the CDCL loop over a copy of the rule set. Package
// values are indexed by pool ID: 1 installed, -1 not installed, 0 undecided.
type search struct {
	solver *Solver
	ctx    context.Context
	rules  *rules.RuleSet
	stats  *Stats

	values  []int8
	levels  []int
	reasons []*rules.Rule
	// watches is indexed by watchIndex(literal)
	watches [][]*clause

	trail    []rules.Literal
	trailLim []int
	propHead int
	steps    int

	conflict  *rules.Rule
	learned   *rules.Rule
	backLevel int
}

func (s *Solver) search(ctx context.Context, rs *rules.RuleSet, stats *Stats) *search {
	n := s.pool.Len() + 1
	return &search{
		solver:  s,
		ctx:     ctx,
		rules:   rs.Clone(),
		stats:   stats,
		values:  make([]int8, n),
		levels:  make([]int, n),
		reasons: make([]*rules.Rule, n),
		watches: make([][]*clause, 2*n),
	}
}

func watchIndex(l rules.Literal) int {
	if l.Positive() {
		return 2 * l.ID()
	}
	return 2*l.ID() + 1
}

// run drives the state machine until a final state.
func (sr *search) run() state {
	st := statePropagating
	if c := sr.init(); c != nil {
		sr.conflict = c
		st = stateConflict
	}

	for {
		switch st {
		case statePropagating:
			if c := sr.propagate(); c != nil {
				sr.conflict = c
				st = stateConflict
				continue
			}
			st = stateDeciding

		case stateDeciding:
			lit, why, ok := sr.selectLiteral()
			if !ok {
				st = stateSatisfied
				continue
			}
			if st = sr.checkBudget(); st != stateDeciding {
				continue
			}
			sr.decide(lit, why)
			st = statePropagating

		case stateConflict:
			sr.steps++
			sr.stats.Conflicts++
			if sr.level() == 0 {
				if sr.tracing() {
					sr.trace(logrus.Fields{"rule": sr.format(sr.conflict)}, "conflict at level 0")
				}
				st = stateUnsatisfiable
				continue
			}
			sr.analyze()
			st = stateBacktracking

		case stateBacktracking:
			if sr.tracing() {
				sr.trace(logrus.Fields{
					"from":    sr.level(),
					"to":      sr.backLevel,
					"learned": sr.format(sr.learned),
				}, "backjump")
			}
			sr.backjump(sr.backLevel)
			sr.learn()
			st = statePropagating

		default:
			return st
		}
	}
}

// init watches every enabled rule and asserts unit rules at level 0. It
// returns a rule that is already violated, if any.
func (sr *search) init() *rules.Rule {
	all := sr.rules.All()
	for _, r := range all {
		if r.Disabled() {
			continue
		}
		switch len(r.Literals) {
		case 0:
			return r
		case 1:
		default:
			sr.watch(&clause{rule: r, lits: append([]rules.Literal(nil), r.Literals...)})
		}
	}
	for _, r := range all {
		if r.Disabled() || !r.IsAssertion() {
			continue
		}
		l := r.Literals[0]
		switch sr.value(l) {
		case -1:
			return r
		case 0:
			sr.assign(l, r)
		}
	}
	return nil
}

func (sr *search) watch(c *clause) {
	for _, l := range c.lits[:2] {
		i := watchIndex(l)
		sr.watches[i] = append(sr.watches[i], c)
	}
}

func (sr *search) value(l rules.Literal) int8 {
	v := sr.values[l.ID()]
	if !l.Positive() {
		return -v
	}
	return v
}

func (sr *search) level() int {
	return len(sr.trailLim)
}

func (sr *search) assign(l rules.Literal, reason *rules.Rule) {
	id := l.ID()
	if l.Positive() {
		sr.values[id] = 1
	} else {
		sr.values[id] = -1
	}
	sr.levels[id] = sr.level()
	sr.reasons[id] = reason
	sr.trail = append(sr.trail, l)
}

func (sr *search) decide(l rules.Literal, why *rules.Rule) {
	sr.steps++
	sr.stats.Decisions++
	sr.trailLim = append(sr.trailLim, len(sr.trail))
	sr.assign(l, nil)
	if sr.tracing() {
		sr.trace(logrus.Fields{
			"depth":   sr.level(),
			"package": sr.solver.pool.PackageByID(l.ID()).String(),
			"rule":    sr.format(why),
		}, "decide")
	}
}

// propagate assigns every literal forced by a rule until nothing changes,
// and returns the first rule found with all literals false.
func (sr *search) propagate() *rules.Rule {
	for sr.propHead < len(sr.trail) {
		falsified := sr.trail[sr.propHead].Negate()
		sr.propHead++

		idx := watchIndex(falsified)
		ws := sr.watches[idx]
		kept := ws[:0]
		for i, c := range ws {
			if c.lits[0] == falsified {
				c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
			}
			if sr.value(c.lits[0]) > 0 {
				kept = append(kept, c)
				continue
			}

			moved := false
			for k := 2; k < len(c.lits); k++ {
				if sr.value(c.lits[k]) >= 0 {
					c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
					j := watchIndex(c.lits[1])
					sr.watches[j] = append(sr.watches[j], c)
					moved = true
					break
				}
			}
			if moved {
				continue
			}

			kept = append(kept, c)
			if sr.value(c.lits[0]) < 0 {
				kept = append(kept, ws[i+1:]...)
				sr.watches[idx] = kept
				return c.rule
			}
			sr.stats.Propagations++
			sr.assign(c.lits[0], c.rule)
		}
		sr.watches[idx] = kept
	}
	return nil
}

// analyze resolves the conflict rule with the reasons of the current level
// until one literal of that level is left, and prepares the learned rule and
// the level to jump back to.
func (sr *search) analyze() {
	current := sr.level()
	seen := make([]bool, len(sr.values))
	learnt := []rules.Literal{0}
	why := []*rules.Rule{sr.conflict}

	var uip rules.Literal
	r := sr.conflict
	open := 0
	idx := len(sr.trail) - 1
	for {
		for _, l := range r.Literals {
			id := l.ID()
			if seen[id] || sr.levels[id] == 0 {
				continue
			}
			seen[id] = true
			if sr.levels[id] == current {
				open++
			} else {
				learnt = append(learnt, l)
			}
		}

		for !seen[sr.trail[idx].ID()] {
			idx--
		}
		uip = sr.trail[idx]
		idx--
		open--
		if open == 0 {
			break
		}
		r = sr.reasons[uip.ID()]
		why = append(why, r)
	}
	learnt[0] = uip.Negate()

	// the highest remaining level goes second, to be watched
	sr.backLevel = 0
	for i := 1; i < len(learnt); i++ {
		if lv := sr.levels[learnt[i].ID()]; lv > sr.backLevel {
			sr.backLevel = lv
			learnt[1], learnt[i] = learnt[i], learnt[1]
		}
	}

	sr.learned = rules.NewRule(learnt, rules.LearnedClause)
	sr.learned.Why = why
}

// backjump undoes every assignment above level.
func (sr *search) backjump(level int) {
	if level >= sr.level() {
		return
	}
	start := sr.trailLim[level]
	for i := len(sr.trail) - 1; i >= start; i-- {
		id := sr.trail[i].ID()
		sr.values[id] = 0
		sr.levels[id] = 0
		sr.reasons[id] = nil
	}
	sr.trail = sr.trail[:start]
	sr.trailLim = sr.trailLim[:level]
	sr.propHead = len(sr.trail)
}

// learn adds the learned rule and asserts its first literal.
func (sr *search) learn() {
	r := sr.rules.Add(sr.learned)
	sr.stats.Learned++
	if len(r.Literals) > 1 {
		sr.watch(&clause{rule: r, lits: append([]rules.Literal(nil), r.Literals...)})
	}
	sr.assign(r.Literals[0], r)
}

func (sr *search) checkBudget() state {
	switch sr.ctx.Err() {
	case nil:
	case context.DeadlineExceeded:
		return stateTimedOut
	default:
		return stateCancelled
	}
	if max := sr.solver.maxSteps; max > 0 && sr.steps >= max {
		return stateTimedOut
	}
	return stateDeciding
}

// selectLiteral finds the first rule that needs a package installed and asks
// the policy which one. Rules that can still be satisfied by leaving a
// package out need no decision.
func (sr *search) selectLiteral() (rules.Literal, *rules.Rule, bool) {
	groups := [][]*rules.Rule{
		sr.rules.JobRules(),
		sr.rules.PackageRules(),
		sr.rules.LearnedRules(),
	}
	for _, group := range groups {
		for _, r := range group {
			if r.Disabled() {
				continue
			}
			candidates := sr.candidates(r)
			if len(candidates) == 0 {
				continue
			}
			best := sr.solver.policy.choose(candidates, requestedName(r))
			return rules.Install(best.ID), r, true
		}
	}
	return 0, nil, false
}

func (sr *search) candidates(r *rules.Rule) []*pkg.Pkg {
	var candidates []*pkg.Pkg
	for _, l := range r.Literals {
		v := sr.value(l)
		switch {
		case v > 0:
			return nil
		case !l.Positive():
			if v == 0 {
				return nil
			}
		case v == 0:
			candidates = append(candidates, sr.solver.pool.PackageByID(l.ID()))
		}
	}
	return candidates
}

func requestedName(r *rules.Rule) string {
	switch {
	case r.Job != nil:
		return pkg.NormalizeName(r.Job.Name)
	case r.Link != nil:
		return r.Link.Target
	}
	return ""
}

// installed returns the packages assigned true.
func (sr *search) installed() []*pkg.Pkg {
	var out []*pkg.Pkg
	for id := 1; id < len(sr.values); id++ {
		if sr.values[id] > 0 {
			out = append(out, sr.solver.pool.PackageByID(id))
		}
	}
	return out
}

func (sr *search) format(r *rules.Rule) string {
	if r == nil {
		return ""
	}
	return r.Format(sr.solver.pool)
}

func (sr *search) tracing() bool {
	return sr.solver.trace != nil && sr.solver.trace.Level >= logrus.DebugLevel
}

func (sr *search) trace(fields logrus.Fields, msg string) {
	sr.solver.trace.WithFields(fields).Debug(msg)
}
