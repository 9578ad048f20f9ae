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
	"strconv"

	"github.com/crillab/gophersat/bf"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
)

// Satisfiable asks gophersat whether the enabled rules of rs can be
// satisfied together. It shares nothing with the search of this package and
// serves as a second opinion on its results.
func Satisfiable(rs *rules.RuleSet) bool {
	f, vars := formula(rs)
	if !vars {
		// gophersat has no model to return for a formula without variables
		return f == nil
	}
	return bf.Solve(f) != nil
}

// formula turns the enabled rules into a conjunction. It reports whether
// any variable occurs; without one, the formula is nil when the rules hold.
func formula(rs *rules.RuleSet) (bf.Formula, bool) {
	clauses := []bf.Formula{bf.True}
	vars, empty := false, false
	for _, r := range rs.All() {
		if r.Disabled() || r.Reason == rules.LearnedClause {
			continue
		}
		if r.IsEmpty() {
			clauses = append(clauses, bf.False)
			empty = true
			continue
		}
		vars = true
		lits := make([]bf.Formula, len(r.Literals))
		for i, l := range r.Literals {
			v := bf.Var(variable(l.ID()))
			if !l.Positive() {
				v = bf.Not(v)
			}
			lits[i] = v
		}
		clauses = append(clauses, bf.Or(lits...))
	}
	if !vars && !empty {
		return nil, false
	}
	return bf.And(clauses...), vars
}

func variable(id int) string {
	return "p" + strconv.Itoa(id)
}

// Violated returns the first enabled rule of rs that is false when exactly
// the given packages are installed, or nil.
func Violated(rs *rules.RuleSet, installed []*pkg.Pkg) *rules.Rule {
	on := map[int]bool{}
	for _, p := range installed {
		on[p.ID] = true
	}
	for _, r := range rs.All() {
		if r.Disabled() || r.Reason == rules.LearnedClause {
			continue
		}
		satisfied := false
		for _, l := range r.Literals {
			if on[l.ID()] == l.Positive() {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return r
		}
	}
	return nil
}

// Verify checks a Solved or Unsatisfiable result against gophersat and
// against its own rules. Other results are not checked.
func Verify(res *Result) error {
	switch res.Status {
	case Solved:
		if r := Violated(res.Rules, res.Packages); r != nil {
			return errors.Errorf("solution violates rule %s", r)
		}
	case Unsatisfiable:
		if Satisfiable(res.Rules) {
			return errors.New("rules reported unsatisfiable have a solution")
		}
	}
	return nil
}
