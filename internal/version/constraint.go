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
	"strings"
)

// Op is the comparison operator of a Range constraint.
type Op int

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

var opStrings = map[Op]string{
	OpEQ: "==",
	OpNE: "!=",
	OpLT: "<",
	OpLE: "<=",
	OpGT: ">",
	OpGE: ">=",
}

func (o Op) String() string {
	return opStrings[o]
}

// Constraint is a predicate over versions. The set of implementations is
// closed: Exact, Range, MultiAnd, MultiOr, MatchAll and MatchNone.
type Constraint interface {
	Matches(v Version) bool
	String() string
	isConstraint()
}

// Exact matches a single version.
type Exact struct {
	Version Version
}

// Range compares candidates against Bound with Op.
type Range struct {
	Op    Op
	Bound Version
}

// MultiAnd matches when every member matches.
type MultiAnd struct {
	Constraints []Constraint
}

// MultiOr matches when any member matches.
type MultiOr struct {
	Constraints []Constraint
}

// MatchAll matches every version.
type MatchAll struct{}

// MatchNone matches nothing.
type MatchNone struct{}

func (Exact) isConstraint()     {}
func (Range) isConstraint()     {}
func (MultiAnd) isConstraint()  {}
func (MultiOr) isConstraint()   {}
func (MatchAll) isConstraint()  {}
func (MatchNone) isConstraint() {}

func (c Exact) Matches(v Version) bool {
	return Compare(v, c.Version) == 0
}

func (c Exact) String() string {
	return "== " + c.Version.Normalized()
}

// Matches compares v with the bound. Branch versions only take part in
// equality checks: no ordering range ever contains a branch.
func (c Range) Matches(v Version) bool {
	cmp := Compare(v, c.Bound)
	switch c.Op {
	case OpEQ:
		return cmp == 0
	case OpNE:
		return cmp != 0
	}
	if v.IsBranch() || c.Bound.IsBranch() {
		return false
	}
	switch c.Op {
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpGE:
		return cmp >= 0
	}
	panic("version: unknown operator")
}

func (c Range) String() string {
	return c.Op.String() + " " + c.Bound.Normalized()
}

func (c MultiAnd) Matches(v Version) bool {
	for _, m := range c.Constraints {
		if !m.Matches(v) {
			return false
		}
	}
	return true
}

func (c MultiAnd) String() string {
	parts := make([]string, len(c.Constraints))
	for i, m := range c.Constraints {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c MultiOr) Matches(v Version) bool {
	for _, m := range c.Constraints {
		if m.Matches(v) {
			return true
		}
	}
	return false
}

func (c MultiOr) String() string {
	parts := make([]string, len(c.Constraints))
	for i, m := range c.Constraints {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " || ") + "]"
}

func (MatchAll) Matches(Version) bool { return true }
func (MatchAll) String() string       { return "*" }

func (MatchNone) Matches(Version) bool { return false }
func (MatchNone) String() string       { return "[]" }

// Intersect returns a constraint matching the versions matched by every
// argument. MatchAll members are dropped, a MatchNone member wins and nested
// MultiAnd constraints are flattened.
func Intersect(cs ...Constraint) Constraint {
	var flat []Constraint
	seen := map[string]bool{}
	for _, c := range cs {
		var members []Constraint
		switch t := c.(type) {
		case nil, MatchAll:
			continue
		case MatchNone:
			return MatchNone{}
		case MultiAnd:
			members = t.Constraints
		default:
			members = []Constraint{c}
		}
		for _, m := range members {
			if seen[m.String()] {
				continue
			}
			seen[m.String()] = true
			flat = append(flat, m)
		}
	}
	switch len(flat) {
	case 0:
		return MatchAll{}
	case 1:
		return flat[0]
	}
	return MultiAnd{Constraints: flat}
}

// Union returns a constraint matching the versions matched by any argument.
// MatchNone members are dropped, a MatchAll member wins and nested MultiOr
// constraints are flattened.
func Union(cs ...Constraint) Constraint {
	var flat []Constraint
	seen := map[string]bool{}
	for _, c := range cs {
		var members []Constraint
		switch t := c.(type) {
		case nil, MatchNone:
			continue
		case MatchAll:
			return MatchAll{}
		case MultiOr:
			members = t.Constraints
		default:
			members = []Constraint{c}
		}
		for _, m := range members {
			if seen[m.String()] {
				continue
			}
			seen[m.String()] = true
			flat = append(flat, m)
		}
	}
	switch len(flat) {
	case 0:
		return MatchNone{}
	case 1:
		return flat[0]
	}
	return MultiOr{Constraints: flat}
}

// Intersects reports whether at least one version satisfies both a and b.
func Intersects(a, b Constraint) bool {
	return !setOf(a).intersect(setOf(b)).empty()
}

// IsEmpty reports whether c can never match.
func IsEmpty(c Constraint) bool {
	return setOf(c).empty()
}
