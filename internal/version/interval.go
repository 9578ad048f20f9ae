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

// versionSet is the set of versions a constraint admits. Numeric versions are
// kept as a union of intervals. Branch versions are unordered, so they are
// tracked by name either as a finite set or as every branch minus a finite set.
type versionSet struct {
	intervals []interval

	cofinite bool
	branches map[string]bool
}

type interval struct {
	lo, hi         Version
	loOpen, hiOpen bool
	loInf, hiInf   bool
}

func (i interval) empty() bool {
	if i.loInf || i.hiInf {
		return false
	}
	cmp := Compare(i.lo, i.hi)
	if cmp > 0 {
		return true
	}
	return cmp == 0 && (i.loOpen || i.hiOpen)
}

func (i interval) intersect(o interval) interval {
	r := i
	if !o.loInf {
		if r.loInf {
			r.lo, r.loOpen, r.loInf = o.lo, o.loOpen, false
		} else if cmp := Compare(o.lo, r.lo); cmp > 0 || (cmp == 0 && o.loOpen) {
			r.lo, r.loOpen = o.lo, o.loOpen
		}
	}
	if !o.hiInf {
		if r.hiInf {
			r.hi, r.hiOpen, r.hiInf = o.hi, o.hiOpen, false
		} else if cmp := Compare(o.hi, r.hi); cmp < 0 || (cmp == 0 && o.hiOpen) {
			r.hi, r.hiOpen = o.hi, o.hiOpen
		}
	}
	return r
}

var fullInterval = interval{loInf: true, hiInf: true}

func everything() versionSet {
	return versionSet{intervals: []interval{fullInterval}, cofinite: true}
}

func (s versionSet) empty() bool {
	for _, i := range s.intervals {
		if !i.empty() {
			return false
		}
	}
	return !s.cofinite && len(s.branches) == 0
}

func (s versionSet) intersect(o versionSet) versionSet {
	r := versionSet{branches: map[string]bool{}}
	for _, a := range s.intervals {
		for _, b := range o.intervals {
			if i := a.intersect(b); !i.empty() {
				r.intervals = append(r.intervals, i)
			}
		}
	}
	switch {
	case s.cofinite && o.cofinite:
		r.cofinite = true
		for n := range s.branches {
			r.branches[n] = true
		}
		for n := range o.branches {
			r.branches[n] = true
		}
	case s.cofinite:
		for n := range o.branches {
			if !s.branches[n] {
				r.branches[n] = true
			}
		}
	case o.cofinite:
		for n := range s.branches {
			if !o.branches[n] {
				r.branches[n] = true
			}
		}
	default:
		for n := range s.branches {
			if o.branches[n] {
				r.branches[n] = true
			}
		}
	}
	return r
}

func (s versionSet) union(o versionSet) versionSet {
	r := versionSet{branches: map[string]bool{}}
	r.intervals = append(append(r.intervals, s.intervals...), o.intervals...)
	switch {
	case s.cofinite && o.cofinite:
		r.cofinite = true
		for n := range s.branches {
			if o.branches[n] {
				r.branches[n] = true
			}
		}
	case s.cofinite:
		r.cofinite = true
		for n := range s.branches {
			if !o.branches[n] {
				r.branches[n] = true
			}
		}
	case o.cofinite:
		r.cofinite = true
		for n := range o.branches {
			if !s.branches[n] {
				r.branches[n] = true
			}
		}
	default:
		for n := range s.branches {
			r.branches[n] = true
		}
		for n := range o.branches {
			r.branches[n] = true
		}
	}
	return r
}

func setOf(c Constraint) versionSet {
	switch t := c.(type) {
	case nil, MatchAll:
		return everything()
	case MatchNone:
		return versionSet{}
	case Exact:
		return pointSet(t.Version)
	case Range:
		return rangeSet(t)
	case MultiAnd:
		s := everything()
		for _, m := range t.Constraints {
			s = s.intersect(setOf(m))
		}
		return s
	case MultiOr:
		s := versionSet{}
		for _, m := range t.Constraints {
			s = s.union(setOf(m))
		}
		return s
	}
	panic("version: unknown constraint type")
}

func pointSet(v Version) versionSet {
	if v.IsBranch() {
		return versionSet{branches: map[string]bool{v.branch: true}}
	}
	return versionSet{intervals: []interval{{lo: v, hi: v}}}
}

func rangeSet(r Range) versionSet {
	v := r.Bound
	switch r.Op {
	case OpEQ:
		return pointSet(v)
	case OpNE:
		if v.IsBranch() {
			return versionSet{
				intervals: []interval{fullInterval},
				cofinite:  true,
				branches:  map[string]bool{v.branch: true},
			}
		}
		return versionSet{
			intervals: []interval{
				{loInf: true, hi: v, hiOpen: true},
				{lo: v, loOpen: true, hiInf: true},
			},
			cofinite: true,
		}
	}
	if v.IsBranch() {
		return versionSet{}
	}
	switch r.Op {
	case OpLT:
		return versionSet{intervals: []interval{{loInf: true, hi: v, hiOpen: true}}}
	case OpLE:
		return versionSet{intervals: []interval{{loInf: true, hi: v}}}
	case OpGT:
		return versionSet{intervals: []interval{{lo: v, loOpen: true, hiInf: true}}}
	case OpGE:
		return versionSet{intervals: []interval{{lo: v, hiInf: true}}}
	}
	panic("version: unknown operator")
}
