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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeMatches(t *testing.T) {
	is := assert.New(t)
	v := MustParse("1.5.0")

	is.True(Range{Op: OpGE, Bound: MustParse("1.0")}.Matches(v))
	is.True(Range{Op: OpLT, Bound: MustParse("2.0")}.Matches(v))
	is.False(Range{Op: OpGT, Bound: MustParse("1.5")}.Matches(v))
	is.True(Range{Op: OpLE, Bound: MustParse("1.5")}.Matches(v))
	is.True(Range{Op: OpNE, Bound: MustParse("1.4")}.Matches(v))
	is.True(Range{Op: OpEQ, Bound: MustParse("1.5.0.0")}.Matches(v))

	branch := MustParse("dev-main")
	is.False(Range{Op: OpGE, Bound: MustParse("0.0.1")}.Matches(branch))
	is.False(Range{Op: OpLT, Bound: MustParse("9.0")}.Matches(branch))
	is.True(Range{Op: OpNE, Bound: MustParse("1.0")}.Matches(branch))
	is.True(Exact{Version: MustParse("dev-main")}.Matches(branch))
	is.False(Exact{Version: MustParse("dev-next")}.Matches(branch))
}

func TestIntersectIdentities(t *testing.T) {
	is := assert.New(t)
	c := Range{Op: OpGE, Bound: MustParse("1.0")}

	is.Equal(c, Intersect(MatchAll{}, c))
	is.Equal(c, Intersect(c, c))
	is.Equal(MatchNone{}, Intersect(c, MatchNone{}))
	is.Equal(MatchAll{}, Intersect())

	is.Equal(c, Union(MatchNone{}, c))
	is.Equal(MatchAll{}, Union(c, MatchAll{}))
	is.Equal(MatchNone{}, Union())
}

func TestIntersectFlattens(t *testing.T) {
	a := Range{Op: OpGE, Bound: MustParse("1.0")}
	b := Range{Op: OpLT, Bound: MustParse("2.0")}
	c := Range{Op: OpNE, Bound: MustParse("1.5")}

	got := Intersect(Intersect(a, b), c)
	assert.Equal(t, MultiAnd{Constraints: []Constraint{a, b, c}}, got)

	got = Union(Union(a, b), Exact{Version: MustParse("3.0")})
	or, ok := got.(MultiOr)
	assert.True(t, ok)
	assert.Len(t, or.Constraints, 3)
}

// Simplification must never change what a constraint matches.
func TestCompositionPreservesMatches(t *testing.T) {
	constraints := []Constraint{
		MustParseConstraint("^1.2"),
		MustParseConstraint("~2.0.1"),
		MustParseConstraint("!=1.5.0"),
		MustParseConstraint("dev-main"),
		MatchAll{},
		MatchNone{},
	}
	for _, a := range constraints {
		for _, b := range constraints {
			and := Intersect(a, b)
			or := Union(a, b)
			for _, s := range orderingCorpus {
				v := MustParse(s)
				assert.Equal(t, a.Matches(v) && b.Matches(v), and.Matches(v), "%s AND %s on %s", a, b, s)
				assert.Equal(t, a.Matches(v) || b.Matches(v), or.Matches(v), "%s OR %s on %s", a, b, s)
			}
		}
	}
}

func TestIntersects(t *testing.T) {
	for _, tcase := range []struct {
		a, b string
		want bool
	}{
		{a: "^1.0", b: "^1.2", want: true},
		{a: "^1.0", b: "^2.0", want: false},
		{a: ">=1.0 <1.5", b: ">=1.5", want: false},
		{a: ">=1.0 <=1.5", b: ">=1.5", want: true},
		{a: "1.2.3", b: "~1.2", want: true},
		{a: "1.2.3", b: "!=1.2.3", want: false},
		{a: "dev-main", b: "^1.0", want: false},
		{a: "dev-main", b: "dev-main || ^1.0", want: true},
		{a: "dev-main", b: "!=dev-main", want: false},
		{a: "dev-main", b: "!=dev-next", want: true},
		{a: "*", b: "dev-feature", want: true},
		{a: "<1.0 || >2.0", b: "1.5", want: false},
		{a: "<1.0 || >2.0", b: "2.1", want: true},
	} {
		a := MustParseConstraint(tcase.a)
		b := MustParseConstraint(tcase.b)
		assert.Equal(t, tcase.want, Intersects(a, b), "%s ∩ %s", tcase.a, tcase.b)
		assert.Equal(t, tcase.want, Intersects(b, a), "%s ∩ %s", tcase.b, tcase.a)
	}
}

func TestIsEmpty(t *testing.T) {
	is := assert.New(t)
	is.True(IsEmpty(MatchNone{}))
	is.True(IsEmpty(MustParseConstraint(">2.0 <1.0")))
	is.False(IsEmpty(MustParseConstraint(">=1.0 <=1.0")))
	is.False(IsEmpty(MatchAll{}))
}

func TestMatchesIsStable(t *testing.T) {
	c := MustParseConstraint("^1.0 || dev-main")
	for _, s := range orderingCorpus {
		v := MustParse(s)
		assert.Equal(t, c.Matches(v), c.Matches(v), s)
	}
}
