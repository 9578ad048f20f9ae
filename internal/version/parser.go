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
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	orSplitRe  = regexp.MustCompile(`\s*\|\|?\s*`)
	opSpaceRe  = regexp.MustCompile(`([<>=!~^])\s+`)
	hyphenRe   = regexp.MustCompile(`^(\S+)\s+-\s+(\S+)$`)
	matchAllRe = regexp.MustCompile(`^v?[xX*](?:\.[xX*])*$`)
	numericRe  = regexp.MustCompile(`(?i)^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(.*)$`)
	wildcardRe = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.[xX*])+$`)
	opRe       = regexp.MustCompile(`^(<>|!=|>=?|<=?|==?)?(\S+)$`)
	modifierRe = regexp.MustCompile(`(?i)(?:[._-]?(?:stable|beta|b|rc|alpha|a|patch|pl|p)(?:[.-]?\d+)?)?(?:[.-]?dev)?$`)
	flagRe     = regexp.MustCompile(`(?i)^(.*?)@(stable|rc|beta|alpha|dev)$`)
	aliasRe    = regexp.MustCompile(`^([^,\s#]+)(?:#\S+)?\s+as\s+([^,\s]+)$`)
)

// ParseConstraint parses a constraint expression. It understands `||`
// alternatives, `,` or space separated conjunctions, the comparison
// operators, `*` wildcards, `1.2.*`, hyphen ranges, `~1.2` and `^1.2`.
// Stability flags (`@dev`) and inline aliases (`x as y`) are accepted and
// ignored; ParseRootConstraint reports them.
func ParseConstraint(s string) (Constraint, error) {
	body := strings.TrimSpace(s)
	if m := aliasRe.FindStringSubmatch(body); m != nil {
		body = m[1]
	}
	if body == "" {
		return nil, invalidConstraint(s, "empty")
	}

	var alternatives []Constraint
	for _, group := range orSplitRe.Split(body, -1) {
		if group == "" {
			return nil, invalidConstraint(s, "empty alternative")
		}
		c, err := parseConjunction(group)
		if err != nil {
			return nil, invalidConstraint(s, reasonOf(err))
		}
		alternatives = append(alternatives, c)
	}
	return Union(alternatives...), nil
}

func reasonOf(err error) string {
	if ive, ok := err.(*InvalidVersionError); ok {
		return ive.Reason
	}
	return err.Error()
}

// MustParseConstraint is like ParseConstraint but panics on malformed input.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseConjunction(group string) (Constraint, error) {
	if m := hyphenRe.FindStringSubmatch(group); m != nil {
		return parseHyphen(group, m[1], m[2])
	}
	var atoms []Constraint
	for _, atom := range splitAtoms(group) {
		c, err := parseAtom(atom)
		if err != nil {
			return nil, err
		}
		atoms = append(atoms, c)
	}
	if len(atoms) == 0 {
		return nil, invalidConstraint(group, "empty")
	}
	return Intersect(atoms...), nil
}

func splitAtoms(group string) []string {
	group = opSpaceRe.ReplaceAllString(group, "$1")
	return strings.FieldsFunc(group, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func stripFlagAndRef(atom string) string {
	if m := flagRe.FindStringSubmatch(atom); m != nil {
		atom = m[1]
	}
	if i := strings.Index(atom, "#"); i > 0 {
		atom = atom[:i]
	}
	return atom
}

func parseAtom(raw string) (Constraint, error) {
	atom := stripFlagAndRef(raw)
	if atom == "" {
		return nil, invalidConstraint(raw, "empty")
	}
	if matchAllRe.MatchString(atom) {
		return MatchAll{}, nil
	}

	switch {
	case strings.HasPrefix(atom, "^"):
		return parseCaret(atom[1:])
	case strings.HasPrefix(atom, "~>"):
		return parseTilde(atom[2:])
	case strings.HasPrefix(atom, "~"):
		return parseTilde(atom[1:])
	}

	if m := wildcardRe.FindStringSubmatch(atom); m != nil {
		return parseWildcard(m)
	}

	m := opRe.FindStringSubmatch(atom)
	if m == nil {
		return nil, invalidConstraint(raw, "")
	}
	v, err := Parse(m[2])
	if err != nil {
		return nil, invalidConstraint(raw, "bad version "+strconv.Quote(m[2]))
	}
	switch m[1] {
	case "", "=", "==":
		return Exact{Version: v}, nil
	case "!=", "<>":
		return Range{Op: OpNE, Bound: v}, nil
	case "<":
		if !v.IsBranch() && !hasModifier(m[2]) {
			v = v.withLowestStability()
		}
		return Range{Op: OpLT, Bound: v}, nil
	case ">=":
		if !v.IsBranch() && !hasModifier(m[2]) {
			v = v.withLowestStability()
		}
		return Range{Op: OpGE, Bound: v}, nil
	case "<=":
		return Range{Op: OpLE, Bound: v}, nil
	case ">":
		return Range{Op: OpGT, Bound: v}, nil
	}
	return nil, invalidConstraint(raw, "unknown operator "+m[1])
}

// numericPrefix parses the leading numbers of body and reports how many
// segments were written.
func numericPrefix(body string) ([4]int64, int, bool) {
	var segs [4]int64
	m := numericRe.FindStringSubmatch(body)
	if m == nil {
		return segs, 0, false
	}
	n := 0
	for i := 0; i < 4; i++ {
		if m[i+1] == "" {
			break
		}
		x, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return segs, 0, false
		}
		segs[i] = x
		n++
	}
	return segs, n, true
}

// lowerBound parses body as the inclusive lower end of a range. Without an
// explicit stability the bound starts at the lowest pre-release.
func lowerBound(body string) (Version, error) {
	v, err := Parse(body)
	if err != nil {
		return Version{}, err
	}
	if !hasModifier(body) {
		v = v.withLowestStability()
	}
	return v, nil
}

func parseCaret(body string) (Constraint, error) {
	segs, n, ok := numericPrefix(body)
	if !ok {
		return nil, invalidConstraint("^"+body, "")
	}
	low, err := lowerBound(body)
	if err != nil || low.IsBranch() {
		return nil, invalidConstraint("^"+body, "bad version")
	}
	position := 3
	switch {
	case segs[0] != 0 || n < 2:
		position = 1
	case segs[1] != 0 || n < 3:
		position = 2
	}
	high := devBound(bump(segs, position, 1))
	return Intersect(Range{Op: OpGE, Bound: low}, Range{Op: OpLT, Bound: high}), nil
}

func parseTilde(body string) (Constraint, error) {
	segs, n, ok := numericPrefix(body)
	if !ok {
		return nil, invalidConstraint("~"+body, "")
	}
	low, err := lowerBound(body)
	if err != nil || low.IsBranch() {
		return nil, invalidConstraint("~"+body, "bad version")
	}
	position := n - 1
	if position < 1 {
		position = 1
	}
	high := devBound(bump(segs, position, 1))
	return Intersect(Range{Op: OpGE, Bound: low}, Range{Op: OpLT, Bound: high}), nil
}

func parseWildcard(m []string) (Constraint, error) {
	var segs [4]int64
	position := 0
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			break
		}
		x, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return nil, invalidConstraint(m[0], err.Error())
		}
		segs[i] = x
		position++
	}
	low := devBound(bump(segs, position, 0))
	high := devBound(bump(segs, position, 1))
	if low.segments == ([4]int64{}) {
		return Range{Op: OpLT, Bound: high}, nil
	}
	return Intersect(Range{Op: OpGE, Bound: low}, Range{Op: OpLT, Bound: high}), nil
}

func parseHyphen(group, from, to string) (Constraint, error) {
	low, err := lowerBound(stripFlagAndRef(from))
	if err != nil || low.IsBranch() {
		return nil, invalidConstraint(group, "bad lower bound")
	}
	to = stripFlagAndRef(to)
	segs, n, ok := numericPrefix(to)
	if !ok {
		return nil, invalidConstraint(group, "bad upper bound")
	}
	var upper Constraint
	if n >= 3 || hasModifier(to) {
		high, err := Parse(to)
		if err != nil {
			return nil, invalidConstraint(group, "bad upper bound")
		}
		upper = Range{Op: OpLE, Bound: high}
	} else {
		upper = Range{Op: OpLT, Bound: devBound(bump(segs, n, 1))}
	}
	return Intersect(Range{Op: OpGE, Bound: low}, upper), nil
}

// bump zeroes every segment after position and adds increment to the one at
// position (1-based).
func bump(segs [4]int64, position int, increment int64) [4]int64 {
	for i := range segs {
		switch {
		case i+1 > position:
			segs[i] = 0
		case i+1 == position:
			segs[i] += increment
		}
	}
	return segs
}

func devBound(segs [4]int64) Version {
	return Version{segments: segs, tag: StabilityDev}
}

// hasModifier reports whether a version string names its stability
// explicitly, e.g. 1.0-beta2 or 2.0.x-dev.
func hasModifier(s string) bool {
	loc := modifierRe.FindStringIndex(s)
	return loc != nil && loc[0] < loc[1]
}

// RootAlias maps a required version onto the version it should be treated
// as, e.g. `dev-main as 1.0.x-dev`.
type RootAlias struct {
	Version Version
	Alias   Version
}

// RootConstraint is a requirement written by the user, with the extras only
// root requirements may carry.
type RootConstraint struct {
	Constraint Constraint
	Pretty     string
	// Stability is the loosest stability the requirement asks for, either
	// through an `@flag` or by naming an unstable version. It is only
	// meaningful when Flagged is set.
	Stability Stability
	Flagged   bool
	Alias     *RootAlias
}

// ParseRootConstraint parses a root requirement. On top of ParseConstraint it
// extracts an inline alias and the stability flag the requirement implies.
func ParseRootConstraint(s string) (RootConstraint, error) {
	rc := RootConstraint{Pretty: strings.TrimSpace(s)}
	body := rc.Pretty
	if m := aliasRe.FindStringSubmatch(body); m != nil {
		target, err := Parse(m[1])
		if err != nil {
			return rc, invalidConstraint(s, "bad alias target "+strconv.Quote(m[1]))
		}
		alias, err := Parse(m[2])
		if err != nil {
			return rc, invalidConstraint(s, "bad alias "+strconv.Quote(m[2]))
		}
		rc.Alias = &RootAlias{Version: target, Alias: alias}
		body = m[1]
	}

	c, err := ParseConstraint(body)
	if err != nil {
		return rc, err
	}
	rc.Constraint = c
	rc.Stability, rc.Flagged = impliedStability(body)
	return rc, nil
}

func impliedStability(body string) (Stability, bool) {
	found := false
	loosest := StabilityStable
	note := func(s Stability) {
		if !found || s < loosest {
			loosest = s
		}
		found = true
	}
	for _, group := range orSplitRe.Split(body, -1) {
		for _, atom := range splitAtoms(group) {
			if m := flagRe.FindStringSubmatch(atom); m != nil {
				s, err := ParseStability(m[2])
				if err == nil {
					note(s)
				}
				continue
			}
			if strings.Contains(atom, "#") {
				note(StabilityDev)
				continue
			}
			atom = strings.TrimLeft(atom, "<>=!~^")
			v, err := Parse(atom)
			if err != nil {
				continue
			}
			if s := v.Stability(); s < StabilityStable {
				note(s)
			}
		}
	}
	return loosest, found
}
