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

// Package version implements the version and constraint model used by the
// resolver: free-form version strings normalized into a totally ordered
// value, and constraints as composable predicates over that order.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// wildcard is the value a `x` segment of a branch version expands to.
const wildcard = 9999999

var (
	classicalRe = regexp.MustCompile(`(?i)^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?` +
		`(?:[._-]?(stable|beta|b|rc|alpha|a|patch|pl|p)(?:[.-]?(\d+))?)?([.-]?dev)?$`)
	branchRe = regexp.MustCompile(`(?i)^v?(\d+)(?:\.(\d+|[x*]))?(?:\.(\d+|[x*]))?(?:\.(\d+|[x*]))?[.-]?dev$`)
)

// Version is an immutable, normalized version. The zero value is not a valid
// version; use Parse or MustParse.
type Version struct {
	segments [4]int64
	tag      Stability
	index    int64
	// dev marks a `-dev` suffix after an explicit tag, e.g. 1.0.0-beta2-dev.
	dev    bool
	branch string
	pretty string
}

// Parse normalizes s into a Version. Partial versions are padded with zeros,
// `dev-<name>` is a branch version and `1.2.x-dev` a wildcard branch.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, invalidVersion(s, "empty")
	}
	// build metadata never takes part in ordering
	if i := strings.Index(raw, "+"); i > 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "#"); i > 0 {
		raw = raw[:i]
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "dev-") {
		name := raw[len("dev-"):]
		if name == "" || strings.ContainsAny(name, " ,|") {
			return Version{}, invalidVersion(s, "bad branch name")
		}
		return Version{tag: StabilityDev, branch: name, pretty: strings.TrimSpace(s)}, nil
	}

	if m := classicalRe.FindStringSubmatch(raw); m != nil {
		v := Version{tag: StabilityStable, pretty: strings.TrimSpace(s)}
		for i := 0; i < 4; i++ {
			if m[i+1] == "" {
				continue
			}
			n, err := strconv.ParseInt(m[i+1], 10, 64)
			if err != nil {
				return Version{}, invalidVersion(s, err.Error())
			}
			v.segments[i] = n
		}
		if m[5] != "" {
			tag, err := ParseStability(m[5])
			if err != nil {
				return Version{}, invalidVersion(s, err.Error())
			}
			v.tag = tag
			if m[6] != "" {
				n, err := strconv.ParseInt(m[6], 10, 64)
				if err != nil {
					return Version{}, invalidVersion(s, err.Error())
				}
				v.index = n
			}
		}
		if m[7] != "" {
			if m[5] == "" {
				v.tag = StabilityDev
			} else {
				v.dev = true
			}
		}
		return v, nil
	}

	if m := branchRe.FindStringSubmatch(raw); m != nil {
		v := Version{tag: StabilityDev, pretty: strings.TrimSpace(s)}
		for i := 0; i < 4; i++ {
			seg := m[i+1]
			if seg == "" || seg == "x" || seg == "X" || seg == "*" {
				v.segments[i] = wildcard
				continue
			}
			n, err := strconv.ParseInt(seg, 10, 64)
			if err != nil {
				return Version{}, invalidVersion(s, err.Error())
			}
			v.segments[i] = n
		}
		return v, nil
	}

	return Version{}, invalidVersion(s, "")
}

// MustParse is like Parse but panics on malformed input. It is meant for
// tests and literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Stability returns the stability tier the version belongs to.
func (v Version) Stability() Stability {
	if v.dev {
		return StabilityDev
	}
	return v.tag
}

// IsBranch reports whether v is a `dev-<name>` branch version.
func (v Version) IsBranch() bool {
	return v.branch != ""
}

// Branch returns the branch name of a branch version.
func (v Version) Branch() string {
	return v.branch
}

// Segments returns the four normalized numeric segments.
func (v Version) Segments() [4]int64 {
	return v.segments
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String returns the version as it was written.
func (v Version) String() string {
	if v.pretty != "" {
		return v.pretty
	}
	return v.Normalized()
}

// Normalized returns the canonical form, e.g. 1.2.0.0-beta4 or dev-main.
// Two versions compare equal exactly when their normalized forms are equal.
func (v Version) Normalized() string {
	if v.IsBranch() {
		return "dev-" + v.branch
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d.%d", v.segments[0], v.segments[1], v.segments[2], v.segments[3])
	// a stable tag is only spelled out when it carries something
	if v.tag != StabilityStable || v.index > 0 || v.dev {
		sb.WriteString("-")
		sb.WriteString(v.tag.String())
		if v.index > 0 {
			sb.WriteString(strconv.FormatInt(v.index, 10))
		}
	}
	if v.dev {
		sb.WriteString("-dev")
	}
	return sb.String()
}

// withLowestStability returns v moved to the bottom of its release, so that
// every pre-release of the same numbers sorts above it.
func (v Version) withLowestStability() Version {
	v.tag = StabilityDev
	v.index = 0
	v.dev = false
	v.pretty = ""
	return v
}

// Compare returns -1, 0 or 1 when a is lower than, equal to or greater than
// b. Branch versions sort below every numeric version.
func Compare(a, b Version) int {
	switch {
	case a.IsBranch() && b.IsBranch():
		return strings.Compare(a.branch, b.branch)
	case a.IsBranch():
		return -1
	case b.IsBranch():
		return 1
	}
	for i := 0; i < 4; i++ {
		if c := cmpInt(a.segments[i], b.segments[i]); c != 0 {
			return c
		}
	}
	if c := cmpInt(int64(a.tag), int64(b.tag)); c != 0 {
		return c
	}
	if c := cmpInt(a.index, b.index); c != 0 {
		return c
	}
	switch {
	case a.dev == b.dev:
		return 0
	case a.dev:
		return -1
	}
	return 1
}

// Equal reports whether a and b compare equal.
func Equal(a, b Version) bool {
	return Compare(a, b) == 0
}

// Less reports whether a sorts before b.
func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Collection sorts versions in ascending order.
type Collection []Version

func (c Collection) Len() int           { return len(c) }
func (c Collection) Less(i, j int) bool { return Compare(c[i], c[j]) < 0 }
func (c Collection) Swap(i, j int)      { c[i], c[j] = c[j], c[i] }
