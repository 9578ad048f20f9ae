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

	"github.com/pkg/errors"
)

// Stability is the stability tier of a version. Tiers are ordered from the
// least to the most stable, so a version is acceptable for a minimum
// stability when its tier is greater or equal.
type Stability int

const (
	StabilityDev Stability = iota
	StabilityAlpha
	StabilityBeta
	StabilityRC
	StabilityStable
	// StabilityPatch ranks above stable for ordering, and counts as stable
	// for eligibility.
	StabilityPatch
)

var stabilityNames = map[Stability]string{
	StabilityDev:    "dev",
	StabilityAlpha:  "alpha",
	StabilityBeta:   "beta",
	StabilityRC:     "RC",
	StabilityStable: "stable",
	StabilityPatch:  "patch",
}

func (s Stability) String() string {
	if n, ok := stabilityNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseStability parses a stability keyword, as used by minimum-stability
// settings and by `@flag` suffixes on root constraints.
func ParseStability(s string) (Stability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev":
		return StabilityDev, nil
	case "a", "alpha":
		return StabilityAlpha, nil
	case "b", "beta":
		return StabilityBeta, nil
	case "rc":
		return StabilityRC, nil
	case "", "stable":
		return StabilityStable, nil
	case "p", "pl", "patch":
		return StabilityPatch, nil
	}
	return StabilityStable, errors.Errorf("unknown stability %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stability) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stability) UnmarshalText(text []byte) error {
	parsed, err := ParseStability(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Stability) eligibility() Stability {
	if s == StabilityPatch {
		return StabilityStable
	}
	return s
}

// AcceptableStability reports whether a package called name with the given
// stability may enter the pool. A per-package flag replaces the minimum
// stability for that name.
func AcceptableStability(minimum Stability, flags map[string]Stability, name string, s Stability) bool {
	if flag, ok := flags[name]; ok {
		minimum = flag
	}
	return s.eligibility() >= minimum.eligibility()
}

// CompareStability orders stabilities from least to most stable, counting
// patch releases as stable.
func CompareStability(a, b Stability) int {
	a, b = a.eligibility(), b.eligibility()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
