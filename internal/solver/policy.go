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
	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Policy decides which package a rule gets when it has several candidates.
//
// A package carrying the requested name always wins over packages that only
// provide or replace it. Then, with PreferStable, the more stable package
// wins. Between versions of one name the highest wins, or the lowest with
// PreferLowest. Anything else is settled by name, then by pool ID.
type Policy struct {
	PreferStable bool
	PreferLowest bool
}

func (p Policy) choose(candidates []*pkg.Pkg, requested string) *pkg.Pkg {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if p.better(c, best, requested) {
			best = c
		}
	}
	return best
}

func (p Policy) better(a, b *pkg.Pkg, requested string) bool {
	if ra, rb := a.Name == requested, b.Name == requested; ra != rb {
		return ra
	}
	if p.PreferStable {
		if c := version.CompareStability(a.Stability, b.Stability); c != 0 {
			return c > 0
		}
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if c := version.Compare(a.Version, b.Version); c != 0 {
		if p.PreferLowest {
			return c < 0
		}
		return c > 0
	}
	return a.ID < b.ID
}
