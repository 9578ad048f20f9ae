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

/*
Package pool holds every package version the solver may consider for one
resolution.

A Pool is built once by a Builder, which loads package metadata from the
repositories transitively, starting at the root requirements. Once built the
pool is read-only: packages get IDs 1..n, which are the variables the rules
and the solver work with.

Besides the packages themselves the pool keeps the versions that were left
out because of their stability, so that problem reports can mention them.
*/
package pool

import (
	"sort"

	"github.com/Masterminds/log-go"
	"github.com/armon/go-radix"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Requirement is a package name and the versions of it that are wanted.
type Requirement struct {
	Name       string
	Constraint version.Constraint
}

func (r Requirement) String() string {
	return r.Name + " " + r.Constraint.String()
}

// Pool implements a database of 2 keys (ID, fingerprint) and 1 value
// (*pkg.Pkg), with lookups by name and by provided name.
//
// The ID key starts at 1, as literals are signed IDs and cannot be 0.
//
// A Pool is not safe for concurrent use: WhatProvides fills a cache.
type Pool struct {
	packages            []*pkg.Pkg
	mapFingerprintToPkg map[string]*pkg.Pkg
	// name -> versions, highest first
	mapNameToPkgs map[string][]*pkg.Pkg
	// provided or replaced name -> packages declaring it
	mapProvidedToPkgs map[string][]*pkg.Pkg
	rejected          map[string][]*pkg.Pkg
	names             *radix.Tree
	// installed aliases nothing declares any more, outside of the pool
	droppedAliases []*pkg.Pkg

	whatProvidesCache map[string][]*pkg.Pkg
}

// New creates a pool from packages, in the given order. Packages repeating an
// earlier fingerprint are dropped.
func New(packages []*pkg.Pkg, rejected []*pkg.Pkg) *Pool {
	p := &Pool{
		mapFingerprintToPkg: map[string]*pkg.Pkg{},
		rejected:            map[string][]*pkg.Pkg{},
	}
	for _, pk := range packages {
		fp := pk.GetFingerPrint()
		if _, ok := p.mapFingerprintToPkg[fp]; ok {
			continue
		}
		p.mapFingerprintToPkg[fp] = pk
		p.packages = append(p.packages, pk)
	}
	for _, r := range rejected {
		p.rejected[r.Name] = append(p.rejected[r.Name], r)
	}
	for _, rs := range p.rejected {
		sort.Stable(pkg.ByNameVersion(rs))
	}
	p.reindex()
	return p
}

// reindex assigns IDs in package order and rebuilds every lookup table.
func (p *Pool) reindex() {
	p.mapNameToPkgs = map[string][]*pkg.Pkg{}
	p.mapProvidedToPkgs = map[string][]*pkg.Pkg{}
	p.whatProvidesCache = map[string][]*pkg.Pkg{}
	p.names = radix.New()

	for i, pk := range p.packages {
		pk.ID = i + 1
		p.mapNameToPkgs[pk.Name] = append(p.mapNameToPkgs[pk.Name], pk)
		p.names.Insert(pk.Name, struct{}{})
		for _, l := range pk.Provides {
			p.mapProvidedToPkgs[l.Target] = appendOnce(p.mapProvidedToPkgs[l.Target], pk)
		}
		for _, l := range pk.Replaces {
			p.mapProvidedToPkgs[l.Target] = appendOnce(p.mapProvidedToPkgs[l.Target], pk)
		}
	}
	for _, pkgs := range p.mapNameToPkgs {
		sort.Stable(pkg.ByNameVersion(pkgs))
	}
}

func appendOnce(pkgs []*pkg.Pkg, pk *pkg.Pkg) []*pkg.Pkg {
	if n := len(pkgs); n > 0 && pkgs[n-1] == pk {
		return pkgs
	}
	return append(pkgs, pk)
}

// Len returns the number of packages.
func (p *Pool) Len() int {
	return len(p.packages)
}

// Packages returns every package, in ID order.
func (p *Pool) Packages() []*pkg.Pkg {
	return p.packages
}

// PackageByID returns the package with the given ID. An unknown ID is a
// programming error and panics.
func (p *Pool) PackageByID(id int) *pkg.Pkg {
	if id < 1 || id > len(p.packages) {
		panic("pool: unknown package id")
	}
	return p.packages[id-1]
}

// GetPackageByFingerprint returns the package with the given fingerprint, or
// nil.
func (p *Pool) GetPackageByFingerprint(fp string) *pkg.Pkg {
	return p.mapFingerprintToPkg[fp]
}

// PackagesByName returns the versions of a package, highest first.
func (p *Pool) PackagesByName(name string) []*pkg.Pkg {
	return p.mapNameToPkgs[pkg.NormalizeName(name)]
}

// DroppedAliases returns the installed aliases whose declaration went away.
// They are not part of the pool, so they are never selected.
func (p *Pool) DroppedAliases() []*pkg.Pkg {
	return p.droppedAliases
}

// Rejected returns the versions of name that were left out for being less
// stable than allowed, highest first.
func (p *Pool) Rejected(name string) []*pkg.Pkg {
	return p.rejected[pkg.NormalizeName(name)]
}

// Installed returns the installed packages, in ID order.
func (p *Pool) Installed() []*pkg.Pkg {
	var installed []*pkg.Pkg
	for _, pk := range p.packages {
		if pk.Installed() {
			installed = append(installed, pk)
		}
	}
	return installed
}

// Names returns every package name in the pool, sorted.
func (p *Pool) Names() []string {
	return p.NamesWithPrefix("")
}

// NamesWithPrefix returns the sorted package names starting with prefix.
func (p *Pool) NamesWithPrefix(prefix string) []string {
	var names []string
	p.names.WalkPrefix(pkg.NormalizeName(prefix), func(s string, _ interface{}) bool {
		names = append(names, s)
		return false
	})
	return names
}

// WhatProvides returns the packages that satisfy a requirement on name with
// constraint c: versions of name matching c, and packages providing or
// replacing name with a constraint that intersects c. The result is in ID
// order.
func (p *Pool) WhatProvides(name string, c version.Constraint) []*pkg.Pkg {
	if c == nil {
		c = version.MatchAll{}
	}
	name = pkg.NormalizeName(name)
	key := name + "\x00" + c.String()
	if cached, ok := p.whatProvidesCache[key]; ok {
		return cached
	}

	var result []*pkg.Pkg
	seen := map[int]bool{}
	for _, pk := range p.mapNameToPkgs[name] {
		if c.Matches(pk.Version) {
			result = append(result, pk)
			seen[pk.ID] = true
		}
	}
	for _, pk := range p.mapProvidedToPkgs[name] {
		if seen[pk.ID] || pk.Name == name {
			continue
		}
		if providesMatch(pk, name, c) {
			result = append(result, pk)
			seen[pk.ID] = true
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	p.whatProvidesCache[key] = result
	return result
}

func providesMatch(pk *pkg.Pkg, name string, c version.Constraint) bool {
	for _, links := range [][]*pkg.Link{pk.Provides, pk.Replaces} {
		for _, l := range links {
			if l.Target == name && version.Intersects(l.Constraint, c) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether pk satisfies a requirement on name with c, by name
// or through its provides and replaces.
func (p *Pool) Matches(pk *pkg.Pkg, name string, c version.Constraint) bool {
	if pk.Name == name {
		return c.Matches(pk.Version)
	}
	return providesMatch(pk, name, c)
}

// Optimize drops package versions that can never be installed: versions no
// requirement, requires link or installed package selects. Packages that
// provide or replace something, platform packages and aliases of kept
// packages stay. IDs are reassigned. It returns the number of packages
// removed.
func (p *Pool) Optimize(requirements []Requirement) int {
	keep := map[*pkg.Pkg]bool{}
	mark := func(name string, c version.Constraint) {
		for _, pk := range p.mapNameToPkgs[name] {
			if c.Matches(pk.Version) {
				keep[pk] = true
			}
		}
	}
	for _, r := range requirements {
		mark(pkg.NormalizeName(r.Name), r.Constraint)
	}
	for _, pk := range p.packages {
		for _, l := range pk.Requires {
			mark(l.Target, l.Constraint)
		}
		if pk.Installed() || pk.Platform || len(pk.Provides) > 0 || len(pk.Replaces) > 0 {
			keep[pk] = true
		}
	}
	// an alias and its target live and die together
	for _, pk := range p.packages {
		if pk.IsAlias() && (keep[pk] || keep[pk.AliasOf]) {
			keep[pk] = true
			keep[pk.AliasOf] = true
		}
	}

	kept := make([]*pkg.Pkg, 0, len(keep))
	for _, pk := range p.packages {
		if keep[pk] {
			kept = append(kept, pk)
			continue
		}
		delete(p.mapFingerprintToPkg, pk.GetFingerPrint())
		pk.ID = -1
	}
	removed := len(p.packages) - len(kept)
	p.packages = kept
	p.reindex()
	return removed
}

// DebugPrint logs every package of the pool.
func (p *Pool) DebugPrint(logger log.Logger) {
	logger.Debugf("Printing pool")
	for _, pk := range p.packages {
		logger.Debugf("%d: %s", pk.ID, pk)
	}
}
