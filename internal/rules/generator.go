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

package rules

import (
	"sort"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/pool"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Generate creates the rules for jobs over p. Package rules are generated
// for the packages reachable from the job candidates and the installed
// packages only, breadth first. The result depends on nothing but p and
// jobs.
func Generate(p *pool.Pool, jobs []*Job) *RuleSet {
	g := &generator{
		pool:    p,
		rules:   NewRuleSet(),
		visited: map[int]bool{},
		byName:  map[string][]*pkg.Pkg{},
	}
	g.rules.jobs = jobs

	for _, j := range jobs {
		g.addJobRules(j)
	}
	for _, installed := range p.Installed() {
		g.queue = append(g.queue, installed)
	}
	g.walk()
	g.addSameNameRules()
	return g.rules
}

type generator struct {
	pool    *pool.Pool
	rules   *RuleSet
	queue   []*pkg.Pkg
	visited map[int]bool
	// names (own and replaced) -> visited packages
	byName map[string][]*pkg.Pkg
	names  []string
}

func (g *generator) addJobRules(j *Job) {
	c := j.Constraint
	if c == nil {
		c = version.MatchAll{}
	}
	name := pkg.NormalizeName(j.Name)
	candidates := g.pool.WhatProvides(name, c)

	switch j.Action {
	case ActionInstall, ActionUpdate:
		r := NewRule(positives(candidates), RootRequire)
		r.Job = j
		g.rules.Add(r)
		g.queue = append(g.queue, candidates...)
	case ActionRemove:
		for _, q := range candidates {
			r := NewRule([]Literal{DontInstall(q.ID)}, JobRule)
			r.Job = j
			g.rules.Add(r)
		}
	case ActionLock:
		var locked []*pkg.Pkg
		for _, q := range candidates {
			if q.Installed() && q.Name == name {
				locked = append(locked, q)
			}
		}
		if len(locked) == 0 {
			locked = candidates
		}
		r := NewRule(positives(locked), JobRule)
		r.Job = j
		g.rules.Add(r)
		g.queue = append(g.queue, locked...)
	}
}

func positives(pkgs []*pkg.Pkg) []Literal {
	lits := make([]Literal, len(pkgs))
	for i, p := range pkgs {
		lits[i] = Install(p.ID)
	}
	return lits
}

// walk generates the rules of every queued package and of everything they
// can pull in.
func (g *generator) walk() {
	for len(g.queue) > 0 {
		p := g.queue[0]
		g.queue = g.queue[1:]
		if g.visited[p.ID] {
			continue
		}
		g.visited[p.ID] = true
		g.addPackageRules(p)
	}
}

func (g *generator) addPackageRules(p *pkg.Pkg) {
	g.track(p.Name, p)
	for _, l := range p.Replaces {
		g.track(l.Target, p)
	}

	if p.IsAlias() {
		target := p.AliasOf
		r := NewRule([]Literal{DontInstall(p.ID), Install(target.ID)}, PackageAlias)
		r.Package = p
		g.rules.Add(r)
		r = NewRule([]Literal{DontInstall(target.ID), Install(p.ID)}, PackageInverseAlias)
		r.Package = target
		g.rules.Add(r)
		g.queue = append(g.queue, target)
	}
	// a package always brings its aliases along, so they need rules too
	for _, other := range g.pool.PackagesByName(p.Name) {
		if other.AliasOf == p {
			g.queue = append(g.queue, other)
		}
	}

	for _, l := range p.Requires {
		candidates := g.pool.WhatProvides(l.Target, l.Constraint)
		if contains(candidates, p) {
			continue
		}
		lits := append([]Literal{DontInstall(p.ID)}, positives(candidates)...)
		r := NewRule(lits, PackageRequire)
		r.Package = p
		r.Link = l
		g.rules.Add(r)
		g.queue = append(g.queue, candidates...)
	}

	for _, l := range p.Conflicts {
		for _, q := range g.pool.WhatProvides(l.Target, l.Constraint) {
			if q == p || q.AliasOf == p || p.AliasOf == q {
				continue
			}
			r := NewRule([]Literal{DontInstall(p.ID), DontInstall(q.ID)}, PackageConflict)
			r.Package = p
			r.Link = l
			g.rules.Add(r)
		}
	}
}

func (g *generator) track(name string, p *pkg.Pkg) {
	if _, ok := g.byName[name]; !ok {
		g.names = append(g.names, name)
	}
	g.byName[name] = append(g.byName[name], p)
}

// addSameNameRules forbids two visited packages sharing a name, or a name
// and its replacer, from being installed together.
func (g *generator) addSameNameRules() {
	names := append([]string(nil), g.names...)
	sort.Strings(names)
	for _, name := range names {
		pkgs := g.byName[name]
		sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
		for i := 0; i < len(pkgs); i++ {
			for j := i + 1; j < len(pkgs); j++ {
				a, b := pkgs[i], pkgs[j]
				if a == b || base(a) == base(b) {
					continue
				}
				r := NewRule([]Literal{DontInstall(a.ID), DontInstall(b.ID)}, SameNamePackagesConflict)
				r.Package = a
				g.rules.Add(r)
			}
		}
	}
}

// base returns the real package behind an alias.
func base(p *pkg.Pkg) *pkg.Pkg {
	if p.AliasOf != nil {
		return p.AliasOf
	}
	return p
}

func contains(pkgs []*pkg.Pkg, p *pkg.Pkg) bool {
	for _, q := range pkgs {
		if q == p {
			return true
		}
	}
	return false
}
