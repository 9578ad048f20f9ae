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
Package transaction turns the outcome of a resolution into the ordered list
of operations an installer has to carry out.

Removals come first, dependents before their dependencies. Installs and
updates follow, dependencies before their dependents. Alias packages have no
files of their own: they are marked installed right after their target, and
marked uninstalled right before it goes away.
*/
package transaction

import (
	"fmt"
	"sort"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

type Kind int

const (
	Install Kind = iota
	Update
	Remove
	MarkAliasInstalled
	MarkAliasUninstalled
)

var kindNames = map[Kind]string{
	Install:              "install",
	Update:               "update",
	Remove:               "remove",
	MarkAliasInstalled:   "mark-alias-installed",
	MarkAliasUninstalled: "mark-alias-uninstalled",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Operation is one step of a transaction. From is only set for updates.
type Operation struct {
	Kind    Kind
	Package *pkg.Pkg
	From    *pkg.Pkg
}

func (o Operation) String() string {
	switch o.Kind {
	case Update:
		return fmt.Sprintf("update %s %s => %s", o.Package.Name, o.From.PrettyVersion, o.Package.PrettyVersion)
	case MarkAliasInstalled:
		return fmt.Sprintf("mark alias %s (%s) installed", o.Package, o.Package.AliasOf.PrettyVersion)
	case MarkAliasUninstalled:
		return fmt.Sprintf("mark alias %s (%s) uninstalled", o.Package, o.Package.AliasOf.PrettyVersion)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.Package)
}

type Transaction struct {
	Operations []Operation
}

// IsEmpty reports whether the transaction changes nothing.
func (t *Transaction) IsEmpty() bool {
	return len(t.Operations) == 0
}

func (t *Transaction) String() string {
	s := ""
	for _, o := range t.Operations {
		s += o.String() + "\n"
	}
	return s
}

// New computes the operations that take a system from the installed
// packages to the selected ones. Platform packages are ignored on both
// sides.
func New(installed, selected []*pkg.Pkg) *Transaction {
	b := &builder{
		installed:        map[string]*pkg.Pkg{},
		selected:         map[string]*pkg.Pkg{},
		installedAliases: map[string]*pkg.Pkg{},
		selectedAliases:  map[string]*pkg.Pkg{},
		ops:              map[string]Operation{},
		visited:          map[string]bool{},
	}
	for _, p := range installed {
		b.index(p, b.installed, b.installedAliases)
	}
	for _, p := range selected {
		b.index(p, b.selected, b.selectedAliases)
	}
	b.plan()

	t := &Transaction{}
	t.Operations = append(t.Operations, b.removals()...)
	t.Operations = append(t.Operations, b.installs()...)
	return t
}

type builder struct {
	// real packages by name, aliases by fingerprint
	installed        map[string]*pkg.Pkg
	selected         map[string]*pkg.Pkg
	installedAliases map[string]*pkg.Pkg
	selectedAliases  map[string]*pkg.Pkg

	// install, update and remove operations by package name
	ops     map[string]Operation
	visited map[string]bool
}

func (b *builder) index(p *pkg.Pkg, real, aliases map[string]*pkg.Pkg) {
	if p.Platform {
		return
	}
	if p.IsAlias() {
		aliases[p.GetFingerPrint()] = p
		return
	}
	real[p.Name] = p
}

func (b *builder) plan() {
	for name, from := range b.installed {
		to, ok := b.selected[name]
		switch {
		case !ok:
			b.ops[name] = Operation{Kind: Remove, Package: from}
		case from.GetFingerPrint() != to.GetFingerPrint():
			b.ops[name] = Operation{Kind: Update, Package: to, From: from}
		}
	}
	for name, to := range b.selected {
		if _, ok := b.installed[name]; !ok {
			b.ops[name] = Operation{Kind: Install, Package: to}
		}
	}
}

// removals orders the removed packages so that nothing is removed before
// the packages requiring it. Aliases that go away are marked uninstalled
// right before their target is removed; aliases of packages that stay go
// last.
func (b *builder) removals() []Operation {
	removed := map[string]*pkg.Pkg{}
	for name, op := range b.ops {
		if op.Kind == Remove {
			removed[name] = op.Package
		}
	}

	var order []*pkg.Pkg
	visited := map[string]bool{}
	var visit func(p *pkg.Pkg)
	visit = func(p *pkg.Pkg) {
		if visited[p.Name] {
			return
		}
		visited[p.Name] = true
		for _, dep := range dependencies(p, removed) {
			visit(dep)
		}
		order = append(order, p)
	}
	for _, name := range sortedKeys(removed) {
		visit(removed[name])
	}

	var ops []Operation
	for i := len(order) - 1; i >= 0; i-- {
		p := order[i]
		ops = append(ops, b.aliasesGone(p)...)
		ops = append(ops, b.ops[p.Name])
	}
	for _, fp := range sortedKeys(b.installedAliases) {
		a := b.installedAliases[fp]
		if _, kept := b.selectedAliases[fp]; kept {
			continue
		}
		if op, ok := b.ops[a.AliasOf.Name]; ok && op.Kind != Install {
			// handled next to the operation on its target
			continue
		}
		ops = append(ops, Operation{Kind: MarkAliasUninstalled, Package: a})
	}
	return ops
}

// installs orders installs and updates depth first over the requirements of
// the selected packages, so dependencies come before their dependents.
func (b *builder) installs() []Operation {
	var ops []Operation
	var visit func(p *pkg.Pkg)
	visit = func(p *pkg.Pkg) {
		if b.visited[p.Name] {
			return
		}
		b.visited[p.Name] = true
		for _, dep := range dependencies(p, b.selected) {
			visit(dep)
		}
		if op, ok := b.ops[p.Name]; ok && op.Kind != Remove {
			if op.Kind == Update {
				ops = append(ops, b.aliasesGone(op.From)...)
			}
			ops = append(ops, op)
		}
		ops = append(ops, b.aliasesNew(p)...)
	}
	for _, name := range sortedKeys(b.selected) {
		visit(b.selected[name])
	}
	return ops
}

// aliasesGone returns the installed aliases of p that are not selected.
func (b *builder) aliasesGone(p *pkg.Pkg) []Operation {
	var ops []Operation
	for _, fp := range sortedKeys(b.installedAliases) {
		a := b.installedAliases[fp]
		if a.AliasOf.GetFingerPrint() != p.GetFingerPrint() {
			continue
		}
		if _, kept := b.selectedAliases[fp]; kept && b.ops[p.Name].Kind != Remove && b.ops[p.Name].Kind != Update {
			continue
		}
		ops = append(ops, Operation{Kind: MarkAliasUninstalled, Package: a})
	}
	return ops
}

// aliasesNew returns the selected aliases of p that are not installed yet.
func (b *builder) aliasesNew(p *pkg.Pkg) []Operation {
	var ops []Operation
	for _, fp := range sortedKeys(b.selectedAliases) {
		a := b.selectedAliases[fp]
		if a.AliasOf.GetFingerPrint() != p.GetFingerPrint() {
			continue
		}
		if old, ok := b.installedAliases[fp]; ok && old.AliasOf.GetFingerPrint() == p.GetFingerPrint() {
			continue
		}
		ops = append(ops, Operation{Kind: MarkAliasInstalled, Package: a})
	}
	return ops
}

// dependencies returns the packages of set that p requires, sorted by name.
// Requirements on an alias lead to its target.
func dependencies(p *pkg.Pkg, set map[string]*pkg.Pkg) []*pkg.Pkg {
	var deps []*pkg.Pkg
	seen := map[string]bool{}
	for _, l := range p.Requires {
		for _, name := range sortedKeys(set) {
			q := set[name]
			if seen[name] || q == p || !satisfies(q, l) {
				continue
			}
			seen[name] = true
			deps = append(deps, q)
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps
}

// satisfies reports whether q, or one of the names it provides or replaces,
// meets the requirement l. The version of a real package is not checked
// against aliases: any version of the required name counts as an edge.
func satisfies(q *pkg.Pkg, l *pkg.Link) bool {
	if q.Name == l.Target {
		return true
	}
	for _, links := range [][]*pkg.Link{q.Provides, q.Replaces} {
		for _, pl := range links {
			if pl.Target == l.Target && version.Intersects(pl.Constraint, l.Constraint) {
				return true
			}
		}
	}
	return false
}

func sortedKeys(m map[string]*pkg.Pkg) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
