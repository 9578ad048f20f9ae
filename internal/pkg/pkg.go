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

package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rancher-sandbox/hypsolve/internal/version"
)

type tristate int

const (
	Unknown tristate = iota
	Present
	Absent
)

// LinkKind says how a package relates to the target of a link.
type LinkKind int

const (
	Requires LinkKind = iota
	Conflicts
	Provides
	Replaces
)

func (k LinkKind) String() string {
	switch k {
	case Requires:
		return "requires"
	case Conflicts:
		return "conflicts with"
	case Provides:
		return "provides"
	case Replaces:
		return "replaces"
	}
	return "unknown"
}

// selfVersion is the constraint string that stands for the declaring
// package's own version.
const selfVersion = "self.version"

// Link is a relation from the package Source to any version of Target
// matching Constraint.
type Link struct {
	Source     string
	Target     string
	Kind       LinkKind
	Constraint version.Constraint `json:"-" yaml:"-"`
	Pretty     string             // constraint as written
}

func (l *Link) String() string {
	return fmt.Sprintf("%s %s %s %s", l.Source, l.Kind, l.Target, l.Pretty)
}

// Pkg is the minimum object the solver reasons about: one version of one
// package, with its links to other packages.
// Note that each package is unique. The same name with a different version
// is a different package. E.g: acme/log-1.2.0 and acme/log-1.3.0 are
// different packages.
type Pkg struct {
	ID            int             `json:"-" yaml:"-"` // position in the pool, 1-based
	Name          string          // lowercase package name
	Version       version.Version `json:"-" yaml:"-"`
	PrettyVersion string          `json:"version"`
	Description   string          `json:",omitempty"`
	Requires      []*Link         `json:",omitempty"`
	Conflicts     []*Link         `json:",omitempty"`
	Provides      []*Link         `json:",omitempty"`
	Replaces      []*Link         `json:",omitempty"`
	Stability     version.Stability
	Dist          map[string]string `json:",omitempty"`
	Repository    string
	Platform      bool              `json:",omitempty"` // runtime capability, never removed
	BranchAliases map[string]string `json:"-" yaml:"-"` // branch version => alias version
	AliasOf       *Pkg              `json:"-" yaml:"-"` // target of a synthetic alias package
	CurrentState  tristate          `json:"-" yaml:"-"` // Present when installed
}

// NewPkg creates a package without links. Its stability is derived from v.
func NewPkg(name string, v version.Version, repo string) *Pkg {
	return &Pkg{
		ID:            -1,
		Name:          name,
		Version:       v,
		PrettyVersion: v.String(),
		Stability:     v.Stability(),
		Repository:    repo,
		CurrentState:  Unknown,
	}
}

// NewPkgMock creates a package from literal strings, with links given as
// name => constraint maps. It panics on malformed input.
// Useful for testing.
func NewPkgMock(id int, name, ver string, requires, conflicts map[string]string) *Pkg {
	p := NewPkg(name, version.MustParse(ver), "mock")
	p.ID = id
	if err := p.SetLinks(Requires, requires); err != nil {
		panic(err)
	}
	if err := p.SetLinks(Conflicts, conflicts); err != nil {
		panic(err)
	}
	return p
}

// SetLinks parses links of one kind from a target => constraint map, sorted
// by target name so that rule generation never depends on map order.
func (p *Pkg) SetLinks(kind LinkKind, m map[string]string) error {
	targets := make([]string, 0, len(m))
	for t := range m {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	links := make([]*Link, 0, len(targets))
	for _, t := range targets {
		l, err := p.newLink(kind, t, m[t])
		if err != nil {
			return err
		}
		links = append(links, l)
	}
	switch kind {
	case Requires:
		p.Requires = links
	case Conflicts:
		p.Conflicts = links
	case Provides:
		p.Provides = links
	case Replaces:
		p.Replaces = links
	}
	return nil
}

func (p *Pkg) newLink(kind LinkKind, target, pretty string) (*Link, error) {
	l := &Link{Source: p.Name, Target: NormalizeName(target), Kind: kind, Pretty: pretty}
	if pretty == selfVersion {
		l.Constraint = version.Exact{Version: p.Version}
		return l, nil
	}
	c, err := version.ParseConstraint(pretty)
	if err != nil {
		return nil, err
	}
	l.Constraint = c
	return l, nil
}

// NewAlias returns a synthetic package standing for p under version alias.
// It carries p's links, with `self.version` constraints pointing at the
// alias version. The alias is not installed, even when p is: aliases are
// tracked on their own.
func (p *Pkg) NewAlias(alias version.Version) *Pkg {
	a := NewPkg(p.Name, alias, p.Repository)
	a.Description = p.Description
	a.Dist = p.Dist
	a.Platform = p.Platform
	a.AliasOf = p
	a.Requires = a.retarget(p.Requires)
	a.Conflicts = a.retarget(p.Conflicts)
	a.Provides = a.retarget(p.Provides)
	a.Replaces = a.retarget(p.Replaces)
	// an alias is as stable as what it points to
	a.Stability = p.Stability
	return a
}

func (p *Pkg) retarget(links []*Link) []*Link {
	out := make([]*Link, len(links))
	for i, l := range links {
		c := *l
		if c.Pretty == selfVersion {
			c.Constraint = version.Exact{Version: p.Version}
		}
		out[i] = &c
	}
	return out
}

// Links returns every link of p, requires first.
func (p *Pkg) Links() []*Link {
	all := make([]*Link, 0, len(p.Requires)+len(p.Conflicts)+len(p.Provides)+len(p.Replaces))
	all = append(all, p.Requires...)
	all = append(all, p.Conflicts...)
	all = append(all, p.Provides...)
	return append(all, p.Replaces...)
}

// IsAlias reports whether p is a synthetic alias package.
func (p *Pkg) IsAlias() bool {
	return p.AliasOf != nil
}

// Installed reports whether p is part of the current installation.
func (p *Pkg) Installed() bool {
	return p.CurrentState == Present
}

// String returns "name version", with the version as written.
func (p *Pkg) String() string {
	return p.Name + " " + p.PrettyVersion
}

// JSON serializes package p into JSON, returning a []byte
func (p *Pkg) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}

// GetFingerPrint returns the identity of the package: name and normalized
// version.
func (p *Pkg) GetFingerPrint() string {
	return fmt.Sprintf("%s-%s", p.Name, p.Version.Normalized())
}

// GetBaseFingerPrint returns the identity of the package minus version.
func (p *Pkg) GetBaseFingerPrint() string {
	return p.Name
}

// ByNameVersion sorts packages by name, then by descending version.
type ByNameVersion []*Pkg

func (s ByNameVersion) Len() int      { return len(s) }
func (s ByNameVersion) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s ByNameVersion) Less(i, j int) bool {
	if s[i].Name != s[j].Name {
		return s[i].Name < s[j].Name
	}
	if c := version.Compare(s[i].Version, s[j].Version); c != 0 {
		return c > 0
	}
	// an alias sorts right after the package it was made from
	return !s[i].IsAlias() && s[j].IsAlias()
}
