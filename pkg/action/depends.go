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

package action

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// Dependency statuses.
const (
	StatusSatisfied    = "satisfied"
	StatusOutOfRange   = "out-of-range"
	StatusNotInstalled = "not-installed"
	StatusInvalid      = "invalid-constraint"
	StatusProvided     = "provided"
)

// Dependency is one requirement of a locked package and how the lock
// fulfils it.
type Dependency struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
	// Installed is the version of the locked package or platform package
	// with that name, if any.
	Installed string `json:"installed,omitempty"`
	Status    string `json:"status"`
}

// Depends is the action for inspecting the requirements of a locked
// package.
type Depends struct {
	Config *Configuration

	// Reverse lists the locked packages requiring the package instead.
	Reverse bool
}

// NewDepends creates a new Depends object with the given configuration.
func NewDepends(cfg *Configuration) *Depends {
	return &Depends{Config: cfg}
}

// Run returns the dependencies of the locked package name, sorted by name.
func (d *Depends) Run(name string) ([]*Dependency, error) {
	name = pkg.NormalizeName(name)
	l := d.Config.Lock
	if d.Reverse {
		return d.dependents(name), nil
	}

	e := l.Get(name)
	if e == nil {
		return nil, errors.Errorf("package %q is not locked", name)
	}

	deps := make([]*Dependency, 0, len(e.Requires))
	for target, constraint := range e.Requires {
		deps = append(deps, d.status(target, constraint))
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

// dependents lists who requires name, with the status of each requirement.
func (d *Depends) dependents(name string) []*Dependency {
	deps := []*Dependency{}
	if d.Config.Lock == nil {
		return deps
	}
	for _, e := range d.Config.Lock.Packages {
		constraint, ok := e.Requires[name]
		if !ok {
			continue
		}
		dep := d.status(name, constraint)
		dep.Name = e.Name
		deps = append(deps, dep)
	}
	return deps
}

// status checks a requirement on target against the lock, then against the
// platform.
func (d *Depends) status(target, constraint string) *Dependency {
	dep := &Dependency{Name: target, Constraint: constraint, Status: StatusNotInstalled}

	installed := d.installedVersion(target)
	if installed == "" {
		if p := d.provider(target); p != "" {
			dep.Installed = p
			dep.Status = StatusProvided
		}
		return dep
	}
	dep.Installed = installed

	c, err := version.ParseConstraint(constraint)
	if err != nil {
		dep.Status = StatusInvalid
		return dep
	}
	v, err := version.Parse(installed)
	if err != nil || !c.Matches(v) {
		dep.Status = StatusOutOfRange
		return dep
	}
	dep.Status = StatusSatisfied
	return dep
}

func (d *Depends) installedVersion(name string) string {
	if e := d.Config.Lock.Get(name); e != nil {
		return e.Version
	}
	if d.Config.Platform != nil && repo.IsPlatformName(name) {
		ds, err := d.Config.Platform.FindPackages(name)
		if err == nil && len(ds) > 0 {
			return ds[0].Version
		}
	}
	return ""
}

// provider names the locked package providing or replacing name.
func (d *Depends) provider(name string) string {
	if d.Config.Lock == nil {
		return ""
	}
	for _, e := range d.Config.Lock.Packages {
		if _, ok := e.Provides[name]; ok {
			return e.Name + " " + e.Version
		}
		if _, ok := e.Replaces[name]; ok {
			return e.Name + " " + e.Version
		}
	}
	return ""
}
