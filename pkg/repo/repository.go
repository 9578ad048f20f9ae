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
Package repo holds the sources of package metadata the resolver reads from.

A Repository answers two questions: which versions of a name it knows about,
and which package names claim to provide a given name. Repositories never
download anything themselves; the implementations here read metadata that is
already on disk (a packages file, a Helm index.yaml) or held in memory.
*/
package repo

import (
	"sort"
	"strings"
)

// Repository is a source of package descriptors.
type Repository interface {
	// Name identifies the repository in logs and problem reports.
	Name() string
	// FindPackages returns every version of the named package. An unknown
	// name is not an error.
	FindPackages(name string) ([]*Descriptor, error)
	// GetProviders returns the names of packages providing or replacing name.
	GetProviders(name string) ([]string, error)
}

// Lister is implemented by repositories that can enumerate their package
// names, which searching needs.
type Lister interface {
	PackageNames() ([]string, error)
}

// Descriptor is the metadata of one package version as a repository serves
// it. Link maps go from target package name to constraint string.
type Descriptor struct {
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	Description   string            `json:"description,omitempty"`
	Requires      map[string]string `json:"require,omitempty"`
	Conflicts     map[string]string `json:"conflict,omitempty"`
	Provides      map[string]string `json:"provide,omitempty"`
	Replaces      map[string]string `json:"replace,omitempty"`
	Stability     string            `json:"stability,omitempty"`
	BranchAliases map[string]string `json:"branch-alias,omitempty"`
	Dist          map[string]string `json:"dist,omitempty"`
}

// ArrayRepository is an in-memory Repository.
type ArrayRepository struct {
	name     string
	packages map[string][]*Descriptor
	// providers indexes provide and replace targets
	providers map[string]map[string]bool
}

// NewArrayRepository creates a repository holding descriptors.
func NewArrayRepository(name string, descriptors ...*Descriptor) *ArrayRepository {
	r := &ArrayRepository{
		name:      name,
		packages:  map[string][]*Descriptor{},
		providers: map[string]map[string]bool{},
	}
	for _, d := range descriptors {
		r.Add(d)
	}
	return r
}

// Add appends a descriptor to the repository.
func (r *ArrayRepository) Add(d *Descriptor) {
	name := strings.ToLower(d.Name)
	r.packages[name] = append(r.packages[name], d)
	for _, links := range []map[string]string{d.Provides, d.Replaces} {
		for target := range links {
			target = strings.ToLower(target)
			if r.providers[target] == nil {
				r.providers[target] = map[string]bool{}
			}
			r.providers[target][name] = true
		}
	}
}

func (r *ArrayRepository) Name() string {
	return r.name
}

func (r *ArrayRepository) FindPackages(name string) ([]*Descriptor, error) {
	return r.packages[strings.ToLower(name)], nil
}

func (r *ArrayRepository) GetProviders(name string) ([]string, error) {
	set := r.providers[strings.ToLower(name)]
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (r *ArrayRepository) PackageNames() ([]string, error) {
	names := make([]string, 0, len(r.packages))
	for n := range r.packages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of descriptors held.
func (r *ArrayRepository) Count() int {
	n := 0
	for _, ds := range r.packages {
		n += len(ds)
	}
	return n
}
