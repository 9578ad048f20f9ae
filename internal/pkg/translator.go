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
	"strings"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// NormalizeName returns the canonical form of a package name. Names are
// case-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewPkgFromDescriptor creates a Pkg from repository metadata. Malformed
// versions or constraints are returned as errors; the caller decides whether
// to skip the package.
func NewPkgFromDescriptor(d *repo.Descriptor, repoName string) (*Pkg, error) {
	name := NormalizeName(d.Name)
	if name == "" {
		return nil, errors.Errorf("package without a name in repository %q", repoName)
	}
	v, err := version.Parse(d.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "package %s", name)
	}

	p := NewPkg(name, v, repoName)
	p.Description = d.Description
	p.Dist = d.Dist
	p.BranchAliases = d.BranchAliases
	if d.Stability != "" {
		s, err := version.ParseStability(d.Stability)
		if err != nil {
			return nil, errors.Wrapf(err, "package %s %s", name, d.Version)
		}
		p.Stability = s
	}

	for _, links := range []struct {
		kind LinkKind
		m    map[string]string
	}{
		{Requires, d.Requires},
		{Conflicts, d.Conflicts},
		{Provides, d.Provides},
		{Replaces, d.Replaces},
	} {
		if err := p.SetLinks(links.kind, links.m); err != nil {
			return nil, errors.Wrapf(err, "package %s %s", name, d.Version)
		}
	}
	return p, nil
}

// NewPlatformPkg creates the package for a runtime capability. Platform
// packages have no links and are always considered installed.
func NewPlatformPkg(d *repo.Descriptor) (*Pkg, error) {
	p, err := NewPkgFromDescriptor(d, repo.PlatformRepositoryName)
	if err != nil {
		return nil, err
	}
	p.Platform = true
	p.Stability = version.StabilityStable
	p.CurrentState = Present
	return p, nil
}
