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
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

func TestNewPkgFromDescriptor(t *testing.T) {
	is := assert.New(t)
	p, err := NewPkgFromDescriptor(&repo.Descriptor{
		Name:      "Acme/Web",
		Version:   "v1.2.0-beta1",
		Requires:  map[string]string{"acme/log": "^1.0", "acme/db": "~2.1"},
		Conflicts: map[string]string{"acme/legacy": "*"},
		Provides:  map[string]string{"acme/http-impl": "self.version"},
		Dist:      map[string]string{"url": "https://example.org/web.tgz"},
	}, "main")
	require.NoError(t, err)

	is.Equal("acme/web", p.Name)
	is.Equal("1.2.0.0-beta1", p.Version.Normalized())
	is.Equal(version.StabilityBeta, p.Stability)
	is.Equal("main", p.Repository)
	is.Equal("acme/web v1.2.0-beta1", p.String())
	is.Equal("acme/web-1.2.0.0-beta1", p.GetFingerPrint())
	is.Equal("acme/web", p.GetBaseFingerPrint())

	// links are ordered by target
	is.Len(p.Requires, 2)
	is.Equal("acme/db", p.Requires[0].Target)
	is.Equal("acme/log", p.Requires[1].Target)
	is.Equal("acme/web requires acme/log ^1.0", p.Requires[1].String())
	is.Len(p.Links(), 4)

	is.True(p.Provides[0].Constraint.Matches(p.Version))
}

func TestNewPkgFromDescriptorRejectsBadInput(t *testing.T) {
	for _, d := range []*repo.Descriptor{
		{Name: "", Version: "1.0"},
		{Name: "a", Version: "one"},
		{Name: "a", Version: "1.0", Requires: map[string]string{"b": ">=x"}},
		{Name: "a", Version: "1.0", Stability: "gamma"},
	} {
		_, err := NewPkgFromDescriptor(d, "main")
		assert.Error(t, err, d.Name+" "+d.Version)
	}
}

func TestNewAlias(t *testing.T) {
	is := assert.New(t)
	p, err := NewPkgFromDescriptor(&repo.Descriptor{
		Name:     "acme/core",
		Version:  "dev-main",
		Replaces: map[string]string{"acme/core-lib": "self.version"},
		Requires: map[string]string{"acme/log": "^1.0"},
	}, "main")
	require.NoError(t, err)

	a := p.NewAlias(version.MustParse("1.0.x-dev"))
	is.True(a.IsAlias())
	is.False(p.IsAlias())
	is.Same(p, a.AliasOf)
	is.Equal("acme/core", a.Name)
	is.Equal("1.0.x-dev", a.PrettyVersion)
	is.Equal(p.Stability, a.Stability)

	is.True(a.Replaces[0].Constraint.Matches(version.MustParse("1.0.x-dev")))
	is.False(a.Replaces[0].Constraint.Matches(p.Version))
	is.True(p.Replaces[0].Constraint.Matches(p.Version))
	is.Equal(p.Requires[0].Constraint, a.Requires[0].Constraint)

	p.CurrentState = Present
	is.False(p.NewAlias(version.MustParse("1.0.x-dev")).Installed())
}

func TestNewPlatformPkg(t *testing.T) {
	is := assert.New(t)
	p, err := NewPlatformPkg(&repo.Descriptor{Name: "go", Version: "1.21.0"})
	require.NoError(t, err)
	is.True(p.Platform)
	is.True(p.Installed())
	is.Equal(repo.PlatformRepositoryName, p.Repository)
}

func TestByNameVersion(t *testing.T) {
	core := NewPkgMock(1, "acme/core", "dev-main", nil, nil)
	pkgs := []*Pkg{
		NewPkgMock(2, "acme/b", "1.0", nil, nil),
		NewPkgMock(3, "acme/a", "1.0", nil, nil),
		NewPkgMock(4, "acme/a", "2.0", nil, nil),
		core.NewAlias(version.MustParse("dev-main")),
		core,
	}
	sort.Sort(ByNameVersion(pkgs))

	got := make([]string, len(pkgs))
	for i, p := range pkgs {
		got[i] = p.String()
		if p.IsAlias() {
			got[i] += " (alias)"
		}
	}
	assert.Equal(t, "acme/a 2.0, acme/a 1.0, acme/b 1.0, acme/core dev-main, acme/core dev-main (alias)",
		strings.Join(got, ", "))
}

func TestJSON(t *testing.T) {
	p := NewPkgMock(1, "acme/a", "1.0.0", map[string]string{"acme/b": "^2.0"}, nil)
	out, err := p.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Name":"acme/a"`)
	assert.Contains(t, string(out), `"version":"1.0.0"`)
	assert.Contains(t, string(out), `"Pretty":"^2.0"`)
	assert.NotContains(t, string(out), `"ID"`)
}
