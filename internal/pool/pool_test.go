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

package pool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

func d(name, ver string, requires map[string]string) *repo.Descriptor {
	return &repo.Descriptor{Name: name, Version: ver, Requires: requires}
}

func req(name, constraint string) Requirement {
	return Requirement{Name: name, Constraint: version.MustParseConstraint(constraint)}
}

func bufferLogger() (log.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf
	logger.Level = log.DebugLevel
	return logger, buf
}

func build(t *testing.T, r Request) *Pool {
	t.Helper()
	logger, _ := bufferLogger()
	p, err := NewBuilder(logger).Build(context.Background(), r)
	require.NoError(t, err)
	return p
}

func versions(pkgs []*pkg.Pkg) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.String()
	}
	return out
}

func TestBuildLoadsTransitively(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", map[string]string{"acme/b": "^1.0"}),
		d("acme/b", "1.0.0", map[string]string{"acme/c": "*"}),
		d("acme/b", "1.1.0", nil),
		d("acme/c", "2.0.0", nil),
		d("acme/unrelated", "1.0.0", nil),
	)
	p := build(t, Request{Requires: []Requirement{req("acme/a", "*")}, Repositories: []repo.Repository{main}})

	is.Equal([]string{"acme/a", "acme/b", "acme/c"}, p.Names())
	is.Equal([]string{"acme/b 1.1.0", "acme/b 1.0.0"}, versions(p.PackagesByName("acme/b")))
	is.Equal(4, p.Len())

	// IDs are dense and match positions
	for i, pk := range p.Packages() {
		is.Equal(i+1, pk.ID)
		is.Same(pk, p.PackageByID(pk.ID))
	}
	is.Panics(func() { p.PackageByID(0) })
	is.Panics(func() { p.PackageByID(p.Len() + 1) })
}

func TestBuildIsDeterministic(t *testing.T) {
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", map[string]string{"acme/b": "^1.0", "acme/c": "^1.0"}),
		d("acme/b", "1.0.0", nil),
		d("acme/c", "1.0.0", nil),
		d("acme/c", "1.2.0", nil),
	)
	extra := repo.NewArrayRepository("extra", d("acme/c", "1.1.0", nil))
	r := Request{Requires: []Requirement{req("acme/a", "*")}, Repositories: []repo.Repository{main, extra}}

	first := versions(build(t, r).Packages())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, versions(build(t, r).Packages()))
	}
}

func TestBuildRepositoryPriority(t *testing.T) {
	is := assert.New(t)
	primary := repo.NewArrayRepository("primary", &repo.Descriptor{
		Name: "acme/a", Version: "1.0.0", Dist: map[string]string{"url": "primary"},
	})
	secondary := repo.NewArrayRepository("secondary",
		&repo.Descriptor{Name: "acme/a", Version: "1.0.0.0", Dist: map[string]string{"url": "secondary"}},
		&repo.Descriptor{Name: "acme/a", Version: "1.1.0", Dist: map[string]string{"url": "secondary"}},
	)
	p := build(t, Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{primary, secondary},
	})

	as := p.PackagesByName("acme/a")
	require.Len(t, as, 2)
	is.Equal("secondary", as[0].Repository)
	is.Equal("primary", as[1].Repository)
	is.Equal("primary", as[1].Dist["url"])
}

func TestBuildStability(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", nil),
		d("acme/a", "1.1.0-beta1", nil),
		d("acme/b", "2.0.0-RC1", nil),
	)
	r := Request{
		Requires:         []Requirement{req("acme/a", "*"), req("acme/b", "*")},
		Repositories:     []repo.Repository{main},
		MinimumStability: version.StabilityStable,
		StabilityFlags:   map[string]version.Stability{"acme/b": version.StabilityRC},
	}
	p := build(t, r)

	is.Equal([]string{"acme/a 1.0.0"}, versions(p.PackagesByName("acme/a")))
	is.Equal([]string{"acme/a 1.1.0-beta1"}, versions(p.Rejected("acme/a")))
	is.Equal([]string{"acme/b 2.0.0-RC1"}, versions(p.PackagesByName("acme/b")))
	is.Empty(p.Rejected("acme/b"))
}

func TestBuildProviders(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		d("acme/app", "1.0.0", map[string]string{"psr/log-implementation": "^1.0"}),
		&repo.Descriptor{Name: "acme/logger", Version: "3.0.0", Provides: map[string]string{"psr/log-implementation": "1.0.0"}},
		&repo.Descriptor{Name: "acme/old-logger", Version: "1.0.0", Provides: map[string]string{"psr/log-implementation": "0.9.0"}},
		&repo.Descriptor{Name: "acme/fork", Version: "1.0.0", Replaces: map[string]string{"acme/logger": "self.version"}},
	)
	p := build(t, Request{Requires: []Requirement{req("acme/app", "*")}, Repositories: []repo.Repository{main}})

	providers := p.WhatProvides("psr/log-implementation", version.MustParseConstraint("^1.0"))
	is.Equal([]string{"acme/logger 3.0.0"}, versions(providers))
	is.Equal(versions(providers), versions(p.WhatProvides("psr/log-implementation", version.MustParseConstraint("^1.0"))))

	// replacers of a provider are loaded too
	is.Contains(p.Names(), "acme/fork")
	is.Equal([]string{"acme/logger 3.0.0"}, versions(p.WhatProvides("acme/logger", version.MustParseConstraint("^3.0"))))
	is.Equal([]string{"acme/logger 3.0.0", "acme/fork 1.0.0"}, versions(p.WhatProvides("acme/logger", version.MustParseConstraint("*"))))
	is.Empty(p.WhatProvides("acme/missing", version.MatchAll{}))
}

func TestBuildPlatform(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main", d("acme/a", "1.0.0", map[string]string{"go": ">=1.16", "ext-gd": "*"}))
	platform := repo.NewPlatformRepository(map[string]string{"go": "1.18.2"})

	p := build(t, Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{main},
		Platform:     platform,
	})
	goPkgs := p.PackagesByName("go")
	require.Len(t, goPkgs, 1)
	is.True(goPkgs[0].Platform)
	is.True(goPkgs[0].Installed())
	is.Equal("1.18.2", goPkgs[0].PrettyVersion)
	is.Empty(p.PackagesByName("ext-gd"))
	is.Equal([]*pkg.Pkg{goPkgs[0]}, p.Installed())
}

func TestBuildKeepsNumberedStableTags(t *testing.T) {
	main := repo.NewArrayRepository("main", d("acme/a", "1.0.0", nil), d("acme/a", "1.0.0-stable1", nil))
	p := build(t, Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{main},
	})
	assert.Equal(t, []string{"acme/a 1.0.0-stable1", "acme/a 1.0.0"}, versions(p.PackagesByName("acme/a")))
}

func TestBuildDisabledPlatform(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main", d("acme/a", "1.0.0", map[string]string{"go": ">=1.16"}))

	p := build(t, Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{main},
		Platform:     repo.NewPlatformRepository(map[string]string{"go": ""}),
	})
	is.Len(p.PackagesByName("acme/a"), 1)
	is.Empty(p.PackagesByName("go"))
	is.Empty(p.Installed())
}

func TestBuildInstalled(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", nil),
		d("acme/a", "1.2.0", nil),
		d("acme/b", "1.0.0", nil),
	)
	p := build(t, Request{
		Installed:    []*repo.Descriptor{d("acme/a", "1.0.0", map[string]string{"acme/b": "*"})},
		Repositories: []repo.Repository{main},
	})

	as := p.PackagesByName("acme/a")
	require.Len(t, as, 2)
	is.False(as[0].Installed())
	is.True(as[1].Installed())
	is.Equal(InstalledRepositoryName, as[1].Repository)
	// requires of installed packages are followed
	is.Len(p.PackagesByName("acme/b"), 1)
}

func TestBuildAliases(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		&repo.Descriptor{
			Name: "acme/core", Version: "dev-main",
			BranchAliases: map[string]string{"dev-main": "2.0.x-dev"},
		},
		d("acme/core", "dev-next", nil),
		d("acme/core", "1.0.0", nil),
	)
	p := build(t, Request{
		Requires:         []Requirement{req("acme/core", "*")},
		Repositories:     []repo.Repository{main},
		MinimumStability: version.StabilityDev,
		RootAliases: []Alias{{
			Name:    "acme/core",
			Version: version.MustParse("dev-next"),
			Alias:   version.MustParse("1.5.0"),
		}},
	})

	cores := p.PackagesByName("acme/core")
	is.Equal([]string{
		"acme/core 2.0.x-dev", "acme/core 1.5.0", "acme/core 1.0.0", "acme/core dev-next", "acme/core dev-main",
	}, versions(cores))
	is.True(cores[0].IsAlias())
	is.Equal("dev-main", cores[0].AliasOf.PrettyVersion)
	is.True(cores[1].IsAlias())

	matches := p.WhatProvides("acme/core", version.MustParseConstraint("^2.0"))
	is.Equal([]string{"acme/core 2.0.x-dev"}, versions(matches))
}

func TestBuildInstalledAliases(t *testing.T) {
	core := &repo.Descriptor{Name: "acme/core", Version: "dev-main"}
	alias := func(a string) Alias {
		return Alias{Name: "acme/core", Version: version.MustParse("dev-main"), Alias: version.MustParse(a)}
	}

	tests := []struct {
		name      string
		installed []Alias
		want      []string
		dropped   []string
	}{
		{
			name: "new alias of an installed package",
			want: []string{"acme/core 1.0.x-dev false", "acme/core dev-main true"},
		},
		{
			name:      "installed alias still declared",
			installed: []Alias{alias("1.0.x-dev")},
			want:      []string{"acme/core 1.0.x-dev true", "acme/core dev-main true"},
		},
		{
			name:      "installed alias no longer declared",
			installed: []Alias{alias("1.0.x-dev"), alias("0.9.x-dev")},
			want:      []string{"acme/core 1.0.x-dev true", "acme/core dev-main true"},
			dropped:   []string{"acme/core 0.9.x-dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(t, Request{
				Installed:        []*repo.Descriptor{core},
				RootAliases:      []Alias{alias("1.0.x-dev")},
				InstalledAliases: tt.installed,
				MinimumStability: version.StabilityDev,
			})
			var got []string
			for _, pk := range p.PackagesByName("acme/core") {
				got = append(got, fmt.Sprintf("%s %t", pk, pk.Installed()))
			}
			assert.ElementsMatch(t, tt.want, got)

			var dropped []string
			for _, a := range p.DroppedAliases() {
				assert.True(t, a.IsAlias())
				assert.True(t, a.Installed())
				assert.Nil(t, p.GetPackageByFingerprint(a.GetFingerPrint()))
				dropped = append(dropped, a.String())
			}
			assert.Equal(t, tt.dropped, dropped)
		})
	}
}

func TestBuildSkipsInvalidPackages(t *testing.T) {
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", map[string]string{"acme/b": "not a constraint!"}),
		d("acme/a", "0.9.0", nil),
	)
	logger, buf := bufferLogger()
	p, err := NewBuilder(logger).Build(context.Background(), Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{main},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/a 0.9.0"}, versions(p.PackagesByName("acme/a")))
	assert.Contains(t, buf.String(), "skipping invalid package from main")
}

type failingRepo struct{ *repo.ArrayRepository }

func (failingRepo) FindPackages(string) ([]*repo.Descriptor, error) {
	return nil, errors.New("index is corrupt")
}

func TestBuildErrors(t *testing.T) {
	r := Request{
		Requires:     []Requirement{req("acme/a", "*")},
		Repositories: []repo.Repository{failingRepo{repo.NewArrayRepository("broken")}},
	}
	_, err := NewBuilder(nil).Build(context.Background(), r)
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), `repository "broken"`))
		assert.True(t, strings.Contains(err.Error(), "index is corrupt"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Repositories = []repo.Repository{repo.NewArrayRepository("main")}
	_, err = NewBuilder(nil).Build(ctx, r)
	assert.Equal(t, context.Canceled, err)

	_, err = NewBuilder(nil).Build(context.Background(), Request{
		Installed: []*repo.Descriptor{d("acme/a", "bogus", nil)},
	})
	assert.Error(t, err)
}

func TestNamesWithPrefix(t *testing.T) {
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", map[string]string{"acme/ab": "*", "other/x": "*"}),
		d("acme/ab", "1.0.0", nil),
		d("other/x", "1.0.0", nil),
	)
	p := build(t, Request{Requires: []Requirement{req("acme/a", "*")}, Repositories: []repo.Repository{main}})
	assert.Equal(t, []string{"acme/a", "acme/ab"}, p.NamesWithPrefix("ACME/"))
	assert.Equal(t, []string{"other/x"}, p.NamesWithPrefix("other"))
	assert.Empty(t, p.NamesWithPrefix("zzz"))
}

func TestOptimize(t *testing.T) {
	is := assert.New(t)
	main := repo.NewArrayRepository("main",
		d("acme/a", "1.0.0", map[string]string{"acme/b": "^2.0"}),
		d("acme/b", "1.0.0", nil),
		d("acme/b", "2.0.0", nil),
		d("acme/b", "2.1.0", nil),
		&repo.Descriptor{Name: "acme/c", Version: "1.0.0", Provides: map[string]string{"acme/virtual": "1.0"}},
	)
	p := build(t, Request{
		Requires:     []Requirement{req("acme/a", "*"), req("acme/c", "^9.0")},
		Repositories: []repo.Repository{main},
		Installed:    []*repo.Descriptor{d("acme/d", "0.1.0", nil)},
	})
	before := p.Len()

	removed := p.Optimize([]Requirement{req("acme/a", "*"), req("acme/c", "^9.0")})
	is.Equal(1, removed)
	is.Equal(before-1, p.Len())
	is.Equal([]string{"acme/b 2.1.0", "acme/b 2.0.0"}, versions(p.PackagesByName("acme/b")))
	is.Len(p.PackagesByName("acme/c"), 1, "providers are kept")
	is.Len(p.PackagesByName("acme/d"), 1, "installed packages are kept")
	for i, pk := range p.Packages() {
		is.Equal(i+1, pk.ID)
	}
}
