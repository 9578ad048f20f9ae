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
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// InstalledRepositoryName is the repository name installed packages carry.
const InstalledRepositoryName = "installed"

// Alias asks for the package Name at Version to also be available as Alias.
type Alias struct {
	Name    string
	Version version.Version
	Alias   version.Version
}

// Request is everything the Builder needs to know to load a pool.
type Request struct {
	// Requires are the root requirements; loading starts at their names.
	Requires []Requirement
	// Installed are the packages of the current installation. They take
	// precedence over every repository.
	Installed []*repo.Descriptor
	// Repositories in priority order: for the same name and version the
	// first repository wins.
	Repositories []repo.Repository
	// Platform describes the runtime. It is consulted before any other
	// repository. Nil means no platform packages.
	Platform repo.Repository

	RootAliases []Alias
	// InstalledAliases are the aliases of the current installation. They
	// only count as installed while their target is.
	InstalledAliases []Alias

	MinimumStability version.Stability
	StabilityFlags   map[string]version.Stability
}

// Builder loads pools.
type Builder struct {
	Logger log.Logger
}

// NewBuilder creates a Builder logging to logger, or to the current
// log-go logger when nil.
func NewBuilder(logger log.Logger) *Builder {
	if logger == nil {
		logger = log.Current
	}
	return &Builder{Logger: logger}
}

type source struct {
	repo      repo.Repository
	platform  bool
	installed bool
}

// lookup is what one repository answered for one round of names.
type lookup struct {
	descriptors map[string][]*repo.Descriptor
	providers   map[string][]string
	err         error
}

// Build loads the packages reachable from the root requirements and the
// installed packages. Names are loaded round by round; within a round every
// repository is queried concurrently and answers are merged in priority
// order once all of them are in.
func (b *Builder) Build(ctx context.Context, req Request) (*Pool, error) {
	st := &buildState{
		b:        b,
		req:      req,
		seen:     map[string]bool{},
		rejected: map[string]bool{},
		queued:   map[string]bool{},
	}

	installed := make([]*pkg.Pkg, 0, len(req.Installed))
	for _, d := range req.Installed {
		p, err := pkg.NewPkgFromDescriptor(d, InstalledRepositoryName)
		if err != nil {
			return nil, errors.Wrap(err, "invalid installed package")
		}
		p.CurrentState = pkg.Present
		installed = append(installed, p)
	}

	var sources []source
	if req.Platform != nil {
		sources = append(sources, source{repo: req.Platform, platform: true})
	}
	for _, r := range req.Repositories {
		sources = append(sources, source{repo: r})
	}

	var pending []string
	for _, r := range req.Requires {
		pending = append(pending, pkg.NormalizeName(r.Name))
	}
	for _, p := range installed {
		st.add(p)
		pending = append(pending, p.Name)
		for _, l := range p.Requires {
			pending = append(pending, l.Target)
		}
	}
	pending = st.enqueue(pending...)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results := queryRound(sources, pending)

		var next []string
		for i, src := range sources {
			if results[i].err != nil {
				return nil, errors.Wrapf(results[i].err, "repository %q", src.repo.Name())
			}
			for _, name := range pending {
				for _, d := range results[i].descriptors[name] {
					p := st.convert(src, d)
					if p == nil {
						continue
					}
					if st.accept(src, p) {
						for _, l := range p.Requires {
							next = append(next, l.Target)
						}
					}
				}
				next = append(next, results[i].providers[name]...)
			}
		}
		pending = st.enqueue(next...)
	}

	st.addAliases()
	p := New(st.packages, st.rejectedPkgs)
	p.droppedAliases = st.dropped
	return p, nil
}

// queryRound asks every source about every name, one goroutine per source.
func queryRound(sources []source, names []string) []lookup {
	results := make([]lookup, len(sources))
	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := lookup{
				descriptors: map[string][]*repo.Descriptor{},
				providers:   map[string][]string{},
			}
			r := sources[i].repo
			for _, name := range names {
				ds, err := r.FindPackages(name)
				if err != nil {
					res.err = errors.Wrapf(err, "looking up %s", name)
					break
				}
				res.descriptors[name] = ds
				providers, err := r.GetProviders(name)
				if err != nil {
					res.err = errors.Wrapf(err, "looking up providers of %s", name)
					break
				}
				res.providers[name] = providers
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	return results
}

type buildState struct {
	b   *Builder
	req Request

	packages     []*pkg.Pkg
	rejectedPkgs []*pkg.Pkg
	dropped      []*pkg.Pkg
	seen         map[string]bool
	rejected     map[string]bool
	queued       map[string]bool
}

// enqueue returns the names not loaded yet, sorted, and marks them loaded.
func (st *buildState) enqueue(names ...string) []string {
	var fresh []string
	for _, n := range names {
		n = pkg.NormalizeName(n)
		if n == "" || st.queued[n] {
			continue
		}
		st.queued[n] = true
		fresh = append(fresh, n)
	}
	sort.Strings(fresh)
	return fresh
}

func (st *buildState) convert(src source, d *repo.Descriptor) *pkg.Pkg {
	var (
		p   *pkg.Pkg
		err error
	)
	if src.platform {
		p, err = pkg.NewPlatformPkg(d)
	} else {
		p, err = pkg.NewPkgFromDescriptor(d, src.repo.Name())
	}
	if err != nil {
		st.b.Logger.Warnf("skipping invalid package from %s: %s", src.repo.Name(), err)
		return nil
	}
	return p
}

// accept adds p unless an earlier repository already supplied the same name
// and version, or its stability is not allowed. It reports whether p made it
// into the pool.
func (st *buildState) accept(src source, p *pkg.Pkg) bool {
	fp := p.GetFingerPrint()
	if st.seen[fp] {
		return false
	}
	if !src.platform && !version.AcceptableStability(st.req.MinimumStability, st.req.StabilityFlags, p.Name, p.Stability) {
		if !st.rejected[fp] {
			st.rejected[fp] = true
			st.rejectedPkgs = append(st.rejectedPkgs, p)
		}
		return false
	}
	st.add(p)
	return true
}

func (st *buildState) add(p *pkg.Pkg) {
	st.seen[p.GetFingerPrint()] = true
	st.packages = append(st.packages, p)
}

// addAliases creates the alias packages asked for by root aliases and by
// branch aliases the packages declare. Installed aliases that are still
// declared are marked installed; the others are kept aside as dropped.
func (st *buildState) addAliases() {
	base := st.packages
	for _, p := range base {
		installed := map[string]bool{}
		if p.Installed() {
			for _, a := range st.req.InstalledAliases {
				if pkg.NormalizeName(a.Name) == p.Name && version.Equal(a.Version, p.Version) {
					installed[a.Alias.Normalized()] = true
				}
			}
		}

		var aliases []version.Version
		for _, a := range st.req.RootAliases {
			if pkg.NormalizeName(a.Name) == p.Name && version.Equal(a.Version, p.Version) {
				aliases = append(aliases, a.Alias)
			}
		}
		for _, branch := range sortedKeys(p.BranchAliases) {
			bv, err := version.Parse(branch)
			if err != nil || !version.Equal(bv, p.Version) {
				continue
			}
			av, err := version.Parse(p.BranchAliases[branch])
			if err != nil {
				st.b.Logger.Warnf("ignoring invalid branch alias %q of %s: %s", p.BranchAliases[branch], p, err)
				continue
			}
			aliases = append(aliases, av)
		}
		for _, av := range aliases {
			a := p.NewAlias(av)
			if st.seen[a.GetFingerPrint()] {
				continue
			}
			if installed[av.Normalized()] {
				a.CurrentState = pkg.Present
				delete(installed, av.Normalized())
			}
			st.add(a)
		}

		for _, a := range st.req.InstalledAliases {
			if !installed[a.Alias.Normalized()] {
				continue
			}
			delete(installed, a.Alias.Normalized())
			dropped := p.NewAlias(a.Alias)
			dropped.CurrentState = pkg.Present
			st.dropped = append(st.dropped, dropped)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
