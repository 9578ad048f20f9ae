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

// Package lock reads and writes hypsolve.lock, the record of the packages
// the last resolution selected.
package lock

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// FileName is the name of the lock inside a project directory.
const FileName = "hypsolve.lock"

// lockTimeout bounds how long Write waits for another writer.
const lockTimeout = 30 * time.Second

// Lock is the content of a lock file.
type Lock struct {
	// ContentHash is the hash of the manifest the lock was resolved from.
	ContentHash digest.Digest `json:"content-hash"`
	Packages    []*Entry      `json:"packages"`
	Aliases     []*AliasEntry `json:"aliases,omitempty"`
}

// Entry is a locked package. It keeps the whole descriptor so that the
// installed set can be rebuilt without asking any repository.
type Entry struct {
	repo.Descriptor
	Repository string `json:"repository,omitempty"`
}

// AliasEntry records that Name at Version was also installed as Alias.
type AliasEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Alias   string `json:"alias"`
}

// New creates the lock for a resolution result. Platform packages are not
// locked.
func New(hash digest.Digest, packages []*pkg.Pkg) *Lock {
	l := &Lock{ContentHash: hash, Packages: []*Entry{}}
	for _, p := range packages {
		switch {
		case p.Platform:
		case p.IsAlias():
			l.Aliases = append(l.Aliases, &AliasEntry{
				Name:    p.Name,
				Version: p.AliasOf.PrettyVersion,
				Alias:   p.PrettyVersion,
			})
		default:
			l.Packages = append(l.Packages, &Entry{Descriptor: descriptor(p), Repository: p.Repository})
		}
	}
	l.sort()
	return l
}

func descriptor(p *pkg.Pkg) repo.Descriptor {
	d := repo.Descriptor{
		Name:          p.Name,
		Version:       p.PrettyVersion,
		Description:   p.Description,
		Requires:      links(p.Requires),
		Conflicts:     links(p.Conflicts),
		Provides:      links(p.Provides),
		Replaces:      links(p.Replaces),
		BranchAliases: p.BranchAliases,
		Dist:          p.Dist,
	}
	if p.Stability != p.Version.Stability() {
		d.Stability = p.Stability.String()
	}
	return d
}

func links(ls []*pkg.Link) map[string]string {
	if len(ls) == 0 {
		return nil
	}
	m := make(map[string]string, len(ls))
	for _, l := range ls {
		m[l.Target] = l.Pretty
	}
	return m
}

func (l *Lock) sort() {
	sort.SliceStable(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
	sort.SliceStable(l.Aliases, func(i, j int) bool {
		a, b := l.Aliases[i], l.Aliases[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Alias < b.Alias
	})
}

// Load reads the lock at path.
func Load(path string) (*Lock, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load lock file (%s)", path)
	}
	l := &Lock{}
	if err := yaml.Unmarshal(b, l); err != nil {
		return nil, errors.Wrapf(err, "invalid lock file %s", path)
	}
	if l.ContentHash != "" {
		if err := l.ContentHash.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid content hash in %s", path)
		}
	}
	for i, e := range l.Packages {
		if e == nil || e.Name == "" || e.Version == "" {
			return nil, errors.Errorf("lock file %s: package #%d needs a name and a version", path, i+1)
		}
	}
	l.sort()
	return l, nil
}

// IsFresh reports whether the lock was resolved from a manifest with the
// given hash.
func (l *Lock) IsFresh(hash digest.Digest) bool {
	return l != nil && l.ContentHash != "" && l.ContentHash == hash
}

// Descriptors returns the locked packages as the installed set of a new
// resolution.
func (l *Lock) Descriptors() []*repo.Descriptor {
	if l == nil {
		return nil
	}
	ds := make([]*repo.Descriptor, 0, len(l.Packages))
	for _, e := range l.Packages {
		d := e.Descriptor
		ds = append(ds, &d)
	}
	return ds
}

// Names returns the locked package names, sorted.
func (l *Lock) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.Packages))
	for _, e := range l.Packages {
		names = append(names, e.Name)
	}
	return names
}

// Get returns the entry for name, or nil.
func (l *Lock) Get(name string) *Entry {
	if l == nil {
		return nil
	}
	name = pkg.NormalizeName(name)
	for _, e := range l.Packages {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Bytes serializes the lock. The output only depends on the content: the
// same lock always gives the same bytes.
func (l *Lock) Bytes() ([]byte, error) {
	l.sort()
	return yaml.Marshal(l)
}

// Write stores the lock at path. Concurrent writers are serialized with a
// file lock next to it and the content is replaced atomically.
func (l *Lock) Write(path string) error {
	b, err := l.Bytes()
	if err != nil {
		return errors.Wrap(err, "couldn't serialize the lock")
	}

	fileLock := flock.New(path + ".flock")
	lockCtx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := fileLock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return errors.Wrapf(err, "couldn't lock %s", path)
	}
	if !locked {
		return errors.Errorf("couldn't lock %s", path)
	}
	defer fileLock.Unlock()

	tmp, err := ioutil.TempFile(filepath.Dir(path), ".hypsolve-lock-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
