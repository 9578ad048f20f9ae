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
Package manifest reads the project manifest, hypsolve.toml.

The manifest names the packages a project requires, the ones it refuses,
and the settings the resolution runs with:

	name = "acme/shop"
	minimum-stability = "stable"
	prefer-stable = true

	[require]
	"acme/http" = "^1.2"
	"acme/core" = "dev-main as 1.0.x-dev"

	[conflict]
	"acme/legacy" = "*"

	[platform]
	go = "1.16.0"

	[[repository]]
	name = "local"
	url = "packages.yaml"
*/
package manifest

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/opencontainers/go-digest"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	helmRepo "helm.sh/helm/v3/pkg/repo"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// FileName is the name of the manifest inside a project directory.
const FileName = "hypsolve.toml"

// Manifest is a parsed hypsolve.toml.
type Manifest struct {
	Name             string
	Requires         []Requirement
	Conflicts        []Requirement
	MinimumStability version.Stability
	PreferStable     bool
	PreferLowest     bool
	// Platform overrides the detected platform packages, name to version.
	Platform     map[string]string
	Repositories []*helmRepo.Entry
}

// Requirement is one entry of the require or conflict tables, sorted by name
// in the Manifest.
type Requirement struct {
	Name string
	version.RootConstraint
}

func (r Requirement) String() string {
	return r.Name + " " + r.Pretty
}

type rawManifest struct {
	Name             string            `toml:"name,omitempty"`
	MinimumStability string            `toml:"minimum-stability,omitempty"`
	PreferStable     bool              `toml:"prefer-stable,omitempty"`
	PreferLowest     bool              `toml:"prefer-lowest,omitempty"`
	Require          map[string]string `toml:"require,omitempty"`
	Conflict         map[string]string `toml:"conflict,omitempty"`
	Platform         map[string]string `toml:"platform,omitempty"`
	Repositories     []rawRepository   `toml:"repository,omitempty"`
}

type rawRepository struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load manifest (%s)", path)
	}
	m, err := Read(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest %s", path)
	}
	return m, nil
}

// Read parses a manifest.
func Read(r io.Reader) (*Manifest, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	raw := rawManifest{}
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse the manifest as TOML")
	}
	return fromRaw(raw)
}

func fromRaw(raw rawManifest) (*Manifest, error) {
	m := &Manifest{
		Name:         raw.Name,
		PreferStable: raw.PreferStable,
		PreferLowest: raw.PreferLowest,
		Platform:     map[string]string{},
	}

	var err error
	if m.MinimumStability, err = version.ParseStability(raw.MinimumStability); err != nil {
		return nil, errors.Wrap(err, "minimum-stability")
	}
	if m.Requires, err = requirements("require", raw.Require); err != nil {
		return nil, err
	}
	if m.Conflicts, err = requirements("conflict", raw.Conflict); err != nil {
		return nil, err
	}
	for name, v := range raw.Platform {
		// an empty version disables the platform package
		if v == "" {
			m.Platform[pkg.NormalizeName(name)] = v
			continue
		}
		if _, err := version.Parse(v); err != nil {
			return nil, errors.Wrapf(err, "platform %q", name)
		}
		m.Platform[pkg.NormalizeName(name)] = v
	}

	seen := map[string]bool{}
	for i, r := range raw.Repositories {
		if r.Name == "" || r.URL == "" {
			return nil, errors.Errorf("repository #%d needs both a name and a url", i+1)
		}
		if seen[r.Name] {
			return nil, errors.Errorf("repository %q is declared twice", r.Name)
		}
		seen[r.Name] = true
		m.Repositories = append(m.Repositories, &helmRepo.Entry{Name: r.Name, URL: r.URL})
	}
	return m, nil
}

func requirements(table string, entries map[string]string) ([]Requirement, error) {
	reqs := make([]Requirement, 0, len(entries))
	seen := map[string]string{}
	for name, constraint := range entries {
		n := pkg.NormalizeName(name)
		if n == "" {
			return nil, errors.Errorf("%s: empty package name", table)
		}
		if prev, ok := seen[n]; ok {
			return nil, errors.Errorf("%s: %q and %q name the same package", table, prev, name)
		}
		seen[n] = name
		rc, err := version.ParseRootConstraint(constraint)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", table, name)
		}
		reqs = append(reqs, Requirement{Name: n, RootConstraint: rc})
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })
	return reqs, nil
}

// Require returns the requirement on name, if any.
func (m *Manifest) Require(name string) (Requirement, bool) {
	name = pkg.NormalizeName(name)
	for _, r := range m.Requires {
		if r.Name == name {
			return r, true
		}
	}
	return Requirement{}, false
}

// Drop removes the requirement on name. It reports whether there was one.
func (m *Manifest) Drop(name string) bool {
	name = pkg.NormalizeName(name)
	for i, r := range m.Requires {
		if r.Name == name {
			m.Requires = append(m.Requires[:i:i], m.Requires[i+1:]...)
			return true
		}
	}
	return false
}

// StabilityFlags returns the stabilities the requirements ask for through
// `@flag` suffixes or unstable versions, when looser than the minimum.
func (m *Manifest) StabilityFlags() map[string]version.Stability {
	flags := map[string]version.Stability{}
	for _, r := range m.Requires {
		if r.Flagged && version.CompareStability(r.Stability, m.MinimumStability) < 0 {
			flags[r.Name] = r.Stability
		}
	}
	return flags
}

// ContentHash digests everything in the manifest that affects resolution.
// Formatting, comments, key order and the project name do not change it.
func (m *Manifest) ContentHash() (digest.Digest, error) {
	raw := m.toRaw()
	raw.Name = ""
	b, err := toml.Marshal(raw)
	if err != nil {
		return "", errors.Wrap(err, "unable to hash the manifest")
	}
	return digest.FromBytes(b), nil
}

// Write stores the manifest at path. Comments and formatting of a previous
// file are not kept.
func (m *Manifest) Write(path string) error {
	b, err := toml.Marshal(m.toRaw())
	if err != nil {
		return errors.Wrap(err, "unable to encode the manifest as TOML")
	}
	tmp, err := ioutil.TempFile(filepath.Dir(path), ".hypsolve-toml-")
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

func (m *Manifest) toRaw() rawManifest {
	raw := rawManifest{
		Name:             m.Name,
		MinimumStability: m.MinimumStability.String(),
		PreferStable:     m.PreferStable,
		PreferLowest:     m.PreferLowest,
		Require:          map[string]string{},
		Conflict:         map[string]string{},
		Platform:         m.Platform,
	}
	for _, r := range m.Requires {
		raw.Require[r.Name] = r.Pretty
	}
	for _, r := range m.Conflicts {
		raw.Conflict[r.Name] = r.Pretty
	}
	for _, e := range m.Repositories {
		raw.Repositories = append(raw.Repositories, rawRepository{Name: e.Name, URL: e.URL})
	}
	return raw
}
