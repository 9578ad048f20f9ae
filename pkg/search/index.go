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

package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// Result is a search result: one version of a package.
type Result struct {
	Name       string
	Version    version.Version
	Repository string
	Descriptor *repo.Descriptor
	Score      int
}

// Stability is the stability of the result, the one its descriptor states
// or else the one of its version.
func (r *Result) Stability() version.Stability {
	if r.Descriptor.Stability != "" {
		if s, err := version.ParseStability(r.Descriptor.Stability); err == nil {
			return s
		}
	}
	return r.Version.Stability()
}

// Index is a searchable index of the packages of repositories. Earlier
// repositories shadow the versions later ones serve.
type Index struct {
	names *radix.Tree
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{names: radix.New()}
}

// AddRepo adds the packages of r. Repositories that cannot list their
// packages are skipped.
func (i *Index) AddRepo(r repo.Repository) error {
	lister, ok := r.(repo.Lister)
	if !ok {
		return errors.Errorf("repository %q cannot be searched", r.Name())
	}
	names, err := lister.PackageNames()
	if err != nil {
		return errors.Wrapf(err, "repository %q", r.Name())
	}
	for _, n := range names {
		ds, err := r.FindPackages(n)
		if err != nil {
			return errors.Wrapf(err, "repository %q", r.Name())
		}
		for _, d := range ds {
			i.add(r.Name(), d)
		}
	}
	return nil
}

func (i *Index) add(repoName string, d *repo.Descriptor) {
	v, err := version.Parse(d.Version)
	if err != nil {
		return
	}
	name := pkg.NormalizeName(d.Name)
	var results []*Result
	if existing, ok := i.names.Get(name); ok {
		results = existing.([]*Result)
	}
	for _, r := range results {
		if version.Equal(r.Version, v) {
			return
		}
	}
	results = append(results, &Result{Name: name, Version: v, Repository: repoName, Descriptor: d})
	i.names.Insert(name, results)
}

// All returns every version of every package.
func (i *Index) All() []*Result {
	var res []*Result
	i.names.Walk(func(_ string, v interface{}) bool {
		res = append(res, v.([]*Result)...)
		return false
	})
	return res
}

// Search returns the package versions matching q with a score of at most
// threshold. Lower scores are better: names starting with q score 0, names
// containing q score by position, and description matches score
// threshold. With regexp set q is a regular expression matched against
// names and descriptions.
func (i *Index) Search(q string, threshold int, regexpQuery bool) ([]*Result, error) {
	if regexpQuery {
		return i.searchRegexp(q)
	}
	q = strings.ToLower(strings.TrimSpace(q))

	scores := map[string]int{}
	i.names.WalkPrefix(q, func(name string, _ interface{}) bool {
		scores[name] = 0
		return false
	})
	i.names.Walk(func(name string, v interface{}) bool {
		if _, ok := scores[name]; ok {
			return false
		}
		if idx := strings.Index(name, q); idx >= 0 {
			scores[name] = idx + 1
			return false
		}
		if strings.Contains(strings.ToLower(description(v.([]*Result))), q) {
			scores[name] = threshold
		}
		return false
	})

	var res []*Result
	for name, score := range scores {
		if score > threshold {
			continue
		}
		v, _ := i.names.Get(name)
		for _, r := range v.([]*Result) {
			scored := *r
			scored.Score = score
			res = append(res, &scored)
		}
	}
	return res, nil
}

func (i *Index) searchRegexp(q string) ([]*Result, error) {
	re, err := regexp.Compile(q)
	if err != nil {
		return nil, errors.Wrap(err, "invalid search expression")
	}
	var res []*Result
	i.names.Walk(func(name string, v interface{}) bool {
		results := v.([]*Result)
		if re.MatchString(name) || re.MatchString(description(results)) {
			res = append(res, results...)
		}
		return false
	})
	return res, nil
}

// description is the description of the newest version.
func description(results []*Result) string {
	var newest *Result
	for _, r := range results {
		if newest == nil || version.Compare(r.Version, newest.Version) > 0 {
			newest = r
		}
	}
	if newest == nil {
		return ""
	}
	return newest.Descriptor.Description
}

// SortScore sorts by score, then by name, newest versions first.
func SortScore(res []*Result) {
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return version.Compare(a.Version, b.Version) > 0
	})
}
