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

package repo

import (
	"io/ioutil"
	"sort"

	"github.com/Masterminds/log-go"
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	yamlv2 "gopkg.in/yaml.v2"
	"helm.sh/helm/v3/pkg/chart"
	helmRepo "helm.sh/helm/v3/pkg/repo"
	"sigs.k8s.io/yaml"
)

// APIVersionV1 is the v1 API version for index and repository files.
const APIVersionV1 = "v1"

const (
	// SharedDependenciesAnnotation lists, as a YAML list of chart
	// dependencies, the charts a chart requires next to it.
	SharedDependenciesAnnotation = "hypper.cattle.io/shared-dependencies"
	// OptionalDependenciesAnnotation lists dependencies that are never
	// required, so the resolver does not read them.
	OptionalDependenciesAnnotation = "hypper.cattle.io/optional-dependencies"
)

// ErrNoAPIVersion indicates that an API version was not specified.
var ErrNoAPIVersion = errors.New("no API version specified")

// IndexFile represents the index file in a chart repository
//
// This is a composite type of helm's Indexfile
type IndexFile struct {
	*helmRepo.IndexFile
}

// NewIndexFile initializes an index
func NewIndexFile() *IndexFile {
	helmIndex := helmRepo.NewIndexFile()
	return &IndexFile{
		helmIndex,
	}
}

// LoadIndexFile takes a file at the given path and returns an IndexFile object
func LoadIndexFile(path string) (*IndexFile, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	i, err := loadIndex(b, path)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading %s", path)
	}
	return i, nil
}

// loadIndex loads an index file and does minimal validity checking.
//
// The source parameter is only used for logging.
// This will fail if API Version is not set (ErrNoAPIVersion) or if the unmarshal fails.
func loadIndex(data []byte, source string) (*IndexFile, error) {
	i := helmRepo.IndexFile{}
	if err := yaml.UnmarshalStrict(data, &i); err != nil {
		return &IndexFile{}, err
	}

	for name, cvs := range i.Entries {
		for idx := len(cvs) - 1; idx >= 0; idx-- {
			if cvs[idx].APIVersion == "" {
				cvs[idx].APIVersion = chart.APIVersionV1
			}
			if err := cvs[idx].Validate(); err != nil {
				log.Warnf("skipping loading invalid entry for chart %q %q from %s: %s", name, cvs[idx].Version, source, err)
				cvs = append(cvs[:idx], cvs[idx+1:]...)
			}
		}
		i.Entries[name] = cvs
	}
	i.SortEntries()
	if i.APIVersion == "" {
		return &IndexFile{&i}, ErrNoAPIVersion
	}
	return &IndexFile{&i}, nil
}

// SharedDependencies reads the shared-dependencies annotation of a chart.
func SharedDependencies(md *chart.Metadata) ([]*chart.Dependency, error) {
	raw, ok := md.Annotations[SharedDependenciesAnnotation]
	if !ok {
		return nil, nil
	}
	var deps []*chart.Dependency
	if err := yamlv2.UnmarshalStrict([]byte(raw), &deps); err != nil {
		return nil, errors.Wrapf(err, "chart %s %s has a malformed %s annotation", md.Name, md.Version, SharedDependenciesAnnotation)
	}
	return deps, nil
}

// HelmRepository serves the charts of a Helm index as packages. Shared
// dependencies become requires; bundled subcharts are part of the chart and
// play no role in resolution.
type HelmRepository struct {
	*ArrayRepository
	Index *IndexFile
}

// LoadHelmRepository reads a Helm index.yaml from path.
func LoadHelmRepository(name, path string) (*HelmRepository, error) {
	i, err := LoadIndexFile(path)
	if err != nil {
		return nil, err
	}
	return NewHelmRepository(name, i), nil
}

// NewHelmRepository converts the entries of index. Chart versions that are
// not semver or carry broken annotations are skipped with a warning, the way
// Helm skips invalid index entries.
func NewHelmRepository(name string, index *IndexFile) *HelmRepository {
	r := &HelmRepository{ArrayRepository: NewArrayRepository(name), Index: index}

	charts := make([]string, 0, len(index.Entries))
	for c := range index.Entries {
		charts = append(charts, c)
	}
	sort.Strings(charts)

	for _, c := range charts {
		for _, cv := range index.Entries[c] {
			d, err := chartDescriptor(cv)
			if err != nil {
				log.Warnf("skipping chart %q %q from %s: %s", c, cv.Version, name, err)
				continue
			}
			r.Add(d)
		}
	}
	return r
}

func chartDescriptor(cv *helmRepo.ChartVersion) (*Descriptor, error) {
	if _, err := semver.NewVersion(cv.Version); err != nil {
		return nil, errors.Wrap(err, "chart version is not semver")
	}
	deps, err := SharedDependencies(cv.Metadata)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Name:        cv.Name,
		Version:     cv.Version,
		Description: cv.Description,
		Dist:        map[string]string{"type": "helm"},
	}
	if len(cv.URLs) > 0 {
		d.Dist["url"] = cv.URLs[0]
	}
	if cv.Digest != "" {
		d.Dist["digest"] = cv.Digest
	}
	if len(deps) > 0 {
		d.Requires = make(map[string]string, len(deps))
		for _, dep := range deps {
			c := dep.Version
			if c == "" {
				c = "*"
			}
			d.Requires[dep.Name] = c
		}
	}
	return d, nil
}
