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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/chart"
)

const (
	testIndexFile       = "testdata/charts/index.yaml"
	indexWithDuplicates = `
apiVersion: v1
entries:
  nginx:
    - urls:
        - https://charts.helm.sh/stable/nginx-0.2.0.tgz
      name: nginx
      description: string
      version: 0.2.0
  nginx:
    - urls:
        - https://charts.helm.sh/stable/alpine-1.0.0.tgz
      name: alpine
      description: string
      version: 1.0.0
`
)

func TestIndexFile(t *testing.T) {
	i := NewIndexFile()
	for _, x := range []struct {
		md       *chart.Metadata
		filename string
		baseURL  string
		digest   string
	}{
		{&chart.Metadata{APIVersion: "v2", Name: "clipper", Version: "0.1.0"}, "clipper-0.1.0.tgz", "http://example.com/charts", "sha256:1234567890"},
		{&chart.Metadata{APIVersion: "v2", Name: "cutter", Version: "0.1.1"}, "cutter-0.1.1.tgz", "http://example.com/charts", "sha256:1234567890abc"},
		{&chart.Metadata{APIVersion: "v2", Name: "cutter", Version: "0.2.0", Annotations: map[string]string{
			SharedDependenciesAnnotation: "- name: clipper\n  version: \"^0.1.0\"\n",
		}}, "cutter-0.2.0.tgz", "http://example.com/charts", "sha256:1234567890abc"},
	} {
		require.NoError(t, i.MustAdd(x.md, x.filename, x.baseURL, x.digest))
	}
	i.SortEntries()

	r := NewHelmRepository("example", i)
	cutters, err := r.FindPackages("cutter")
	require.NoError(t, err)
	require.Len(t, cutters, 2)
	assert.Equal(t, "0.2.0", cutters[0].Version)
	assert.Equal(t, map[string]string{"clipper": "^0.1.0"}, cutters[0].Requires)
	assert.Equal(t, "http://example.com/charts/cutter-0.2.0.tgz", cutters[0].Dist["url"])
	assert.Empty(t, cutters[1].Requires)
}

func TestLoadHelmRepository(t *testing.T) {
	is := assert.New(t)
	r, err := LoadHelmRepository("charts", testIndexFile)
	require.NoError(t, err)

	fleet, err := r.FindPackages("fleet")
	is.NoError(err)
	// 0.3.3 carries a broken annotation and is skipped
	if is.Len(fleet, 1) {
		is.Equal("0.3.4", fleet[0].Version)
		is.Equal("~0.3.0", fleet[0].Requires["fleet-crd"])
		is.Equal("sha256:1234567890abcdef", fleet[0].Dist["digest"])
	}

	crds, _ := r.FindPackages("fleet-crd")
	is.Len(crds, 2)
	is.Equal(3, r.Count())
}

// Duplicate keys must never be accepted silently.
func TestLoadIndexDuplicates(t *testing.T) {
	_, err := loadIndex([]byte(indexWithDuplicates), "indexWithDuplicates")
	assert.Error(t, err)
}

func TestLoadIndexNoAPIVersion(t *testing.T) {
	_, err := loadIndex([]byte("entries: {}\n"), "noapi")
	assert.Equal(t, ErrNoAPIVersion, err)
}

func TestSharedDependencies(t *testing.T) {
	deps, err := SharedDependencies(&chart.Metadata{Name: "a", Version: "1.0.0"})
	assert.NoError(t, err)
	assert.Nil(t, deps)

	_, err = SharedDependencies(&chart.Metadata{Name: "a", Version: "1.0.0", Annotations: map[string]string{
		SharedDependenciesAnnotation: "{broken",
	}})
	assert.Error(t, err)
}
