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

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// FileRepository serves the packages listed in a YAML or JSON file:
//
//	packages:
//	  - name: acme/log
//	    version: 1.2.0
//	    require:
//	      acme/fmt: ^2.0
type FileRepository struct {
	*ArrayRepository
	Path string
}

type packagesFile struct {
	Packages []*Descriptor `json:"packages"`
}

// LoadFileRepository reads the packages file at path.
func LoadFileRepository(name, path string) (*FileRepository, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load packages file (%s)", path)
	}
	var f packagesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, errors.Wrapf(err, "error parsing packages file (%s)", path)
	}
	r := &FileRepository{ArrayRepository: NewArrayRepository(name), Path: path}
	for i, d := range f.Packages {
		if d == nil || d.Name == "" {
			return nil, errors.Errorf("entry %d of %s has no name", i, path)
		}
		r.Add(d)
	}
	return r, nil
}

// WritePackagesFile writes descriptors in the format LoadFileRepository
// reads.
func WritePackagesFile(path string, descriptors []*Descriptor) error {
	b, err := yaml.Marshal(packagesFile{Packages: descriptors})
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}
