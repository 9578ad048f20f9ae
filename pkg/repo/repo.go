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
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	helmRepo "helm.sh/helm/v3/pkg/repo"
)

// IndexFileName is the file name that marks a repository path as a Helm
// chart index rather than a packages file.
const IndexFileName = "index.yaml"

// File represents the repositories.yaml file
//
// File is a composite type of helm/pkg/repo.File
type File struct {
	helmRepo.File
}

// NewFile generates an empty repositories file.
//
// Generated and APIVersion are automatically set.
func NewFile() *File {
	helmFile := helmRepo.NewFile()
	return &File{
		*helmFile,
	}
}

// LoadFile takes a file at the given path and returns a File object
func LoadFile(path string) (*File, error) {
	r := new(File)
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return r, errors.Wrapf(err, "couldn't load repositories file (%s)", path)
	}

	err = yaml.Unmarshal(b, &r.File)
	return r, err
}

// Open instantiates the repositories of the file, keeping file order as
// priority order. Relative paths are resolved inside root.
func (f *File) Open(root string) ([]Repository, error) {
	repos := make([]Repository, 0, len(f.Repositories))
	for _, e := range f.Repositories {
		r, err := OpenEntry(root, e)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, nil
}

// OpenEntry loads the repository an entry points to: a Helm index when the
// path names an index.yaml, a packages file otherwise.
func OpenEntry(root string, e *helmRepo.Entry) (Repository, error) {
	p, err := ResolvePath(root, e.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "repository %q", e.Name)
	}
	if filepath.Base(p) == IndexFileName {
		return LoadHelmRepository(e.Name, p)
	}
	return LoadFileRepository(e.Name, p)
}

// ResolvePath turns a repository location into a local path. file:// URLs
// and absolute paths are used as they are; relative paths cannot escape
// root.
func ResolvePath(root, location string) (string, error) {
	if strings.Contains(location, "://") && !strings.HasPrefix(location, "file://") {
		return "", errors.Errorf("unsupported repository location %q: only local paths are read", location)
	}
	p := strings.TrimPrefix(location, "file://")
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return securejoin.SecureJoin(root, p)
}
