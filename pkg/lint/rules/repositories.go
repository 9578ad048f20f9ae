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

package rules

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"helm.sh/helm/v3/pkg/lint/support"
	helmRepo "helm.sh/helm/v3/pkg/repo"

	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// Repositories runs the rules related to the repositories of the project:
// those of the manifest first, then those of the global repositories file.
// Every requirement has to be served by one of them.
func Repositories(linter *support.Linter, m *manifest.Manifest, repositoryConfig string) {
	var repos []repo.Repository
	open := func(root, path string, e *helmRepo.Entry) {
		r, err := repo.OpenEntry(root, e)
		if !linter.RunLinterRule(support.ErrorSev, path, err) {
			return
		}
		repos = append(repos, r)
		if h, ok := r.(*repo.HelmRepository); ok {
			IndexAnnotations(linter, e.Name, h.Index)
		}
	}

	for _, e := range m.Repositories {
		open(linter.ChartDir, manifest.FileName, e)
	}

	rf, err := repo.LoadFile(repositoryConfig)
	switch {
	case os.IsNotExist(errors.Cause(err)):
	case err != nil:
		linter.RunLinterRule(support.ErrorSev, repositoryConfig, err)
	default:
		for _, e := range rf.Repositories {
			open(filepath.Dir(repositoryConfig), repositoryConfig, e)
		}
	}

	linter.RunLinterRule(support.WarningSev, manifest.FileName, validateHasRepositories(repos))
	platform := repo.NewPlatformRepository(m.Platform)
	for _, r := range m.Requires {
		linter.RunLinterRule(support.WarningSev, manifest.FileName, validateServed(r.Name, platform, repos))
	}
}

// validateHasRepositories checks that packages can be found somewhere
func validateHasRepositories(repos []repo.Repository) error {
	if len(repos) == 0 {
		return errors.New("no repositories configured, only platform packages can be installed")
	}
	return nil
}

// validateServed checks that some repository knows the required name,
// either as a package or as something a package provides
func validateServed(name string, platform repo.Repository, repos []repo.Repository) error {
	for _, r := range append([]repo.Repository{platform}, repos...) {
		ds, err := r.FindPackages(name)
		if err == nil && len(ds) > 0 {
			return nil
		}
		ps, err := r.GetProviders(name)
		if err == nil && len(ps) > 0 {
			return nil
		}
	}
	return errors.Errorf("%s is not served by any repository, there may be a typo in the package name", name)
}
