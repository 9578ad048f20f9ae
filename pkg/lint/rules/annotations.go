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
	"fmt"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	helmChart "helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// ChartAnnotations runs the annotation rules against the Chart.yaml of the
// chart in linter.ChartDir.
func ChartAnnotations(linter *support.Linter) {
	chartFileName := "Chart.yaml"
	chartFile, err := chartutil.LoadChartfile(filepath.Join(linter.ChartDir, chartFileName))
	if err != nil {
		// the Helm chartfile rules report unreadable charts
		return
	}
	annotations(linter, chartFileName, chartFile)
}

// IndexAnnotations runs the annotation rules against every chart version of
// a Helm repository index. Charts hypsolve would skip are reported as
// warnings.
func IndexAnnotations(linter *support.Linter, repoName string, index *repo.IndexFile) {
	charts := make([]string, 0, len(index.Entries))
	for c := range index.Entries {
		charts = append(charts, c)
	}
	sort.Strings(charts)

	for _, c := range charts {
		for _, cv := range index.Entries[c] {
			path := fmt.Sprintf("%s: %s %s", repoName, c, cv.Version)
			linter.RunLinterRule(support.WarningSev, path, validateChartVersion(cv.Metadata))
			annotations(linter, path, cv.Metadata)
		}
	}
}

func annotations(linter *support.Linter, path string, md *helmChart.Metadata) {
	// broken dependency lists make the chart unusable
	if _, ok := md.Annotations[repo.SharedDependenciesAnnotation]; ok {
		linter.RunLinterRule(support.ErrorSev, path, validateSharedDepsCorrect(md))
	}
	if _, ok := md.Annotations[repo.OptionalDependenciesAnnotation]; ok {
		linter.RunLinterRule(support.ErrorSev, path, validateOptionalSharedDepsCorrect(md))
	}
}

// validateChartVersion checks that the chart version is semver, as
// hypsolve skips other charts
func validateChartVersion(md *helmChart.Metadata) error {
	if _, err := semver.NewVersion(md.Version); err != nil {
		return errors.Wrapf(err, "version %q is not semver, the chart will be skipped", md.Version)
	}
	return nil
}

// validateSharedDepsCorrect checks that shared deps are in the correct format
func validateSharedDepsCorrect(md *helmChart.Metadata) error {
	var deps []*helmChart.Dependency
	if err := yaml.UnmarshalStrict([]byte(md.Annotations[repo.SharedDependenciesAnnotation]), &deps); err != nil {
		return errors.New("Shared dependencies list is broken, please check the correct format")
	}
	return validateDeps(deps)
}

// validateOptionalSharedDepsCorrect checks that optional shared deps are in the correct format
func validateOptionalSharedDepsCorrect(md *helmChart.Metadata) error {
	var deps []*helmChart.Dependency
	if err := yaml.UnmarshalStrict([]byte(md.Annotations[repo.OptionalDependenciesAnnotation]), &deps); err != nil {
		return errors.New("Optional shared dependencies list is broken, please check the correct format")
	}
	return validateDeps(deps)
}

func validateDeps(deps []*helmChart.Dependency) error {
	for _, d := range deps {
		if d.Name == "" {
			return errors.New("shared dependency without a name")
		}
		if err := validateSharedDepVersion(d.Version); err != nil {
			return errors.Wrapf(err, "shared dependency %s", d.Name)
		}
	}
	return nil
}

// validateSharedDepVersion checks that the shared dep version is an actual semver range
func validateSharedDepVersion(depVersion string) error {
	if depVersion == "" {
		return errors.New("version is required")
	}

	_, err := semver.NewConstraint(depVersion)
	if err != nil {
		return errors.Wrap(err, "Shared dependency version is broken")
	}

	return nil
}
