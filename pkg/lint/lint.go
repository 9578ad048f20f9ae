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

package lint

import (
	"path/filepath"

	helmRules "helm.sh/helm/v3/pkg/lint/rules"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/pkg/lint/rules"
)

// Project runs all of the project linters on the given base directory.
func Project(basedir, repositoryConfig string) support.Linter {
	// Using abs path to get directory context
	projectDir, _ := filepath.Abs(basedir)

	linter := support.Linter{ChartDir: projectDir}
	m := rules.Manifest(&linter)
	if m == nil {
		return linter
	}
	rules.Repositories(&linter, m, repositoryConfig)
	rules.Lock(&linter, m)
	return linter
}

// Chart runs the Chart.yaml linters on a chart that publishes hypsolve
// annotations.
func Chart(basedir string) support.Linter {
	chartDir, _ := filepath.Abs(basedir)

	linter := support.Linter{ChartDir: chartDir}
	helmRules.Chartfile(&linter)
	rules.ChartAnnotations(&linter)
	return linter
}
