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

package action

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	helmAction "helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/pkg/lint"
)

// Validate checks projects, and charts that publish shared dependencies.
type Validate struct {
	// Strict fails on warnings too.
	Strict           bool
	RepositoryConfig string
}

// ValidateResult is the result of a Validate run.
type ValidateResult struct {
	TotalLinted int
	Messages    []support.Message
	Errors      []error
}

// NewValidate creates a new Validate object reading global repositories
// from repositoryConfig.
func NewValidate(repositoryConfig string) *Validate {
	return &Validate{RepositoryConfig: repositoryConfig}
}

// Run validates every path. A directory holding a Chart.yaml, or a packaged
// chart, goes through the Helm chart rules and the annotation rules. Any
// other directory is a project.
func (v *Validate) Run(paths []string) *ValidateResult {
	lowestTolerance := support.ErrorSev
	if v.Strict {
		lowestTolerance = support.WarningSev
	}

	result := &ValidateResult{}
	for _, path := range paths {
		if isChart(path) {
			helmLint := helmAction.NewLint()
			helmLint.Strict = v.Strict
			hr := helmLint.Run([]string{path}, nil)
			result.Messages = append(result.Messages, hr.Messages...)
			result.Errors = append(result.Errors, hr.Errors...)

			linter, err := lintChart(path)
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			v.collect(result, linter, lowestTolerance)
			continue
		}

		if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
			result.Errors = append(result.Errors, errors.Errorf("%s is not a project directory", path))
			continue
		}
		v.collect(result, lint.Project(path, v.RepositoryConfig), lowestTolerance)
	}
	return result
}

func (v *Validate) collect(result *ValidateResult, linter support.Linter, lowestTolerance int) {
	result.Messages = append(result.Messages, linter.Messages...)
	result.TotalLinted++
	for _, msg := range linter.Messages {
		if msg.Severity >= lowestTolerance {
			result.Errors = append(result.Errors, msg.Err)
		}
	}
}

func isPackagedChart(path string) bool {
	return strings.HasSuffix(path, ".tgz") || strings.HasSuffix(path, ".tar.gz")
}

func isChart(path string) bool {
	if isPackagedChart(path) {
		return true
	}
	_, err := os.Stat(filepath.Join(path, "Chart.yaml"))
	return err == nil
}

// lintChart extracts packaged charts to a temp dir before running the
// annotation rules. Charts that cannot be opened were already reported by
// the Helm linter.
func lintChart(path string) (support.Linter, error) {
	linter := support.Linter{}
	if !isPackagedChart(path) {
		return lint.Chart(path), nil
	}

	tempDir, err := ioutil.TempDir("", "hypsolve-validate")
	if err != nil {
		return linter, err
	}
	defer os.RemoveAll(tempDir)

	file, err := os.Open(path)
	if err != nil {
		return linter, nil
	}
	defer file.Close()

	if err = chartutil.Expand(tempDir, file); err != nil {
		return linter, nil
	}

	files, err := ioutil.ReadDir(tempDir)
	if err != nil || len(files) == 0 || !files[0].IsDir() {
		return linter, nil
	}
	return lint.Chart(filepath.Join(tempDir, files[0].Name())), nil
}
