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
Package rules contains the rules hypsolve runs against a project when
hypsolve validate is run: the manifest, the repositories it resolves from
and the lock. Charts served by Helm repositories are checked on top of the
default Helm rules.
*/
package rules

import (
	"path/filepath"

	"github.com/pkg/errors"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
)

// Manifest runs the rules related to hypsolve.toml. It returns the parsed
// manifest, or nil when it cannot be read, in which case no other rule can
// run.
func Manifest(linter *support.Linter) *manifest.Manifest {
	path := filepath.Join(linter.ChartDir, manifest.FileName)
	m, err := manifest.Load(path)
	if !linter.RunLinterRule(support.ErrorSev, manifest.FileName, err) {
		return nil
	}

	linter.RunLinterRule(support.InfoSev, manifest.FileName, validateManifestName(m))
	linter.RunLinterRule(support.WarningSev, manifest.FileName, validateDevWithoutPreferStable(m))
	for _, r := range m.Requires {
		linter.RunLinterRule(support.ErrorSev, manifest.FileName, validateSatisfiableRequirement(r))
		linter.RunLinterRule(support.WarningSev, manifest.FileName, validateBoundedRequirement(r))
	}
	for _, c := range m.Conflicts {
		r, ok := m.Require(c.Name)
		if !ok {
			continue
		}
		linter.RunLinterRule(support.ErrorSev, manifest.FileName, validateConflictLeavesVersions(r, c))
		linter.RunLinterRule(support.WarningSev, manifest.FileName, validateConflictOverlap(r, c))
	}
	return m
}

// validateManifestName checks that the project is named
func validateManifestName(m *manifest.Manifest) error {
	if m.Name == "" {
		return errors.New("Setting name in hypsolve.toml is recommended")
	}
	return nil
}

// validateDevWithoutPreferStable checks that a dev minimum stability does
// not make development versions win over stable ones
func validateDevWithoutPreferStable(m *manifest.Manifest) error {
	if m.MinimumStability == version.StabilityDev && !m.PreferStable {
		return errors.New("minimum-stability is dev without prefer-stable: development versions will be selected over stable ones")
	}
	return nil
}

// validateBoundedRequirement checks that a requirement does not accept
// every version
func validateBoundedRequirement(r manifest.Requirement) error {
	if _, ok := r.Constraint.(version.MatchAll); ok {
		return errors.Errorf("requirement %s accepts any version, a constraint such as ^1.0 is recommended", r)
	}
	return nil
}

// validateSatisfiableRequirement checks that a requirement can match some
// version
func validateSatisfiableRequirement(r manifest.Requirement) error {
	if version.IsEmpty(r.Constraint) {
		return errors.Errorf("requirement %s matches no version", r)
	}
	return nil
}

// validateConflictLeavesVersions checks that a conflict leaves some version
// of a required package installable
func validateConflictLeavesVersions(r, c manifest.Requirement) error {
	if _, ok := c.Constraint.(version.MatchAll); ok {
		return errors.Errorf("%s is required but conflicts with every version", r.Name)
	}
	return nil
}

// validateConflictOverlap points out conflicts narrowing a requirement
func validateConflictOverlap(r, c manifest.Requirement) error {
	if _, ok := c.Constraint.(version.MatchAll); ok {
		return nil
	}
	if version.Intersects(r.Constraint, c.Constraint) {
		return errors.Errorf("%s is both required as %s and in conflict as %s", r.Name, r.Pretty, c.Pretty)
	}
	return nil
}
