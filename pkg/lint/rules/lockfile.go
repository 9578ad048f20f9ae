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

	"github.com/rancher-sandbox/hypsolve/pkg/lock"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// Lock runs the rules related to hypsolve.lock.
func Lock(linter *support.Linter, m *manifest.Manifest) {
	l, err := lock.Load(filepath.Join(linter.ChartDir, lock.FileName))
	if os.IsNotExist(errors.Cause(err)) {
		linter.RunLinterRule(support.InfoSev, lock.FileName, errors.New("no lock file yet, hypsolve install creates it"))
		return
	}
	if !linter.RunLinterRule(support.ErrorSev, lock.FileName, err) {
		return
	}
	linter.RunLinterRule(support.WarningSev, lock.FileName, validateLockFresh(l, m))
	for _, r := range m.Requires {
		linter.RunLinterRule(support.WarningSev, lock.FileName, validateLocked(l, r))
	}
}

// validateLockFresh checks that the lock was resolved from the manifest as
// it is now
func validateLockFresh(l *lock.Lock, m *manifest.Manifest) error {
	hash, err := m.ContentHash()
	if err != nil {
		return err
	}
	if !l.IsFresh(hash) {
		return errors.New("the lock file is not up to date with the latest changes in hypsolve.toml, run hypsolve update")
	}
	return nil
}

// validateLocked checks that a requirement is in the lock. Platform
// packages are never locked.
func validateLocked(l *lock.Lock, r manifest.Requirement) error {
	if repo.IsPlatformName(r.Name) {
		return nil
	}
	if l.Get(r.Name) == nil {
		return errors.Errorf("%s is required but not locked", r.Name)
	}
	return nil
}
