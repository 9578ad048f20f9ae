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
	"context"

	"github.com/rancher-sandbox/hypsolve/internal/rules"
)

// Install is the action for installing the project.
//
// With a lock resolved from the current manifest the locked versions are
// kept. Without one, or with a lock the manifest has changed since, the
// requirements are resolved again.
type Install struct {
	*Resolve

	// DryRun resolves without writing the lock.
	DryRun bool
	// FromLock is set by Run when the locked versions were kept.
	FromLock bool
}

// NewInstall creates a new Install object with the given configuration.
func NewInstall(cfg *Configuration) *Install {
	return &Install{Resolve: &Resolve{Config: cfg}}
}

// Run executes the installation and, unless DryRun is set, writes the lock.
func (i *Install) Run(ctx context.Context) (*Result, error) {
	cfg := i.Config
	m := cfg.Manifest

	hash, err := m.ContentHash()
	if err != nil {
		return nil, err
	}

	jobs := requireJobs(m, rules.ActionInstall, nil)
	jobs = append(jobs, conflictJobs(m)...)

	i.FromLock = cfg.Lock.IsFresh(hash)
	switch {
	case i.FromLock:
		cfg.Log.Debug("Lock file is up to date, installing the locked versions")
		locked, err := lockJobs(cfg.Lock, nil)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, locked...)
	case cfg.Lock != nil:
		cfg.Log.Warn("The lock file is not up to date with the latest changes in hypsolve.toml, resolving again")
	default:
		cfg.Log.Debug("No lock file found, resolving")
	}

	res, err := i.Resolve.Run(ctx, jobs, cfg.Lock)
	if err != nil {
		return nil, err
	}
	if i.DryRun {
		return res, nil
	}
	if err := res.Lock.Write(cfg.LockPath()); err != nil {
		return nil, err
	}
	cfg.Lock = res.Lock
	return res, nil
}
