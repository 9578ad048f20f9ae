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
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rancher-sandbox/hypsolve/internal/solver"
	"github.com/rancher-sandbox/hypsolve/pkg/cli"
	"github.com/rancher-sandbox/hypsolve/pkg/lock"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

var (
	// ErrTimedOut is returned when a resolution runs out of steps or time.
	ErrTimedOut = errors.New("resolution timed out, try raising --max-steps or --timeout")
	// ErrCancelled is returned when a resolution is cancelled.
	ErrCancelled = errors.New("resolution cancelled")
)

// UnsatisfiableError is returned when the requirements have no solution.
type UnsatisfiableError struct {
	Problems []*solver.Problem
}

func (e *UnsatisfiableError) Error() string {
	return "your requirements could not be resolved to an installable set of packages.\n\n" +
		solver.Report(e.Problems)
}

// Configuration is what every action works with: the project, its
// repositories and how resolution is bounded and logged.
type Configuration struct {
	ProjectDir   string
	Manifest     *manifest.Manifest
	Repositories []repo.Repository
	Platform     repo.Repository
	// Lock is the current lock file, nil when the project has none.
	Lock *lock.Lock

	Log log.Logger
	// Trace receives the solver trace when set.
	Trace    *logrus.Logger
	MaxSteps int
	Timeout  time.Duration
}

// NewConfiguration loads the project found in settings.ProjectDir.
// Repositories declared in the manifest come first, followed by the ones of
// the global repositories file, which may be missing.
func NewConfiguration(settings *cli.EnvSettings, logger log.Logger) (*Configuration, error) {
	dir := settings.ProjectDir
	m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return nil, err
	}

	cfg := &Configuration{
		ProjectDir: dir,
		Manifest:   m,
		Platform:   repo.NewPlatformRepository(m.Platform),
		Log:        logger,
		MaxSteps:   settings.MaxSteps,
		Timeout:    settings.Timeout,
	}

	cfg.Repositories, err = Repositories(dir, m, settings.RepositoryConfig, logger)
	if err != nil {
		return nil, err
	}

	cfg.Lock, err = lock.Load(cfg.LockPath())
	if isNotExist(err) {
		cfg.Lock, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	if settings.Trace {
		cfg.Trace = logrus.New()
		cfg.Trace.Out = os.Stderr
		cfg.Trace.Level = logrus.DebugLevel
		cfg.Trace.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	return cfg, nil
}

// Repositories opens the repositories the manifest m declares, relative to
// dir, followed by those of the global repositories file, relative to its
// own directory. m may be nil and the global file may be missing. Global
// repositories named like one of the manifest are shadowed.
func Repositories(dir string, m *manifest.Manifest, repositoryConfig string, logger log.Logger) ([]repo.Repository, error) {
	var repos []repo.Repository
	seen := map[string]bool{}
	if m != nil {
		for _, e := range m.Repositories {
			r, err := repo.OpenEntry(dir, e)
			if err != nil {
				return nil, err
			}
			seen[e.Name] = true
			repos = append(repos, r)
		}
	}

	rf, err := repo.LoadFile(repositoryConfig)
	switch {
	case isNotExist(err):
		logger.Debugf("No repositories file at %s, continuing…", repositoryConfig)
	case err != nil:
		return nil, err
	default:
		for _, e := range rf.Repositories {
			if seen[e.Name] {
				logger.Debugf("Repository %q of %s is shadowed by the manifest", e.Name, repositoryConfig)
				continue
			}
			r, err := repo.OpenEntry(filepath.Dir(repositoryConfig), e)
			if err != nil {
				return nil, err
			}
			repos = append(repos, r)
		}
	}
	return repos, nil
}

// ManifestPath is where the manifest of the project lives.
func (c *Configuration) ManifestPath() string {
	return filepath.Join(c.ProjectDir, manifest.FileName)
}

// LockPath is where the lock of the project lives.
func (c *Configuration) LockPath() string {
	return filepath.Join(c.ProjectDir, lock.FileName)
}

func isNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err))
}
