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
Package cli describes the operating environment for the hypsolve CLI.

Settings are read from HYPSOLVE_* environment variables first; the
persistent flags registered by AddFlags override them.
*/
package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rancher-sandbox/hypsolve/pkg/hypsolvepath"
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug enables debug logging.
	Debug bool
	// Trace logs every step of the solver.
	Trace bool
	// NoColors disables colorized output.
	NoColors bool
	// NoEmojis disables emojis in output. It defaults to true when stdout is
	// not a terminal.
	NoEmojis bool
	// RepositoryConfig is the path to the global repositories file.
	RepositoryConfig string
	// ProjectDir holds hypsolve.toml and hypsolve.lock.
	ProjectDir string
	// MaxSteps bounds the decisions and conflicts of a resolution; 0 means
	// no bound.
	MaxSteps int
	// Timeout bounds the time spent solving; 0 means no bound.
	Timeout time.Duration
}

// New returns the settings found in the environment.
func New() *EnvSettings {
	env := &EnvSettings{
		RepositoryConfig: envOr("HYPSOLVE_REPOSITORY_CONFIG", hypsolvepath.RepositoryFile()),
		ProjectDir:       envOr("HYPSOLVE_PROJECT_DIR", "."),
		MaxSteps:         envIntOr("HYPSOLVE_MAX_STEPS", 0),
		Timeout:          envDurationOr("HYPSOLVE_TIMEOUT", 0),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("HYPSOLVE_DEBUG"))
	env.Trace, _ = strconv.ParseBool(os.Getenv("HYPSOLVE_TRACE"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("HYPSOLVE_NOCOLORS"))

	noEmojis, err := strconv.ParseBool(os.Getenv("HYPSOLVE_NOEMOJIS"))
	if err != nil {
		noEmojis = !term.IsTerminal(int(os.Stdout.Fd()))
	}
	env.NoEmojis = noEmojis
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.Trace, "trace", s.Trace, "log every decision, conflict and backjump of the solver")
	fs.BoolVar(&s.NoColors, "nocolor", s.NoColors, "disable colorized output")
	fs.BoolVar(&s.NoEmojis, "noemojis", s.NoEmojis, "disable emojis in output")
	fs.StringVar(&s.RepositoryConfig, "repository-config", s.RepositoryConfig, "path to the file containing repository names and locations")
	fs.StringVar(&s.ProjectDir, "project-dir", s.ProjectDir, "directory holding hypsolve.toml and hypsolve.lock")
	fs.IntVar(&s.MaxSteps, "max-steps", s.MaxSteps, "give up resolving after this many decisions and conflicts (0 for no limit)")
	fs.DurationVar(&s.Timeout, "timeout", s.Timeout, "give up resolving after this long (0 for no limit)")
}

// EnvVars returns the environment variables the settings are read from,
// with their current values.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"HYPSOLVE_DEBUG":             fmt.Sprint(s.Debug),
		"HYPSOLVE_TRACE":             fmt.Sprint(s.Trace),
		"HYPSOLVE_NOCOLORS":          fmt.Sprint(s.NoColors),
		"HYPSOLVE_NOEMOJIS":          fmt.Sprint(s.NoEmojis),
		"HYPSOLVE_REPOSITORY_CONFIG": s.RepositoryConfig,
		"HYPSOLVE_PROJECT_DIR":       s.ProjectDir,
		"HYPSOLVE_MAX_STEPS":         strconv.Itoa(s.MaxSteps),
		"HYPSOLVE_TIMEOUT":           s.Timeout.String(),
	}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envIntOr(name string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return v
	}
	return def
}

func envDurationOr(name string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(name)); err == nil {
		return v
	}
	return def
}
