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

package main

import (
	"os"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var globalUsage = `Resolves the dependencies of a project.

The packages a project requires are declared in hypsolve.toml. Packages are
read from the repositories the manifest declares and from the global
repositories file. The resolved versions are recorded in hypsolve.lock.

Common actions for hypsolve:

- hypsolve install:          install the locked versions, or resolve them
- hypsolve update [PKG...]:  resolve the newest versions allowed
- hypsolve remove PKG...:    drop requirements from the project
- hypsolve search [TERM]:    look for packages in the repositories
- hypsolve validate:         check hypsolve.toml, the repositories and the lock

Environment variables:

| Name                               | Description                                                        |
|------------------------------------|--------------------------------------------------------------------|
| $HYPSOLVE_DEBUG                    | set to true to enable verbose output                               |
| $HYPSOLVE_TRACE                    | set to true to log every step of the solver                        |
| $HYPSOLVE_NOCOLORS                 | set to true to disable colorized output                            |
| $HYPSOLVE_NOEMOJIS                 | set to true to disable emojis in output                            |
| $HYPSOLVE_REPOSITORY_CONFIG        | set the path to the repositories file                              |
| $HYPSOLVE_PROJECT_DIR              | set the directory holding hypsolve.toml                            |
| $HYPSOLVE_MAX_STEPS                | set the maximum number of solver decisions and conflicts           |
| $HYPSOLVE_TIMEOUT                  | set the maximum time spent solving, such as 30s                    |
`

func newRootCmd(logger *logcli.Logger, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "hypsolve",
		Short:         "A dependency resolver for packages and Helm charts",
		Long:          globalUsage,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	cmd.AddCommand(
		newInstallCmd(logger),
		newUpdateCmd(logger),
		newRemoveCmd(logger),
		newSearchCmd(logger),
		newValidateCmd(logger),
		newListCmd(logger),
		newDependsCmd(logger),
		newRepoCmd(logger),
		newVersionCmd(logger),
	)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	err := flags.Parse(args)

	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		logger.Errorf("failed while parsing flags for %s: %s", args, err)

		os.Exit(1)
	}

	if settings.NoColors {
		color.NoColor = true // disable colorized output
	}
	if settings.Debug {
		logger.Level = log.DebugLevel
	}

	return cmd, nil
}
