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
	"github.com/Masterminds/log-go"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
)

const installDesc = `
This command installs the packages the project requires.

When hypsolve.lock was resolved from the current hypsolve.toml, the locked
versions are installed as they are. Otherwise the requirements are resolved
again and hypsolve.lock is rewritten.

The operations an installer has to carry out are printed in order: removals
first, then installs and updates, dependencies before their dependents.
`

func newInstallCmd(logger log.Logger) *cobra.Command {
	o := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "install the packages of the project",
		Long:  installDesc,
		Args:  require.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewInstall(cfg)
			o.apply(client.Resolve)
			client.DryRun = o.dryRun

			o.announce(logger)
			res, err := client.Run(cmd.Context())
			if err != nil {
				return err
			}
			if client.FromLock {
				logger.Debug("Installed from the lock file")
			}
			return printResult(logger, res, o)
		},
	}
	addResolveFlags(cmd, cmd.Flags(), o)
	return cmd
}
