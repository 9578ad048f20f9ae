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

const removeDesc = `
This command drops requirements from hypsolve.toml and removes the packages
nothing else needs anymore.

Packages still needed by the remaining requirements keep their locked
versions. Comments in hypsolve.toml are not preserved.
`

func newRemoveCmd(logger log.Logger) *cobra.Command {
	o := &resolveOptions{}

	cmd := &cobra.Command{
		Use:     "remove PKG...",
		Short:   "remove requirements from the project",
		Long:    removeDesc,
		Aliases: []string{"rm"},
		Args:    require.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewRemove(cfg)
			o.apply(client.Resolve)
			client.DryRun = o.dryRun

			o.announce(logger)
			res, err := client.Run(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printResult(logger, res, o)
		},
	}
	addResolveFlags(cmd, cmd.Flags(), o)
	return cmd
}
