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

	"github.com/rancher-sandbox/hypsolve/pkg/action"
)

const updateDesc = `
This command resolves the newest versions the requirements allow and
rewrites hypsolve.lock.

Given package names, only those packages are updated. Every other locked
package keeps its version.

    $ hypsolve update acme/log acme/fmt
`

func newUpdateCmd(logger log.Logger) *cobra.Command {
	o := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "update [PKG...]",
		Short: "update the packages of the project",
		Long:  updateDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewUpdate(cfg)
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
