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
	"fmt"
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
	"github.com/rancher-sandbox/hypsolve/pkg/eyecandy"
)

var validateDesc = `
This command checks a project for possible issues: hypsolve.toml, the
repositories packages are read from and hypsolve.lock.

Paths holding a Chart.yaml, or packaged charts, are checked as charts: the
Helm rules run, then the rules for the hypper.cattle.io dependency
annotations.

If the validator encounters things that will cause a resolution to fail, it
will emit [ERROR] messages. If it encounters issues that break with
convention or recommendation, it will emit [WARNING] messages.
`

func newValidateCmd(logger log.Logger) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:     "validate [PATH...]",
		Short:   "examine a project for possible issues",
		Long:    validateDesc,
		Aliases: []string{"lint"},
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := []string{settings.ProjectDir}
			if len(args) > 0 {
				paths = args
			}
			client := action.NewValidate(settings.RepositoryConfig)
			client.Strict = strict

			var message strings.Builder
			failed := 0

			for _, path := range paths {
				result := client.Run([]string{path})

				fmt.Fprintf(&message, "==> Validating %s\n", path)

				// errors that kept the rules from running have no message
				if len(result.Messages) == 0 {
					for _, err := range result.Errors {
						fmt.Fprintf(&message, "Error %s\n", err)
					}
				}

				for _, msg := range result.Messages {
					if msg.Severity > support.InfoSev || settings.Debug {
						fmt.Fprintf(&message, "%s\n", msg)
					}
				}

				if len(result.Errors) != 0 {
					failed++
				}

				fmt.Fprint(&message, "\n")
			}

			logger.Info(strings.TrimSuffix(message.String(), "\n"))

			summary := fmt.Sprintf("%d project(s) validated, %d project(s) failed", len(paths), failed)
			if failed > 0 {
				return errors.New(summary)
			}
			logger.Info(eyecandy.ESPrint(settings.NoEmojis, summary+" :white_check_mark:"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on validation warnings")

	return cmd
}
