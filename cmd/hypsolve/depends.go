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
	"io"
	"sort"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
)

const dependsDesc = `
This command shows the requirements of a locked package and whether the
lock fulfils them.

With --reverse it shows the locked packages requiring the package instead.

A requirement can be:

- satisfied: the locked version matches the constraint
- out-of-range: the locked version does not match the constraint
- not-installed: nothing with that name is locked
- provided: a locked package provides or replaces the name
- invalid-constraint: the constraint cannot be parsed
`

func newDependsCmd(logger log.Logger) *cobra.Command {
	var outfmt output.Format
	var reverse bool

	cmd := &cobra.Command{
		Use:     "depends PKG",
		Short:   "show the requirements of a locked package",
		Long:    dependsDesc,
		Aliases: []string{"why"},
		Args:    require.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewDepends(cfg)
			client.Reverse = reverse

			deps, err := client.Run(args[0])
			if err != nil {
				return err
			}

			wInfo := logio.NewWriter(logger, log.InfoLevel)
			return outfmt.Write(wInfo, &dependencyListWriter{deps})
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&reverse, "reverse", "r", false, "list the locked packages requiring PKG")
	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type dependencyListWriter struct {
	deps []*action.Dependency
}

func colorStatus(status string) string {
	switch status {
	case action.StatusSatisfied, action.StatusProvided:
		return green(status)
	case action.StatusNotInstalled:
		return yellow(status)
	}
	return red(status)
}

func (w *dependencyListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "CONSTRAINT", "INSTALLED", "STATUS")
	for _, d := range w.deps {
		table.AddRow(d.Name, d.Constraint, d.Installed, colorStatus(d.Status))
	}
	return output.EncodeTable(out, table)
}

func (w *dependencyListWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, w.deps)
}

func (w *dependencyListWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, w.deps)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
