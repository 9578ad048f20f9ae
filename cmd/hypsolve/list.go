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
	"strings"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
	"github.com/rancher-sandbox/hypsolve/pkg/lock"
)

var listHelp = `
List the packages locked in hypsolve.lock.

    $ hypsolve list --filter '^acme/'
`

func newListCmd(logger log.Logger) *cobra.Command {
	var outfmt output.Format
	var short bool
	var filter string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "list locked packages",
		Long:    listHelp,
		Aliases: []string{"ls"},
		Args:    require.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := action.NewConfiguration(settings, logger)
			if err != nil {
				return err
			}
			client := action.NewList(cfg)
			client.Filter = filter

			results, err := client.Run()
			if err != nil {
				return err
			}

			// Get an io.Writer compliant logger instance at the info level.
			wInfo := logio.NewWriter(logger, log.InfoLevel)

			if short {
				names := make([]string, 0, len(results))
				for _, res := range results {
					names = append(names, res.Name)
				}
				switch outfmt {
				case output.JSON:
					return output.EncodeJSON(wInfo, names)
				case output.YAML:
					return output.EncodeYAML(wInfo, names)
				}
				for _, n := range names {
					logger.Info(n)
				}
				return nil
			}

			return outfmt.Write(wInfo, newLockListWriter(results))
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&short, "short", "q", false, "output short (quiet) listing format")
	f.StringVarP(&filter, "filter", "f", "", "a regular expression. Any packages that match the expression will be included in the results")
	bindOutputFlag(cmd, &outfmt)

	return cmd
}

type lockElement struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Repository  string `json:"repository"`
	Requires    string `json:"requires,omitempty"`
	Description string `json:"description,omitempty"`
}

type lockListWriter struct {
	packages []lockElement
}

func newLockListWriter(entries []*lock.Entry) *lockListWriter {
	// Initialize the array so no results returns an empty array instead of null
	elements := make([]lockElement, 0, len(entries))
	for _, e := range entries {
		requires := make([]string, 0, len(e.Requires))
		for _, r := range sortedKeys(e.Requires) {
			requires = append(requires, r+" "+e.Requires[r])
		}
		elements = append(elements, lockElement{
			Name:        e.Name,
			Version:     e.Version,
			Repository:  e.Repository,
			Requires:    strings.Join(requires, ", "),
			Description: e.Description,
		})
	}
	return &lockListWriter{elements}
}

func (w *lockListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "VERSION", "REPOSITORY", "REQUIRES")
	for _, e := range w.packages {
		table.AddRow(e.Name, e.Version, e.Repository, e.Requires)
	}
	return output.EncodeTable(out, table)
}

func (w *lockListWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, w.packages)
}

func (w *lockListWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, w.packages)
}
