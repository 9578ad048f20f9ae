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
	"path/filepath"
	"strconv"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"helm.sh/helm/v3/cmd/helm/require"
	"helm.sh/helm/v3/pkg/cli/output"
	helmRepo "helm.sh/helm/v3/pkg/repo"

	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

var repoHypsolve = `
This command consists of multiple subcommands to interact with repositories.

Repositories are declared in hypsolve.toml, or in the repositories file for
every project.
`

func newRepoCmd(logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo list [ARGS]",
		Short: "list repositories",
		Long:  repoHypsolve,
		Args:  require.NoArgs,
	}

	cmd.AddCommand(
		newRepoListCmd(logger),
	)

	return cmd
}

func newRepoListCmd(logger log.Logger) *cobra.Command {
	var outfmt output.Format

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list repositories",
		Args:    require.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var elements []repositoryElement

			m, err := manifest.Load(filepath.Join(settings.ProjectDir, manifest.FileName))
			switch {
			case isNotExist(err):
			case err != nil:
				return err
			default:
				elements = append(elements, repositoryElements(settings.ProjectDir, manifest.FileName, m.Repositories)...)
			}

			f, err := repo.LoadFile(settings.RepositoryConfig)
			switch {
			case isNotExist(err):
			case err != nil:
				return err
			default:
				elements = append(elements, repositoryElements(filepath.Dir(settings.RepositoryConfig), settings.RepositoryConfig, f.Repositories)...)
			}

			if len(elements) == 0 && outfmt == output.Table {
				logger.Warn("no repositories to show")
				return nil
			}

			wInfo := logio.NewWriter(logger, log.InfoLevel)
			return outfmt.Write(wInfo, &repoListWriter{elements})
		},
	}

	bindOutputFlag(cmd, &outfmt)
	return cmd
}

type repositoryElement struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Source   string `json:"source"`
	Packages int    `json:"packages"`
}

// repositoryElements describes entries, counting the packages of the ones
// that can be opened.
func repositoryElements(root, source string, entries []*helmRepo.Entry) []repositoryElement {
	elements := make([]repositoryElement, 0, len(entries))
	for _, e := range entries {
		el := repositoryElement{Name: e.Name, URL: e.URL, Source: source, Packages: -1}
		if r, err := repo.OpenEntry(root, e); err == nil {
			if l, ok := r.(repo.Lister); ok {
				if names, err := l.PackageNames(); err == nil {
					el.Packages = len(names)
				}
			}
		}
		elements = append(elements, el)
	}
	return elements
}

type repoListWriter struct {
	repos []repositoryElement
}

func (r *repoListWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("NAME", "URL", "SOURCE", "PACKAGES")
	for _, re := range r.repos {
		packages := "unreadable"
		if re.Packages >= 0 {
			packages = strconv.Itoa(re.Packages)
		}
		table.AddRow(re.Name, re.URL, re.Source, packages)
	}
	return output.EncodeTable(out, table)
}

func (r *repoListWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, r.elements())
}

func (r *repoListWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, r.elements())
}

func (r *repoListWriter) elements() []repositoryElement {
	// Initialize the array so no results returns an empty array instead of null
	if r.repos == nil {
		return []repositoryElement{}
	}
	return r.repos
}
