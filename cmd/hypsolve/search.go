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
	"path/filepath"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
	"github.com/rancher-sandbox/hypsolve/pkg/search"
)

const searchDesc = `
Search reads through all of the repositories of the project and of the
repositories file, and looks for packages whose name or description matches.

It will display the newest stable version of the packages found. If you
specify the --devel flag, the output will include less stable versions.
If you want to search using a version constraint, use --version.

Examples:

    # Search for stable versions matching the keyword "log"
    $ hypsolve search log

    # Search for versions matching "log", including development versions
    $ hypsolve search log --devel

    # Search for the newest 1.x version of acme/log
    $ hypsolve search acme/log --version ^1.0

Outside of a project only the repositories file is searched.
`

func newSearchCmd(logger log.Logger) *cobra.Command {
	o := &search.Options{}

	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "search repositories for a keyword in packages",
		Long:  searchDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := searchRepositories(logger)
			if err != nil {
				return err
			}
			return o.Run(logger, repos, args)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&o.Regexp, "regexp", "r", false, "use regular expressions for searching repositories")
	f.BoolVarP(&o.Versions, "versions", "l", false, "show the long listing, with each version of each package on its own line")
	f.BoolVar(&o.Devel, "devel", false, "use development versions (dev, alpha, beta, and RC versions), too")
	f.StringVar(&o.Version, "version", "", "search using version constraints")
	f.UintVar(&o.MaxColWidth, "max-col-width", 50, "maximum column width for output table")
	bindOutputFlag(cmd, &o.OutputFormat)

	return cmd
}

// searchRepositories opens the repositories of the project in
// settings.ProjectDir, if there is one, and of the repositories file.
func searchRepositories(logger log.Logger) ([]repo.Repository, error) {
	m, err := manifest.Load(filepath.Join(settings.ProjectDir, manifest.FileName))
	if isNotExist(err) {
		m, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	return action.Repositories(settings.ProjectDir, m, settings.RepositoryConfig, logger)
}

func isNotExist(err error) bool {
	return os.IsNotExist(errors.Cause(err))
}
