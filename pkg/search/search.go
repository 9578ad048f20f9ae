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
Package search finds packages in repositories by name or description and
prints them in the output formats Helm supports.
*/
package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

// searchMaxScore suggests that any score higher than this is not considered a match.
const searchMaxScore = 25

// Options is the struct used to search, and stores the different options to filter and configure the output
type Options struct {
	// Versions lists every matching version instead of the newest one.
	Versions bool
	Regexp   bool
	// Devel includes versions less stable than stable.
	Devel bool
	// Version is a constraint the listed versions have to match.
	Version      string
	MaxColWidth  uint
	OutputFormat output.Format
}

// Run searches the repositories and prints what it found.
func (o *Options) Run(logger log.Logger, repos []repo.Repository, args []string) error {
	wInfo := logio.NewWriter(logger, log.InfoLevel)
	res, err := o.Search(logger, repos, args)
	if err != nil {
		return err
	}
	return o.OutputFormat.Write(wInfo, &searchWriter{res, o.MaxColWidth})
}

// Search returns the results Run prints.
func (o *Options) Search(logger log.Logger, repos []repo.Repository, args []string) ([]*Result, error) {
	if len(repos) == 0 {
		return nil, errors.New("no repositories configured")
	}

	index := NewIndex()
	for _, r := range repos {
		if err := index.AddRepo(r); err != nil {
			logger.Warnf("Skipping repository: %s", err)
		}
	}

	var res []*Result
	if len(args) == 0 {
		res = index.All()
	} else {
		var err error
		res, err = index.Search(strings.Join(args, " "), searchMaxScore, o.Regexp)
		if err != nil {
			return nil, err
		}
	}

	SortScore(res)
	return o.applyConstraint(res)
}

// applyConstraint filters res by the version constraint and stability, and
// keeps the newest version of each package unless Versions is set. res has
// to be sorted.
func (o *Options) applyConstraint(res []*Result) ([]*Result, error) {
	var constraint version.Constraint = version.MatchAll{}
	if o.Version != "" {
		c, err := version.ParseConstraint(o.Version)
		if err != nil {
			return nil, errors.Wrap(err, "an invalid version/constraint format")
		}
		constraint = c
	}

	data := []*Result{}
	foundNames := map[string]bool{}
	for _, r := range res {
		// if not returning all versions and already have found a result,
		// you're done!
		if !o.Versions && foundNames[r.Name] {
			continue
		}
		if !o.Devel && r.Stability() != version.StabilityStable {
			continue
		}
		if constraint.Matches(r.Version) {
			data = append(data, r)
			foundNames[r.Name] = true
		}
	}
	return data, nil
}

// searchElement is used to store the final package values that will get printed
type searchElement struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Repository  string `json:"repository"`
	Description string `json:"description"`
}

// searchWriter is used to store and print the search results
type searchWriter struct {
	results     []*Result
	columnWidth uint
}

// WriteTable writes the results as a table
func (r *searchWriter) WriteTable(out io.Writer) error {
	if len(r.results) == 0 {
		_, err := out.Write([]byte("No results found\n"))
		if err != nil {
			return fmt.Errorf("unable to write results: %s", err)
		}
		return nil
	}
	table := uitable.New()
	table.MaxColWidth = r.columnWidth
	table.AddRow("NAME", "VERSION", "REPOSITORY", "DESCRIPTION")
	for _, e := range r.elements() {
		table.AddRow(e.Name, e.Version, e.Repository, e.Description)
	}
	return output.EncodeTable(out, table)
}

// WriteJSON prints the results as a json
func (r *searchWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, r.elements())
}

// WriteYAML prints the results as a yaml
func (r *searchWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, r.elements())
}

func (r *searchWriter) elements() []searchElement {
	// Initialize the array so no results returns an empty array instead of null
	list := make([]searchElement, 0, len(r.results))
	for _, res := range r.results {
		list = append(list, searchElement{res.Name, res.Descriptor.Version, res.Repository, res.Descriptor.Description})
	}
	return list
}
