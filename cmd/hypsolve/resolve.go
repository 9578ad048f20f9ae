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

	"github.com/Masterminds/log-go"
	logio "github.com/Masterminds/log-go/io"
	"github.com/docker/go-units"
	"github.com/gosuri/uitable"
	"helm.sh/helm/v3/pkg/cli/output"

	"github.com/rancher-sandbox/hypsolve/internal/transaction"
	"github.com/rancher-sandbox/hypsolve/pkg/action"
	"github.com/rancher-sandbox/hypsolve/pkg/eyecandy"
)

// announce tells a resolution starts, in table output only.
func (o *resolveOptions) announce(logger log.Logger) {
	if o.outfmt == output.Table {
		logger.Info(eyecandy.Prefix(settings.NoEmojis, ":mag: ", "Resolving dependencies…"))
	}
}

// printResult prints the operations of a resolution. Tables are followed by
// the solver statistics.
func printResult(logger log.Logger, res *action.Result, o *resolveOptions) error {
	// Get an io.Writer compliant logger instance at the info level.
	wInfo := logio.NewWriter(logger, log.InfoLevel)
	w := newTransactionWriter(res.Transaction)

	if o.outfmt != output.Table {
		return o.outfmt.Write(wInfo, w)
	}

	if res.Transaction.IsEmpty() {
		logger.Info(eyecandy.Prefix(settings.NoEmojis, ":ok_hand: ", "Nothing to install, update or remove"))
	} else if err := o.outfmt.Write(wInfo, w); err != nil {
		return err
	}
	s := res.Stats
	logger.Infof("Resolved %d packages out of %d candidates in %s (%d decisions, %d conflicts, %d learned rules)",
		len(res.Lock.Packages), res.PoolSize, units.HumanDuration(s.Duration), s.Decisions, s.Conflicts, s.Learned)
	if o.dryRun {
		logger.Info(eyecandy.Prefix(settings.NoEmojis, ":memo: ", "Dry run, no file was written"))
		return nil
	}
	logger.Info(eyecandy.ESPrint(settings.NoEmojis, "Done! :clapping_hands:"))
	return nil
}

type operationElement struct {
	Operation string `json:"operation"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	From      string `json:"from,omitempty"`
}

type transactionWriter struct {
	operations []operationElement
}

func newTransactionWriter(t *transaction.Transaction) *transactionWriter {
	// Initialize the array so no results returns an empty array instead of null
	elements := make([]operationElement, 0, len(t.Operations))
	for _, op := range t.Operations {
		e := operationElement{
			Operation: op.Kind.String(),
			Name:      op.Package.Name,
			Version:   op.Package.PrettyVersion,
		}
		if op.From != nil {
			e.From = op.From.PrettyVersion
		}
		elements = append(elements, e)
	}
	return &transactionWriter{elements}
}

func colorOperation(op string) string {
	switch op {
	case transaction.Install.String(), transaction.MarkAliasInstalled.String():
		return green(op)
	case transaction.Update.String():
		return yellow(op)
	}
	return red(op)
}

func (w *transactionWriter) WriteTable(out io.Writer) error {
	table := uitable.New()
	table.AddRow("OPERATION", "PACKAGE", "VERSION", "FROM")
	for _, e := range w.operations {
		table.AddRow(colorOperation(e.Operation), e.Name, e.Version, e.From)
	}
	return output.EncodeTable(out, table)
}

func (w *transactionWriter) WriteJSON(out io.Writer) error {
	return output.EncodeJSON(out, w.operations)
}

func (w *transactionWriter) WriteYAML(out io.Writer) error {
	return output.EncodeYAML(out, w.operations)
}
