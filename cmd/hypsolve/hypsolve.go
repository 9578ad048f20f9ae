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

package main // import "github.com/rancher-sandbox/hypsolve/cmd/hypsolve"

import (
	"context"
	"os"
	"os/signal"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/hypsolve/pkg/action"
	"github.com/rancher-sandbox/hypsolve/pkg/cli"
)

var settings = cli.New()

var green = color.New(color.FgGreen).SprintFunc()
var yellow = color.New(color.FgYellow).SprintFunc()
var red = color.New(color.FgRed).SprintFunc()

// Exit codes besides 1 tell scripts why no packages were resolved.
const (
	exitUnsatisfiable = 2
	exitTimedOut      = 3
	exitCancelled     = 130
)

func main() {
	logger := logcli.NewStandard()
	log.Current = logger

	cmd, err := newRootCmd(logger, os.Args[1:])
	if err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error(err)
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var unsat *action.UnsatisfiableError
	switch {
	case errors.As(err, &unsat):
		return exitUnsatisfiable
	case errors.Is(err, action.ErrTimedOut):
		return exitTimedOut
	case errors.Is(err, action.ErrCancelled):
		return exitCancelled
	}
	return 1
}
