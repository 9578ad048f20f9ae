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
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logcli "github.com/Masterminds/log-go/impl/cli"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/internal/test"
	"github.com/rancher-sandbox/hypsolve/pkg/cli"
)

// cmdTestCase describes a test case that runs a command line. errContains
// is looked for in the returned error, which commands do not print
// themselves.
type cmdTestCase struct {
	name        string
	cmd         string
	golden      string
	contains    []string
	wantError   bool
	errContains string
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()

			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeCommandStdinC(tt.cmd)
			if (err != nil) != tt.wantError {
				t.Errorf("expected error %v, got '%v'", tt.wantError, err)
			}
			if tt.golden != "" {
				test.AssertGoldenString(t, normalizeOutput(out), tt.golden)
			}
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			if tt.errContains != "" && assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errContains)
			}
		})
	}
}

// normalizeOutput drops the trailing blanks table cells and log lines
// leave.
func normalizeOutput(out string) string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n") + "\n"
}

func executeCommandStdinC(cmd string) (*cobra.Command, string, error) {
	args, err := shellwords.Parse(cmd)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf

	root, err := newRootCmd(logger, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err := root.ExecuteC()
	return c, buf.String(), err
}

func resetEnv() func() {
	origEnv := os.Environ()
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}

// projectFixture copies testdata/project to a temporary directory and
// returns the flags pointing commands to it.
func projectFixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"hypsolve.toml", "packages.yaml"} {
		b, err := ioutil.ReadFile(filepath.Join("testdata", "project", f))
		require.NoError(t, err)
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, f), b, 0644))
	}
	flags := " --noemojis --nocolor --project-dir " + dir + " --repository-config " + filepath.Join(dir, "config", "repositories.yaml")
	return dir, flags
}

// publish adds package versions to the packages file of a project.
func publish(t *testing.T, dir, entries string) {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(dir, "packages.yaml"), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(entries)
	require.NoError(t, err)
}
