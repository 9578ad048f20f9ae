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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/pkg/lock"
)

func TestInstallCmd(t *testing.T) {
	defer resetEnv()()
	dir, flags := projectFixture(t)

	_, out, err := executeCommandStdinC("install --dry-run" + flags)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Resolving dependencies…")
	assert.Contains(t, out, "Dry run, no file was written")
	assert.NoFileExists(t, filepath.Join(dir, lock.FileName))

	runTestCmd(t, []cmdTestCase{{
		name:   "install resolves and writes the lock",
		cmd:    "install -o json" + flags,
		golden: "output/install.json",
	}, {
		name:     "install again keeps the locked versions",
		cmd:      "install" + flags,
		contains: []string{"Nothing to install, update or remove", "Done!"},
	}, {
		name:      "install takes no arguments",
		cmd:       "install acme/app" + flags,
		wantError: true,
	}})
	assert.FileExists(t, filepath.Join(dir, lock.FileName))
}

func TestInstallCmdErrors(t *testing.T) {
	_, flags := projectFixture(t)

	runTestCmd(t, []cmdTestCase{{
		name:      "no project",
		cmd:       "install --project-dir " + t.TempDir(),
		wantError: true,
	}, {
		name:      "out of steps",
		cmd:       "install --max-steps 1" + flags,
		wantError: true,
	}})

	defer resetEnv()()
	_, _, err := executeCommandStdinC("install --max-steps 1" + flags)
	assert.Equal(t, exitTimedOut, exitCode(err))
}

func TestUpdateCmd(t *testing.T) {
	defer resetEnv()()
	dir, flags := projectFixture(t)
	_, out, err := executeCommandStdinC("install" + flags)
	require.NoError(t, err, out)

	publish(t, dir, "  - name: acme/fmt\n    version: 2.2.0\n")

	runTestCmd(t, []cmdTestCase{{
		name:   "update one package",
		cmd:    "update acme/fmt -o yaml" + flags,
		golden: "output/update-fmt.yaml",
	}, {
		name:        "update unknown package",
		cmd:         "update acme/nope" + flags,
		wantError:   true,
		errContains: "neither required nor locked",
	}})
}

func TestRemoveCmd(t *testing.T) {
	defer resetEnv()()
	_, flags := projectFixture(t)
	_, out, err := executeCommandStdinC("install" + flags)
	require.NoError(t, err, out)

	runTestCmd(t, []cmdTestCase{{
		name:      "remove needs a package",
		cmd:       "remove" + flags,
		wantError: true,
	}, {
		name:   "remove a requirement",
		cmd:    "remove acme/app -o json" + flags,
		golden: "output/remove-app.json",
	}, {
		name:   "list after remove",
		cmd:    "list -q -o json" + flags,
		golden: "output/list-after-remove.json",
	}})
}
