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

package action

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/pkg/lock"
)

func TestValidate(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)

	v := NewValidate(filepath.Join(dir, "config", "repositories.yaml"))
	res := v.Run([]string{dir})
	is.Equal(1, res.TotalLinted)
	is.Empty(res.Errors)
	// no lock file yet
	is.Len(res.Messages, 1)

	require.NoError(t, lock.New(digest.FromString("previous"), nil).Write(filepath.Join(dir, lock.FileName)))
	res = v.Run([]string{dir})
	is.Empty(res.Errors)

	v.Strict = true
	res = v.Run([]string{dir})
	is.NotEmpty(res.Errors)
}

func TestValidateNotAProject(t *testing.T) {
	is := assert.New(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, ioutil.WriteFile(file, []byte("hello"), 0644))

	res := NewValidate("").Run([]string{file, dir})
	is.Equal(1, res.TotalLinted)
	require.Len(t, res.Errors, 2)
	is.Contains(res.Errors[0].Error(), "is not a project directory")
	is.Contains(res.Errors[1].Error(), "couldn't load manifest")
}
