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

package lint

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"helm.sh/helm/v3/pkg/lint/support"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/pkg/lock"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
)

const projectDir = "testdata/project"
const badProjectDir = "testdata/badproject"
const goodChartDir = "rules/testdata/goodchart"
const badChartDirWithBrokenDeps = "rules/testdata/badchartbrokendeps"

type expectedMessage struct {
	severity int
	text     string
}

func assertMessages(t *testing.T, msgs []support.Message, expected []expectedMessage) {
	t.Helper()
	if len(msgs) != len(expected) {
		t.Errorf("Number of messages %v, expected %v", len(msgs), len(expected))
		for i, msg := range msgs {
			t.Logf("Message %d: %s", i, msg)
		}
	}
	for _, e := range expected {
		found := false
		for _, msg := range msgs {
			if msg.Severity == e.severity && strings.Contains(msg.Err.Error(), e.text) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Didn't find %q (severity %d), got %#v", e.text, e.severity, msgs)
		}
	}
}

// copyProject copies a testdata project into a temporary directory so tests
// can add a lock file to it.
func copyProject(t *testing.T, src string) string {
	dst := t.TempDir()
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return os.MkdirAll(filepath.Join(dst, rel), 0755)
		}
		b, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		return ioutil.WriteFile(filepath.Join(dst, rel), b, 0644)
	})
	require.NoError(t, err)
	return dst
}

func noGlobalRepositories(t *testing.T) string {
	return filepath.Join(t.TempDir(), "repositories.yaml")
}

func lockedPackages() []*pkg.Pkg {
	return []*pkg.Pkg{
		pkg.NewPkgMock(1, "acme/log", "1.2.0", map[string]string{"acme/fmt": "^2.0"}, nil),
		pkg.NewPkgMock(2, "acme/fmt", "2.1.0", nil, nil),
		pkg.NewPkgMock(3, "fleet", "0.3.4", map[string]string{"fleet-crd": "~0.3.0"}, nil),
		pkg.NewPkgMock(4, "fleet-crd", "0.3.4", nil, nil),
	}
}

func TestProjectWithoutLock(t *testing.T) {
	m := Project(projectDir, noGlobalRepositories(t)).Messages
	assertMessages(t, m, []expectedMessage{
		{support.InfoSev, "no lock file yet"},
	})
}

func TestProjectFreshLock(t *testing.T) {
	dir := copyProject(t, projectDir)
	mf, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	require.NoError(t, err)
	hash, err := mf.ContentHash()
	require.NoError(t, err)
	require.NoError(t, lock.New(hash, lockedPackages()).Write(filepath.Join(dir, lock.FileName)))

	m := Project(dir, noGlobalRepositories(t)).Messages
	if len(m) != 0 {
		t.Error("Project returned linter messages when it shouldn't have")
		for i, msg := range m {
			t.Logf("Message %d: %s", i, msg)
		}
	}
}

func TestProjectStaleLock(t *testing.T) {
	dir := copyProject(t, projectDir)
	l := lock.New(digest.FromString("previous manifest"), lockedPackages()[2:])
	require.NoError(t, l.Write(filepath.Join(dir, lock.FileName)))

	m := Project(dir, noGlobalRepositories(t)).Messages
	assertMessages(t, m, []expectedMessage{
		{support.WarningSev, "not up to date"},
		{support.WarningSev, "acme/log is required but not locked"},
	})
}

func TestProjectBrokenLock(t *testing.T) {
	dir := copyProject(t, projectDir)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, lock.FileName), []byte("packages: {"), 0644))

	m := Project(dir, noGlobalRepositories(t)).Messages
	is := assert.New(t)
	is.Len(m, 1)
	is.Equal(support.ErrorSev, m[0].Severity)
}

func TestBadProject(t *testing.T) {
	m := Project(badProjectDir, noGlobalRepositories(t)).Messages
	assertMessages(t, m, []expectedMessage{
		{support.InfoSev, "Setting name in hypsolve.toml is recommended"},
		{support.WarningSev, "development versions will be selected"},
		{support.WarningSev, "requirement acme/missing * accepts any version"},
		{support.ErrorSev, "acme/log is required but conflicts with every version"},
		{support.ErrorSev, "couldn't load packages file"},
		{support.WarningSev, "no repositories configured"},
		{support.WarningSev, "acme/log is not served by any repository"},
		{support.WarningSev, "acme/missing is not served by any repository"},
		{support.InfoSev, "no lock file yet"},
	})
}

func TestMissingManifest(t *testing.T) {
	m := Project(t.TempDir(), noGlobalRepositories(t)).Messages
	is := assert.New(t)
	is.Len(m, 1)
	is.Equal(support.ErrorSev, m[0].Severity)
	is.Contains(m[0].Err.Error(), "couldn't load manifest")
}

func TestGlobalRepositories(t *testing.T) {
	dir := copyProject(t, badProjectDir)
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "repositories.yaml"), []byte(`apiVersion: v1
repositories:
  - name: shared
    url: shared.yaml
`), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "shared.yaml"), []byte(`packages:
  - name: acme/log
    version: 1.2.0
`), 0644))

	m := Project(dir, filepath.Join(dir, "repositories.yaml")).Messages
	for _, msg := range m {
		assert.NotContains(t, msg.Err.Error(), "acme/log is not served")
		assert.NotContains(t, msg.Err.Error(), "no repositories configured")
	}
}

func TestBadChartBrokenDeps(t *testing.T) {
	m := Chart(badChartDirWithBrokenDeps).Messages
	assertMessages(t, m, []expectedMessage{
		{support.ErrorSev, "Shared dependencies list is broken, please check the correct format"},
	})
}

func TestGoodChart(t *testing.T) {
	m := Chart(goodChartDir).Messages
	if len(m) != 0 {
		t.Error("Chart returned linter messages when it shouldn't have")
		for i, msg := range m {
			t.Logf("Message %d: %s", i, msg)
		}
	}
}
