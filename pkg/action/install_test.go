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
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/internal/transaction"
	"github.com/rancher-sandbox/hypsolve/pkg/lock"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
)

func TestInstall(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)

	res, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)

	is.Equal(map[string]string{
		"acme/app": "1.1.0",
		"acme/cli": "1.0.0",
		"acme/fmt": "2.1.0",
		"acme/log": "1.1.0",
	}, versions(res.Lock.Packages))
	is.Len(res.Transaction.Operations, 4)
	for _, op := range res.Transaction.Operations {
		is.Equal(transaction.Install, op.Kind)
	}
	is.True(res.Stats.Decisions > 0)

	l, err := lock.Load(filepath.Join(dir, lock.FileName))
	require.NoError(t, err)
	is.Equal(versions(res.Lock.Packages), versions(l.Packages))
	hash, err := cfg.Manifest.ContentHash()
	require.NoError(t, err)
	is.True(l.IsFresh(hash))
}

func TestInstallKeepsLockedVersions(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	_, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)

	publish(t, dir, "  - name: acme/fmt\n    version: 2.2.0\n")
	cfg, _ = actionConfigFixture(t, dir)
	inst := NewInstall(cfg)
	res, err := inst.Run(context.Background())
	require.NoError(t, err)

	is.True(inst.FromLock)
	is.Equal("2.1.0", versions(res.Lock.Packages)["acme/fmt"])
	is.True(res.Transaction.IsEmpty())
}

func TestInstallStaleLock(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	_, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)

	cfg, buf := actionConfigFixture(t, dir)
	cfg.Manifest.Requires = cfg.Manifest.Requires[:1]
	inst := NewInstall(cfg)
	res, err := inst.Run(context.Background())
	require.NoError(t, err)

	is.False(inst.FromLock)
	is.Contains(buf.String(), "not up to date")
	is.Equal(map[string]string{
		"acme/app": "1.1.0",
		"acme/fmt": "2.1.0",
		"acme/log": "1.1.0",
	}, versions(res.Lock.Packages))
	require.Len(t, res.Transaction.Operations, 1)
	is.Equal(transaction.Remove, res.Transaction.Operations[0].Kind)
	is.Equal("acme/cli", res.Transaction.Operations[0].Package.Name)
}

func TestInstallDryRun(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)

	inst := NewInstall(cfg)
	inst.DryRun = true
	inst.Verify = true
	res, err := inst.Run(context.Background())
	require.NoError(t, err)
	is.Len(res.Lock.Packages, 4)
	is.NoFileExists(filepath.Join(dir, lock.FileName))
	is.Nil(cfg.Lock)
}

func TestInstallUnsatisfiable(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	m, err := manifest.Read(strings.NewReader(`
[require]
"acme/app" = "^1.0"
"acme/log" = "1.0.0"
"acme/fmt" = "^3.0"
`))
	require.NoError(t, err)
	cfg.Manifest = m

	_, err = NewInstall(cfg).Run(context.Background())
	var unsat *UnsatisfiableError
	require.True(t, errors.As(err, &unsat), "expected an UnsatisfiableError, got %v", err)
	is.NotEmpty(unsat.Problems)
	is.Contains(err.Error(), "could not be resolved")
	is.Contains(err.Error(), "acme/fmt")
	is.NoFileExists(filepath.Join(dir, lock.FileName))
}

func TestInstallConflict(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	m, err := manifest.Read(strings.NewReader(`
[require]
"acme/app" = "^1.0"

[conflict]
"acme/log" = "1.1.0"
`))
	require.NoError(t, err)
	cfg.Manifest = m

	res, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)
	is.Equal(map[string]string{
		"acme/app": "1.0.0",
		"acme/log": "1.0.0",
	}, versions(res.Lock.Packages))
}

func TestInstallBudget(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	cfg.MaxSteps = 1

	_, err := NewInstall(cfg).Run(context.Background())
	is.Equal(ErrTimedOut, err)

	cfg.MaxSteps = 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewInstall(cfg).Run(ctx)
	is.Equal(ErrCancelled, err)

	cfg.Timeout = time.Nanosecond
	_, err = NewInstall(cfg).Run(context.Background())
	is.Equal(ErrTimedOut, err)
	is.NoFileExists(filepath.Join(dir, lock.FileName))
}

func TestInstallRootAlias(t *testing.T) {
	is := assert.New(t)
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	_, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)

	writeRequires := func(cli string) {
		t.Helper()
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, manifest.FileName), []byte(`name = "acme/shop"

[require]
"acme/app" = "^1.0"
"acme/cli" = "`+cli+`"

[[repository]]
name = "local"
url = "packages.yaml"
`), 0644))
	}

	writeRequires("1.0.0 as 1.5.0")
	cfg, _ = actionConfigFixture(t, dir)
	res, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)
	is.Equal([]string{"mark alias acme/cli 1.5.0 (1.0.0) installed"}, operations(res.Transaction))
	is.Equal([]*lock.AliasEntry{{Name: "acme/cli", Version: "1.0.0", Alias: "1.5.0"}}, res.Lock.Aliases)

	// the alias is installed now
	cfg, _ = actionConfigFixture(t, dir)
	res, err = NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)
	is.True(res.Transaction.IsEmpty(), res.Transaction.String())

	writeRequires("^1.0")
	cfg, _ = actionConfigFixture(t, dir)
	res, err = NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)
	is.Equal([]string{"mark alias acme/cli 1.5.0 (1.0.0) uninstalled"}, operations(res.Transaction))
	is.Empty(res.Lock.Aliases)
}

func operations(t *transaction.Transaction) []string {
	out := make([]string, len(t.Operations))
	for i, o := range t.Operations {
		out[i] = o.String()
	}
	return out
}
