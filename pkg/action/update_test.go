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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/hypsolve/internal/transaction"
	"github.com/rancher-sandbox/hypsolve/pkg/manifest"
)

// installedProject returns the configuration of an installed project that
// got new package versions published since.
func installedProject(t *testing.T) (string, *Configuration) {
	dir := projectFixture(t)
	cfg, _ := actionConfigFixture(t, dir)
	_, err := NewInstall(cfg).Run(context.Background())
	require.NoError(t, err)

	publish(t, dir, `  - name: acme/fmt
    version: 2.2.0
  - name: acme/log
    version: 1.2.0
    require:
      acme/fmt: ^2.0
`)
	cfg, _ = actionConfigFixture(t, dir)
	return dir, cfg
}

func TestUpdateAll(t *testing.T) {
	is := assert.New(t)
	_, cfg := installedProject(t)

	res, err := NewUpdate(cfg).Run(context.Background(), nil)
	require.NoError(t, err)
	is.Equal(map[string]string{
		"acme/app": "1.1.0",
		"acme/cli": "1.0.0",
		"acme/fmt": "2.2.0",
		"acme/log": "1.2.0",
	}, versions(res.Lock.Packages))
	is.Len(res.Transaction.Operations, 2)
	for _, op := range res.Transaction.Operations {
		is.Equal(transaction.Update, op.Kind)
	}
	is.Equal(res.Lock, cfg.Lock)
}

func TestUpdateNamed(t *testing.T) {
	is := assert.New(t)
	_, cfg := installedProject(t)

	res, err := NewUpdate(cfg).Run(context.Background(), []string{"Acme/Fmt"})
	require.NoError(t, err)
	is.Equal(map[string]string{
		"acme/app": "1.1.0",
		"acme/cli": "1.0.0",
		"acme/fmt": "2.2.0",
		"acme/log": "1.1.0",
	}, versions(res.Lock.Packages))
	require.Len(t, res.Transaction.Operations, 1)
	op := res.Transaction.Operations[0]
	is.Equal("update acme/fmt 2.1.0 => 2.2.0", op.String())
}

func TestUpdateUnknown(t *testing.T) {
	_, cfg := installedProject(t)
	_, err := NewUpdate(cfg).Run(context.Background(), []string{"acme/nope"})
	assert.EqualError(t, err, `package "acme/nope" is neither required nor locked`)
}

func TestUpdateDryRun(t *testing.T) {
	is := assert.New(t)
	_, cfg := installedProject(t)
	before := cfg.Lock

	upd := NewUpdate(cfg)
	upd.DryRun = true
	res, err := upd.Run(context.Background(), nil)
	require.NoError(t, err)
	is.Equal("2.2.0", versions(res.Lock.Packages)["acme/fmt"])
	is.Equal(before, cfg.Lock)
}

func TestRemove(t *testing.T) {
	is := assert.New(t)
	dir, cfg := installedProject(t)

	res, err := NewRemove(cfg).Run(context.Background(), []string{"acme/app"})
	require.NoError(t, err)

	// acme/log was only pulled in by acme/app, acme/fmt is still needed
	is.Equal(map[string]string{
		"acme/cli": "1.0.0",
		"acme/fmt": "2.1.0",
	}, versions(res.Lock.Packages))
	is.Len(res.Transaction.Operations, 2)
	for _, op := range res.Transaction.Operations {
		is.Equal(transaction.Remove, op.Kind)
	}

	m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	require.NoError(t, err)
	_, ok := m.Require("acme/app")
	is.False(ok)
	_, ok = m.Require("acme/cli")
	is.True(ok)
	is.Equal("acme/shop", m.Name)

	hash, err := m.ContentHash()
	require.NoError(t, err)
	is.True(cfg.Lock.IsFresh(hash))
}

func TestRemoveDryRun(t *testing.T) {
	is := assert.New(t)
	dir, cfg := installedProject(t)

	rm := NewRemove(cfg)
	rm.DryRun = true
	_, err := rm.Run(context.Background(), []string{"acme/cli"})
	require.NoError(t, err)

	m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	require.NoError(t, err)
	_, ok := m.Require("acme/cli")
	is.True(ok)
	_, ok = cfg.Manifest.Require("acme/cli")
	is.True(ok)
}

func TestRemoveNotRequired(t *testing.T) {
	_, cfg := installedProject(t)
	_, err := NewRemove(cfg).Run(context.Background(), []string{"acme/log"})
	assert.EqualError(t, err, `package "acme/log" is not required by the project`)
	assert.Len(t, cfg.Manifest.Requires, 2)
}
