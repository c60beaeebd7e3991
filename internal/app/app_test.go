package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/catalog/localstore"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = dir
	cfg.Logger.Mode = "production"
	cfg.Remote.Driver = "sqlite"
	cfg.Remote.DSN = filepath.Join(dir, "data", "catalog.db")
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Storage.Driver = "disk"
	cfg.Storage.Dir = filepath.Join(dir, "data", "objects")
	cfg.Local.Path = filepath.Join(dir, "data", "local.db")
	return cfg
}

func TestApplication_Init(t *testing.T) {
	ctx := context.Background()
	a := NewApplication(testConfig(t))
	require.NoError(t, a.Init(ctx))
	t.Cleanup(a.Release)

	backends := a.Catalog().Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, "remote/sqlite", backends[0].Name())
	assert.Equal(t, "local", backends[1].Name())
	assert.NotEmpty(t, a.ObjectDir())
	assert.NotNil(t, a.Scheduler())
	assert.Len(t, a.Scheduler().Entries(), 1)

	st := a.ProbeRemote()
	assert.True(t, st.Available)
	assert.Equal(t, "remote/sqlite", a.RemoteStatus().Backend)

	p, err := a.Catalog().AddProduct(ctx, domain.ProductInput{Name: "Bolo de Cenoura", Price: 30}, nil)
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
}

func TestApplication_LocalOnly(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Remote.Driver = "none"
	cfg.Storage.Driver = "none"
	cfg.Local.Path = ""

	a := NewApplication(cfg)
	require.NoError(t, a.Init(ctx))
	t.Cleanup(a.Release)

	require.Len(t, a.Catalog().Backends(), 1)
	items, err := a.Catalog().ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.False(t, a.ProbeRemote().Available)
	assert.ErrorIs(t, a.InitDb(), domain.ErrBackendUnavailable)
	assert.Empty(t, a.Scheduler().Entries())
}

func TestApplication_RemoteConnectFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Remote.Driver = "postgres"
	cfg.Remote.DSN = "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1"

	a := NewApplication(cfg)
	require.NoError(t, a.Init(ctx))
	t.Cleanup(a.Release)

	require.Len(t, a.Catalog().Backends(), 1)
	st := a.RemoteStatus()
	assert.False(t, st.Available)
	assert.NotEmpty(t, st.Error)
}

func TestApplication_InitDb(t *testing.T) {
	ctx := context.Background()
	a := NewApplication(testConfig(t))
	require.NoError(t, a.Init(ctx))
	t.Cleanup(a.Release)

	_, err := a.Catalog().AddProduct(ctx, domain.ProductInput{Name: "Pudim", Price: 20}, nil)
	require.NoError(t, err)

	require.NoError(t, a.InitDb())
	items, err := a.Catalog().ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestApplication_BadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "ftp"
	assert.Error(t, NewApplication(cfg).Init(context.Background()))

	cfg = testConfig(t)
	cfg.WhatsApp.Phone = ""
	assert.Error(t, NewApplication(cfg).Init(context.Background()))
}

func TestApplication_InitFailureReleasesLocalStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "ftp"

	a := NewApplication(cfg)
	require.Error(t, a.Init(context.Background()))

	// the bolt file lock must be free again
	kv, err := localstore.OpenBolt(cfg.Local.Path)
	require.NoError(t, err)
	assert.NoError(t, kv.Close())
	a.Release()
}
