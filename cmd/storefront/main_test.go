package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
system:
  workdir: `+dir+`
logger:
  mode: production
remote:
  driver: none
storage:
  driver: none
local:
  path: `+filepath.Join(dir, "local.db")+`
`), 0o600))
	return path
}

func TestProductsList(t *testing.T) {
	path := writeConfig(t)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"products", "list", "-c", path, "--format", "json"})
	require.NoError(t, cmd.Execute())

	var items []domain.Product
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Bolo de Chocolate", items[0].Name)

	out.Reset()
	cmd = newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"products", "list", "-c", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "R$ 45,99")
	assert.Contains(t, out.String(), "Brigadeiros Gourmet")
}

func TestInitdbWithoutRemote(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"initdb", "-c", writeConfig(t)})
	assert.Error(t, cmd.Execute())
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$ 2,99", formatPrice(2.99))
	assert.Equal(t, "R$ 30,00", formatPrice(30))
}

type fakeServer struct {
	startErr error
	stopped  chan struct{}
	shutdown atomic.Int32
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	if f.shutdown.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestRunServer_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := newFakeServer(nil)

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, time.Second) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, int32(1), srv.shutdown.Load())
}

func TestRunServer_StartError(t *testing.T) {
	boom := errors.New("address already in use")
	srv := newFakeServer(boom)

	err := runServer(context.Background(), srv, time.Second)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), srv.shutdown.Load())
}
