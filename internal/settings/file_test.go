package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "conf", "buffer.yaml")

	store, err := Open(path)
	require.NoError(t, err)

	src := buffer.DefaultSettings()
	src.SetFilterSubscription(true)
	src.SetEnabledPositions(true)
	src.SetDisableStorageTimer(true)
	require.NoError(t, src.Save(ctx, store))

	reopened, err := Open(path)
	require.NoError(t, err)

	dst := buffer.DefaultSettings()
	require.NoError(t, dst.Load(ctx, reopened))
	assert.Equal(t, src.Map(), dst.Map())
}

func TestFileStore_HandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Enabled: false\nTicksAsLevel1: false\n"), 0644))

	store, err := Open(path)
	require.NoError(t, err)

	s := buffer.DefaultSettings()
	require.NoError(t, s.Load(context.Background(), store))
	assert.False(t, s.Enabled())
	assert.False(t, s.TicksAsLevel1())
	assert.True(t, s.EnabledTransactions(), "keys absent from the file keep their value")
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	v, err := store.GetValue(context.Background(), buffer.KeyEnabled, true)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestFileStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Enabled: [oops"), 0644))

	_, err := Open(path)
	assert.Error(t, err)
}
