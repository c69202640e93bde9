package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irdesk/internal/registry/store"
)

func TestLoadSeedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": " 201234 ", "name": "BDO UNIBANK INC."},
		{"id": "100001", "name": "AYALA LAND INC."},
		{"id": "", "name": "NO ID"}
	]`), 0o600))

	reg := store.NewInMemory()
	n, err := LoadSeedFile(ctx, path, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	holders, err := reg.Lookup(ctx, "201234")
	require.NoError(t, err)
	require.Len(t, holders, 1)
	assert.Equal(t, "BDO UNIBANK INC.", holders[0].Name)
}

func TestLoadSeedFileErrors(t *testing.T) {
	ctx := context.Background()
	_, err := LoadSeedFile(ctx, filepath.Join(t.TempDir(), "missing.json"), store.NewInMemory())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":`), 0o600))
	_, err = LoadSeedFile(ctx, path, store.NewInMemory())
	assert.ErrorContains(t, err, "decode registry seed")
}
