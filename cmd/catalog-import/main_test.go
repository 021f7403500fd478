package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name": "sword", "description": "sharp", "price": 100},
		{"name": "potion", "price": 5, "stock": 3}
	]`), 0o600))

	items, err := readItems(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "sharp", items[0].Description)
	assert.Nil(t, items[0].Stock)
	require.NotNil(t, items[1].Stock)
	assert.Equal(t, int64(3), *items[1].Stock)
}

func TestReadItems_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"sword"}`), 0o600))

	_, err := readItems(path)
	require.Error(t, err)

	_, err = readItems(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
