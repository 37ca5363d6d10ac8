package kvstore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/pkg/kvstore"
)

type payload struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Price float64 `json:"price"`
}

func testStores(t *testing.T) map[string]kvstore.Store {
	t.Helper()
	return map[string]kvstore.Store{
		"memory": kvstore.NewMemory(),
		"file":   kvstore.NewFile(t.TempDir()),
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	for name, kv := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			in := payload{Name: "widget", Count: 3, Price: 9.99}
			require.NoError(t, kv.Set("item", in, 0))

			var out payload
			require.True(t, kv.Get("item", &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	for name, kv := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			var out payload
			assert.False(t, kv.Get("absent", &out))
			assert.Zero(t, out)
		})
	}
}

func TestDeleteRemovesKeys(t *testing.T) {
	for name, kv := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("a", 1, 0))
			require.NoError(t, kv.Set("b", 2, 0))

			require.NoError(t, kv.Delete("a", "b"))
			assert.False(t, kv.Has("a"))
			assert.False(t, kv.Has("b"))

			// Deleting absent keys is not an error.
			assert.NoError(t, kv.Delete("a"))
		})
	}
}

func TestOverwriteReplacesValue(t *testing.T) {
	for name, kv := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("k", payload{Name: "old"}, 0))
			require.NoError(t, kv.Set("k", payload{Name: "new"}, 0))

			var out payload
			require.True(t, kv.Get("k", &out))
			assert.Equal(t, "new", out.Name)
		})
	}
}

func TestFileMalformedDocumentIsAMiss(t *testing.T) {
	root := t.TempDir()
	kv := kvstore.NewFile(root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.json"), []byte("{not json"), 0o600))

	var out payload
	assert.False(t, kv.Get("bad", &out))
}

func TestFileSurvivesReopen(t *testing.T) {
	root := t.TempDir()

	first := kvstore.NewFile(root)
	require.NoError(t, first.Set("cart_guest", []payload{{Name: "widget", Count: 2}}, 0))

	// A fresh driver over the same root sees the same documents.
	second := kvstore.NewFile(root)
	var out []payload
	require.True(t, second.Get("cart_guest", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "widget", out[0].Name)
}

func TestFileKeyIsFlattened(t *testing.T) {
	root := t.TempDir()
	kv := kvstore.NewFile(root)

	require.NoError(t, kv.Set("../escape", 1, 0))
	assert.True(t, kv.Has("../escape"))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir())
	}
}
