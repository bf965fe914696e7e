package port

import (
	"testing"

	"github.com/nobletooth/filecache/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackend builds a backend over a fresh cache.
func newTestBackend(t *testing.T) *CacheBackend {
	t.Helper()
	cache, err := storage.NewShardedFileCache(t.TempDir(), storage.Options{ShardDepth: 2})
	require.NoError(t, err)
	backend, err := NewCacheBackend(cache)
	require.NoError(t, err)
	return backend
}

func TestNewCacheBackend(t *testing.T) {
	_, err := NewCacheBackend(nil)
	assert.Error(t, err)
}

func TestCacheBackend(t *testing.T) {
	backend := newTestBackend(t)

	t.Run("set", func(t *testing.T) {
		assert.NoError(t, backend.Set(SetCommand{key: "k1", value: "v1"}).err)
		assert.NoError(t, backend.Set(SetCommand{key: "k2", value: "v2"}).err)
		assert.NoError(t, backend.Set(SetCommand{key: "k3", value: "v3"}).err)
	})
	t.Run("get_existing_key", func(t *testing.T) {
		val, err := backend.Get("k1")
		assert.NoError(t, err)
		assert.Equal(t, "v1", val)
	})
	t.Run("get_non_existent_key", func(t *testing.T) {
		_, err := backend.Get("non_existent")
		assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	})
	t.Run("delete_existing_key", func(t *testing.T) {
		assert.NoError(t, backend.Delete("k2"))
		val, err := backend.Get("k2")
		assert.ErrorIs(t, err, storage.ErrKeyNotFound)
		assert.Nil(t, val)
	})
	t.Run("delete_non_existent_key", func(t *testing.T) {
		assert.ErrorIs(t, backend.Delete("random"), storage.ErrKeyNotFound)
	})
	t.Run("exists", func(t *testing.T) {
		exists, err := backend.Exists("k1")
		assert.NoError(t, err)
		assert.True(t, exists)
		exists, err = backend.Exists("k2")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("keys", func(t *testing.T) {
		keys, err := backend.Keys("k*")
		assert.NoError(t, err)
		assert.ElementsMatch(t, []string{"k1", "k3"}, keys)
		_, err = backend.Keys("k[")
		assert.Error(t, err)
	})
	t.Run("flush", func(t *testing.T) {
		report := backend.Flush()
		assert.Equal(t, 2, report.RemovedFiles)
		keys, err := backend.Keys("*")
		assert.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestCacheBackend_ConditionalSet(t *testing.T) {
	for _, testCase := range []struct {
		name       string
		existing   bool
		cmd        SetCommand
		wantSet    bool
		wantPrev   any
		wantStored any
	}{
		{name: "nx_missing", cmd: SetCommand{existence: ifNotExists}, wantSet: true, wantStored: "new"},
		{name: "nx_existing", existing: true, cmd: SetCommand{existence: ifNotExists}, wantStored: "old"},
		{name: "xx_missing", cmd: SetCommand{existence: ifExists}},
		{name: "xx_existing", existing: true, cmd: SetCommand{existence: ifExists}, wantSet: true,
			wantStored: "new"},
		{name: "get_existing", existing: true, cmd: SetCommand{get: true}, wantSet: true, wantPrev: "old",
			wantStored: "new"},
		{name: "get_missing", cmd: SetCommand{get: true}, wantSet: true, wantStored: "new"},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			backend := newTestBackend(t)
			if testCase.existing {
				require.NoError(t, backend.Set(SetCommand{key: "k", value: "old"}).err)
			}
			cmd := testCase.cmd
			cmd.key, cmd.value = "k", "new"
			result := backend.Set(cmd)
			require.NoError(t, result.err)
			assert.Equal(t, testCase.wantSet, result.couldSet)
			assert.Equal(t, testCase.wantPrev, result.previousValue)
			assert.Equal(t, testCase.wantPrev != nil, result.hasPreviousValue)

			stored, err := backend.Get("k")
			if testCase.wantStored == nil {
				assert.ErrorIs(t, err, storage.ErrKeyNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.wantStored, stored)
		})
	}
}

func TestCacheBackend_UnknownExistenceCheck(t *testing.T) {
	backend := newTestBackend(t)
	assert.Error(t, backend.Set(SetCommand{key: "k", value: "v", existence: 42}).err)
}
