package storage

import (
	"io/fs"
	"testing"

	"github.com/nobletooth/filecache/pkg/codec"
	"github.com/nobletooth/filecache/pkg/compress"
	"github.com/nobletooth/filecache/pkg/shard"
	"github.com/nobletooth/filecache/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermValue(t *testing.T) {
	for _, testCase := range []struct {
		value   string
		want    fs.FileMode
		wantErr bool
	}{
		{value: "0700", want: 0o700},
		{value: "755", want: 0o755},
		{value: "0", want: 0},
		{value: "0o700", wantErr: true},
		{value: "0800", wantErr: true},
		{value: "17777", wantErr: true},
		{value: "rwx", wantErr: true},
	} {
		t.Run(testCase.value, func(t *testing.T) {
			var perm permValue
			err := perm.Set(testCase.value)
			if testCase.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.want, fs.FileMode(perm))
		})
	}
	perm := permValue(0o640)
	assert.Equal(t, "0640", perm.String())
}

func TestOptionsFromFlags(t *testing.T) {
	assert.Equal(t, DefaultOptions(), OptionsFromFlags())

	utils.SetTestFlag(t, "shard_depth", "3")
	utils.SetTestFlag(t, "filename_prefix", "c_")
	utils.SetTestFlag(t, "dir_perm", "0750")
	utils.SetTestFlag(t, "file_perm", "0640")
	utils.SetTestFlag(t, "compression_level", "5")
	utils.SetTestFlag(t, "compression", "zstd")
	utils.SetTestFlag(t, "serialization", "gob")
	utils.SetTestFlag(t, "shard_hash", "adler32")
	utils.SetTestFlag(t, "atomic_write", "true")
	assert.Equal(t, Options{
		ShardDepth:       3,
		FilenamePrefix:   "c_",
		DirPerm:          0o750,
		FilePerm:         0o640,
		CompressionLevel: 5,
		Compression:      compress.Zstd,
		Serialization:    codec.MethodGob,
		Hash:             shard.HashAdler32,
		AtomicWrite:      true,
	}, OptionsFromFlags())
}

func TestNewFromFlags(t *testing.T) {
	root := t.TempDir()
	utils.SetTestFlag(t, "cache_dir", root)
	utils.SetTestFlag(t, "shard_depth", "2")
	cache, err := NewFromFlags()
	require.NoError(t, err)
	assert.Equal(t, root, cache.Root())
	assert.Equal(t, 2, cache.Options().ShardDepth)

	utils.SetTestFlag(t, "serialization", "yaml")
	_, err = NewFromFlags()
	assert.ErrorIs(t, err, codec.ErrUnknownMethod)
}
