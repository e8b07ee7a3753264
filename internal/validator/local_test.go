package validator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDirWritable(t *testing.T) {
	dir := t.TempDir()

	result := LocalDirWritable(filepath.Join(dir, "not", "yet", "created")).Validate(context.Background())
	assert.False(t, result.IsFailed(), result.Message)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")
}

func TestLocalDirWritable_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	result := LocalDirWritable(file).Validate(context.Background())
	assert.True(t, result.IsFailed())
}

func TestDiskSpace(t *testing.T) {
	tests := []struct {
		name   string
		free   uint64
		err    error
		failed bool
	}{
		{name: "enough", free: 2048 * humanize.MiByte},
		{name: "exactly", free: 1024 * humanize.MiByte},
		{name: "short", free: 10 * humanize.MiByte, failed: true},
		{name: "statfs error", err: errors.New("EIO"), failed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DiskSpace(t.TempDir(), 1024).(*diskSpace)
			v.statfs = func(string) (uint64, error) { return tt.free, tt.err }

			result := v.Validate(context.Background())
			assert.Equal(t, tt.failed, result.IsFailed(), result.Message)
		})
	}
}

func TestPathPresent(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "project-data")
	metaFile := filepath.Join(dir, "project-metadata.json")

	assert.True(t, LocalProjectDataPresent(dataDir).Validate(context.Background()).IsFailed())
	assert.True(t, MetadataFilePresent(metaFile).Validate(context.Background()).IsFailed())

	require.NoError(t, os.Mkdir(dataDir, 0755))
	require.NoError(t, os.WriteFile(metaFile, []byte(`{"name":"x"}`), 0644))

	assert.False(t, LocalProjectDataPresent(dataDir).Validate(context.Background()).IsFailed())
	assert.False(t, MetadataFilePresent(metaFile).Validate(context.Background()).IsFailed())

	assert.True(t, LocalProjectDataPresent(metaFile).Validate(context.Background()).IsFailed(), "file is not a data dir")
	assert.True(t, MetadataFilePresent(dataDir).Validate(context.Background()).IsFailed(), "dir is not a metadata file")
}

func TestBinaryPresent(t *testing.T) {
	v := BinaryPresent("/usr/local/bin/rsync").(*binaryPresent)
	assert.Equal(t, "binary_present_rsync", v.Name())

	v.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.True(t, v.Validate(context.Background()).IsFailed())

	v.lookPath = func(p string) (string, error) { return p, nil }
	assert.False(t, v.Validate(context.Background()).IsFailed())
}
