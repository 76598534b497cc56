package health

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaChecker(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "encode.mkv")
	require.NoError(t, os.WriteFile(media, []byte("frames"), 0644))
	empty := filepath.Join(dir, "empty.mkv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"present", media, ""},
		{"missing", filepath.Join(dir, "nope.mkv"), "cannot access"},
		{"directory", dir, "not a regular file"},
		{"empty", empty, "is empty"},
		{"not given", "", "no encode file given"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewMediaChecker("encode", tt.path)
			assert.Equal(t, "encode", checker.Name())

			err := checker.Check(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDirChecker(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "indexes", "nested")

	checker := NewDirChecker("index_dir", dir)
	assert.Equal(t, "index_dir", checker.Name())
	require.NoError(t, checker.Check(context.Background()))
	assert.DirExists(t, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
}

func TestDirChecker_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := NewDirChecker("index_dir", filepath.Join(file, "sub")).Check(context.Background())
	assert.Error(t, err)
}
