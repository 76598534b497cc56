package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

func TestDefaultCachePath(t *testing.T) {
	assert.Equal(t, "/media/movie.lwi", DefaultCachePath("/media/movie.mkv", BackendLSMASH))
	assert.Equal(t, "/media/movie.ffindex", DefaultCachePath("/media/movie.mkv", BackendFFMS2))
	assert.Equal(t, "/media/movie.v2.lwi", DefaultCachePath("/media/movie.v2.mkv", BackendLSMASH))
}

func TestCachePathIn(t *testing.T) {
	assert.Equal(t, filepath.Join("/cache", "movie.ffindex"), CachePathIn("/cache", "/media/movie.mkv", BackendFFMS2))
}

func TestValidateCachePath(t *testing.T) {
	tests := []struct {
		name    string
		backend BackendID
		path    string
		wantErr bool
	}{
		{"empty path", BackendLSMASH, "", false},
		{"lsmash match", BackendLSMASH, "/tmp/src.lwi", false},
		{"lsmash upper case", BackendLSMASH, "/tmp/src.LWI", false},
		{"ffms2 match", BackendFFMS2, "/tmp/src.ffindex", false},
		{"lsmash with ffindex", BackendLSMASH, "/tmp/src.ffindex", true},
		{"ffms2 with lwi", BackendFFMS2, "/tmp/src.lwi", true},
		{"no suffix", BackendFFMS2, "/tmp/src", true},
		{"unknown backend", BackendID("dgindex"), "/tmp/src.dgi", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCachePath(tt.backend, tt.path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestCandidatePaths(t *testing.T) {
	media := types.NewMediaFile("/media/movie.mkv", types.RoleEncode)

	got := CandidatePaths(media, BackendLSMASH, "/cache/movie.lwi")
	assert.Equal(t, []string{
		filepath.Join("/media/movie_temp", "temp.lwi"),
		filepath.Join("/media/movie.mkv_temp", "temp.lwi"),
		"/cache/movie.lwi",
		"/media/movie.lwi",
	}, got)

	// The caller path collapses into the default sidecar when they agree.
	got = CandidatePaths(media, BackendFFMS2, "/media/movie.ffindex")
	assert.Equal(t, []string{
		filepath.Join("/media/movie_temp", "temp.ffindex"),
		filepath.Join("/media/movie.mkv_temp", "temp.ffindex"),
		"/media/movie.ffindex",
	}, got)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.lwi")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	assert.True(t, fileExists(file))
	assert.False(t, fileExists(dir), "directories are not cache files")
	assert.False(t, fileExists(filepath.Join(dir, "missing.lwi")))
}
