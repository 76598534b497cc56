package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// sidecarTempDir is the working-directory suffix third-party authoring
// tools (StaxRip) use next to the media file.
const sidecarTempDir = "_temp"

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// DefaultCachePath returns the sidecar cache path next to the media file.
func DefaultCachePath(mediaPath string, id BackendID) string {
	return stem(mediaPath) + id.Suffix()
}

// CachePathIn returns the cache path for mediaPath inside an index directory.
func CachePathIn(dir, mediaPath string, id BackendID) string {
	return filepath.Join(dir, stem(filepath.Base(mediaPath))+id.Suffix())
}

// ValidateCachePath rejects a caller-supplied cache path whose suffix does
// not belong to the backend.
func ValidateCachePath(id BackendID, cachePath string) error {
	if cachePath == "" {
		return nil
	}
	want := id.Suffix()
	if want == "" {
		return apperrors.NewValidationError(fmt.Sprintf("unknown indexer backend: %q", id))
	}
	if got := filepath.Ext(cachePath); !strings.EqualFold(got, want) {
		return apperrors.NewValidationError(
			fmt.Sprintf("cache path %s must use the %s suffix for the %s indexer", cachePath, want, id)).
			WithDetail("cache_path", cachePath)
	}
	return nil
}

// CandidatePaths lists the cache locations tried for media, in priority
// order: the authoring-tool sidecar directory, the caller path, then the
// default sidecar file.
func CandidatePaths(media types.MediaFile, id BackendID, cachePath string) []string {
	suffix := id.Suffix()
	candidates := []string{
		filepath.Join(media.Stem()+sidecarTempDir, "temp"+suffix),
		filepath.Join(media.Path+sidecarTempDir, "temp"+suffix),
	}
	if cachePath != "" {
		candidates = append(candidates, cachePath)
	}
	candidates = append(candidates, DefaultCachePath(media.Path, id))

	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
