// Package index locates, validates and builds the per-file frame indexes
// the comparison pipeline reads frame counts, rates and picture types from.
package index

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// BackendID names an indexing backend.
type BackendID string

const (
	BackendLSMASH BackendID = "lsmash"
	BackendFFMS2  BackendID = "ffms2"
)

// Suffix returns the fixed cache-file suffix for the backend, or "" for an
// unknown backend.
func (b BackendID) Suffix() string {
	switch b {
	case BackendLSMASH:
		return ".lwi"
	case BackendFFMS2:
		return ".ffindex"
	default:
		return ""
	}
}

// OpenRequest asks a backend for the index of one media file.
type OpenRequest struct {
	MediaPath string
	// CachePath is loaded when it exists and written after a scan when it
	// does not. Empty forces a fresh scan written to the backend's default
	// sidecar path.
	CachePath string
	// Rebuild skips loading CachePath and replaces it with a fresh scan.
	Rebuild  bool
	Progress probe.ProgressFunc
}

// Backend opens and builds index caches. Implementations return a
// BACKEND_MISMATCH AppError when an existing cache cannot be used.
type Backend interface {
	ID() BackendID
	Suffix() string
	ReportsProgress() bool
	Open(ctx context.Context, req OpenRequest) (*Index, error)
}

// Index is the decoded content of an index cache.
type Index struct {
	Backend      BackendID
	MediaPath    string
	MediaSize    int64
	MediaModTime time.Time
	Codec        string
	FrameRate    types.Rational
	PictureTypes []types.PictureType
}

// FrameCount returns the number of indexed frames.
func (i *Index) FrameCount() int {
	return len(i.PictureTypes)
}

// PictureType returns the picture type of frame n.
func (i *Index) PictureType(n int) (types.PictureType, error) {
	if n < 0 || n >= len(i.PictureTypes) {
		return types.PictureTypeUnknown, apperrors.NewOutOfRangeError(n, len(i.PictureTypes))
	}
	return i.PictureTypes[n], nil
}

// New returns the backend registered under id.
func New(id BackendID, scanner probe.Scanner) (Backend, error) {
	switch id {
	case BackendLSMASH:
		return NewLSMASH(scanner), nil
	case BackendFFMS2:
		return NewFFMS2(scanner), nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown indexer backend: %q", id))
	}
}

// mediaStamp identifies the media file an index was built from.
type mediaStamp struct {
	size    int64
	modTime time.Time
}

func statMedia(path string) (mediaStamp, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return mediaStamp{}, fmt.Errorf("stat media: %w", err)
	}
	return mediaStamp{size: fi.Size(), modTime: fi.ModTime()}, nil
}

func (s mediaStamp) matches(idx *Index) bool {
	return idx.MediaSize == s.size && idx.MediaModTime.Equal(s.modTime)
}
