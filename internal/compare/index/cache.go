package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/zsiec/frameforge/internal/compare/probe"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/metrics"
)

// codec converts an Index to and from a backend's on-disk format.
type codec interface {
	marshal(idx *Index) ([]byte, error)
	// unmarshal returns a BACKEND_MISMATCH AppError for data written by
	// another backend or format version.
	unmarshal(data []byte) (*Index, error)
}

// cacheStore is the load-or-scan-and-write logic shared by both backends.
type cacheStore struct {
	id      BackendID
	codec   codec
	scanner probe.Scanner
}

func (c *cacheStore) open(ctx context.Context, req OpenRequest) (*Index, error) {
	stamp, err := statMedia(req.MediaPath)
	if err != nil {
		return nil, err
	}

	cachePath := req.CachePath
	if cachePath == "" {
		cachePath = DefaultCachePath(req.MediaPath, c.id)
	} else if !req.Rebuild {
		idx, err := c.load(cachePath, stamp)
		if err == nil {
			return idx, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	idx, err := c.build(ctx, req, stamp)
	if err != nil {
		return nil, err
	}

	if err := c.write(cachePath, idx); err != nil {
		return nil, err
	}

	return idx, nil
}

func (c *cacheStore) load(path string, stamp mediaStamp) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	idx, err := c.codec.unmarshal(data)
	if err != nil {
		return nil, err
	}
	if idx.Backend != c.id {
		return nil, apperrors.NewBackendMismatchError(fmt.Sprintf("cache %s was built by %s", path, idx.Backend))
	}
	if !stamp.matches(idx) {
		return nil, apperrors.NewBackendMismatchError(fmt.Sprintf("cache %s is stale for %s", path, idx.MediaPath)).
			WithCode("STALE_MEDIA")
	}
	return idx, nil
}

func (c *cacheStore) build(ctx context.Context, req OpenRequest, stamp mediaStamp) (*Index, error) {
	start := time.Now()
	result, err := c.scanner.Scan(ctx, req.MediaPath, req.Progress)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", req.MediaPath, err)
	}
	metrics.ObserveIndexScan(string(c.id), time.Since(start))

	return &Index{
		Backend:      c.id,
		MediaPath:    req.MediaPath,
		MediaSize:    stamp.size,
		MediaModTime: stamp.modTime,
		Codec:        result.Info.Codec,
		FrameRate:    result.Info.FrameRate,
		PictureTypes: result.PictureTypes,
	}, nil
}

// write replaces path atomically so an interrupted run never leaves a
// truncated cache behind.
func (c *cacheStore) write(path string, idx *Index) error {
	data, err := c.codec.marshal(idx)
	if err != nil {
		return fmt.Errorf("encode %s index: %w", c.id, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write index cache %s: %w", path, err)
	}
	return nil
}
