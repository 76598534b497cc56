package index

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/logger"
	"github.com/zsiec/frameforge/internal/metrics"
)

// Entry records which cache served a media file.
type Entry struct {
	Media     types.MediaFile `json:"media" yaml:"media"`
	Backend   BackendID       `json:"backend" yaml:"backend"`
	CachePath string          `json:"cache_path" yaml:"cache_path"`
	// Valid is false while a mismatched cache is being replaced.
	Valid bool `json:"valid" yaml:"valid"`
	// Reused is true when an existing cache file was loaded.
	Reused bool `json:"reused" yaml:"reused"`
	// Rebuilt is true when the first cache was deleted and rebuilt.
	Rebuilt bool `json:"rebuilt" yaml:"rebuilt"`
}

// Resolver finds or creates index caches. Calls are serialized so no index
// is opened twice at the same time.
type Resolver struct {
	mu     sync.Mutex
	logger logger.Logger
}

// NewResolver creates a resolver.
func NewResolver(log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Resolver{logger: logger.WithComponent(log, "index")}
}

// Resolve opens the index for media with backend. cachePath is the
// caller-supplied cache location and may be empty.
func (r *Resolver) Resolve(ctx context.Context, media types.MediaFile, backend Backend, cachePath string, progress probe.ProgressFunc) (*Entry, *Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ValidateCachePath(backend.ID(), cachePath); err != nil {
		return nil, nil, err
	}

	log := logger.WithMedia(r.logger, string(media.Role), media.Path).WithField("backend", string(backend.ID()))

	entry := &Entry{Media: media, Backend: backend.ID()}
	for _, candidate := range CandidatePaths(media, backend.ID(), cachePath) {
		if fileExists(candidate) {
			entry.CachePath = candidate
			entry.Reused = true
			break
		}
	}
	if entry.CachePath == "" {
		entry.CachePath = cachePath
		if entry.CachePath == "" {
			entry.CachePath = DefaultCachePath(media.Path, backend.ID())
		}
	}

	if entry.Reused {
		log.WithField("cache_path", entry.CachePath).Info("Existing index found, attempting to use it")
	} else {
		log.WithField("cache_path", entry.CachePath).Infof("Indexing %s", media.Role)
	}
	if !backend.ReportsProgress() {
		log.Info("Indexer does not report progress, please wait while the index is completed")
	}

	idx, err := backend.Open(ctx, OpenRequest{MediaPath: media.Path, CachePath: entry.CachePath, Progress: progress})
	if err == nil {
		entry.Valid = true
		r.opened(log, entry, idx, outcome(entry))
		return entry, idx, nil
	}

	if !apperrors.IsType(err, apperrors.ErrorTypeBackendMismatch) {
		metrics.RecordIndexOpen(string(backend.ID()), string(media.Role), "failed")
		return nil, nil, apperrors.WrapIndexingFailure(err, fmt.Sprintf("failed to index %s", media.Path)).
			WithDetail("role", string(media.Role))
	}

	log.WithError(err).Warn("Index version mismatch, indexing again")
	entry.Valid = false
	target := cachePath
	if target == "" {
		target = DefaultCachePath(media.Path, backend.ID())
	}
	if owned(entry.CachePath, media, backend.ID(), cachePath) {
		if rmErr := os.Remove(entry.CachePath); rmErr != nil && !os.IsNotExist(rmErr) {
			metrics.RecordIndexOpen(string(backend.ID()), string(media.Role), "failed")
			return nil, nil, apperrors.WrapIndexingFailure(rmErr, fmt.Sprintf("failed to delete mismatched index %s", entry.CachePath))
		}
	} else {
		log.WithField("cache_path", entry.CachePath).Info("Leaving authoring tool index in place")
	}
	metrics.RecordIndexRebuild(string(backend.ID()), string(media.Role))

	idx, err = backend.Open(ctx, OpenRequest{MediaPath: media.Path, CachePath: target, Rebuild: true, Progress: progress})
	if err != nil {
		metrics.RecordIndexOpen(string(backend.ID()), string(media.Role), "failed")
		return nil, nil, apperrors.WrapIndexingFailure(err, fmt.Sprintf("rebuilding index for %s failed", media.Path)).
			WithDetail("role", string(media.Role))
	}

	entry.CachePath = target
	entry.Valid = true
	entry.Reused = false
	entry.Rebuilt = true
	r.opened(log, entry, idx, outcome(entry))
	return entry, idx, nil
}

// owned reports whether path is one of the caches this tool writes: the
// caller path or the default sidecar. Authoring-tool sidecars are left alone.
func owned(path string, media types.MediaFile, id BackendID, cachePath string) bool {
	return (cachePath != "" && path == cachePath) || path == DefaultCachePath(media.Path, id)
}

func (r *Resolver) opened(log logger.Logger, entry *Entry, idx *Index, outcome string) {
	metrics.RecordIndexOpen(string(entry.Backend), string(entry.Media.Role), outcome)
	metrics.SetIndexedFrames(string(entry.Media.Role), idx.FrameCount())
	log.WithFields(map[string]interface{}{
		"cache_path":  entry.CachePath,
		"frame_count": idx.FrameCount(),
		"frame_rate":  idx.FrameRate.String(),
		"outcome":     outcome,
	}).Infof("%s index completed", entry.Media.Role)
}

func outcome(e *Entry) string {
	switch {
	case e.Rebuilt:
		return "rebuilt"
	case e.Reused:
		return "reused"
	default:
		return "created"
	}
}
