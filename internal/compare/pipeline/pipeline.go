// Package pipeline runs the comparison frame acquisition stages in order:
// index both files, normalize, select, re-sync and sample sync anchors.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/zsiec/frameforge/internal/compare/deinterlace"
	"github.com/zsiec/frameforge/internal/compare/index"
	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/selection"
	"github.com/zsiec/frameforge/internal/compare/source"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/logger"
	"github.com/zsiec/frameforge/internal/metrics"
)

// Stage names used for logging and metrics.
const (
	StageIndexSource = "index_source"
	StageIndexEncode = "index_encode"
	StageNormalize   = "normalize"
	StageSelect      = "select"
	StageReSync      = "resync"
	StageAnchors     = "anchors"
)

// ProgressFunc reports scan progress for one side of the comparison.
type ProgressFunc func(role types.Role, done, total int)

// Request describes one comparison.
type Request struct {
	Source string
	Encode string
	// SourceCache and EncodeCache are optional caller cache paths.
	SourceCache string
	EncodeCache string

	ComparisonCount int
	// Frames, when set, replaces frame selection and disables sync windows.
	Frames []int
	ReSync string

	// Rand drives anchor sampling. Nil seeds from the runtime.
	Rand     *rand.Rand
	Progress ProgressFunc
}

// Result is the comparison plan handed to the image writer.
type Result struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	Backend     index.BackendID      `json:"backend" yaml:"backend"`
	Source      Side                 `json:"source" yaml:"source"`
	Encode      Side                 `json:"encode" yaml:"encode"`
	Deinterlace deinterlace.Decision `json:"deinterlace" yaml:"deinterlace"`
	// ReSyncOffset is the shift applied to source indices.
	ReSyncOffset int  `json:"re_sync_offset" yaml:"re_sync_offset"`
	Explicit     bool `json:"explicit_frames" yaml:"explicit_frames"`
	// Pairs are positions in the normalized views. After a halving they are
	// not file frame numbers; Side.FileFrames carries those.
	Pairs []types.ComparisonFrame `json:"pairs" yaml:"pairs"`
	// SyncWindows holds two windows of encode view positions, or none for an
	// explicit frame list.
	SyncWindows []types.SyncWindow `json:"sync_windows,omitempty" yaml:"sync_windows,omitempty"`
	Warnings    []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Side is one input after normalization.
type Side struct {
	Index      index.Entry    `json:"index" yaml:"index"`
	FrameCount int            `json:"frame_count" yaml:"frame_count"`
	FrameRate  types.Rational `json:"frame_rate" yaml:"frame_rate"`
	// FileFrames is the media file frame number of each pair, set only when
	// normalization dropped frames from this side.
	FileFrames []int `json:"file_frames,omitempty" yaml:"file_frames,omitempty"`
}

// EncodeFrames returns the encode index of every pair.
func (r *Result) EncodeFrames() []int {
	out := make([]int, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = p.EncodeIndex
	}
	return out
}

// SourceFrames returns the source index of every pair.
func (r *Result) SourceFrames() []int {
	out := make([]int, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = p.SourceIndex
	}
	return out
}

// Pipeline runs comparisons against one indexing backend.
type Pipeline struct {
	backend index.Backend
}

// New creates a pipeline.
func New(backend index.Backend) *Pipeline {
	return &Pipeline{backend: backend}
}

// Run executes every stage sequentially. The logger and run id are taken
// from ctx; a run id is generated when ctx carries none. ctx is checked
// between stages.
func (p *Pipeline) Run(ctx context.Context, req Request) (result *Result, err error) {
	runID := logger.GetRunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	log := logger.WithComponent(logger.FromContext(ctx), "pipeline")

	defer func() { metrics.RecordRun(err == nil) }()

	if req.ComparisonCount == 0 {
		req.ComparisonCount = selection.DefaultComparisonCount
	}
	if req.Frames == nil && req.ComparisonCount < 2 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("comparison count must be at least 2 to sample sync frames, got %d", req.ComparisonCount))
	}

	result = &Result{RunID: runID, Backend: p.backend.ID(), Explicit: req.Frames != nil}
	resolver := index.NewResolver(logger.FromContext(ctx))

	var src, enc *source.FrameSource
	err = p.stage(ctx, log, StageIndexSource, func() error {
		src, err = p.open(ctx, resolver, types.NewMediaFile(req.Source, types.RoleSource), req.SourceCache, req.Progress, &result.Source)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, log, StageIndexEncode, func() error {
		enc, err = p.open(ctx, resolver, types.NewMediaFile(req.Encode, types.RoleEncode), req.EncodeCache, req.Progress, &result.Encode)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, log, StageNormalize, func() error {
		src, enc, result.Deinterlace, err = deinterlace.NewNormalizer(logger.FromContext(ctx)).Normalize(src, enc)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Source.FrameCount, result.Source.FrameRate = src.FrameCount(), src.FrameRate()
	result.Encode.FrameCount, result.Encode.FrameRate = enc.FrameCount(), enc.FrameRate()

	var encodeFrames []int
	err = p.stage(ctx, log, StageSelect, func() error {
		if req.Frames != nil {
			encodeFrames = append([]int(nil), req.Frames...)
			return selection.CheckRange(encodeFrames, enc.FrameCount())
		}
		log.Infof("Selecting %d B frames for comparison", req.ComparisonCount)
		encodeFrames, err = selection.SelectComparisonFrames(ctx, src.FrameCount(), enc, req.ComparisonCount)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, log, StageReSync, func() error {
		offset, ok := selection.ParseOffset(req.ReSync)
		if !ok {
			warning := fmt.Sprintf("ignoring malformed re-sync offset %q", req.ReSync)
			log.WithField("re_sync", req.ReSync).Warn("Ignoring malformed re-sync offset, expected an optional '-' followed by digits")
			result.Warnings = append(result.Warnings, warning)
		}
		result.ReSyncOffset = offset

		sourceFrames := selection.ApplyOffset(encodeFrames, offset)
		if err := selection.CheckRange(sourceFrames, src.FrameCount()); err != nil {
			return apperrors.Wrap(err, apperrors.ErrorTypeOutOfRange,
				fmt.Sprintf("re-sync offset %d moves a source frame outside the source", offset))
		}

		result.Pairs = make([]types.ComparisonFrame, len(encodeFrames))
		for i := range encodeFrames {
			result.Pairs[i] = types.ComparisonFrame{SourceIndex: sourceFrames[i], EncodeIndex: encodeFrames[i]}
		}

		if result.Source.FileFrames, err = fileFrames(src, sourceFrames); err != nil {
			return err
		}
		result.Encode.FileFrames, err = fileFrames(enc, encodeFrames)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Explicit {
		log.Info("Explicit frame list given, skipping sync frames")
		return result, nil
	}

	err = p.stage(ctx, log, StageAnchors, func() error {
		rng := req.Rand
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		windows, err := selection.SampleAnchors(encodeFrames, rng)
		if err != nil {
			return err
		}
		result.SyncWindows = windows[:]

		for _, w := range windows {
			if out := w.OutOfRange(enc.FrameCount()); len(out) > 0 {
				warning := fmt.Sprintf("sync window %d has %d frames outside the encode", w.Group, len(out))
				log.WithFields(map[string]interface{}{"group": w.Group, "anchor": w.Anchor, "frames": out}).
					Warn("Sync window extends past the encode timeline")
				result.Warnings = append(result.Warnings, warning)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// stage runs fn after checking for cancellation and records its duration.
func (p *Pipeline) stage(ctx context.Context, log logger.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.ObserveStage(name, elapsed)

	log = log.WithFields(map[string]interface{}{"stage": name, "duration": elapsed.String()})
	if err != nil {
		log.WithError(err).Debug("Stage failed")
		return err
	}
	log.Debug("Stage completed")
	return nil
}

func (p *Pipeline) open(ctx context.Context, resolver *index.Resolver, media types.MediaFile, cachePath string, progress ProgressFunc, side *Side) (*source.FrameSource, error) {
	var scanProgress probe.ProgressFunc
	if progress != nil {
		scanProgress = func(done, total int) { progress(media.Role, done, total) }
	}

	entry, idx, err := resolver.Resolve(ctx, media, p.backend, cachePath, scanProgress)
	if err != nil {
		return nil, err
	}
	side.Index = *entry
	return source.New(media, idx.FrameRate, idx), nil
}

// fileFrames maps view positions back to media file frame numbers. It
// returns nil when the view is not remapped.
func fileFrames(fs *source.FrameSource, positions []int) ([]int, error) {
	if !fs.Remapped() {
		return nil, nil
	}
	out := make([]int, len(positions))
	for i, pos := range positions {
		n, err := fs.FileFrame(pos)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
