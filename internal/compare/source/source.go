// Package source provides the frame-addressable view of an opened index
// that the normalizer and selector work on.
package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/metrics"
)

// Indexed is the frame-indexed sequence a FrameSource reads from.
// *index.Index implements it.
type Indexed interface {
	FrameCount() int
	PictureType(n int) (types.PictureType, error)
}

// FrameSource is a view over an index. Views created by AssumeFPS and
// SelectEvery share the parent's picture type cache.
type FrameSource struct {
	media types.MediaFile
	rate  types.Rational
	base  Indexed
	// frames maps view positions to base frames; nil is the identity.
	frames []int
	cache  *pictureCache
}

type pictureCache struct {
	mu    sync.Mutex
	types map[int]types.PictureType
}

// New creates a FrameSource over base with the given frame rate.
func New(media types.MediaFile, rate types.Rational, base Indexed) *FrameSource {
	return &FrameSource{
		media: media,
		rate:  rate,
		base:  base,
		cache: &pictureCache{types: make(map[int]types.PictureType)},
	}
}

// Media returns the media file the source was opened from.
func (s *FrameSource) Media() types.MediaFile {
	return s.media
}

// FrameRate returns the effective frame rate.
func (s *FrameSource) FrameRate() types.Rational {
	return s.rate
}

// FrameCount returns the number of frames in the view.
func (s *FrameSource) FrameCount() int {
	if s.frames != nil {
		return len(s.frames)
	}
	return s.base.FrameCount()
}

// PictureType returns the picture type of frame i of the view. Results are
// cached for the lifetime of the source.
func (s *FrameSource) PictureType(ctx context.Context, i int) (types.PictureType, error) {
	if err := ctx.Err(); err != nil {
		return types.PictureTypeUnknown, err
	}

	n, err := s.baseFrame(i)
	if err != nil {
		return types.PictureTypeUnknown, err
	}

	role := string(s.media.Role)

	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	if pt, ok := s.cache.types[n]; ok {
		metrics.RecordPictureTypeProbe(role, true)
		return pt, nil
	}

	pt, err := s.base.PictureType(n)
	if err != nil {
		return types.PictureTypeUnknown, err
	}
	metrics.RecordPictureTypeProbe(role, false)
	s.cache.types[n] = pt
	return pt, nil
}

// FileFrame returns the frame number in the media file behind view
// position i.
func (s *FrameSource) FileFrame(i int) (int, error) {
	return s.baseFrame(i)
}

// Remapped reports whether view positions differ from file frame numbers.
func (s *FrameSource) Remapped() bool {
	return s.frames != nil
}

func (s *FrameSource) baseFrame(i int) (int, error) {
	count := s.FrameCount()
	if i < 0 || i >= count {
		return 0, apperrors.NewOutOfRangeError(i, count).WithDetail("role", string(s.media.Role))
	}
	if s.frames != nil {
		return s.frames[i], nil
	}
	return i, nil
}

// AssumeFPS returns a view with the same frames and a different frame rate.
func (s *FrameSource) AssumeFPS(rate types.Rational) *FrameSource {
	view := *s
	view.rate = rate
	return &view
}

// SelectEvery returns a view keeping every cycle-th frame starting at
// offset. SelectEvery(2, 0) keeps the even positions.
func (s *FrameSource) SelectEvery(cycle, offset int) (*FrameSource, error) {
	if cycle < 1 || offset < 0 || offset >= cycle {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid frame selection: cycle %d offset %d", cycle, offset))
	}

	count := s.FrameCount()
	frames := make([]int, 0, (count-offset+cycle-1)/cycle)
	for i := offset; i < count; i += cycle {
		n, err := s.baseFrame(i)
		if err != nil {
			return nil, err
		}
		frames = append(frames, n)
	}

	view := *s
	view.frames = frames
	return &view, nil
}
