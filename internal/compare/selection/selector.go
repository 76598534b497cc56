// Package selection chooses the frames to compare, applies re-sync
// offsets and samples the sync anchors.
package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
	"github.com/zsiec/frameforge/internal/metrics"
)

// Candidates are spread over this fraction of the source timeline.
const (
	SpanStart = 0.15
	SpanEnd   = 0.75
)

// DefaultComparisonCount is the number of frame pairs selected when no
// count is configured.
const DefaultComparisonCount = 20

// PictureTyper is the encode-side view the selector reads.
// *source.FrameSource implements it.
type PictureTyper interface {
	FrameCount() int
	PictureType(ctx context.Context, i int) (types.PictureType, error)
}

// Linspace returns n evenly spaced points from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	points := make([]float64, n)
	if n == 1 {
		points[0] = start
		return points
	}
	step := (end - start) / float64(n-1)
	for i := range points {
		points[i] = start + float64(i)*step
	}
	points[n-1] = end
	return points
}

// Candidates returns the n raw candidate indices for a source timeline of
// frameCount frames.
func Candidates(frameCount, n int) []int {
	start := float64(int(SpanStart * float64(frameCount)))
	end := float64(int(SpanEnd * float64(frameCount)))

	points := Linspace(start, end, n)
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = int(p)
	}
	return out
}

// SelectComparisonFrames returns n encode frame indices, each the first B
// picture at or after its evenly spaced candidate. Reaching the end of the
// encode without a B picture fails with CORRUPT_ENCODE. Candidates are
// resolved independently, so the result may hold duplicates.
func SelectComparisonFrames(ctx context.Context, sourceFrameCount int, encode PictureTyper, n int) ([]int, error) {
	if n < 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("comparison count must be at least 1, got %d", n))
	}

	frames := Candidates(sourceFrameCount, n)
	limit := encode.FrameCount()

	for i, candidate := range frames {
		frame, err := snapForward(ctx, encode, candidate, limit)
		if err != nil {
			return nil, err
		}
		metrics.ObserveSnapDistance(frame - candidate)
		frames[i] = frame
	}

	return frames, nil
}

func snapForward(ctx context.Context, encode PictureTyper, frame, limit int) (int, error) {
	for ; frame < limit; frame++ {
		pt, err := encode.PictureType(ctx, frame)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeOutOfRange) {
				return 0, corrupt(err)
			}
			return 0, err
		}
		if pt.IsBidirectional() {
			return frame, nil
		}
	}
	return 0, corrupt(errors.New("no B picture before the end of the encode")).
		WithDetail("frame_count", limit)
}

func corrupt(err error) *apperrors.AppError {
	metrics.RecordCorruptEncode()
	return apperrors.WrapCorruptEncodeError(err)
}
