package selection

import (
	"fmt"
	"math/rand/v2"

	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// SampleAnchors draws two frames from frames without replacement and
// returns their sync windows ordered by anchor, tagged groups 1 and 2.
func SampleAnchors(frames []int, rng *rand.Rand) ([2]types.SyncWindow, error) {
	if len(frames) < 2 {
		return [2]types.SyncWindow{}, apperrors.NewValidationError(
			fmt.Sprintf("sync anchors need at least 2 frames, got %d", len(frames)))
	}

	first := rng.IntN(len(frames))
	second := rng.IntN(len(frames) - 1)
	if second >= first {
		second++
	}

	a, b := frames[first], frames[second]
	if b < a {
		a, b = b, a
	}

	return [2]types.SyncWindow{
		types.NewSyncWindow(a, 1),
		types.NewSyncWindow(b, 2),
	}, nil
}
