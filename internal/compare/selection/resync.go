package selection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/zsiec/frameforge/internal/errors"
)

var offsetPattern = regexp.MustCompile(`^-?\d+$`)

// ParseOffset parses a re-sync offset of the form -?digits. An empty input
// is offset 0. Any other input also yields 0 with ok false so the caller
// can warn about it.
func ParseOffset(input string) (offset int, ok bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, true
	}
	if !offsetPattern.MatchString(input) {
		return 0, false
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		// Overflow.
		return 0, false
	}
	return n, true
}

// ApplyOffset returns a copy of frames shifted by offset.
func ApplyOffset(frames []int, offset int) []int {
	out := make([]int, len(frames))
	for i, f := range frames {
		out[i] = f + offset
	}
	return out
}

// CheckRange fails with OUT_OF_RANGE on the first frame outside
// [0, frameCount).
func CheckRange(frames []int, frameCount int) error {
	for i, f := range frames {
		if f < 0 || f >= frameCount {
			return apperrors.NewOutOfRangeError(f, frameCount).WithDetail("position", i)
		}
	}
	return nil
}

var frameListPattern = regexp.MustCompile(`^\d+(?::\d+)*$`)

// ParseFrameList parses an explicit colon separated frame list such as
// "101:104:900".
func ParseFrameList(input string) ([]int, error) {
	input = strings.TrimSpace(input)
	if !frameListPattern.MatchString(input) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("frame list %q must be frame numbers separated by ':'", input))
	}

	parts := strings.Split(input, ":")
	frames := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("frame %q is not a valid frame number", p))
		}
		frames[i] = n
	}
	return frames, nil
}
