package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/frameforge/internal/errors"
)

func TestParseOffset(t *testing.T) {
	tests := []struct {
		input  string
		offset int
		ok     bool
	}{
		{"", 0, true},
		{"   ", 0, true},
		{"7", 7, true},
		{"-3", -3, true},
		{" -12 ", -12, true},
		{"0", 0, true},
		{"+7", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"3-", 0, false},
		{"1.5", 0, false},
		{"99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			offset, ok := ParseOffset(tt.input)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestApplyOffset(t *testing.T) {
	frames := []int{150, 351, 551, 752}

	offset, _ := ParseOffset("")
	assert.Equal(t, frames, ApplyOffset(frames, offset))

	offset, _ = ParseOffset("-3")
	shifted := ApplyOffset(frames, offset)
	for k := range frames {
		assert.Equal(t, frames[k]-3, shifted[k])
	}

	offset, _ = ParseOffset("10")
	assert.Equal(t, []int{160, 361, 561, 762}, ApplyOffset(frames, offset))

	assert.Equal(t, []int{150, 351, 551, 752}, frames, "input is not modified")
}

func TestApplyOffset_MalformedIsIdentity(t *testing.T) {
	frames := []int{10, 20}
	offset, ok := ParseOffset("+7")
	assert.False(t, ok)
	assert.Equal(t, frames, ApplyOffset(frames, offset))
}

func TestCheckRange(t *testing.T) {
	assert.NoError(t, CheckRange([]int{0, 5, 9}, 10))
	assert.NoError(t, CheckRange(nil, 0))

	err := CheckRange([]int{3, -2}, 10)
	require.Error(t, err)
	appErr, ok := apperrors.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeOutOfRange, appErr.Type)
	assert.Equal(t, 1, appErr.Details["position"])

	assert.True(t, apperrors.IsType(CheckRange([]int{10}, 10), apperrors.ErrorTypeOutOfRange))
}

func TestParseFrameList(t *testing.T) {
	frames, err := ParseFrameList("101:104:900")
	require.NoError(t, err)
	assert.Equal(t, []int{101, 104, 900}, frames)

	frames, err = ParseFrameList("42")
	require.NoError(t, err)
	assert.Equal(t, []int{42}, frames)

	for _, bad := range []string{"", "1,2", "1::2", ":1", "1:", "-1:2", "a:b"} {
		_, err := ParseFrameList(bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "input %q", bad)
	}
}
