package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/frameforge/internal/compare/index"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// countingIndex records how often each frame is read.
type countingIndex struct {
	*index.Index
	reads map[int]int
}

func (c *countingIndex) PictureType(n int) (types.PictureType, error) {
	c.reads[n]++
	return c.Index.PictureType(n)
}

func newIndex(pattern string) *countingIndex {
	pts := make([]types.PictureType, 0, len(pattern))
	for _, ch := range pattern {
		pts = append(pts, types.ParsePictureType(string(ch)))
	}
	return &countingIndex{
		Index: &index.Index{FrameRate: types.FrameRate29_97, PictureTypes: pts},
		reads: make(map[int]int),
	}
}

func encodeMedia() types.MediaFile {
	return types.NewMediaFile("/media/encode.mkv", types.RoleEncode)
}

func TestFrameSource_Basics(t *testing.T) {
	idx := newIndex("IPBBPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	assert.Equal(t, 6, src.FrameCount())
	assert.Equal(t, types.FrameRate29_97, src.FrameRate())
	assert.Equal(t, types.RoleEncode, src.Media().Role)

	pt, err := src.PictureType(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, types.PictureTypeB, pt)
}

func TestFrameSource_PictureTypeCached(t *testing.T) {
	idx := newIndex("IPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	for i := 0; i < 3; i++ {
		_, err := src.PictureType(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, idx.reads[1])
}

func TestFrameSource_OutOfRange(t *testing.T) {
	idx := newIndex("IPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	for _, i := range []int{-1, 3, 100} {
		_, err := src.PictureType(context.Background(), i)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfRange), "frame %d", i)
	}
}

func TestFrameSource_Cancelled(t *testing.T) {
	idx := newIndex("IPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.PictureType(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, idx.reads)
}

func TestFrameSource_AssumeFPS(t *testing.T) {
	idx := newIndex("IPBB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	view := src.AssumeFPS(types.FrameRate23_976)
	assert.Equal(t, types.FrameRate23_976, view.FrameRate())
	assert.Equal(t, types.FrameRate29_97, src.FrameRate(), "parent is unchanged")
	assert.Equal(t, src.FrameCount(), view.FrameCount())
}

func TestFrameSource_SelectEvery(t *testing.T) {
	//                 0123456789
	idx := newIndex("IBPBPBPBPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	even, err := src.SelectEvery(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, even.FrameCount())
	assert.Equal(t, 10, src.FrameCount())

	for i := 0; i < even.FrameCount(); i++ {
		pt, err := even.PictureType(context.Background(), i)
		require.NoError(t, err)
		assert.NotEqual(t, types.PictureTypeB, pt, "even positions hold no B pictures")
	}

	odd, err := src.SelectEvery(2, 1)
	require.NoError(t, err)
	pt, err := odd.PictureType(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, types.PictureTypeB, pt)

	// Views compose: every second of the even positions is base 0, 4, 8.
	quarter, err := even.SelectEvery(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, quarter.FrameCount())
	_, err = quarter.PictureType(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.reads[8])
}

func TestFrameSource_FileFrame(t *testing.T) {
	idx := newIndex("IBPBPBPBPB")
	src := New(encodeMedia(), idx.FrameRate, idx)
	assert.False(t, src.Remapped())
	assert.False(t, src.AssumeFPS(types.FrameRate50).Remapped())

	n, err := src.FileFrame(7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	odd, err := src.SelectEvery(2, 1)
	require.NoError(t, err)
	assert.True(t, odd.Remapped())
	n, err = odd.FileFrame(3)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = odd.FileFrame(5)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeOutOfRange))
}

func TestFrameSource_SelectEveryOddCount(t *testing.T) {
	idx := newIndex("IPBBP")
	src := New(encodeMedia(), idx.FrameRate, idx)

	even, err := src.SelectEvery(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, even.FrameCount())
}

func TestFrameSource_SelectEveryInvalid(t *testing.T) {
	idx := newIndex("IPB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	for _, tc := range [][2]int{{0, 0}, {2, 2}, {2, -1}} {
		_, err := src.SelectEvery(tc[0], tc[1])
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "cycle %d offset %d", tc[0], tc[1])
	}
}

func TestFrameSource_ViewsShareCache(t *testing.T) {
	idx := newIndex("IPBB")
	src := New(encodeMedia(), idx.FrameRate, idx)

	_, err := src.PictureType(context.Background(), 2)
	require.NoError(t, err)
	_, err = src.AssumeFPS(types.FrameRate25).PictureType(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.reads[2])
}
