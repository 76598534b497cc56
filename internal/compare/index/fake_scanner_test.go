package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/types"
)

// fakeScanner returns a canned result and counts scans. Errors are handed
// out in order, one per scan, before results are returned.
type fakeScanner struct {
	result *probe.Result
	errs   []error
	scans  int
}

func (f *fakeScanner) Scan(ctx context.Context, path string, progress probe.ProgressFunc) (*probe.Result, error) {
	f.scans++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := len(f.result.PictureTypes)
	for i := 1; progress != nil && i <= total; i++ {
		progress(i, total)
	}
	return f.result, nil
}

func newFakeScanner(pattern string) *fakeScanner {
	pts := make([]types.PictureType, 0, len(pattern))
	for _, c := range pattern {
		pts = append(pts, types.ParsePictureType(string(c)))
	}
	return &fakeScanner{result: &probe.Result{
		Info:         probe.StreamInfo{Codec: "h264", FrameRate: types.FrameRate23_976, NbFrames: len(pts)},
		PictureTypes: pts,
	}}
}

// writeMedia creates a stand-in media file and returns its path.
func writeMedia(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
