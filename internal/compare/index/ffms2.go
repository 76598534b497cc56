package index

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

const (
	ffindexMagic   = "FFFIDX"
	ffindexVersion = 2
)

// FFMS2 is the ffms2 backend. Its caches are msgpack files with the
// .ffindex suffix. It never reports scan progress.
type FFMS2 struct {
	store cacheStore
}

// NewFFMS2 creates the ffms2 backend.
func NewFFMS2(scanner probe.Scanner) *FFMS2 {
	return &FFMS2{store: cacheStore{id: BackendFFMS2, codec: ffindexCodec{}, scanner: scanner}}
}

func (b *FFMS2) ID() BackendID  { return BackendFFMS2 }
func (b *FFMS2) Suffix() string { return BackendFFMS2.Suffix() }

// ReportsProgress reports whether Open calls OpenRequest.Progress.
func (b *FFMS2) ReportsProgress() bool { return false }

// Open loads or builds the index for req.MediaPath. req.Progress is ignored.
func (b *FFMS2) Open(ctx context.Context, req OpenRequest) (*Index, error) {
	req.Progress = nil
	return b.store.open(ctx, req)
}

type ffindexFile struct {
	Magic        string `msgpack:"magic"`
	Version      uint16 `msgpack:"version"`
	Backend      string `msgpack:"backend"`
	MediaPath    string `msgpack:"media_path"`
	MediaSize    int64  `msgpack:"media_size"`
	MediaModTime int64  `msgpack:"media_mtime"`
	Codec        string `msgpack:"codec"`
	RateNum      int    `msgpack:"rate_num"`
	RateDen      int    `msgpack:"rate_den"`
	PictureTypes []byte `msgpack:"pict_types"`
}

type ffindexCodec struct{}

func (ffindexCodec) marshal(idx *Index) ([]byte, error) {
	pts := make([]byte, len(idx.PictureTypes))
	for i, pt := range idx.PictureTypes {
		pts[i] = byte(pt)
	}

	return msgpack.Marshal(&ffindexFile{
		Magic:        ffindexMagic,
		Version:      ffindexVersion,
		Backend:      string(idx.Backend),
		MediaPath:    idx.MediaPath,
		MediaSize:    idx.MediaSize,
		MediaModTime: idx.MediaModTime.UnixNano(),
		Codec:        idx.Codec,
		RateNum:      idx.FrameRate.Num,
		RateDen:      idx.FrameRate.Den,
		PictureTypes: pts,
	})
}

func (ffindexCodec) unmarshal(data []byte) (*Index, error) {
	var f ffindexFile
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewBackendMismatchError(fmt.Sprintf("unreadable ffindex cache: %v", err))
	}
	if f.Magic != ffindexMagic || f.Version != ffindexVersion {
		return nil, apperrors.NewBackendMismatchError(
			fmt.Sprintf("ffindex cache magic %q version %d, want %q version %d", f.Magic, f.Version, ffindexMagic, ffindexVersion))
	}

	pts := make([]types.PictureType, len(f.PictureTypes))
	for i, b := range f.PictureTypes {
		if b > byte(types.PictureTypeB) {
			return nil, apperrors.NewBackendMismatchError(fmt.Sprintf("ffindex cache has unknown picture type %d", b))
		}
		pts[i] = types.PictureType(b)
	}

	return &Index{
		Backend:      BackendID(f.Backend),
		MediaPath:    f.MediaPath,
		MediaSize:    f.MediaSize,
		MediaModTime: time.Unix(0, f.MediaModTime),
		Codec:        f.Codec,
		FrameRate:    types.Rational{Num: f.RateNum, Den: f.RateDen},
		PictureTypes: pts,
	}, nil
}
