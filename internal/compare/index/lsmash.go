package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zsiec/frameforge/internal/compare/probe"
	"github.com/zsiec/frameforge/internal/compare/types"
	apperrors "github.com/zsiec/frameforge/internal/errors"
)

const (
	lwiFormat  = "frameforge-lwi"
	lwiVersion = 3
)

// LSMASH is the lsmash backend. Its caches are YAML text files with the
// .lwi suffix, and it reports scan progress.
type LSMASH struct {
	store cacheStore
}

// NewLSMASH creates the lsmash backend.
func NewLSMASH(scanner probe.Scanner) *LSMASH {
	return &LSMASH{store: cacheStore{id: BackendLSMASH, codec: lwiCodec{}, scanner: scanner}}
}

func (b *LSMASH) ID() BackendID  { return BackendLSMASH }
func (b *LSMASH) Suffix() string { return BackendLSMASH.Suffix() }

// ReportsProgress reports whether Open calls OpenRequest.Progress.
func (b *LSMASH) ReportsProgress() bool { return true }

// Open loads or builds the index for req.MediaPath.
func (b *LSMASH) Open(ctx context.Context, req OpenRequest) (*Index, error) {
	return b.store.open(ctx, req)
}

type lwiFile struct {
	Format       string         `yaml:"format"`
	Version      int            `yaml:"version"`
	Backend      string         `yaml:"backend"`
	Media        lwiMedia       `yaml:"media"`
	Codec        string         `yaml:"codec"`
	FrameRate    types.Rational `yaml:"frame_rate"`
	FrameCount   int            `yaml:"frame_count"`
	PictureTypes string         `yaml:"picture_types"`
}

type lwiMedia struct {
	Path      string `yaml:"path"`
	Size      int64  `yaml:"size"`
	ModTimeNS int64  `yaml:"mod_time_ns"`
}

type lwiCodec struct{}

func (lwiCodec) marshal(idx *Index) ([]byte, error) {
	return yaml.Marshal(lwiFile{
		Format:  lwiFormat,
		Version: lwiVersion,
		Backend: string(idx.Backend),
		Media: lwiMedia{
			Path:      idx.MediaPath,
			Size:      idx.MediaSize,
			ModTimeNS: idx.MediaModTime.UnixNano(),
		},
		Codec:        idx.Codec,
		FrameRate:    idx.FrameRate,
		FrameCount:   len(idx.PictureTypes),
		PictureTypes: encodePictureTypes(idx.PictureTypes),
	})
}

func (lwiCodec) unmarshal(data []byte) (*Index, error) {
	var f lwiFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewBackendMismatchError(fmt.Sprintf("unreadable lwi cache: %v", err))
	}
	if f.Format != lwiFormat || f.Version != lwiVersion {
		return nil, apperrors.NewBackendMismatchError(
			fmt.Sprintf("lwi cache format %q version %d, want %q version %d", f.Format, f.Version, lwiFormat, lwiVersion))
	}

	pictTypes := decodePictureTypes(f.PictureTypes)
	if len(pictTypes) != f.FrameCount {
		return nil, apperrors.NewBackendMismatchError(
			fmt.Sprintf("lwi cache lists %d picture types for %d frames", len(pictTypes), f.FrameCount))
	}

	return &Index{
		Backend:      BackendID(f.Backend),
		MediaPath:    f.Media.Path,
		MediaSize:    f.Media.Size,
		MediaModTime: time.Unix(0, f.Media.ModTimeNS),
		Codec:        f.Codec,
		FrameRate:    f.FrameRate,
		PictureTypes: pictTypes,
	}, nil
}

// encodePictureTypes packs picture types one letter per frame, "?" for
// unknown.
func encodePictureTypes(pts []types.PictureType) string {
	var b strings.Builder
	b.Grow(len(pts))
	for _, pt := range pts {
		switch pt {
		case types.PictureTypeI, types.PictureTypeP, types.PictureTypeB:
			b.WriteString(pt.String())
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func decodePictureTypes(s string) []types.PictureType {
	pts := make([]types.PictureType, 0, len(s))
	for _, c := range s {
		pts = append(pts, types.ParsePictureType(string(c)))
	}
	return pts
}
