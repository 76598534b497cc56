// Package deinterlace reconciles frame rate and frame count differences
// between a source and an encode before frames are selected.
package deinterlace

import (
	"fmt"

	"github.com/zsiec/frameforge/internal/compare/source"
	"github.com/zsiec/frameforge/internal/compare/types"
	"github.com/zsiec/frameforge/internal/logger"
	"github.com/zsiec/frameforge/internal/metrics"
)

// Frame count ratios outside this band are treated as a doubled side.
const (
	DoubledRatio = 1.01
	HalvedRatio  = 0.99
)

// Action is the correction the normalizer applied.
type Action string

const (
	ActionNone        Action = "none"
	ActionAssumeFPS   Action = "assume_fps"
	ActionHalveSource Action = "halve_source"
	ActionHalveEncode Action = "halve_encode"
	// ActionTolerance means rates differ but the frame count ratio is
	// within [HalvedRatio, DoubledRatio], so nothing was changed.
	ActionTolerance Action = "within_tolerance"
	// ActionUnreadable means a rate or frame count could not be used.
	ActionUnreadable Action = "unreadable"
)

// Decision describes one normalization.
type Decision struct {
	Action       Action         `json:"action" yaml:"action"`
	SourceRate   types.Rational `json:"source_rate" yaml:"source_rate"`
	EncodeRate   types.Rational `json:"encode_rate" yaml:"encode_rate"`
	SourceFrames int            `json:"source_frames" yaml:"source_frames"`
	EncodeFrames int            `json:"encode_frames" yaml:"encode_frames"`
	// Ratio is source frames / encode frames, set when counts differ.
	Ratio float64 `json:"ratio,omitempty" yaml:"ratio,omitempty"`
}

// Changed reports whether either side was modified.
func (d Decision) Changed() bool {
	switch d.Action {
	case ActionAssumeFPS, ActionHalveSource, ActionHalveEncode:
		return true
	default:
		return false
	}
}

// Normalizer decides and applies deinterlace corrections.
type Normalizer struct {
	logger logger.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Normalizer{logger: logger.WithComponent(log, "deinterlace")}
}

// Normalize returns the sources to compare. The halved side adopts the
// other side's rate, so normalizing the result again is a no-op.
func (n *Normalizer) Normalize(src, enc *source.FrameSource) (*source.FrameSource, *source.FrameSource, Decision, error) {
	d := Decision{
		Action:       ActionNone,
		SourceRate:   src.FrameRate(),
		EncodeRate:   enc.FrameRate(),
		SourceFrames: src.FrameCount(),
		EncodeFrames: enc.FrameCount(),
	}

	log := n.logger.WithFields(map[string]interface{}{
		"source_rate":   d.SourceRate.String(),
		"encode_rate":   d.EncodeRate.String(),
		"source_frames": d.SourceFrames,
		"encode_frames": d.EncodeFrames,
	})

	defer func() { metrics.RecordDeinterlaceDecision(string(d.Action)) }()

	if !d.SourceRate.Valid() || !d.EncodeRate.Valid() {
		d.Action = ActionUnreadable
		log.Warn("Could not read frame rates, skipping deinterlace detection")
		return src, enc, d, nil
	}

	if d.SourceRate.Float64() == d.EncodeRate.Float64() {
		return src, enc, d, nil
	}

	if d.SourceFrames == d.EncodeFrames {
		d.Action = ActionAssumeFPS
		log.Info("Frame rates differ with equal frame counts, assuming the encode rate for the source")
		return src.AssumeFPS(d.EncodeRate), enc, d, nil
	}

	if d.SourceFrames == 0 || d.EncodeFrames == 0 {
		d.Action = ActionUnreadable
		log.Warn("Empty frame count, skipping deinterlace detection")
		return src, enc, d, nil
	}

	d.Ratio = float64(d.SourceFrames) / float64(d.EncodeFrames)
	log = log.WithField("ratio", d.Ratio)

	switch {
	case d.Ratio > DoubledRatio:
		halved, err := src.SelectEvery(2, 0)
		if err != nil {
			return nil, nil, d, fmt.Errorf("halve source: %w", err)
		}
		d.Action = ActionHalveSource
		log.WithField("frames", halved.FrameCount()).Warn("Source has about twice the encode's frames, dropping every second source frame")
		return halved.AssumeFPS(d.EncodeRate), enc, d, nil

	case d.Ratio < HalvedRatio:
		halved, err := enc.SelectEvery(2, 0)
		if err != nil {
			return nil, nil, d, fmt.Errorf("halve encode: %w", err)
		}
		d.Action = ActionHalveEncode
		log.WithField("frames", halved.FrameCount()).Warn("Encode has about twice the source's frames, dropping every second encode frame")
		return src, halved.AssumeFPS(d.SourceRate), d, nil

	default:
		d.Action = ActionTolerance
		log.Warn("Frame rates differ but frame counts are within tolerance, leaving both sides unchanged")
		return src, enc, d, nil
	}
}
