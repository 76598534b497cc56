package types

// SyncWindowRadius is the number of frames on each side of a sync anchor.
const SyncWindowRadius = 5

// SyncWindowSize is the number of frames in a sync window.
const SyncWindowSize = 2*SyncWindowRadius + 1

// ComparisonFrame is a single aligned source/encode frame pair.
type ComparisonFrame struct {
	SourceIndex int `json:"source_index" yaml:"source_index"`
	EncodeIndex int `json:"encode_index" yaml:"encode_index"`
}

// SyncWindow is a sync anchor plus its surrounding frames, used to verify
// alignment by eye. Members are not clamped to any timeline.
type SyncWindow struct {
	Anchor int   `json:"anchor" yaml:"anchor"`
	Group  int   `json:"group" yaml:"group"`
	Frames []int `json:"frames" yaml:"frames"`
}

// NewSyncWindow builds the window anchor-5..anchor+5 for the given group.
func NewSyncWindow(anchor, group int) SyncWindow {
	frames := make([]int, 0, SyncWindowSize)
	for i := -SyncWindowRadius; i <= SyncWindowRadius; i++ {
		frames = append(frames, anchor+i)
	}
	return SyncWindow{Anchor: anchor, Group: group, Frames: frames}
}

// OutOfRange returns the members that fall outside [0, frameCount).
func (w SyncWindow) OutOfRange(frameCount int) []int {
	var out []int
	for _, f := range w.Frames {
		if f < 0 || f >= frameCount {
			out = append(out, f)
		}
	}
	return out
}
