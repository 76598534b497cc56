package types

// PictureType represents the coded picture type of a single frame
type PictureType uint8

const (
	PictureTypeUnknown PictureType = iota
	PictureTypeI                   // Intra-coded
	PictureTypeP                   // Predictive
	PictureTypeB                   // Bidirectional
)

// String returns the string representation of PictureType
func (p PictureType) String() string {
	switch p {
	case PictureTypeI:
		return "I"
	case PictureTypeP:
		return "P"
	case PictureTypeB:
		return "B"
	default:
		return "unknown"
	}
}

// ParsePictureType maps a picture type letter as reported by ffprobe
// (pict_type) to a PictureType. Switching/slice variants are folded into
// their base type; anything else is unknown.
func ParsePictureType(s string) PictureType {
	switch s {
	case "I", "SI":
		return PictureTypeI
	case "P", "SP":
		return PictureTypeP
	case "B", "BI":
		return PictureTypeB
	default:
		return PictureTypeUnknown
	}
}

// IsBidirectional returns true for B pictures
func (p PictureType) IsBidirectional() bool {
	return p == PictureTypeB
}
