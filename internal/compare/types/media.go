package types

import (
	"path/filepath"
	"strings"
)

// Role identifies which side of a comparison a media file is on.
type Role string

const (
	RoleSource Role = "source"
	RoleEncode Role = "encode"
)

// MediaFile is an input video supplied at pipeline start.
type MediaFile struct {
	Path string `json:"path" yaml:"path"`
	Role Role   `json:"role" yaml:"role"`
}

// NewMediaFile creates a MediaFile for the given role.
func NewMediaFile(path string, role Role) MediaFile {
	return MediaFile{Path: path, Role: role}
}

// Name returns the file name including its extension.
func (m MediaFile) Name() string {
	return filepath.Base(m.Path)
}

// Stem returns the path with the final extension removed.
func (m MediaFile) Stem() string {
	return strings.TrimSuffix(m.Path, filepath.Ext(m.Path))
}

// Dir returns the directory holding the media file.
func (m MediaFile) Dir() string {
	return filepath.Dir(m.Path)
}
