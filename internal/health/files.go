package health

import (
	"context"
	"fmt"
	"os"
)

// MediaChecker verifies an input media file exists and is not empty.
type MediaChecker struct {
	name string
	path string
}

// NewMediaChecker creates a checker named after the media role.
func NewMediaChecker(role, path string) *MediaChecker {
	return &MediaChecker{name: role, path: path}
}

// Name returns the name of the checker.
func (c *MediaChecker) Name() string {
	return c.name
}

// Check stats the media file.
func (c *MediaChecker) Check(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("no %s file given", c.name)
	}
	fi, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", c.path, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", c.path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%s is empty", c.path)
	}
	return nil
}

// DirChecker verifies a directory exists, or can be created, and is
// writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a directory checker.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

// Name returns the name of the checker.
func (c *DirChecker) Name() string {
	return c.name
}

// Check creates the directory if needed and writes a probe file into it.
func (c *DirChecker) Check(ctx context.Context) error {
	if err := os.MkdirAll(c.path, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", c.path, err)
	}

	f, err := os.CreateTemp(c.path, ".frameforge-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", c.path, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
