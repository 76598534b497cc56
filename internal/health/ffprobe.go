package health

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// FFprobeChecker verifies the ffprobe binary used for index scans runs.
type FFprobeChecker struct {
	binaryPath string
}

// NewFFprobeChecker creates a new ffprobe checker.
func NewFFprobeChecker(binaryPath string) *FFprobeChecker {
	return &FFprobeChecker{binaryPath: binaryPath}
}

// Name returns the name of the checker.
func (f *FFprobeChecker) Name() string {
	return "ffprobe"
}

// Check runs ffprobe -version.
func (f *FFprobeChecker) Check(ctx context.Context) error {
	_, err := f.Version(ctx)
	return err
}

// Version returns the first line of ffprobe -version.
func (f *FFprobeChecker) Version(ctx context.Context) (string, error) {
	if f.binaryPath == "" {
		return "", fmt.Errorf("ffprobe binary not configured")
	}

	if !filepath.IsAbs(f.binaryPath) {
		if _, err := exec.LookPath(f.binaryPath); err != nil {
			return "", fmt.Errorf("ffprobe binary not found: %w", err)
		}
	}

	output, err := exec.CommandContext(ctx, f.binaryPath, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffprobe version check failed: %w", err)
	}

	first, _, _ := strings.Cut(string(output), "\n")
	first = strings.TrimSpace(first)
	if !strings.HasPrefix(first, "ffprobe version") {
		return "", fmt.Errorf("unexpected ffprobe version output: %q", first)
	}
	return first, nil
}
