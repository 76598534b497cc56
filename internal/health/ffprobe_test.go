package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestFFprobeChecker_Name(t *testing.T) {
	assert.Equal(t, "ffprobe", NewFFprobeChecker("ffprobe").Name())
}

func TestFFprobeChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		binary  func(t *testing.T) string
		wantErr string
	}{
		{
			name: "working binary",
			binary: func(t *testing.T) string {
				return writeScript(t, `echo "ffprobe version 6.1.1 Copyright (c) 2007-2023 the FFmpeg developers"`)
			},
		},
		{
			name: "wrong binary",
			binary: func(t *testing.T) string {
				return writeScript(t, `echo "ffmpeg version 6.1.1"`)
			},
			wantErr: "unexpected ffprobe version output",
		},
		{
			name: "failing binary",
			binary: func(t *testing.T) string {
				return writeScript(t, "exit 3")
			},
			wantErr: "ffprobe version check failed",
		},
		{
			name:    "missing absolute path",
			binary:  func(t *testing.T) string { return "/nonexistent/ffprobe" },
			wantErr: "ffprobe version check failed",
		},
		{
			name:    "missing from PATH",
			binary:  func(t *testing.T) string { return "frameforge-no-such-ffprobe" },
			wantErr: "ffprobe binary not found",
		},
		{
			name:    "not configured",
			binary:  func(t *testing.T) string { return "" },
			wantErr: "not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFFprobeChecker(tt.binary(t)).Check(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFFprobeChecker_Version(t *testing.T) {
	bin := writeScript(t, `printf "ffprobe version n7.0\nbuilt with gcc\n"`)

	version, err := NewFFprobeChecker(bin).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ffprobe version n7.0", version)
}
