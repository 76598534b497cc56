// Package probe scans video containers with ffprobe.
package probe

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zsiec/frameforge/internal/compare/types"
)

// ProgressFunc is called synchronously from inside a scan with the number
// of frames read so far and the expected total (0 when unknown).
type ProgressFunc func(done, total int)

// StreamInfo describes the first video stream of a container.
type StreamInfo struct {
	Codec     string
	FrameRate types.Rational
	// NbFrames is the container's declared frame count, 0 if absent.
	NbFrames int
}

// Result is the outcome of a full container scan.
type Result struct {
	Info         StreamInfo
	PictureTypes []types.PictureType
}

// FrameCount returns the number of decoded frames.
func (r *Result) FrameCount() int {
	return len(r.PictureTypes)
}

// Scanner performs full container scans.
type Scanner interface {
	Scan(ctx context.Context, path string, progress ProgressFunc) (*Result, error)
}

// FFprobe is a Scanner backed by the ffprobe binary.
type FFprobe struct {
	binaryPath string
	timeout    time.Duration
}

// NewFFprobe creates a scanner. An empty binaryPath searches PATH; a zero
// timeout leaves scans unbounded.
func NewFFprobe(binaryPath string, timeout time.Duration) *FFprobe {
	if binaryPath == "" {
		if path, err := exec.LookPath("ffprobe"); err == nil {
			binaryPath = path
		} else {
			binaryPath = "ffprobe"
		}
	}

	return &FFprobe{
		binaryPath: binaryPath,
		timeout:    timeout,
	}
}

// BinaryPath returns the ffprobe binary the scanner runs.
func (f *FFprobe) BinaryPath() string {
	return f.binaryPath
}

// Scan reads stream info and the picture type of every frame of the first
// video stream. The whole stream is decoded, so this is slow for long files.
func (f *FFprobe) Scan(ctx context.Context, path string, progress ProgressFunc) (*Result, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	info, err := f.streamInfo(ctx, path)
	if err != nil {
		return nil, err
	}

	pictTypes, err := f.pictureTypes(ctx, path, info.NbFrames, progress)
	if err != nil {
		return nil, err
	}

	return &Result{Info: *info, PictureTypes: pictTypes}, nil
}

func (f *FFprobe) streamInfo(ctx context.Context, path string) (*StreamInfo, error) {
	cmd := exec.CommandContext(ctx, f.binaryPath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,r_frame_rate,avg_frame_rate,nb_frames",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe stream info: %w", err)
	}

	return ParseStreamInfo(output)
}

func (f *FFprobe) pictureTypes(ctx context.Context, path string, total int, progress ProgressFunc) ([]types.PictureType, error) {
	cmd := exec.CommandContext(ctx, f.binaryPath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "frame=pict_type",
		"-of", "csv=p=0",
		path,
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w", err)
	}

	pictTypes, parseErr := ParsePictureTypes(stdout, total, progress)
	if parseErr != nil {
		// Unblock the child before waiting on it.
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("ffprobe frames: %w", ctxErr)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffprobe frames: %w", waitErr)
	}
	if len(pictTypes) == 0 {
		return nil, fmt.Errorf("ffprobe frames: no video frames in %s", path)
	}

	return pictTypes, nil
}

type streamsOutput struct {
	Streams []struct {
		CodecName    string `json:"codec_name"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}

// ParseStreamInfo parses ffprobe's JSON stream listing. A missing or
// unreadable frame rate yields a zero Rational rather than an error.
func ParseStreamInfo(data []byte) (*StreamInfo, error) {
	var out streamsOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse stream info: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("parse stream info: no video stream")
	}

	s := out.Streams[0]
	info := &StreamInfo{Codec: s.CodecName}

	if rate, ok := ParseRate(s.RFrameRate); ok {
		info.FrameRate = rate
	} else if rate, ok := ParseRate(s.AvgFrameRate); ok {
		info.FrameRate = rate
	}

	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.NbFrames = n
	}

	return info, nil
}

// ParseRate parses "num/den" as printed by ffprobe.
func ParseRate(s string) (types.Rational, bool) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return types.Rational{}, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return types.Rational{}, false
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return types.Rational{}, false
	}
	r := types.Rational{Num: n, Den: d}
	if !r.Valid() {
		return types.Rational{}, false
	}
	return r, true
}

// ParsePictureTypes reads one pict_type per line. Extra CSV fields (side
// data) are ignored.
func ParsePictureTypes(r io.Reader, total int, progress ProgressFunc) ([]types.PictureType, error) {
	capacity := total
	if capacity <= 0 {
		capacity = 1024
	}
	pictTypes := make([]types.PictureType, 0, capacity)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		field, _, _ := strings.Cut(line, ",")
		pictTypes = append(pictTypes, types.ParsePictureType(field))
		if progress != nil {
			progress(len(pictTypes), total)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	return pictTypes, nil
}
