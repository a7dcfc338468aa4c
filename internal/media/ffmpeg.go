package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/actasweb/api/internal/pipeline"
)

// trimTimeout bounds a single re-encode. Meeting cuts are short; anything
// running longer than this is stuck.
const trimTimeout = 5 * time.Minute

// captionBandFilter crops the caption overlay band: full width, the strip
// where broadcast-style name captions are rendered.
const captionBandFilter = "crop=iw:ih*13/100:0:ih*85/100"

// Duration returns the media duration in seconds using ffprobe.
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}

// trimArgs builds the ffmpeg argument list for a re-encoding trim.
func trimArgs(inPath, outPath string, start, end float64) []string {
	return []string{
		"-ss", formatSeconds(start),
		"-i", inPath,
		"-t", formatSeconds(end - start),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-c:a", "aac",
		"-y", outPath,
	}
}

// Trim cuts [start, end) out of the input video into outPath, re-encoding so
// the cut lands exactly on the requested timestamps rather than a keyframe.
func Trim(ctx context.Context, inPath, outPath string, start, end float64) error {
	ctx, cancel := context.WithTimeout(ctx, trimTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", trimArgs(inPath, outPath, start, end)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg trim: %w: %s", err, lastLine(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("trim produced no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("trim produced empty output %s", outPath)
	}
	return nil
}

// captionBandArgs builds the ffmpeg argument list for a single caption band
// grab at the given timestamp, PNG to stdout.
func captionBandArgs(videoPath string, at float64) []string {
	return []string{
		"-ss", formatSeconds(at),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", captionBandFilter,
		"-f", "image2",
		"-c:v", "png",
		"pipe:1",
	}
}

// FrameOpener opens ffmpeg-backed frame sources. It implements
// pipeline.FrameOpener.
type FrameOpener struct{}

func NewFrameOpener() *FrameOpener {
	return &FrameOpener{}
}

// Open verifies the video is readable and returns a source that grabs caption
// bands from it. Each grab spawns a short-lived ffmpeg with an input seek, so
// no decoder state is held between probes.
func (o *FrameOpener) Open(ctx context.Context, videoPath string) (pipeline.FrameSource, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	return &frameSource{videoPath: videoPath}, nil
}

type frameSource struct {
	mu        sync.Mutex
	videoPath string
	closed    bool
}

func (s *frameSource) CaptionBand(ctx context.Context, at float64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("frame source closed")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", captionBandArgs(s.videoPath, at)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab at %.2fs: %w: %s", at, err, lastLine(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("no frame at %.2fs", at)
	}
	return stdout.Bytes(), nil
}

func (s *frameSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
