package media

import (
	"context"
	"strings"
	"testing"
)

func TestTrimArgs(t *testing.T) {
	args := trimArgs("/in/video.mp4", "/out/cut.mp4", 10, 95.5)

	joined := strings.Join(args, " ")
	want := "-ss 10.000 -i /in/video.mp4 -t 85.500 -c:v libx264 -preset ultrafast -crf 23 -c:a aac -y /out/cut.mp4"
	if joined != want {
		t.Errorf("trimArgs = %q, want %q", joined, want)
	}
}

func TestCaptionBandArgsSeeksBeforeInput(t *testing.T) {
	args := captionBandArgs("/in/video.mp4", 12.5)

	if args[0] != "-ss" || args[1] != "12.500" {
		t.Errorf("expected input seek first, got %v", args[:2])
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, captionBandFilter) {
		t.Errorf("missing caption band crop in %q", joined)
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("expected stdout output, got %q", args[len(args)-1])
	}
}

func TestFrameSourceClosed(t *testing.T) {
	s := &frameSource{videoPath: "/nonexistent.mp4"}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.CaptionBand(context.Background(), 1.0); err == nil {
		t.Error("expected error from closed source")
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(0); got != "0.000" {
		t.Errorf("formatSeconds(0) = %q", got)
	}
	if got := formatSeconds(3600.25); got != "3600.250" {
		t.Errorf("formatSeconds(3600.25) = %q", got)
	}
}
