package pipeline

import (
	"context"
	"log"

	"github.com/actasweb/api/internal/model"
)

const (
	// Caption pre-filter bounds: OCR hits below this confidence or outside
	// this raw length band correlate with noise and are dropped before
	// semantic validation.
	minOCRConfidence = 0.5
	minCaptionLen    = 6
	maxCaptionLen    = 49
)

// OCRCandidate is one text region the OCR engine read from a frame.
type OCRCandidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCREngine reads text candidates from an encoded image region.
type OCREngine interface {
	ReadText(ctx context.Context, image []byte) ([]OCRCandidate, error)
}

// FrameSource is one decode session over a video. CaptionBand extracts the
// caption overlay region (bottom band, full width) at the given timestamp.
// Calls are sequential; a source is never shared between goroutines.
type FrameSource interface {
	CaptionBand(ctx context.Context, at float64) ([]byte, error)
	Close() error
}

// FrameOpener opens a FrameSource for a video path. One source is opened per
// job and reused for every probe instead of re-opening per timestamp.
type FrameOpener interface {
	Open(ctx context.Context, videoPath string) (FrameSource, error)
}

// SpeakerResolver replaces opaque diarization labels with human names read
// from on-screen captions. Each distinct label is probed at most once per
// job; the resolution is memoized and reused for every later segment of the
// same speaker.
type SpeakerResolver struct {
	frames FrameOpener
	ocr    OCREngine
}

func NewSpeakerResolver(frames FrameOpener, ocr OCREngine) *SpeakerResolver {
	return &SpeakerResolver{frames: frames, ocr: ocr}
}

// Resolve rewrites segment labels in place and returns the label->name map
// built along the way. Speakers whose caption never yields a valid name keep
// their raw diarization label; OCR and frame-grab failures count as "no
// result" for that probe and never fail the pipeline.
func (r *SpeakerResolver) Resolve(ctx context.Context, videoPath string, segments []model.TranscriptSegment) ([]model.TranscriptSegment, model.SpeakerNameMap) {
	found := model.SpeakerNameMap{}

	src, err := r.frames.Open(ctx, videoPath)
	if err != nil {
		log.Printf("Visual resolution skipped, cannot open video: %v", err)
		return segments, found
	}
	defer src.Close()

	// attempted keeps unresolved labels from being re-probed in later
	// segments; found holds resolutions only. Together they bound the probe
	// count at the 3 fixed candidates per distinct speaker per job.
	attempted := map[string]bool{}

	for i := range segments {
		label := segments[i].Speaker
		if label == "" {
			continue
		}
		if name, ok := found[label]; ok {
			segments[i].Speaker = name
			continue
		}
		if attempted[label] {
			continue
		}
		attempted[label] = true

		if name := r.probeSegment(ctx, src, segments[i]); name != "" {
			found[label] = name
			segments[i].Speaker = name
			log.Printf("Resolved %s -> %q", label, name)
		}
	}

	return segments, found
}

// probeSegment tries the candidate timestamps in fixed order and returns the
// first normalized valid name, or "" when none is found. Earlier, shorter
// offsets are preferred: they are more likely mid-turn and less likely to
// catch a caption transition.
func (r *SpeakerResolver) probeSegment(ctx context.Context, src FrameSource, seg model.TranscriptSegment) string {
	candidates := [3]float64{
		seg.Start + 1.0,
		seg.Start + 3.0,
		seg.Start + seg.Duration()/2,
	}

	for _, at := range candidates {
		if at > seg.End {
			continue
		}

		band, err := src.CaptionBand(ctx, at)
		if err != nil {
			continue
		}
		hits, err := r.ocr.ReadText(ctx, band)
		if err != nil {
			continue
		}

		if raw := firstValidCaption(hits); raw != "" {
			return NormalizeName(raw)
		}
	}
	return ""
}

// firstValidCaption applies the confidence/length pre-filter and the name
// predicate, returning the first survivor in OCR order.
func firstValidCaption(hits []OCRCandidate) string {
	for _, h := range hits {
		if h.Confidence <= minOCRConfidence {
			continue
		}
		if len(h.Text) < minCaptionLen || len(h.Text) > maxCaptionLen {
			continue
		}
		if IsValidName(h.Text) {
			return h.Text
		}
	}
	return ""
}
