package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/actasweb/api/internal/model"
)

// fakeFrameSource records every probed timestamp and serves canned OCR bytes
// (the timestamp encoded, so the fake OCR can vary its answer per probe).
type fakeFrameSource struct {
	probes []float64
	err    error
	closed bool
}

func (f *fakeFrameSource) CaptionBand(ctx context.Context, at float64) ([]byte, error) {
	f.probes = append(f.probes, at)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("%.2f", at)), nil
}

func (f *fakeFrameSource) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	src *fakeFrameSource
	err error
}

func (f *fakeOpener) Open(ctx context.Context, videoPath string) (FrameSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.src, nil
}

// fakeOCR returns the same candidates for every frame and counts calls.
type fakeOCR struct {
	hits  []OCRCandidate
	err   error
	calls int
}

func (f *fakeOCR) ReadText(ctx context.Context, image []byte) ([]OCRCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func TestResolveMemoizesPerSpeaker(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{hits: []OCRCandidate{{Text: "Juan Garcia", Confidence: 0.9}}}
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	segments := []model.TranscriptSegment{
		{Start: 0, End: 5, Speaker: "S0", Text: "Hola"},
		{Start: 5, End: 10, Speaker: "S0", Text: "Adios"},
	}

	out, names := r.Resolve(context.Background(), "meeting.mp4", segments)

	for i, seg := range out {
		if seg.Speaker != "Juan Garcia" {
			t.Errorf("segment %d speaker = %q, want %q", i, seg.Speaker, "Juan Garcia")
		}
	}
	if names["S0"] != "Juan Garcia" {
		t.Errorf("names[S0] = %q, want %q", names["S0"], "Juan Garcia")
	}
	if ocr.calls != 1 {
		t.Errorf("OCR invoked %d times for S0, want exactly 1", ocr.calls)
	}
	if !src.closed {
		t.Error("frame source not closed")
	}
}

func TestResolveJunkCaptionKeepsRawLabel(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{hits: []OCRCandidate{{Text: "LIVE NEWS 24/7", Confidence: 0.95}}}
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	segments := []model.TranscriptSegment{{Start: 0, End: 10, Speaker: "S0", Text: "Hola"}}
	out, names := r.Resolve(context.Background(), "meeting.mp4", segments)

	if out[0].Speaker != "S0" {
		t.Errorf("speaker = %q, want raw label S0", out[0].Speaker)
	}
	if _, ok := names["S0"]; ok {
		t.Error("junk caption must not enter the speaker map")
	}
}

func TestResolveProbesAtMostThreeTimesPerLabel(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{} // never any candidates
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	// Five segments, all the same speaker, all long enough for 3 candidates.
	var segments []model.TranscriptSegment
	for i := 0; i < 5; i++ {
		start := float64(i * 20)
		segments = append(segments, model.TranscriptSegment{
			Start: start, End: start + 20, Speaker: "S1", Text: "...",
		})
	}

	r.Resolve(context.Background(), "meeting.mp4", segments)

	// Even when never resolved, a label is probed only in its first segment:
	// at most the 3 fixed candidates across the whole job.
	if len(src.probes) > 3 {
		t.Errorf("video probed %d times for one label, want at most 3", len(src.probes))
	}
}

func TestResolveResolvedSpeakerNeverReprobed(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{hits: []OCRCandidate{{Text: "Ana Maria Ruiz", Confidence: 0.8}}}
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	var segments []model.TranscriptSegment
	for i := 0; i < 10; i++ {
		start := float64(i * 10)
		segments = append(segments, model.TranscriptSegment{
			Start: start, End: start + 10, Speaker: "S0", Text: "...",
		})
	}

	r.Resolve(context.Background(), "meeting.mp4", segments)

	if len(src.probes) > 3 {
		t.Errorf("video probed %d times for one label, want at most 3", len(src.probes))
	}
}

func TestResolveSkipsCandidatesBeyondSegmentEnd(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{}
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	// 2-second segment: start+3.0 exceeds end and must be skipped without a
	// frame grab; only start+1.0 and start+duration/2 are tried.
	segments := []model.TranscriptSegment{{Start: 4, End: 6, Speaker: "S0", Text: "Si"}}
	r.Resolve(context.Background(), "meeting.mp4", segments)

	want := []float64{5.0, 5.0} // start+1.0 and start+dur/2
	if len(src.probes) != len(want) {
		t.Fatalf("probed timestamps %v, want %v", src.probes, want)
	}
	for i := range want {
		if src.probes[i] != want[i] {
			t.Errorf("probe %d at %.2f, want %.2f", i, src.probes[i], want[i])
		}
	}
}

func TestResolveOCRErrorIsNotFatal(t *testing.T) {
	src := &fakeFrameSource{}
	ocr := &fakeOCR{err: errors.New("ocr backend down")}
	r := NewSpeakerResolver(&fakeOpener{src: src}, ocr)

	segments := []model.TranscriptSegment{{Start: 0, End: 10, Speaker: "S0", Text: "Hola"}}
	out, names := r.Resolve(context.Background(), "meeting.mp4", segments)

	if out[0].Speaker != "S0" {
		t.Errorf("speaker = %q, want raw label after OCR errors", out[0].Speaker)
	}
	if len(names) != 0 {
		t.Errorf("speaker map = %v, want empty", names)
	}
}

func TestResolveUnopenableVideoLeavesSegmentsUntouched(t *testing.T) {
	r := NewSpeakerResolver(&fakeOpener{err: errors.New("no such file")}, &fakeOCR{})

	segments := []model.TranscriptSegment{{Start: 0, End: 5, Speaker: "S0", Text: "Hola"}}
	out, names := r.Resolve(context.Background(), "missing.mp4", segments)

	if out[0].Speaker != "S0" || len(names) != 0 {
		t.Errorf("expected untouched segments and empty map, got %v / %v", out, names)
	}
}

func TestResolvePreFilterDropsLowConfidenceAndLength(t *testing.T) {
	hits := []OCRCandidate{
		{Text: "Pedro Jimenez", Confidence: 0.4}, // confidence too low
		{Text: "Al Bo", Confidence: 0.9},         // raw text too short
		{Text: "Rosa Maria Valle", Confidence: 0.9},
	}
	src := &fakeFrameSource{}
	r := NewSpeakerResolver(&fakeOpener{src: src}, &fakeOCR{hits: hits})

	segments := []model.TranscriptSegment{{Start: 0, End: 10, Speaker: "S0", Text: "Hola"}}
	out, _ := r.Resolve(context.Background(), "meeting.mp4", segments)

	if out[0].Speaker != "Rosa Maria Valle" {
		t.Errorf("speaker = %q, want the first candidate surviving the pre-filter", out[0].Speaker)
	}
}
