package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/actasweb/api/internal/config"
	"github.com/actasweb/api/internal/model"
)

func writeToken(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token-huggingface")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	return path
}

func TestProcessorEmptyCredentialFile(t *testing.T) {
	p := NewMeetingProcessor(
		NewAudioPipeline(&fakeEngine{}),
		NewSpeakerResolver(&fakeOpener{src: &fakeFrameSource{}}, &fakeOCR{}),
		writeToken(t, "\n  \n"),
	)

	_, err := p.Process(context.Background(), tempVideo(t), nil)
	if !errors.Is(err, config.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
}

func TestProcessorComposesAudioAndVisual(t *testing.T) {
	engine := &fakeEngine{
		transcription: &Transcription{
			Language: "es",
			Segments: []model.TranscriptSegment{
				{Start: 0, End: 5, Text: "Hola"},
				{Start: 5, End: 10, Text: "Adios"},
			},
		},
		turns: []SpeakerTurn{{Speaker: "SPEAKER_00", Start: 0, End: 10}},
	}
	ocr := &fakeOCR{hits: []OCRCandidate{{Text: "Juan Garcia", Confidence: 0.9}}}

	var stages []string
	p := NewMeetingProcessor(
		NewAudioPipeline(engine),
		NewSpeakerResolver(&fakeOpener{src: &fakeFrameSource{}}, ocr),
		writeToken(t, "hf_abc123\n"),
	)

	res, err := p.Process(context.Background(), tempVideo(t), func(step string, progress int) {
		stages = append(stages, step)
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if res.Language != "es" {
		t.Errorf("language = %q, want es", res.Language)
	}
	for i, seg := range res.Segments {
		if seg.Speaker != "Juan Garcia" {
			t.Errorf("segment %d speaker = %q, want resolved name", i, seg.Speaker)
		}
	}
	if res.SpeakersFound["SPEAKER_00"] != "Juan Garcia" {
		t.Errorf("speakers_found = %v, want SPEAKER_00 resolved", res.SpeakersFound)
	}
	if len(stages) == 0 {
		t.Error("expected stage callbacks")
	}
}
