package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/actasweb/api/internal/model"
)

// fakeEngine records the load/use/release order so tests can assert that one
// model is resident at a time.
type fakeEngine struct {
	events []string

	transcription *Transcription
	aligned       []model.TranscriptSegment
	turns         []SpeakerTurn

	transcribeErr error
	alignErr      error
	diarizeErr    error
	loadDiarErr   error
}

func (e *fakeEngine) LoadTranscriber(ctx context.Context) (Transcriber, error) {
	e.events = append(e.events, "load:transcriber")
	return &fakeStage{engine: e, name: "transcriber"}, nil
}

func (e *fakeEngine) LoadAligner(ctx context.Context, language string) (Aligner, error) {
	e.events = append(e.events, "load:aligner:"+language)
	return &fakeStage{engine: e, name: "aligner"}, nil
}

func (e *fakeEngine) LoadDiarizer(ctx context.Context, token string) (Diarizer, error) {
	if e.loadDiarErr != nil {
		return nil, e.loadDiarErr
	}
	e.events = append(e.events, "load:diarizer")
	return &fakeStage{engine: e, name: "diarizer"}, nil
}

type fakeStage struct {
	engine *fakeEngine
	name   string
}

func (s *fakeStage) Transcribe(ctx context.Context, mediaPath string) (*Transcription, error) {
	s.engine.events = append(s.engine.events, "use:transcriber")
	return s.engine.transcription, s.engine.transcribeErr
}

func (s *fakeStage) Align(ctx context.Context, segments []model.TranscriptSegment, mediaPath string) ([]model.TranscriptSegment, error) {
	s.engine.events = append(s.engine.events, "use:aligner")
	if s.engine.aligned != nil {
		return s.engine.aligned, s.engine.alignErr
	}
	return segments, s.engine.alignErr
}

func (s *fakeStage) Diarize(ctx context.Context, mediaPath string) ([]SpeakerTurn, error) {
	s.engine.events = append(s.engine.events, "use:diarizer")
	return s.engine.turns, s.engine.diarizeErr
}

func (s *fakeStage) Release(ctx context.Context) error {
	s.engine.events = append(s.engine.events, "release:"+s.name)
	return nil
}

func tempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.mp4")
	if err := os.WriteFile(path, []byte("not a real video"), 0o644); err != nil {
		t.Fatalf("write temp video: %v", err)
	}
	return path
}

func TestAudioPipelineStagesAreSequential(t *testing.T) {
	engine := &fakeEngine{
		transcription: &Transcription{
			Language: "es",
			Segments: []model.TranscriptSegment{{Start: 0, End: 4, Text: "Hola a todos"}},
		},
		turns: []SpeakerTurn{{Speaker: "SPEAKER_00", Start: 0, End: 4}},
	}
	p := NewAudioPipeline(engine)

	res, err := p.Run(context.Background(), tempVideo(t), "hf_token")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Language != "es" {
		t.Errorf("language = %q, want es", res.Language)
	}
	if got := res.Segments[0].Speaker; got != "SPEAKER_00" {
		t.Errorf("speaker = %q, want SPEAKER_00", got)
	}

	want := []string{
		"load:transcriber", "use:transcriber", "release:transcriber",
		"load:aligner:es", "use:aligner", "release:aligner",
		"load:diarizer", "use:diarizer", "release:diarizer",
	}
	if len(engine.events) != len(want) {
		t.Fatalf("events = %v, want %v", engine.events, want)
	}
	for i := range want {
		if engine.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, engine.events[i], want[i])
		}
	}
}

func TestAudioPipelineReleasesModelOnStageFailure(t *testing.T) {
	engine := &fakeEngine{
		transcription: &Transcription{Language: "es"},
		transcribeErr: errors.New("whisper exploded"),
	}
	p := NewAudioPipeline(engine)

	if _, err := p.Run(context.Background(), tempVideo(t), "hf_token"); err == nil {
		t.Fatal("expected stage failure to propagate")
	}

	last := engine.events[len(engine.events)-1]
	if last != "release:transcriber" {
		t.Errorf("last event = %q, want the failed stage's model released", last)
	}
}

func TestAudioPipelineMissingVideo(t *testing.T) {
	p := NewAudioPipeline(&fakeEngine{})
	_, err := p.Run(context.Background(), "/nonexistent/meeting.mp4", "hf_token")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestAudioPipelineEmptyToken(t *testing.T) {
	p := NewAudioPipeline(&fakeEngine{})
	_, err := p.Run(context.Background(), tempVideo(t), "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAudioPipelineRejectedToken(t *testing.T) {
	engine := &fakeEngine{
		transcription: &Transcription{Language: "es"},
		loadDiarErr:   ErrInvalidToken,
	}
	p := NewAudioPipeline(engine)

	_, err := p.Run(context.Background(), tempVideo(t), "bad_token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAssignSpeakersByMaximalOverlap(t *testing.T) {
	turns := []SpeakerTurn{
		{Speaker: "S0", Start: 0, End: 6},
		{Speaker: "S1", Start: 6, End: 12},
	}
	segments := []model.TranscriptSegment{
		{Start: 0, End: 5, Text: "a"},
		{Start: 5, End: 11, Text: "b"}, // 1s with S0, 5s with S1
		{Start: 20, End: 25, Text: "c"},
	}

	out := assignSpeakers(turns, segments)

	if out[0].Speaker != "S0" {
		t.Errorf("segment 0 speaker = %q, want S0", out[0].Speaker)
	}
	if out[1].Speaker != "S1" {
		t.Errorf("segment 1 speaker = %q, want S1", out[1].Speaker)
	}
	if out[2].Speaker != "" {
		t.Errorf("segment 2 speaker = %q, want empty (no overlapping turn)", out[2].Speaker)
	}
}
