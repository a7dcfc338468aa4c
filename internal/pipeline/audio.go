package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/actasweb/api/internal/model"
)

// ErrSourceNotFound is returned when the video asset cannot be read.
var ErrSourceNotFound = errors.New("source video not found")

// ErrInvalidToken is returned when the diarization credential is missing or
// rejected by the speech engine.
var ErrInvalidToken = errors.New("invalid diarization token")

// Transcription is the first-stage output: coarse per-segment timestamps and
// the detected language.
type Transcription struct {
	Language string
	Segments []model.TranscriptSegment
}

// SpeakerTurn is one diarized time range with its opaque speaker label.
type SpeakerTurn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Transcriber converts speech to text with approximate timestamps.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (*Transcription, error)
	Release(ctx context.Context) error
}

// Aligner refines segment timestamps with a language-specific model.
type Aligner interface {
	Align(ctx context.Context, segments []model.TranscriptSegment, mediaPath string) ([]model.TranscriptSegment, error)
	Release(ctx context.Context) error
}

// Diarizer assigns opaque speaker labels to time ranges of the audio.
type Diarizer interface {
	Diarize(ctx context.Context, mediaPath string) ([]SpeakerTurn, error)
	Release(ctx context.Context) error
}

// SpeechEngine hands out stage models. Each Load call is expected to make the
// model resident; the returned handle's Release frees it again.
type SpeechEngine interface {
	LoadTranscriber(ctx context.Context) (Transcriber, error)
	LoadAligner(ctx context.Context, language string) (Aligner, error)
	LoadDiarizer(ctx context.Context, token string) (Diarizer, error)
}

// AudioResult is the audio pipeline output: time-ordered segments carrying
// diarization labels, plus the detected language.
type AudioResult struct {
	Segments []model.TranscriptSegment
	Language string
}

// AudioPipeline runs the transcribe -> align -> diarize sequence. The stages
// are strictly sequential and each one releases its model before the next
// loads, so peak memory stays at a single model's footprint.
type AudioPipeline struct {
	engine SpeechEngine
}

func NewAudioPipeline(engine SpeechEngine) *AudioPipeline {
	return &AudioPipeline{engine: engine}
}

// Run produces diarized transcript segments for the given video. It fails
// with ErrSourceNotFound when the video is unreadable and ErrInvalidToken
// when the diarization credential is empty or rejected. Stage failures
// propagate; there is no partial-stage retry.
func (p *AudioPipeline) Run(ctx context.Context, videoPath, token string) (*AudioResult, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, videoPath)
	}
	if token == "" {
		return nil, ErrInvalidToken
	}

	tr, err := p.transcribe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("transcription stage: %w", err)
	}

	aligned, err := p.align(ctx, tr.Language, tr.Segments, videoPath)
	if err != nil {
		return nil, fmt.Errorf("alignment stage: %w", err)
	}

	turns, err := p.diarize(ctx, token, videoPath)
	if err != nil {
		return nil, fmt.Errorf("diarization stage: %w", err)
	}

	return &AudioResult{
		Segments: assignSpeakers(turns, aligned),
		Language: tr.Language,
	}, nil
}

func (p *AudioPipeline) transcribe(ctx context.Context, mediaPath string) (*Transcription, error) {
	m, err := p.engine.LoadTranscriber(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transcription model: %w", err)
	}
	defer releaseModel(ctx, "transcriber", m)
	return m.Transcribe(ctx, mediaPath)
}

func (p *AudioPipeline) align(ctx context.Context, language string, segments []model.TranscriptSegment, mediaPath string) ([]model.TranscriptSegment, error) {
	m, err := p.engine.LoadAligner(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("load alignment model: %w", err)
	}
	defer releaseModel(ctx, "aligner", m)
	return m.Align(ctx, segments, mediaPath)
}

func (p *AudioPipeline) diarize(ctx context.Context, token, mediaPath string) ([]SpeakerTurn, error) {
	m, err := p.engine.LoadDiarizer(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("load diarization model: %w", err)
	}
	defer releaseModel(ctx, "diarizer", m)
	return m.Diarize(ctx, mediaPath)
}

type releaser interface {
	Release(ctx context.Context) error
}

func releaseModel(ctx context.Context, name string, m releaser) {
	if err := m.Release(ctx); err != nil {
		log.Printf("Failed to release %s model: %v", name, err)
	}
}

// assignSpeakers merges diarization turns onto aligned segments: each segment
// takes the label of the turn it overlaps the most. Segments with no
// overlapping turn keep an empty label and are skipped by the resolver.
func assignSpeakers(turns []SpeakerTurn, segments []model.TranscriptSegment) []model.TranscriptSegment {
	for i := range segments {
		best := 0.0
		for _, t := range turns {
			o := overlap(segments[i].Start, segments[i].End, t.Start, t.End)
			if o > best {
				best = o
				segments[i].Speaker = t.Speaker
			}
		}
	}
	return segments
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}
