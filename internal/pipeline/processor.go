package pipeline

import (
	"context"

	"github.com/actasweb/api/internal/config"
	"github.com/actasweb/api/internal/model"
)

// StageFunc reports pipeline progress to the caller. May be nil.
type StageFunc func(step string, progress int)

// MeetingProcessor composes the audio pipeline with the visual speaker
// resolver into the final annotated transcript.
type MeetingProcessor struct {
	audio     *AudioPipeline
	resolver  *SpeakerResolver
	tokenPath string
}

func NewMeetingProcessor(audio *AudioPipeline, resolver *SpeakerResolver, tokenPath string) *MeetingProcessor {
	return &MeetingProcessor{
		audio:     audio,
		resolver:  resolver,
		tokenPath: tokenPath,
	}
}

// Process runs the full pipeline for one video: credential load, the three
// audio stages, then visual speaker resolution over the diarized segments.
func (p *MeetingProcessor) Process(ctx context.Context, videoPath string, onStage StageFunc) (*model.ProcessingResult, error) {
	stage := func(step string, progress int) {
		if onStage != nil {
			onStage(step, progress)
		}
	}

	token, err := config.LoadToken(p.tokenPath)
	if err != nil {
		return nil, err
	}

	stage("Transcribing and diarizing audio...", 10)
	audio, err := p.audio.Run(ctx, videoPath, token)
	if err != nil {
		return nil, err
	}

	stage("Identifying speakers on screen...", 70)
	segments, speakers := p.resolver.Resolve(ctx, videoPath, audio.Segments)

	language := audio.Language
	if language == "" {
		language = "es"
	}

	return &model.ProcessingResult{
		Segments:      segments,
		SpeakersFound: speakers,
		Language:      language,
	}, nil
}
