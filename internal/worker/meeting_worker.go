package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/pipeline"
	"github.com/actasweb/api/internal/roster"
	"github.com/actasweb/api/internal/service"
	"github.com/actasweb/api/internal/websocket"
)

// MeetingWorker drives one processing job from queued to a terminal state.
// Every exit path lands the job in completed or failed; a job is never left
// stuck in processing.
type MeetingWorker struct {
	meetingService *service.MeetingService
	processor      *pipeline.MeetingProcessor
	hub            *websocket.Hub
}

// NewMeetingWorker creates a new meeting worker
func NewMeetingWorker(meetingService *service.MeetingService, processor *pipeline.MeetingProcessor, hub *websocket.Hub) *MeetingWorker {
	return &MeetingWorker{
		meetingService: meetingService,
		processor:      processor,
		hub:            hub,
	}
}

// ProcessTask handles one meeting processing task
func (w *MeetingWorker) ProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	var taskPayload struct {
		JobID   string          `json:"jobId"`
		Payload json.RawMessage `json:"payload"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting meeting job: %s", jobID)

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("pipeline panic: %v", r)
			w.failJob(ctx, jobID, msg)
			err = fmt.Errorf("%s", msg)
		}
	}()

	var payload model.MeetingJobPayload
	if err := json.Unmarshal(taskPayload.Payload, &payload); err != nil {
		w.failJob(ctx, jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal meeting payload: %w", err)
	}

	if err := w.meetingService.BeginProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("failed to begin processing: %w", err)
	}
	w.hub.BroadcastProgress(jobID, model.JobStatusProcessing, 0, "Iniciando procesamiento")

	// Roster problems never fail the job, the transcript is still useful
	// without official attendees.
	if payload.RosterPath != "" {
		if attendees, err := roster.Parse(payload.RosterPath); err != nil {
			log.Printf("Job %s: roster ignored: %v", jobID, err)
		} else if err := w.meetingService.AttachAttendees(ctx, jobID, attendees); err != nil {
			log.Printf("Job %s: failed to attach attendees: %v", jobID, err)
		}
	}

	result, err := w.processor.Process(ctx, payload.VideoPath, func(step string, progress int) {
		if err := w.meetingService.UpdateProgress(ctx, jobID, progress, step); err != nil {
			log.Printf("Job %s: failed to update progress: %v", jobID, err)
		}
		w.hub.BroadcastProgress(jobID, model.JobStatusProcessing, progress, step)
	})
	if err != nil {
		w.failJob(ctx, jobID, err.Error())
		return err
	}

	if err := w.meetingService.CompleteJob(ctx, jobID, result); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	w.hub.BroadcastComplete(jobID, result)

	log.Printf("Meeting job %s completed: %d segments, %d speakers resolved",
		jobID, len(result.Segments), len(result.SpeakersFound))
	return nil
}

func (w *MeetingWorker) failJob(ctx context.Context, jobID, errMsg string) {
	if err := w.meetingService.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("Job %s: failed to record failure: %v", jobID, err)
	}
	w.hub.BroadcastError(jobID, "PROCESSING_FAILED", errMsg)
}
