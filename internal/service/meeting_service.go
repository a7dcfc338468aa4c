package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/store"
)

const TaskTypeMeeting = "meeting:process"

// MeetingService handles meeting processing job management
type MeetingService struct {
	jobs        store.JobStore
	asynqClient *asynq.Client
}

func NewMeetingService(jobs store.JobStore, asynqClient *asynq.Client) *MeetingService {
	return &MeetingService{
		jobs:        jobs,
		asynqClient: asynqClient,
	}
}

// Submit records a new job and queues it for processing. Processing is never
// retried automatically: a failed transcription run costs minutes of GPU
// time, so retry stays a user decision.
func (s *MeetingService) Submit(ctx context.Context, videoFilename, videoPath, rosterPath string) (*model.SubmitMeetingResponse, error) {
	jobID := uuid.New().String()

	job := &model.Job{
		ID:            jobID,
		Status:        model.JobStatusQueued,
		VideoFilename: videoFilename,
		VideoPath:     videoPath,
		RosterPath:    rosterPath,
		CreatedAt:     time.Now(),
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newMeetingTask(jobID, &model.MeetingJobPayload{
		VideoPath:  videoPath,
		RosterPath: rosterPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("meetings"),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SubmitMeetingResponse{
		JobID:  jobID,
		Status: model.JobStatusQueued,
	}, nil
}

// GetStatus returns the current status of a processing job
func (s *MeetingService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	resp := &model.JobStatusResponse{
		Status:      job.Status,
		Result:      job.Result,
		Attendees:   job.Attendees,
		Error:       job.Error,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
	}
	if job.VideoFilename != "" {
		resp.VideoURL = "/files/" + job.VideoFilename
	}
	return resp, nil
}

// GetJob returns the full job record
func (s *MeetingService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.Get(ctx, jobID)
}

// BeginProcessing transitions a queued job to processing (called by worker)
func (s *MeetingService) BeginProcessing(ctx context.Context, jobID string) error {
	return s.update(ctx, jobID, func(job *model.Job) {
		job.Status = model.JobStatusProcessing
		now := time.Now()
		job.StartedAt = &now
	})
}

// UpdateProgress records pipeline progress (called by worker)
func (s *MeetingService) UpdateProgress(ctx context.Context, jobID string, progress int, step string) error {
	return s.update(ctx, jobID, func(job *model.Job) {
		job.Progress = progress
		job.CurrentStep = step
	})
}

// AttachAttendees stores the parsed roster on the job (called by worker)
func (s *MeetingService) AttachAttendees(ctx context.Context, jobID string, attendees []string) error {
	return s.update(ctx, jobID, func(job *model.Job) {
		job.Attendees = attendees
	})
}

// CompleteJob marks a job as completed with its result (called by worker)
func (s *MeetingService) CompleteJob(ctx context.Context, jobID string, result *model.ProcessingResult) error {
	return s.update(ctx, jobID, func(job *model.Job) {
		job.Status = model.JobStatusCompleted
		job.Progress = 100
		job.CurrentStep = ""
		job.Result = result
		job.Error = nil
		now := time.Now()
		job.CompletedAt = &now
	})
}

// FailJob marks a job as failed (called by worker). A failed job never
// carries a result.
func (s *MeetingService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	return s.update(ctx, jobID, func(job *model.Job) {
		job.Status = model.JobStatusFailed
		job.Error = &errMsg
		job.Result = nil
		now := time.Now()
		job.CompletedAt = &now
	})
}

// update applies a mutation to the job record and writes it back as a whole.
// Terminal jobs reject further mutation.
func (s *MeetingService) update(ctx context.Context, jobID string, mutate func(*model.Job)) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job %s already %s", jobID, job.Status)
	}
	mutate(job)
	return s.jobs.Save(ctx, job)
}

func newMeetingTask(jobID string, payload *model.MeetingJobPayload) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	taskPayload := map[string]interface{}{
		"jobId":   jobID,
		"payload": payloadBytes,
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeMeeting, data), nil
}
