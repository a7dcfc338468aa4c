package model

import "time"

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition can occur from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one meeting-video processing job. Result is set only when
// the job completed, Error only when it failed; the worker enforces both.
type Job struct {
	ID            string            `json:"id"`
	Status        JobStatus         `json:"status"`
	VideoFilename string            `json:"videoFilename"`
	VideoPath     string            `json:"videoPath"`
	RosterPath    string            `json:"rosterPath,omitempty"`
	Attendees     []string          `json:"attendees,omitempty"`
	Result        *ProcessingResult `json:"result,omitempty"`
	Error         *string           `json:"error,omitempty"`
	Progress      int               `json:"progress"`
	CurrentStep   string            `json:"currentStep,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	StartedAt     *time.Time        `json:"startedAt,omitempty"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
}

// MeetingJobPayload is the task payload enqueued for the worker.
type MeetingJobPayload struct {
	VideoPath  string `json:"videoPath"`
	RosterPath string `json:"rosterPath,omitempty"`
}
