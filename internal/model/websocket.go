package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the minimal envelope clients send and receive
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage notifies subscribers of pipeline progress
type WSProgressMessage struct {
	Type        string    `json:"type"`
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	CurrentStep string    `json:"current_step,omitempty"`
}

// WSCompleteMessage delivers the finished transcript
type WSCompleteMessage struct {
	Type   string            `json:"type"`
	JobID  string            `json:"job_id"`
	Result *ProcessingResult `json:"result"`
}

// WSError describes a job failure
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSErrorMessage notifies subscribers that the job failed
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"job_id"`
	Error WSError `json:"error"`
}
