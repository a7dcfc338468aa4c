package model

// GenerateMinutesRequest carries everything needed to draft the meeting
// minutes. Segments may be supplied directly (restored sessions) or omitted,
// in which case the completed job's result is used.
type GenerateMinutesRequest struct {
	Segments       []TranscriptSegment `json:"segments,omitempty"`
	Attendees      []string            `json:"attendees,omitempty"`
	SpeakerMapping map[string]string   `json:"speaker_mapping,omitempty"`
	SessionName    string              `json:"session_name,omitempty"`
	Model          string              `json:"model,omitempty"`
}

// MinutesFiles holds the served paths of the persisted minutes, nil entries
// mean the artifact could not be produced (e.g. pandoc missing).
type MinutesFiles struct {
	Markdown *string `json:"md"`
	PDF      *string `json:"pdf"`
}

// GenerateMinutesResponse is the minutes endpoint payload.
type GenerateMinutesResponse struct {
	Minutes string       `json:"minutes"`
	Files   MinutesFiles `json:"acta_files"`
}
