package model

// TranscriptSegment is one diarized piece of the transcript. Speaker starts
// out as the opaque diarization label (e.g. "SPEAKER_00") and is rewritten to
// a human name when the visual resolver finds one. Field names stay
// snake_case on the wire for the existing frontend.
type TranscriptSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}

// Duration returns the segment length in seconds.
func (s TranscriptSegment) Duration() float64 {
	return s.End - s.Start
}

// SpeakerNameMap maps opaque diarization labels to resolved human names.
// Absent keys are unresolved speakers.
type SpeakerNameMap map[string]string

// ProcessingResult is the final output of one meeting-video job.
type ProcessingResult struct {
	Segments      []TranscriptSegment `json:"segments"`
	SpeakersFound SpeakerNameMap      `json:"speakers_found"`
	Language      string              `json:"language"`
}

// SubmitMeetingResponse is returned by the upload endpoint.
type SubmitMeetingResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// JobStatusResponse is the polling payload. Result and Attendees are present
// only for completed jobs, Error only for failed ones.
type JobStatusResponse struct {
	Status      JobStatus         `json:"status"`
	Result      *ProcessingResult `json:"result,omitempty"`
	Attendees   []string          `json:"attendees,omitempty"`
	VideoURL    string            `json:"video_url,omitempty"`
	Error       *string           `json:"error,omitempty"`
	Progress    int               `json:"progress"`
	CurrentStep string            `json:"current_step,omitempty"`
}
