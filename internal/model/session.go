package model

import "encoding/json"

// SaveSessionRequest stores a named snapshot of a reviewed transcript.
type SaveSessionRequest struct {
	Name string          `json:"name" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

// SaveSessionResponse confirms the sanitized filename used on disk.
type SaveSessionResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// SessionInfo is one entry of the session listing, newest first. The acta
// links are present only when the corresponding files exist.
type SessionInfo struct {
	Name      string  `json:"name"`
	Timestamp float64 `json:"timestamp"`
	ActaMD    *string `json:"acta_md"`
	ActaPDF   *string `json:"acta_pdf"`
}

// TrimRequest re-cuts an uploaded video to [Start, End) seconds.
type TrimRequest struct {
	VideoURL string  `json:"video_url" validate:"required"`
	NewName  string  `json:"new_name" validate:"required"`
	Start    float64 `json:"start" validate:"gte=0"`
	End      float64 `json:"end" validate:"required,gtfield=Start"`
}

// TrimResponse points at the re-cut file. OriginalStart lets the frontend
// shift previously computed timestamps.
type TrimResponse struct {
	Message       string  `json:"message"`
	NewVideoURL   string  `json:"new_video_url"`
	OriginalStart float64 `json:"original_start"`
}
