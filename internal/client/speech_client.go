package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/actasweb/api/internal/config"
	"github.com/actasweb/api/internal/model"
	"github.com/actasweb/api/internal/pipeline"
)

// SpeechClient talks to the WhisperX sidecar service. The sidecar keeps at
// most one model resident at a time; each Load* call makes a model resident
// and returns a handle whose Release evicts it again.
type SpeechClient struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	batchSize   int
	computeType string
}

// NewSpeechClient creates a client for the speech sidecar
func NewSpeechClient(cfg *config.SpeechConfig) *SpeechClient {
	return &SpeechClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL:     cfg.ServiceURL,
		model:       cfg.Model,
		batchSize:   cfg.BatchSize,
		computeType: cfg.ComputeType,
	}
}

type loadModelResponse struct {
	ModelID string `json:"model_id"`
}

// LoadTranscriber makes the transcription model resident on the sidecar
func (c *SpeechClient) LoadTranscriber(ctx context.Context) (pipeline.Transcriber, error) {
	body := map[string]interface{}{
		"model":        c.model,
		"batch_size":   c.batchSize,
		"compute_type": c.computeType,
	}
	var result loadModelResponse
	if _, err := c.post(ctx, "/models/transcription", body, &result); err != nil {
		return nil, err
	}
	return &transcriberHandle{client: c, modelID: result.ModelID}, nil
}

// LoadAligner makes the alignment model for the given language resident
func (c *SpeechClient) LoadAligner(ctx context.Context, language string) (pipeline.Aligner, error) {
	body := map[string]interface{}{"language": language}
	var result loadModelResponse
	if _, err := c.post(ctx, "/models/alignment", body, &result); err != nil {
		return nil, err
	}
	return &alignerHandle{client: c, modelID: result.ModelID}, nil
}

// LoadDiarizer makes the diarization model resident. A rejected Hugging Face
// token surfaces as pipeline.ErrInvalidToken.
func (c *SpeechClient) LoadDiarizer(ctx context.Context, token string) (pipeline.Diarizer, error) {
	body := map[string]interface{}{"token": token}
	var result loadModelResponse
	status, err := c.post(ctx, "/models/diarization", body, &result)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, pipeline.ErrInvalidToken
		}
		return nil, err
	}
	return &diarizerHandle{client: c, modelID: result.ModelID}, nil
}

// HealthCheck checks if the speech sidecar is available
func (c *SpeechClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

func (c *SpeechClient) releaseModel(ctx context.Context, modelID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/models/"+modelID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("speech service error (status %d)", resp.StatusCode)
	}

	return nil
}

// post sends a POST request with JSON body and parses the response. The
// response status code is returned alongside the error so callers can map
// specific statuses to sentinel errors.
func (c *SpeechClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) (int, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("speech service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return resp.StatusCode, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SpeechClient) IsConfigured() bool {
	return c.baseURL != ""
}

type transcriberHandle struct {
	client  *SpeechClient
	modelID string
}

type transcribeResponse struct {
	Language string                    `json:"language"`
	Segments []model.TranscriptSegment `json:"segments"`
}

func (h *transcriberHandle) Transcribe(ctx context.Context, mediaPath string) (*pipeline.Transcription, error) {
	body := map[string]interface{}{
		"model_id":   h.modelID,
		"media_path": mediaPath,
	}
	var result transcribeResponse
	if _, err := h.client.post(ctx, "/transcribe", body, &result); err != nil {
		return nil, err
	}
	return &pipeline.Transcription{Language: result.Language, Segments: result.Segments}, nil
}

func (h *transcriberHandle) Release(ctx context.Context) error {
	return h.client.releaseModel(ctx, h.modelID)
}

type alignerHandle struct {
	client  *SpeechClient
	modelID string
}

type alignResponse struct {
	Segments []model.TranscriptSegment `json:"segments"`
}

func (h *alignerHandle) Align(ctx context.Context, segments []model.TranscriptSegment, mediaPath string) ([]model.TranscriptSegment, error) {
	body := map[string]interface{}{
		"model_id":   h.modelID,
		"media_path": mediaPath,
		"segments":   segments,
	}
	var result alignResponse
	if _, err := h.client.post(ctx, "/align", body, &result); err != nil {
		return nil, err
	}
	return result.Segments, nil
}

func (h *alignerHandle) Release(ctx context.Context) error {
	return h.client.releaseModel(ctx, h.modelID)
}

type diarizerHandle struct {
	client  *SpeechClient
	modelID string
}

type diarizeResponse struct {
	Turns []pipeline.SpeakerTurn `json:"turns"`
}

func (h *diarizerHandle) Diarize(ctx context.Context, mediaPath string) ([]pipeline.SpeakerTurn, error) {
	body := map[string]interface{}{
		"model_id":   h.modelID,
		"media_path": mediaPath,
	}
	var result diarizeResponse
	if _, err := h.client.post(ctx, "/diarize", body, &result); err != nil {
		return nil, err
	}
	return result.Turns, nil
}

func (h *diarizerHandle) Release(ctx context.Context) error {
	return h.client.releaseModel(ctx, h.modelID)
}
