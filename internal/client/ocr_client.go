package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/actasweb/api/internal/config"
	"github.com/actasweb/api/internal/pipeline"
)

// OCRClient talks to the EasyOCR sidecar service. The reader model is
// initialized lazily on first use and kept warm for the rest of the process
// lifetime; init cost is paid only by jobs that actually probe captions.
type OCRClient struct {
	httpClient *http.Client
	baseURL    string
	languages  []string
	gpu        bool

	initOnce sync.Once
	initErr  error
}

// NewOCRClient creates a client for the OCR sidecar
func NewOCRClient(cfg *config.OCRConfig) *OCRClient {
	return &OCRClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL:   cfg.ServiceURL,
		languages: cfg.Languages,
		gpu:       cfg.GPU,
	}
}

type ocrReadResponse struct {
	Results []pipeline.OCRCandidate `json:"results"`
}

// ReadText sends an encoded image region to the sidecar and returns the text
// candidates it found, in reading order.
func (c *OCRClient) ReadText(ctx context.Context, image []byte) ([]pipeline.OCRCandidate, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(image),
	}
	var result ocrReadResponse
	if err := c.post(ctx, "/read", body, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// ensureReady initializes the reader model exactly once. A failed init is
// sticky: retrying per-probe would hammer a sidecar that is already broken.
func (c *OCRClient) ensureReady(ctx context.Context) error {
	c.initOnce.Do(func() {
		body := map[string]interface{}{
			"languages": c.languages,
			"gpu":       c.gpu,
		}
		c.initErr = c.post(ctx, "/init", body, &struct{}{})
	})
	return c.initErr
}

// HealthCheck checks if the OCR sidecar is available
func (c *OCRClient) HealthCheck(ctx context.Context) error {
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
		return fmt.Errorf("ocr service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// post sends a POST request with JSON body and parses the response
func (c *OCRClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ocr service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *OCRClient) IsConfigured() bool {
	return c.baseURL != ""
}
