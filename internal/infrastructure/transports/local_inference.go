// Package transports implements the ModelClient interface for each
// endpoint transport in the closed enum: local inference (Ollama),
// generic HTTP completion APIs, and mocks.
package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/config"
)

// LocalInferenceClient talks to an Ollama-compatible local inference
// runtime. Endpoint URIs use the ollama://<model> scheme; the model name
// is extracted from the URI and the request goes to the configured base
// URL's /api/generate route.
type LocalInferenceClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ services.ModelClient = (*LocalInferenceClient)(nil)

// NewLocalInferenceClient creates a client for the configured runtime.
func NewLocalInferenceClient(cfg config.RoutingConfig) *LocalInferenceClient {
	return &LocalInferenceClient{
		baseURL: cfg.OllamaBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.DispatchTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name returns the transport identifier.
func (c *LocalInferenceClient) Name() string {
	return string(models.TransportLocalInference)
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict int `json:"num_predict"`
}

// generateResponse is the subset of the Ollama reply we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate issues a non-streaming completion request.
func (c *LocalInferenceClient) Generate(ctx context.Context, endpoint models.ModelEndpointDescriptor, req models.GenerationRequest) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   endpoint.Model(),
		Prompt:  req.FullPrompt(),
		Stream:  false,
		Options: generateOptions{NumPredict: req.MaxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama API error (status %d): %s",
			models.ErrEndpointUnavailable, resp.StatusCode, string(data))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", models.ErrEndpointUnavailable, err)
	}
	if result.Response == "" {
		return "No response generated", nil
	}
	return result.Response, nil
}

// CheckHealth verifies the runtime is reachable.
func (c *LocalInferenceClient) CheckHealth(ctx context.Context, _ models.ModelEndpointDescriptor) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrEndpointUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check failed with status %d",
			models.ErrEndpointUnavailable, resp.StatusCode)
	}
	return nil
}
