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

// HTTPAPIClient talks to a generic HTTP completion endpoint: the prompt
// and token cap are POSTed as JSON directly to the descriptor's URI and
// the generated text is read from the "response" or "text" field.
type HTTPAPIClient struct {
	httpClient *http.Client
}

var _ services.ModelClient = (*HTTPAPIClient)(nil)

// NewHTTPAPIClient creates a generic HTTP transport.
func NewHTTPAPIClient(cfg config.RoutingConfig) *HTTPAPIClient {
	return &HTTPAPIClient{
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
func (c *HTTPAPIClient) Name() string {
	return string(models.TransportHTTPAPI)
}

type completionRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
}

// Generate POSTs the prompt to the endpoint URI.
func (c *HTTPAPIClient) Generate(ctx context.Context, endpoint models.ModelEndpointDescriptor, req models.GenerationRequest) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:    req.FullPrompt(),
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URI, bytes.NewReader(body))
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
		return "", fmt.Errorf("%w: HTTP API error (status %d): %s",
			models.ErrEndpointUnavailable, resp.StatusCode, string(data))
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", models.ErrEndpointUnavailable, err)
	}

	switch {
	case result.Response != "":
		return result.Response, nil
	case result.Text != "":
		return result.Text, nil
	default:
		return "No response", nil
	}
}

// CheckHealth verifies the endpoint answers HTTP at all. Any response,
// regardless of status, counts as reachable; only transport errors fail.
func (c *HTTPAPIClient) CheckHealth(ctx context.Context, endpoint models.ModelEndpointDescriptor) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.URI, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrEndpointUnavailable, err)
	}
	resp.Body.Close()
	return nil
}
