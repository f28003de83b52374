package models

import (
	"fmt"
	"strings"
)

// Transport identifies how a model endpoint is reached.
type Transport string

const (
	// TransportLocalInference targets a local inference runtime
	// (Ollama-compatible) addressed by an ollama://<model> URI.
	TransportLocalInference Transport = "local-inference"

	// TransportHTTPAPI targets a generic HTTP completion endpoint
	// addressed by an http(s):// URI.
	TransportHTTPAPI Transport = "http-api"

	// TransportMock produces a canned, clearly tagged response without
	// any network access. Used for tests and degraded operation.
	TransportMock Transport = "mock"
)

// Valid reports whether t is one of the closed set of transports.
func (t Transport) Valid() bool {
	switch t {
	case TransportLocalInference, TransportHTTPAPI, TransportMock:
		return true
	}
	return false
}

// ModelEndpointDescriptor describes one registered model endpoint.
// Descriptors are owned by the registry; uniqueness is by tier with
// last registration winning.
type ModelEndpointDescriptor struct {
	Tier      Tier      `json:"tier" yaml:"tier"`
	URI       string    `json:"uri" yaml:"uri"`
	Transport Transport `json:"transport" yaml:"transport"`
}

// Validate checks the descriptor against the closed transport enum and
// the URI scheme expected by that transport.
func (d ModelEndpointDescriptor) Validate() error {
	if !d.Tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidParameter, d.Tier)
	}
	if d.URI == "" {
		return fmt.Errorf("%w: endpoint URI is empty", ErrInvalidParameter)
	}
	switch d.Transport {
	case TransportLocalInference:
		if !strings.HasPrefix(d.URI, "ollama://") {
			return fmt.Errorf("%w: local-inference URI must use ollama:// scheme, got %q",
				ErrInvalidParameter, d.URI)
		}
	case TransportHTTPAPI:
		if !strings.HasPrefix(d.URI, "http://") && !strings.HasPrefix(d.URI, "https://") {
			return fmt.Errorf("%w: http-api URI must use http(s):// scheme, got %q",
				ErrInvalidParameter, d.URI)
		}
	case TransportMock:
		// Any URI is acceptable for mocks.
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidParameter, d.Transport)
	}
	return nil
}

// Model returns the model identifier embedded in the URI, when present.
// For ollama://mistral this is "mistral"; otherwise the URI itself.
func (d ModelEndpointDescriptor) Model() string {
	if name, ok := strings.CutPrefix(d.URI, "ollama://"); ok {
		return name
	}
	if name, ok := strings.CutPrefix(d.URI, "mock://"); ok {
		return name
	}
	return d.URI
}
