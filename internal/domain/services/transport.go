package services

import (
	"context"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
)

// ModelClient is the transport over which a single model endpoint is
// consumed: given a textual prompt and generation parameters, return
// generated text or signal unavailability.
//
// Implementations live in the infrastructure layer (local inference,
// generic HTTP, mock). The interface stays small so routers and tests
// can substitute transports freely.
type ModelClient interface {
	// Name returns the transport identifier (e.g. "local-inference").
	Name() string

	// Generate sends the request to the endpoint and returns the
	// generated text. Cancellation and deadlines flow through ctx;
	// transport failures wrap models.ErrEndpointUnavailable.
	Generate(ctx context.Context, endpoint models.ModelEndpointDescriptor, req models.GenerationRequest) (string, error)

	// CheckHealth verifies the endpoint is reachable. Returns nil if
	// healthy, an error otherwise.
	CheckHealth(ctx context.Context, endpoint models.ModelEndpointDescriptor) error
}

// Classifier assigns a complexity tier to a prompt. Implementations must
// be pure and deterministic: identical input yields an identical score,
// with no network or disk access.
type Classifier interface {
	Classify(prompt, context string) models.ComplexityScore
}
