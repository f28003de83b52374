package transports

import (
	"context"
	"fmt"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/domain/services"
)

// MockClient produces canned, clearly tagged responses without any
// network access. Used in tests and for endpoints deliberately
// registered with the mock transport.
type MockClient struct{}

var _ services.ModelClient = (*MockClient)(nil)

// NewMockClient creates a mock transport.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Name returns the transport identifier.
func (c *MockClient) Name() string {
	return string(models.TransportMock)
}

// Generate returns a tier-tagged placeholder payload. The tag makes mock
// output distinguishable from a genuine model answer.
func (c *MockClient) Generate(_ context.Context, endpoint models.ModelEndpointDescriptor, req models.GenerationRequest) (string, error) {
	prompt := req.Prompt
	if len(prompt) > 50 {
		prompt = prompt[:50] + "..."
	}

	switch endpoint.Tier {
	case models.TierSimple:
		return fmt.Sprintf("[MOCK SIMPLE] Processing: %s", prompt), nil
	case models.TierModerate:
		return fmt.Sprintf("[MOCK MODERATE] Analyzing and implementing: %s", prompt), nil
	case models.TierComplex:
		return fmt.Sprintf("[MOCK COMPLEX] Architecting solution for: %s", prompt), nil
	default:
		return fmt.Sprintf("[MOCK] Processed via %s", endpoint.URI), nil
	}
}

// CheckHealth always succeeds; a mock has nothing to reach.
func (c *MockClient) CheckHealth(context.Context, models.ModelEndpointDescriptor) error {
	return nil
}
