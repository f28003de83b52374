package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	domainServices "github.com/anthonylubrino/globalmcp/internal/domain/services"
	"github.com/anthonylubrino/globalmcp/internal/domain/services/routing"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/registry"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/transports"
)

// failingClient simulates an unreachable endpoint and records how often
// it was dispatched to.
type failingClient struct {
	calls int
}

func (c *failingClient) Name() string { return string(models.TransportHTTPAPI) }

func (c *failingClient) Generate(context.Context, models.ModelEndpointDescriptor, models.GenerationRequest) (string, error) {
	c.calls++
	return "", fmt.Errorf("%w: connection refused", models.ErrEndpointUnavailable)
}

func (c *failingClient) CheckHealth(context.Context, models.ModelEndpointDescriptor) error {
	return models.ErrEndpointUnavailable
}

func mockTransports() map[models.Transport]domainServices.ModelClient {
	return map[models.Transport]domainServices.ModelClient{
		models.TransportMock: transports.NewMockClient(),
	}
}

func newTestRouter(reg domainServices.ModelRegistry, clients map[models.Transport]domainServices.ModelClient) *ModelRouter {
	return NewModelRouter(routing.NewComplexityClassifier(), reg, clients)
}

// TestRoute_Success tests the happy path: classify, resolve, dispatch
func TestRoute_Success(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierModerate, URI: "mock://moderate", Transport: models.TransportMock,
	}))

	router := newTestRouter(reg, mockTransports())

	decision := router.Route(context.Background(), "Implement a caching layer for the API", "")

	assert.Equal(t, models.TierModerate, decision.Tier)
	assert.False(t, decision.FallbackApplied)
	assert.Contains(t, decision.Response, "[MOCK MODERATE]")
	assert.Equal(t, "mock://moderate", decision.Endpoint.URI)
	assert.NotEmpty(t, decision.RequestID)
	assert.GreaterOrEqual(t, decision.Latency.Nanoseconds(), int64(0))
}

// TestRoute_ResolvesDownOnRegistryMiss tests that an unregistered tier
// falls through to the next less capable registered tier
func TestRoute_ResolvesDownOnRegistryMiss(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "mock://simple", Transport: models.TransportMock,
	}))

	router := newTestRouter(reg, mockTransports())

	decision := router.Route(context.Background(), "Design a distributed microservice architecture", "")

	// Classification stays complex; dispatch lands on the simple endpoint.
	assert.Equal(t, models.TierComplex, decision.Tier)
	assert.Equal(t, models.TierSimple, decision.Endpoint.Tier)
	assert.False(t, decision.FallbackApplied)
	assert.Contains(t, decision.Response, "[MOCK SIMPLE]")
}

// TestRoute_RetriesAlternateOnFailure tests the single retry against
// the next less capable endpoint after a transport failure
func TestRoute_RetriesAlternateOnFailure(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierComplex, URI: "http://127.0.0.1:1/generate", Transport: models.TransportHTTPAPI,
	}))
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "mock://simple", Transport: models.TransportMock,
	}))

	failing := &failingClient{}
	clients := mockTransports()
	clients[models.TransportHTTPAPI] = failing

	router := newTestRouter(reg, clients)

	decision := router.Route(context.Background(), "Design a distributed microservice architecture", "")

	assert.Equal(t, 1, failing.calls, "exactly one attempt against the failing endpoint")
	assert.False(t, decision.FallbackApplied)
	assert.Equal(t, models.TierSimple, decision.Endpoint.Tier)
	assert.Contains(t, decision.Response, "[MOCK SIMPLE]")
}

// TestRoute_FallbackWhenNoAlternate tests the synthesized, tagged
// fallback when the only endpoint is unreachable
func TestRoute_FallbackWhenNoAlternate(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierComplex, URI: "http://127.0.0.1:1/generate", Transport: models.TransportHTTPAPI,
	}))

	failing := &failingClient{}
	router := newTestRouter(reg, map[models.Transport]domainServices.ModelClient{
		models.TransportHTTPAPI: failing,
	})

	decision := router.Route(context.Background(), "Design a distributed microservice architecture", "")

	assert.Equal(t, 1, failing.calls)
	assert.True(t, decision.FallbackApplied)
	assert.NotEmpty(t, decision.Response)
	assert.Contains(t, decision.Response, "[FALLBACK]")
	assert.Equal(t, models.TransportMock, decision.Endpoint.Transport)
}

// TestRoute_FallbackWhenNothingRegistered tests routing against an
// empty registry: still a total function, never an error
func TestRoute_FallbackWhenNothingRegistered(t *testing.T) {
	router := newTestRouter(registry.NewInMemoryRegistry(), mockTransports())

	decision := router.Route(context.Background(), "Fix the missing semicolon", "")

	assert.Equal(t, models.TierSimple, decision.Tier)
	assert.True(t, decision.FallbackApplied)
	assert.Contains(t, decision.Response, "[FALLBACK]")
}

// TestRoute_NoRetryWhenAlternateIsSameEndpoint tests that the retry is
// skipped when the adjacent tier points at the very same endpoint
func TestRoute_NoRetryWhenAlternateIsSameEndpoint(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	for _, tier := range []models.Tier{models.TierComplex, models.TierModerate, models.TierSimple} {
		require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
			Tier: tier, URI: "http://127.0.0.1:1/generate", Transport: models.TransportHTTPAPI,
		}))
	}

	failing := &failingClient{}
	router := newTestRouter(reg, map[models.Transport]domainServices.ModelClient{
		models.TransportHTTPAPI: failing,
	})

	decision := router.Route(context.Background(), "Design a distributed microservice architecture", "")

	assert.Equal(t, 1, failing.calls, "identical alternates must not be retried")
	assert.True(t, decision.FallbackApplied)
}

// TestRoute_EmptyPromptClassifiesSimple tests the empty-input contract
func TestRoute_EmptyPromptClassifiesSimple(t *testing.T) {
	reg := registry.NewInMemoryRegistry()
	require.NoError(t, reg.Register(models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "mock://simple", Transport: models.TransportMock,
	}))

	router := newTestRouter(reg, mockTransports())

	decision := router.Route(context.Background(), "", "")

	assert.Equal(t, models.TierSimple, decision.Tier)
	assert.False(t, decision.FallbackApplied)
}
