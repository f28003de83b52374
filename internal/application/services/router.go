package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	domainServices "github.com/anthonylubrino/globalmcp/internal/domain/services"
)

const (
	// defaultDispatchTimeout bounds a single outbound model call.
	defaultDispatchTimeout = 30 * time.Second

	// defaultMaxTokens caps generation length when the caller does not
	// specify one.
	defaultMaxTokens = 512
)

// ModelRouter maps a classified prompt to a registered model endpoint,
// issues the request, and applies fallback policy on failure.
//
// Route is a total function: every failure path terminates in either a
// corrected retry or an explicitly labeled degraded response, so the
// caller always receives a RoutingDecision and never an error.
type ModelRouter struct {
	classifier domainServices.Classifier
	registry   domainServices.ModelRegistry
	transports map[models.Transport]domainServices.ModelClient

	dispatchTimeout time.Duration
	maxTokens       int
}

// RouterOption customizes a ModelRouter.
type RouterOption func(*ModelRouter)

// WithDispatchTimeout overrides the per-attempt outbound call budget.
func WithDispatchTimeout(d time.Duration) RouterOption {
	return func(r *ModelRouter) { r.dispatchTimeout = d }
}

// WithMaxTokens overrides the default generation length cap.
func WithMaxTokens(n int) RouterOption {
	return func(r *ModelRouter) { r.maxTokens = n }
}

// NewModelRouter creates a router over an injected classifier, registry
// and transport set. The registry is passed explicitly rather than held
// as process-wide state so it can be swapped per test.
func NewModelRouter(
	classifier domainServices.Classifier,
	registry domainServices.ModelRegistry,
	transports map[models.Transport]domainServices.ModelClient,
	opts ...RouterOption,
) *ModelRouter {
	r := &ModelRouter{
		classifier:      classifier,
		registry:        registry,
		transports:      transports,
		dispatchTimeout: defaultDispatchTimeout,
		maxTokens:       defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies the prompt, resolves an endpoint for the chosen tier
// (walking down to less capable tiers on registry misses), dispatches
// with a bounded timeout, and retries at most once against the next
// less-capable endpoint before synthesizing a tagged fallback response.
// Worst-case latency is roughly two endpoint round-trips plus timeout.
func (r *ModelRouter) Route(ctx context.Context, prompt, promptContext string) models.RoutingDecision {
	start := time.Now()

	score := r.classifier.Classify(prompt, promptContext)

	decision := models.RoutingDecision{
		RequestID:  uuid.NewString(),
		Tier:       score.ChosenTier,
		Complexity: score,
	}

	req := models.GenerationRequest{
		Prompt:    prompt,
		Context:   promptContext,
		MaxTokens: r.maxTokens,
	}

	endpoint, err := r.resolveDescending(score.ChosenTier)
	if err != nil {
		return r.fallback(decision, prompt, start)
	}

	response, err := r.dispatch(ctx, endpoint, req)
	if err == nil {
		decision.Endpoint = endpoint
		decision.Response = response
		decision.Latency = time.Since(start)
		return decision
	}

	// One retry against the next less-capable endpoint, if a different
	// one exists. No unbounded retries.
	if alternate, ok := r.alternateBelow(endpoint); ok {
		response, err = r.dispatch(ctx, alternate, req)
		if err == nil {
			decision.Endpoint = alternate
			decision.Response = response
			decision.Latency = time.Since(start)
			return decision
		}
	}

	return r.fallback(decision, prompt, start)
}

// resolveDescending resolves the tier's endpoint, attempting each less
// capable tier in turn on a registry miss before failing outright.
func (r *ModelRouter) resolveDescending(tier models.Tier) (models.ModelEndpointDescriptor, error) {
	for {
		endpoint, err := r.registry.Resolve(tier)
		if err == nil {
			return endpoint, nil
		}
		next, ok := tier.LessCapable()
		if !ok {
			return models.ModelEndpointDescriptor{},
				fmt.Errorf("%w: no endpoint for any tier at or below requested", models.ErrTierNotRegistered)
		}
		tier = next
	}
}

// alternateBelow finds the closest registered endpoint strictly below
// the failed endpoint's tier that differs from it.
func (r *ModelRouter) alternateBelow(failed models.ModelEndpointDescriptor) (models.ModelEndpointDescriptor, bool) {
	tier := failed.Tier
	for {
		next, ok := tier.LessCapable()
		if !ok {
			return models.ModelEndpointDescriptor{}, false
		}
		tier = next

		endpoint, err := r.registry.Resolve(tier)
		if err != nil {
			continue
		}
		if endpoint.URI != failed.URI || endpoint.Transport != failed.Transport {
			return endpoint, true
		}
	}
}

// dispatch issues one outbound call with the router's timeout budget.
// The timeout context derives from the caller's context, so caller
// cancellation aborts the call promptly.
func (r *ModelRouter) dispatch(ctx context.Context, endpoint models.ModelEndpointDescriptor, req models.GenerationRequest) (string, error) {
	client, ok := r.transports[endpoint.Transport]
	if !ok {
		return "", fmt.Errorf("%w: no transport registered for %q",
			models.ErrEndpointUnavailable, endpoint.Transport)
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
	defer cancel()

	return client.Generate(dispatchCtx, endpoint, req)
}

// fallback synthesizes the degraded decision returned when no real
// endpoint could be reached. The payload is tagged so callers can always
// distinguish it from a genuine model answer.
func (r *ModelRouter) fallback(decision models.RoutingDecision, prompt string, start time.Time) models.RoutingDecision {
	decision.FallbackApplied = true
	decision.Endpoint = models.ModelEndpointDescriptor{
		Tier:      decision.Tier,
		URI:       "mock://fallback",
		Transport: models.TransportMock,
	}
	decision.Response = fmt.Sprintf("[FALLBACK] No model endpoint reachable for %s complexity: %s",
		decision.Tier, truncatePrompt(prompt, 50))
	decision.Latency = time.Since(start)
	return decision
}

func truncatePrompt(prompt string, max int) string {
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "..."
}
