// Package api exposes the compression and routing core to the external
// request-serving layer over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anthonylubrino/globalmcp/internal/application/services"
	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	domainServices "github.com/anthonylubrino/globalmcp/internal/domain/services"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/config"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/logging"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/metrics"
)

// healthProbeTimeout bounds the per-endpoint reachability probe run by
// the health handler.
const healthProbeTimeout = 2 * time.Second

// Handler handles HTTP requests for the compression and routing API.
type Handler struct {
	pipeline   *services.CompressionPipeline
	router     *services.ModelRouter
	registry   domainServices.ModelRegistry
	transports map[models.Transport]domainServices.ModelClient
	config     *config.Config
	logger     *logging.StructuredLogger
	metrics    *metrics.Metrics
}

// NewHandler creates a new Handler instance.
func NewHandler(
	pipeline *services.CompressionPipeline,
	router *services.ModelRouter,
	registry domainServices.ModelRegistry,
	transports map[models.Transport]domainServices.ModelClient,
	cfg *config.Config,
	logger *logging.StructuredLogger,
) *Handler {
	return &Handler{
		pipeline:   pipeline,
		router:     router,
		registry:   registry,
		transports: transports,
		config:     cfg,
		logger:     logger,
		metrics:    metrics.New(),
	}
}

// CompressRequest is the body of POST /v1/compress. Omitted parameters
// fall back to the configured compression defaults. CompressionRatio is
// the fraction of frequency coefficients to keep, in (0, 1].
type CompressRequest struct {
	KVCache          models.KVCache `json:"kv_cache"`
	SinkTokens       *int           `json:"sink_tokens,omitempty"`
	CompressionRatio *float64       `json:"compression_ratio,omitempty"`
	OutputLength     *int           `json:"output_length,omitempty"`
	KernelWidth      *int           `json:"kernel_width,omitempty"`
}

// CompressResponse is the body returned by POST /v1/compress.
type CompressResponse struct {
	CompressedCache models.KVCache           `json:"compressed_cache"`
	Stats           models.CompressionResult `json:"stats"`
}

// CompressKVCache handles POST /v1/compress.
func (h *Handler) CompressKVCache(w http.ResponseWriter, r *http.Request) {
	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	compressed, stats, err := h.runPipeline(req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidParameter) {
			h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		} else {
			h.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.logger.Info("compressed KV cache", map[string]interface{}{
		"original_size":   stats.OriginalSize,
		"compressed_size": stats.CompressedSize,
	})

	h.writeJSON(w, http.StatusOK, CompressResponse{
		CompressedCache: compressed,
		Stats:           stats,
	})
}

// RouteRequest is the body of POST /v1/route.
type RouteRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

// RouteResponse is the body returned by POST /v1/route.
type RouteResponse struct {
	Response        string              `json:"response"`
	ModelUsed       string              `json:"model_used"`
	Complexity      models.Tier         `json:"complexity"`
	Scores          map[models.Tier]int `json:"scores"`
	FallbackApplied bool                `json:"fallback_applied"`
	RequestID       string              `json:"request_id"`
	LatencyMS       int64               `json:"latency_ms"`
}

// RoutePrompt handles POST /v1/route.
func (h *Handler) RoutePrompt(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	decision := h.route(r, req)
	h.writeJSON(w, http.StatusOK, routeResponseFrom(decision))
}

// PipelineRequest is the body of POST /v1/pipeline. The KV cache is
// optional; when absent only routing runs.
type PipelineRequest struct {
	Prompt  string         `json:"prompt"`
	KVCache models.KVCache `json:"kv_cache,omitempty"`
	Context string         `json:"context,omitempty"`
}

// PipelineResponse is the body returned by POST /v1/pipeline.
type PipelineResponse struct {
	Compression *models.CompressionResult `json:"compression,omitempty"`
	Routing     RouteResponse             `json:"routing"`
}

// ProcessFullPipeline handles POST /v1/pipeline: compression (when a KV
// cache is supplied) followed by routing.
func (h *Handler) ProcessFullPipeline(w http.ResponseWriter, r *http.Request) {
	var req PipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp := PipelineResponse{}
	promptContext := req.Context

	if len(req.KVCache) > 0 {
		_, stats, err := h.runPipeline(CompressRequest{KVCache: req.KVCache})
		if err != nil {
			if errors.Is(err, models.ErrInvalidParameter) {
				h.sendErrorResponse(w, http.StatusBadRequest, err.Error())
			} else {
				h.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
			}
			return
		}
		resp.Compression = &stats

		// Routing sees that a compressed context exists without the
		// raw matrix being forwarded to the model.
		promptContext += "\n[Compressed KV context available]"
	}

	decision := h.route(r, RouteRequest{Prompt: req.Prompt, Context: promptContext})
	resp.Routing = routeResponseFrom(decision)

	h.writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health. Registered endpoints are probed
// concurrently with a short timeout; probe failures degrade the report,
// never the status code.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	tiers := h.registry.Tiers()
	endpointStatus := make(map[models.Tier]string, len(tiers))

	g, ctx := errgroup.WithContext(r.Context())
	results := make([]string, len(tiers))
	for i, tier := range tiers {
		g.Go(func() error {
			endpoint, err := h.registry.Resolve(tier)
			if err != nil {
				results[i] = "unregistered"
				return nil
			}
			client, ok := h.transports[endpoint.Transport]
			if !ok {
				results[i] = "no transport"
				return nil
			}

			probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
			defer cancel()

			if err := client.CheckHealth(probeCtx, endpoint); err != nil {
				results[i] = "unreachable"
			} else {
				results[i] = "healthy"
			}
			return nil
		})
	}
	g.Wait()

	for i, tier := range tiers {
		endpointStatus[tier] = results[i]
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"services":  []string{"freqkv", "lococo", "routing"},
		"endpoints": endpointStatus,
	})
}

// runPipeline executes the compression pipeline with request overrides
// applied on top of configured defaults.
func (h *Handler) runPipeline(req CompressRequest) (models.KVCache, models.CompressionResult, error) {
	defaults := h.config.Compression

	sinkTokens := defaults.SinkTokens
	if req.SinkTokens != nil {
		sinkTokens = *req.SinkTokens
	}
	keepRatio := defaults.KeepRatio
	if req.CompressionRatio != nil {
		keepRatio = *req.CompressionRatio
	}
	outputLength := defaults.OutputLength
	if req.OutputLength != nil {
		outputLength = *req.OutputLength
	}
	kernelWidth := defaults.KernelWidth
	if req.KernelWidth != nil {
		kernelWidth = *req.KernelWidth
	}

	compressed, stats, err := h.pipeline.Run(req.KVCache, sinkTokens, keepRatio, outputLength, kernelWidth)
	if err != nil {
		return nil, models.CompressionResult{}, err
	}

	h.metrics.CompressionsTotal.Inc()
	h.metrics.CompressionRatio.Observe(stats.Ratio)

	return compressed, stats, nil
}

// route runs the router and records decision metrics and logs.
func (h *Handler) route(r *http.Request, req RouteRequest) models.RoutingDecision {
	decision := h.router.Route(r.Context(), req.Prompt, req.Context)

	h.metrics.RoutingDecisionsTotal.WithLabelValues(string(decision.Tier)).Inc()
	h.metrics.RouteDuration.WithLabelValues(string(decision.Tier)).Observe(decision.Latency.Seconds())
	if decision.FallbackApplied {
		h.metrics.FallbacksTotal.Inc()
	}

	h.logger.Info("routed prompt", map[string]interface{}{
		"request_id": decision.RequestID,
		"tier":       string(decision.Tier),
		"fallback":   decision.FallbackApplied,
		"latency_ms": decision.Latency.Milliseconds(),
	})

	return decision
}

func routeResponseFrom(decision models.RoutingDecision) RouteResponse {
	return RouteResponse{
		Response:        decision.Response,
		ModelUsed:       decision.Endpoint.URI,
		Complexity:      decision.Tier,
		Scores:          decision.Complexity.Scores,
		FallbackApplied: decision.FallbackApplied,
		RequestID:       decision.RequestID,
		LatencyMS:       decision.Latency.Milliseconds(),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// sendErrorResponse sends an error response.
func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
