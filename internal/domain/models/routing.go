package models

import "time"

// GenerationRequest is the payload sent to a model endpoint transport.
type GenerationRequest struct {
	Prompt    string `json:"prompt"`
	Context   string `json:"context,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// FullPrompt returns the prompt with context prepended when present.
func (r GenerationRequest) FullPrompt() string {
	if r.Context == "" {
		return r.Prompt
	}
	return r.Context + "\n\n" + r.Prompt
}

// RoutingDecision is the outcome of routing one prompt. It is produced
// exactly once per routed prompt and always returned to the caller:
// failures along the way are folded into a fallback decision, never
// surfaced as an error.
type RoutingDecision struct {
	RequestID       string                  `json:"request_id"`
	Tier            Tier                    `json:"tier"`
	Complexity      ComplexityScore         `json:"complexity"`
	Endpoint        ModelEndpointDescriptor `json:"endpoint"`
	FallbackApplied bool                    `json:"fallback_applied"`
	Latency         time.Duration           `json:"latency"`
	Response        string                  `json:"response"`
}
