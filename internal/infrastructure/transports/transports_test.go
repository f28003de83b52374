package transports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
	"github.com/anthonylubrino/globalmcp/internal/infrastructure/config"
)

func testRoutingConfig(baseURL string) config.RoutingConfig {
	return config.RoutingConfig{
		DispatchTimeout: 5 * time.Second,
		MaxTokens:       128,
		OllamaBaseURL:   baseURL,
	}
}

// TestLocalInference_Generate tests a successful Ollama generate call
func TestLocalInference_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "phi3", body["model"])
		assert.Equal(t, false, body["stream"])
		assert.Contains(t, body["prompt"], "Fix the bug")

		json.NewEncoder(w).Encode(map[string]string{"response": "done"})
	}))
	defer server.Close()

	client := NewLocalInferenceClient(testRoutingConfig(server.URL))
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "ollama://phi3", Transport: models.TransportLocalInference,
	}

	out, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{
		Prompt: "Fix the bug", MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

// TestLocalInference_ContextPrepended tests that request context is
// prepended to the prompt with a blank line
func TestLocalInference_ContextPrepended(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		prompt, _ = body["prompt"].(string)
		json.NewEncoder(w).Encode(map[string]string{"response": "ok"})
	}))
	defer server.Close()

	client := NewLocalInferenceClient(testRoutingConfig(server.URL))
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "ollama://phi3", Transport: models.TransportLocalInference,
	}

	_, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{
		Prompt: "question", Context: "background",
	})
	require.NoError(t, err)
	assert.Equal(t, "background\n\nquestion", prompt)
}

// TestLocalInference_ServerError tests the unavailable classification
// for non-200 responses
func TestLocalInference_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewLocalInferenceClient(testRoutingConfig(server.URL))
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "ollama://phi3", Transport: models.TransportLocalInference,
	}

	_, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrEndpointUnavailable)
}

// TestLocalInference_Unreachable tests the unavailable classification
// for connection failures
func TestLocalInference_Unreachable(t *testing.T) {
	client := NewLocalInferenceClient(testRoutingConfig("http://127.0.0.1:1"))
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "ollama://phi3", Transport: models.TransportLocalInference,
	}

	_, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrEndpointUnavailable)

	err = client.CheckHealth(context.Background(), endpoint)
	assert.ErrorIs(t, err, models.ErrEndpointUnavailable)
}

// TestHTTPAPI_Generate tests the generic JSON POST transport, including
// the "text" field fallback
func TestHTTPAPI_Generate(t *testing.T) {
	tests := []struct {
		name  string
		reply map[string]string
		want  string
	}{
		{"response field", map[string]string{"response": "from response"}, "from response"},
		{"text field", map[string]string{"text": "from text"}, "from text"},
		{"empty reply", map[string]string{}, "No response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "hello", body["prompt"])
				assert.Equal(t, float64(64), body["max_tokens"])

				json.NewEncoder(w).Encode(tt.reply)
			}))
			defer server.Close()

			client := NewHTTPAPIClient(testRoutingConfig(""))
			endpoint := models.ModelEndpointDescriptor{
				Tier: models.TierModerate, URI: server.URL, Transport: models.TransportHTTPAPI,
			}

			out, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{
				Prompt: "hello", MaxTokens: 64,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

// TestHTTPAPI_ServerError tests non-200 classification
func TestHTTPAPI_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPAPIClient(testRoutingConfig(""))
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierModerate, URI: server.URL, Transport: models.TransportHTTPAPI,
	}

	_, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrEndpointUnavailable)
}

// TestMock_Generate tests the tier-tagged placeholder payloads
func TestMock_Generate(t *testing.T) {
	client := NewMockClient()

	tests := []struct {
		tier models.Tier
		tag  string
	}{
		{models.TierSimple, "[MOCK SIMPLE]"},
		{models.TierModerate, "[MOCK MODERATE]"},
		{models.TierComplex, "[MOCK COMPLEX]"},
	}

	for _, tt := range tests {
		endpoint := models.ModelEndpointDescriptor{
			Tier: tt.tier, URI: "mock://" + string(tt.tier), Transport: models.TransportMock,
		}
		out, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{Prompt: "do the thing"})
		require.NoError(t, err)
		assert.Contains(t, out, tt.tag)
		assert.Contains(t, out, "do the thing")
	}

	assert.NoError(t, client.CheckHealth(context.Background(), models.ModelEndpointDescriptor{}))
}

// TestMock_TruncatesLongPrompts tests prompt truncation in the payload
func TestMock_TruncatesLongPrompts(t *testing.T) {
	client := NewMockClient()
	endpoint := models.ModelEndpointDescriptor{
		Tier: models.TierSimple, URI: "mock://simple", Transport: models.TransportMock,
	}

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}

	out, err := client.Generate(context.Background(), endpoint, models.GenerationRequest{Prompt: string(long)})
	require.NoError(t, err)
	assert.Contains(t, out, "...")
	assert.Less(t, len(out), 120)
}

// TestNewClients tests that the factory covers the closed enum
func TestNewClients(t *testing.T) {
	clients := NewClients(testRoutingConfig("http://localhost:11434"))

	require.Len(t, clients, 3)
	assert.Contains(t, clients, models.TransportLocalInference)
	assert.Contains(t, clients, models.TransportHTTPAPI)
	assert.Contains(t, clients, models.TransportMock)
}
