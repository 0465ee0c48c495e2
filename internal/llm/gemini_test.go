package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journey-copilot/journey-copilot/internal/llm"
)

func newGeminiTestClient(t *testing.T, handler http.HandlerFunc) *llm.GeminiClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := llm.NewGemini(context.Background(), llm.Config{
		APIKey:      "g-test",
		BaseURL:     srv.URL,
		Model:       "gemini-test",
		Temperature: 0.5,
	})
	require.NoError(t, err)
	return c
}

func TestGemini_GenerateSendsContentRequest(t *testing.T) {
	var got map[string]any
	c := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-test:generateContent")
		assert.Equal(t, "g-test", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Send the SMS now."}]},"finishReason":"STOP"}]}`))
	})

	text, err := c.Generate(context.Background(), llm.Request{
		System:    "You are a strategist.",
		Prompt:    "What next?",
		MaxTokens: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "Send the SMS now.", text)

	gen, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", got)
	assert.Equal(t, 0.5, gen["temperature"])
	assert.Equal(t, float64(500), gen["maxOutputTokens"])

	sys, ok := got["systemInstruction"].(map[string]any)
	require.True(t, ok, "systemInstruction missing: %v", got)
	parts, ok := sys["parts"].([]any)
	require.True(t, ok)
	require.Len(t, parts, 1)
	assert.Equal(t, "You are a strategist.", parts[0].(map[string]any)["text"])

	contents, ok := got["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
}

func TestGemini_RequestModelOverride(t *testing.T) {
	var path string
	c := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p", Model: "gemini-other"})
	require.NoError(t, err)
	assert.Contains(t, path, "models/gemini-other:generateContent")
}

func TestGemini_APIErrorIsGenerationError(t *testing.T) {
	c := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	require.Error(t, err)

	var genErr *llm.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, llm.ProviderGemini, genErr.Provider)
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestGemini_NoCandidatesIsEmptyResponse(t *testing.T) {
	c := newGeminiTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Prompt: "p"})
	require.Error(t, err)

	var genErr *llm.GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.True(t, errors.Is(err, llm.ErrEmptyResponse))
}

func TestGemini_MissingKey(t *testing.T) {
	_, err := llm.NewGemini(context.Background(), llm.Config{})
	assert.True(t, errors.Is(err, llm.ErrMissingAPIKey))
}
