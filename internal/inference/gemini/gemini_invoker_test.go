package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickmill/internal/config"
	"tickmill/internal/domain"
	"tickmill/internal/inference"
	"tickmill/internal/port"
)

func testInput() port.InvokeInput {
	return port.InvokeInput{
		Prompt:      "read this ticket",
		ImageBytes:  []byte{0x01},
		ImageFormat: domain.FormatPNG,
		MaxTokens:   1000,
		Temperature: 0.2,
	}
}

func TestInvokeSuccess(t *testing.T) {
	var gotReq map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "api-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": "model output"}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}))
	defer server.Close()

	inv := NewInvokerWithEndpoint(&config.InvokerConfig{APIKey: "api-key"}, server.URL)

	out, err := inv.Invoke(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "model output", out)

	genCfg := gotReq["generationConfig"].(map[string]interface{})
	assert.Equal(t, float64(1000), genCfg["maxOutputTokens"])
}

func TestInvokeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	inv := NewInvokerWithEndpoint(&config.InvokerConfig{APIKey: "k"}, server.URL)

	_, err := inv.Invoke(context.Background(), testInput())
	var rlErr *inference.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "gemini", rlErr.Provider)
}

func TestInvokeNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	inv := NewInvokerWithEndpoint(&config.InvokerConfig{APIKey: "k"}, server.URL)

	_, err := inv.Invoke(context.Background(), testInput())
	assert.Error(t, err)
}
