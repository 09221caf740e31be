package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/logging"
)

// One server per test binary: the metrics collectors register against the
// default Prometheus registry.
func TestServer(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/public/ingestion":
			w.WriteHeader(http.StatusMultiStatus)
			w.Write([]byte(`{"successes":[],"errors":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-3.5-turbo",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
		}`))
	}))
	defer provider.Close()

	cfg := config.Default()
	cfg.Langfuse.PublicKey = "pk-test"
	cfg.Langfuse.SecretKey = "sk-test"
	cfg.Langfuse.Host = backend.URL
	cfg.Langfuse.FlushInterval = time.Hour
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = provider.URL

	srv := New(cfg, logging.NewNop())
	router := srv.Router()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "gateway_")
	})

	t.Run("chat round trip", func(t *testing.T) {
		body := strings.NewReader(`{"messages": [{"role": "user", "content": "hi"}]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"trace_id"`)
		assert.Contains(t, w.Body.String(), "hello")
	})

	t.Run("chat validation", func(t *testing.T) {
		body := strings.NewReader(`{"messages": []}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/sess-x", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("request id header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
