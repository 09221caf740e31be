package langfuse

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/logging"
)

type capturedBatch struct {
	auth  string
	batch []map[string]interface{}
}

// ingestionServer records every batch posted to /ingestion and serves
// canned read-API responses.
type ingestionServer struct {
	mu      sync.Mutex
	batches []capturedBatch
	server  *httptest.Server
}

func newIngestionServer(t *testing.T) *ingestionServer {
	s := &ingestionServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/ingestion", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Batch []map[string]interface{} `json:"batch"`
		}
		require.NoError(t, json.Unmarshal(body, &req))

		s.mu.Lock()
		s.batches = append(s.batches, capturedBatch{
			auth:  r.Header.Get("Authorization"),
			batch: req.Batch,
		})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		w.Write([]byte(`{"successes":[],"errors":[]}`))
	})
	mux.HandleFunc("/api/public/traces/tr-known", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "tr-known",
			"name": "chat",
			"sessionId": "sess-1",
			"observations": [
				{"id": "obs-1", "traceId": "tr-known", "type": "GENERATION", "model": "gpt-3.5-turbo"}
			]
		}`))
	})
	mux.HandleFunc("/api/public/sessions/sess-1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "sess-1", "traces": [{"id": "tr-known", "name": "chat"}]}`))
	})
	mux.HandleFunc("/api/public/v2/prompts/greeting", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "greeting", "version": 3, "type": "text", "prompt": "Hello {{name}}"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *ingestionServer) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *ingestionServer) allEvents() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []map[string]interface{}
	for _, b := range s.batches {
		events = append(events, b.batch...)
	}
	return events
}

func newTestClient(t *testing.T, s *ingestionServer) *Client {
	c := New(config.LangfuseConfig{
		PublicKey:     "pk-test",
		SecretKey:     "sk-test",
		Host:          s.server.URL,
		FlushInterval: time.Hour,
		BatchSize:     100,
		FlushTimeout:  5 * time.Second,
	}, logging.NewNop(), nil)
	t.Cleanup(func() {
		c.Close(context.Background())
	})
	return c
}

func eventTypes(events []map[string]interface{}) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e["type"].(string))
	}
	return types
}

func TestFlushDeliversBufferedEvents(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	trace := c.StartTrace("chat", TraceOptions{
		UserID:    "user-1",
		SessionID: "sess-1",
		Input:     "hello",
		Tags:      []string{"chat"},
	})
	require.NotEmpty(t, trace.ID)

	c.RecordGeneration(trace, GenerationRecord{
		Name:      "chat-completion",
		Model:     "gpt-3.5-turbo",
		Input:     "hello",
		Output:    "hi there",
		Usage:     &Usage{Input: 5, Output: 3, Total: 8, Unit: "TOKENS"},
		StartTime: time.Now().Add(-time.Second),
		EndTime:   time.Now(),
	})
	c.RecordScore(trace.ID, "user-feedback", 0.9, "great answer")

	require.NoError(t, c.Flush(context.Background()))

	events := s.allEvents()
	require.Len(t, events, 3)
	assert.Equal(t, []string{"trace-create", "generation-create", "score-create"}, eventTypes(events))

	// Basic auth carries the configured key pair
	// base64("pk-test:sk-test")
	assert.Equal(t, "Basic cGstdGVzdDpzay10ZXN0", s.batches[0].auth)

	traceBody := events[0]["body"].(map[string]interface{})
	assert.Equal(t, trace.ID, traceBody["id"])
	assert.Equal(t, "user-1", traceBody["userId"])
	assert.Equal(t, "sess-1", traceBody["sessionId"])

	genBody := events[1]["body"].(map[string]interface{})
	assert.Equal(t, trace.ID, genBody["traceId"])
	assert.Equal(t, "gpt-3.5-turbo", genBody["model"])
	assert.Equal(t, float64(8), genBody["usage"].(map[string]interface{})["total"])

	scoreBody := events[2]["body"].(map[string]interface{})
	assert.Equal(t, "user-feedback", scoreBody["name"])
	assert.Equal(t, 0.9, scoreBody["value"])
}

func TestFlushWithEmptyBufferIsNoop(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	require.NoError(t, c.Flush(context.Background()))
	assert.Zero(t, s.batchCount())
}

func TestFullBufferTriggersDelivery(t *testing.T) {
	s := newIngestionServer(t)
	c := New(config.LangfuseConfig{
		PublicKey:     "pk-test",
		SecretKey:     "sk-test",
		Host:          s.server.URL,
		FlushInterval: time.Hour,
		BatchSize:     2,
	}, logging.NewNop(), nil)
	defer c.Close(context.Background())

	trace := c.StartTrace("chat", TraceOptions{})
	c.RecordEvent(trace.ID, EventRecord{Name: "provider-error", Level: "ERROR"})

	assert.Eventually(t, func() bool {
		return s.batchCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, s.allEvents(), 2)
}

func TestCloseDrainsBuffer(t *testing.T) {
	s := newIngestionServer(t)
	c := New(config.LangfuseConfig{
		PublicKey:     "pk-test",
		SecretKey:     "sk-test",
		Host:          s.server.URL,
		FlushInterval: time.Hour,
		BatchSize:     100,
	}, logging.NewNop(), nil)

	c.StartTrace("chat", TraceOptions{})
	require.NoError(t, c.Close(context.Background()))
	assert.Len(t, s.allEvents(), 1)

	// Second close is a no-op
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, s.batchCount())
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(config.LangfuseConfig{
		PublicKey:     "pk-test",
		SecretKey:     "sk-test",
		Host:          server.URL,
		FlushInterval: time.Hour,
		BatchSize:     100,
	}, logging.NewNop(), nil)
	defer c.Close(context.Background())

	c.StartTrace("chat", TraceOptions{})
	err := c.Flush(context.Background())
	assert.Error(t, err)

	// The failed batch is dropped, not requeued
	c.mu.Lock()
	buffered := len(c.events)
	c.mu.Unlock()
	assert.Zero(t, buffered)
}

func TestGetTrace(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	trace, err := c.GetTrace(context.Background(), "tr-known")
	require.NoError(t, err)
	assert.Equal(t, "tr-known", trace.ID)
	assert.Equal(t, "sess-1", trace.SessionID)

	gen, ok := trace.Generation()
	require.True(t, ok)
	assert.Equal(t, "gpt-3.5-turbo", gen.Model)
}

func TestGetTraceNotFound(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	_, err := c.GetTrace(context.Background(), "tr-missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetSession(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	session, err := c.GetSession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	require.Len(t, session.Traces, 1)
	assert.Equal(t, "tr-known", session.Traces[0].ID)

	_, err = c.GetSession(context.Background(), "sess-missing")
	assert.True(t, apperr.IsNotFound(err))
}

func TestGetPrompt(t *testing.T) {
	s := newIngestionServer(t)
	c := newTestClient(t, s)

	prompt, err := c.GetPrompt(context.Background(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "greeting", prompt.Name)
	assert.Equal(t, 3, prompt.Version)
	assert.Equal(t, "Hello {{name}}", prompt.Prompt)

	_, err = c.GetPrompt(context.Background(), "missing")
	assert.True(t, apperr.IsNotFound(err))
}
