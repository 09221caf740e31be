package langfuse

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/shared/id"
)

// Ingestion event types understood by the backend's batch endpoint.
const (
	eventTypeTraceCreate      = "trace-create"
	eventTypeGenerationCreate = "generation-create"
	eventTypeScoreCreate      = "score-create"
	eventTypeEventCreate      = "event-create"
)

// ingestionEvent is one envelope in a batch. ID deduplicates redelivery on
// the backend side; Body shape depends on Type.
type ingestionEvent struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Body      interface{} `json:"body"`
}

type ingestionRequest struct {
	Batch []ingestionEvent `json:"batch"`
}

type ingestionResult struct {
	ID     string `json:"id"`
	Status int    `json:"status"`
}

type ingestionError struct {
	ID      string `json:"id"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type ingestionResponse struct {
	Successes []ingestionResult `json:"successes"`
	Errors    []ingestionError  `json:"errors"`
}

type traceBody struct {
	ID        string      `json:"id"`
	Name      string      `json:"name,omitempty"`
	UserID    string      `json:"userId,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Input     interface{} `json:"input,omitempty"`
	Output    interface{} `json:"output,omitempty"`
	Metadata  Metadata    `json:"metadata,omitempty"`
	Tags      []string    `json:"tags,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

type observationBody struct {
	ID              string      `json:"id"`
	TraceID         string      `json:"traceId"`
	Name            string      `json:"name,omitempty"`
	Model           string      `json:"model,omitempty"`
	ModelParameters Metadata    `json:"modelParameters,omitempty"`
	Input           interface{} `json:"input,omitempty"`
	Output          interface{} `json:"output,omitempty"`
	Usage           *Usage      `json:"usage,omitempty"`
	StartTime       string      `json:"startTime,omitempty"`
	EndTime         string      `json:"endTime,omitempty"`
	PromptName      string      `json:"promptName,omitempty"`
	PromptVersion   int         `json:"promptVersion,omitempty"`
	Level           string      `json:"level,omitempty"`
	StatusMessage   string      `json:"statusMessage,omitempty"`
}

type scoreBody struct {
	ID      string  `json:"id"`
	TraceID string  `json:"traceId"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Comment string  `json:"comment,omitempty"`
}

type eventBody struct {
	ID            string      `json:"id"`
	TraceID       string      `json:"traceId"`
	Name          string      `json:"name"`
	Input         interface{} `json:"input,omitempty"`
	Metadata      Metadata    `json:"metadata,omitempty"`
	Level         string      `json:"level,omitempty"`
	StatusMessage string      `json:"statusMessage,omitempty"`
	StartTime     string      `json:"startTime,omitempty"`
}

// TraceOptions carries the optional fields of a new trace.
type TraceOptions struct {
	UserID    string
	SessionID string
	Input     interface{}
	Metadata  Metadata
	Tags      []string
}

// EventRecord is a discrete occurrence attached to a trace.
type EventRecord struct {
	Name          string
	Input         interface{}
	Metadata      Metadata
	Level         string
	StatusMessage string
}

// StartTrace enqueues a trace-create and returns a handle for attaching
// observations. The trace ID is assigned locally so callers can reference
// the trace before the batch is delivered.
func (c *Client) StartTrace(name string, opts TraceOptions) *Trace {
	t := &Trace{
		ID:        id.NewUUID(),
		Name:      name,
		UserID:    opts.UserID,
		SessionID: opts.SessionID,
		Metadata:  opts.Metadata,
		Tags:      opts.Tags,
	}

	c.enqueue(eventTypeTraceCreate, traceBody{
		ID:        t.ID,
		Name:      t.Name,
		UserID:    t.UserID,
		SessionID: t.SessionID,
		Input:     opts.Input,
		Metadata:  t.Metadata,
		Tags:      t.Tags,
		Timestamp: now(),
	})
	return t
}

// SetTraceOutput enqueues a trace upsert carrying the final output. The
// backend merges events sharing a trace ID.
func (c *Client) SetTraceOutput(t *Trace, output interface{}) {
	c.enqueue(eventTypeTraceCreate, traceBody{
		ID:     t.ID,
		Output: output,
	})
}

// RecordGeneration enqueues a generation observation under the trace.
func (c *Client) RecordGeneration(t *Trace, rec GenerationRecord) {
	body := observationBody{
		ID:              id.NewUUID(),
		TraceID:         t.ID,
		Name:            rec.Name,
		Model:           rec.Model,
		ModelParameters: rec.ModelParameters,
		Input:           rec.Input,
		Output:          rec.Output,
		Usage:           rec.Usage,
		PromptName:      rec.PromptName,
		PromptVersion:   rec.PromptVersion,
		Level:           rec.Level,
		StatusMessage:   rec.StatusMessage,
	}
	if !rec.StartTime.IsZero() {
		body.StartTime = rec.StartTime.UTC().Format(time.RFC3339Nano)
	}
	if !rec.EndTime.IsZero() {
		body.EndTime = rec.EndTime.UTC().Format(time.RFC3339Nano)
	}
	c.enqueue(eventTypeGenerationCreate, body)
}

// RecordScore enqueues a score against an existing trace.
func (c *Client) RecordScore(traceID, name string, value float64, comment string) {
	c.enqueue(eventTypeScoreCreate, scoreBody{
		ID:      id.NewUUID(),
		TraceID: traceID,
		Name:    name,
		Value:   value,
		Comment: comment,
	})
	if c.metrics != nil {
		c.metrics.RecordScore(name)
	}
}

// RecordEvent enqueues a discrete event against an existing trace.
func (c *Client) RecordEvent(traceID string, rec EventRecord) {
	c.enqueue(eventTypeEventCreate, eventBody{
		ID:            id.NewUUID(),
		TraceID:       traceID,
		Name:          rec.Name,
		Input:         rec.Input,
		Metadata:      rec.Metadata,
		Level:         rec.Level,
		StatusMessage: rec.StatusMessage,
		StartTime:     now(),
	})
}

// enqueue appends an event to the buffer and kicks the flush loop when the
// buffer reaches the batch size.
func (c *Client) enqueue(eventType string, body interface{}) {
	c.mu.Lock()
	c.events = append(c.events, ingestionEvent{
		ID:        id.NewUUID(),
		Type:      eventType,
		Timestamp: now(),
		Body:      body,
	})
	buffered := len(c.events)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetEventsBuffered(buffered)
	}

	if buffered >= c.batchSize {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
}

// flush swaps out the buffer and delivers it as a single batch. A failed
// batch is dropped, not requeued; the transport already retried.
func (c *Client) flush(ctx context.Context) error {
	c.mu.Lock()
	batch := c.events
	c.events = nil
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetEventsBuffered(0)
	}
	if len(batch) == 0 {
		return nil
	}

	payload, err := sonic.Marshal(ingestionRequest{Batch: batch})
	if err != nil {
		c.logger.Error("failed to encode ingestion batch",
			zap.Int("events", len(batch)), zap.Error(err))
		if c.metrics != nil {
			c.metrics.RecordBatchError(len(batch))
		}
		return err
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, payload, len(batch))
	})
	if err != nil {
		c.logger.Error("failed to deliver ingestion batch",
			zap.Int("events", len(batch)), zap.Error(err))
		if c.metrics != nil {
			c.metrics.RecordBatchError(len(batch))
		}
		return err
	}

	if c.metrics != nil {
		c.metrics.RecordBatchSent(len(batch))
	}
	return nil
}

// send posts one encoded batch and surfaces partial failures from the
// backend's per-event response.
func (c *Client) send(ctx context.Context, payload []byte, events int) error {
	var result ingestionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/ingestion")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ingestion returned %d: %s", resp.StatusCode(), resp.String())
	}

	for _, e := range result.Errors {
		c.logger.Warn("ingestion event rejected",
			zap.String("event_id", e.ID),
			zap.Int("status", e.Status),
			zap.String("message", e.Message))
	}

	c.logger.Debug("ingestion batch delivered",
		zap.Int("events", events),
		zap.Int("rejected", len(result.Errors)))
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
