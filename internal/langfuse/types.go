package langfuse

import "time"

// Metadata is an open mapping of string keys to JSON-serializable values.
type Metadata map[string]interface{}

// Usage carries token counts for a single generation.
type Usage struct {
	Input  int    `json:"input,omitempty"`
	Output int    `json:"output,omitempty"`
	Total  int    `json:"total,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// Trace is a live handle to a trace created by this process. It carries the
// identifiers needed to attach observations; the record itself lives in the
// tracing backend.
type Trace struct {
	ID        string
	Name      string
	UserID    string
	SessionID string
	Metadata  Metadata
	Tags      []string
}

// GenerationRecord captures one LLM call for ingestion.
type GenerationRecord struct {
	Name            string
	Model           string
	ModelParameters Metadata
	Input           interface{}
	Output          interface{}
	Usage           *Usage
	StartTime       time.Time
	EndTime         time.Time
	PromptName      string
	PromptVersion   int
	Level           string
	StatusMessage   string
}

// TraceDetail is the backend's view of a stored trace, as returned by the
// traces read API.
type TraceDetail struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	UserID       string        `json:"userId"`
	SessionID    string        `json:"sessionId"`
	Input        interface{}   `json:"input"`
	Output       interface{}   `json:"output"`
	Metadata     Metadata      `json:"metadata"`
	Tags         []string      `json:"tags"`
	Timestamp    time.Time     `json:"timestamp"`
	Observations []Observation `json:"observations"`
}

// Observation is a stored span, generation, or event attached to a trace.
type Observation struct {
	ID            string      `json:"id"`
	TraceID       string      `json:"traceId"`
	Type          string      `json:"type"`
	Name          string      `json:"name"`
	Model         string      `json:"model"`
	Input         interface{} `json:"input"`
	Output        interface{} `json:"output"`
	StartTime     time.Time   `json:"startTime"`
	EndTime       time.Time   `json:"endTime"`
	Level         string      `json:"level"`
	StatusMessage string      `json:"statusMessage"`
}

// Generation returns the first generation-type observation, if any.
func (t *TraceDetail) Generation() (*Observation, bool) {
	for i := range t.Observations {
		if t.Observations[i].Type == "GENERATION" {
			return &t.Observations[i], true
		}
	}
	return nil, false
}

// Session is a stored session with its traces, as returned by the sessions
// read API.
type Session struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	ProjectID string        `json:"projectId"`
	Traces    []TraceDetail `json:"traces"`
}

// Prompt is a versioned template from the backend's prompt store.
type Prompt struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt"`
	Labels  []string `json:"labels"`
}
