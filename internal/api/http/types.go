package http

import (
	"github.com/observekit/llm-gateway/internal/apperr"
)

const (
	// defaultScoreName is used when feedback does not name a dimension.
	defaultScoreName = "user-feedback"

	// maxMetadataKeys bounds open metadata mappings.
	maxMetadataKeys = 32
)

var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"tool":      true,
}

var validEventLevels = map[string]bool{
	"DEBUG":   true,
	"DEFAULT": true,
	"WARNING": true,
	"ERROR":   true,
}

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Messages    []ChatMessage          `json:"messages"`
	Model       string                 `json:"model"`
	Temperature *float64               `json:"temperature"`
	MaxTokens   int                    `json:"max_tokens"`
	SessionID   string                 `json:"session_id"`
	UserID      string                 `json:"user_id"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Validate checks the request before any adapter is called.
func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return apperr.Validation("messages must not be empty")
	}
	for i, msg := range r.Messages {
		if !validRoles[msg.Role] {
			return apperr.Validation("messages[%d]: invalid role %q", i, msg.Role)
		}
		if msg.Content == "" {
			return apperr.Validation("messages[%d]: content must not be empty", i)
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return apperr.Validation("temperature must be between 0.0 and 2.0")
	}
	if r.MaxTokens < 0 {
		return apperr.Validation("max_tokens must not be negative")
	}
	if err := validateMetadata(r.Metadata); err != nil {
		return err
	}
	return nil
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the body of a successful chat completion.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	TraceID   string `json:"trace_id"`
	Model     string `json:"model"`
	Usage     Usage  `json:"usage"`
	LatencyMS int64  `json:"latency_ms"`
}

// FeedbackRequest is the body of POST /api/v1/feedback.
type FeedbackRequest struct {
	TraceID string   `json:"trace_id"`
	Score   *float64 `json:"score"`
	Comment string   `json:"comment"`
	Name    string   `json:"name"`
}

// Validate enforces the score range and defaults the score name. Scores are
// bounded to [0.0, 1.0].
func (r *FeedbackRequest) Validate() error {
	if r.TraceID == "" {
		return apperr.Validation("trace_id is required")
	}
	if r.Score == nil {
		return apperr.Validation("score is required")
	}
	if *r.Score < 0 || *r.Score > 1 {
		return apperr.Validation("score must be between 0.0 and 1.0")
	}
	if r.Name == "" {
		r.Name = defaultScoreName
	}
	return nil
}

// PromptCompletionRequest is the body of POST /api/v1/prompt-completion.
type PromptCompletionRequest struct {
	PromptName  string                 `json:"prompt_name"`
	Variables   map[string]interface{} `json:"variables"`
	Model       string                 `json:"model"`
	Temperature *float64               `json:"temperature"`
	SessionID   string                 `json:"session_id"`
	UserID      string                 `json:"user_id"`
}

func (r *PromptCompletionRequest) Validate() error {
	if r.PromptName == "" {
		return apperr.Validation("prompt_name is required")
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return apperr.Validation("temperature must be between 0.0 and 2.0")
	}
	if len(r.Variables) > maxMetadataKeys {
		return apperr.Validation("variables must not exceed %d keys", maxMetadataKeys)
	}
	return nil
}

// PromptCompletionResponse mirrors ChatResponse plus the resolved template.
type PromptCompletionResponse struct {
	Response      string `json:"response"`
	PromptName    string `json:"prompt_name"`
	PromptVersion int    `json:"prompt_version,omitempty"`
	SessionID     string `json:"session_id"`
	TraceID       string `json:"trace_id"`
	Model         string `json:"model"`
	Usage         Usage  `json:"usage"`
	LatencyMS     int64  `json:"latency_ms"`
}

// EvaluationRequest is the body of POST /api/v1/evaluate.
type EvaluationRequest struct {
	TraceID  string `json:"trace_id"`
	Criteria string `json:"criteria"`
}

func (r *EvaluationRequest) Validate() error {
	if r.TraceID == "" {
		return apperr.Validation("trace_id is required")
	}
	if r.Criteria == "" {
		return apperr.Validation("criteria is required")
	}
	return nil
}

// EvaluationResponse reports a recorded judge verdict.
type EvaluationResponse struct {
	TraceID  string  `json:"trace_id"`
	Criteria string  `json:"criteria"`
	Score    float64 `json:"score"`
	Model    string  `json:"model"`
}

// EventRequest is the body of POST /api/v1/event.
type EventRequest struct {
	Name     string                 `json:"name"`
	TraceID  string                 `json:"trace_id"`
	Level    string                 `json:"level"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (r *EventRequest) Validate() error {
	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	if r.Level == "" {
		r.Level = "DEFAULT"
	}
	if !validEventLevels[r.Level] {
		return apperr.Validation("invalid level %q", r.Level)
	}
	return validateMetadata(r.Metadata)
}

// SessionResponse summarizes a stored session.
type SessionResponse struct {
	SessionID  string         `json:"session_id"`
	TraceCount int            `json:"trace_count"`
	Traces     []TraceSummary `json:"traces"`
}

// TraceSummary is one trace row in a session summary.
type TraceSummary struct {
	TraceID   string `json:"trace_id"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp,omitempty"`
}

// validateMetadata bounds open metadata mappings by size and nesting depth.
func validateMetadata(metadata map[string]interface{}) error {
	if len(metadata) > maxMetadataKeys {
		return apperr.Validation("metadata must not exceed %d keys", maxMetadataKeys)
	}
	for key, value := range metadata {
		if depth(value, 1) > 4 {
			return apperr.Validation("metadata value %q is nested too deeply", key)
		}
	}
	return nil
}

func depth(value interface{}, level int) int {
	max := level
	switch v := value.(type) {
	case map[string]interface{}:
		for _, nested := range v {
			if d := depth(nested, level+1); d > max {
				max = d
			}
		}
	case []interface{}:
		for _, nested := range v {
			if d := depth(nested, level+1); d > max {
				max = d
			}
		}
	}
	return max
}
