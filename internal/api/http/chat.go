package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/observekit/llm-gateway/internal/langfuse"
	"github.com/observekit/llm-gateway/internal/openai"
	"github.com/observekit/llm-gateway/internal/shared/id"
)

// Chat handles POST /api/v1/chat. One call, one trace: the trace opens
// before the provider call and records the outcome on every exit path.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = id.NewSessionID().String()
	}
	model := req.Model
	if model == "" {
		model = h.provider.DefaultModel()
	}

	messages := toProviderMessages(req.Messages)
	trace := h.tracer.StartTrace("chat_completion", langfuse.TraceOptions{
		UserID:    req.UserID,
		SessionID: sessionID,
		Input: langfuse.Metadata{
			"messages":   messages,
			"model":      model,
			"max_tokens": req.MaxTokens,
		},
		Metadata: langfuse.Metadata(req.Metadata),
		Tags:     []string{"api", "chat"},
	})

	start := time.Now()
	completion, err := h.provider.Complete(c.Request.Context(), openai.CompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		h.tracer.RecordEvent(trace.ID, langfuse.EventRecord{
			Name:          "provider-error",
			Level:         "ERROR",
			StatusMessage: err.Error(),
			Metadata:      langfuse.Metadata{"model": model},
		})
		h.respondError(c, err)
		return
	}

	h.tracer.RecordGeneration(trace, langfuse.GenerationRecord{
		Name:   "chat-completion",
		Model:  completion.Model,
		Input:  messages,
		Output: completion.Text,
		ModelParameters: langfuse.Metadata{
			"temperature": req.Temperature,
			"max_tokens":  req.MaxTokens,
		},
		Usage: &langfuse.Usage{
			Input:  completion.PromptTokens,
			Output: completion.CompletionTokens,
			Total:  completion.TotalTokens,
			Unit:   "TOKENS",
		},
		StartTime: start,
		EndTime:   time.Now(),
	})
	h.tracer.SetTraceOutput(trace, langfuse.Metadata{
		"response": completion.Text,
		"model":    completion.Model,
	})

	c.JSON(http.StatusOK, ChatResponse{
		Response:  completion.Text,
		SessionID: sessionID,
		TraceID:   trace.ID,
		Model:     completion.Model,
		Usage: Usage{
			PromptTokens:     completion.PromptTokens,
			CompletionTokens: completion.CompletionTokens,
			TotalTokens:      completion.TotalTokens,
		},
		LatencyMS: completion.Latency.Milliseconds(),
	})
}

func toProviderMessages(messages []ChatMessage) []openai.Message {
	out := make([]openai.Message, len(messages))
	for i, msg := range messages {
		out[i] = openai.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}
