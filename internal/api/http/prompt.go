package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/observekit/llm-gateway/internal/langfuse"
	"github.com/observekit/llm-gateway/internal/openai"
	"github.com/observekit/llm-gateway/internal/shared/id"
	"github.com/observekit/llm-gateway/internal/templates"
)

// PromptCompletion handles POST /api/v1/prompt-completion. The named
// template is resolved, variables substituted, and the rendered prompt
// forwarded to the provider like a single-message chat.
func (h *Handlers) PromptCompletion(c *gin.Context) {
	var req PromptCompletionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	tpl, err := h.templates.Resolve(c.Request.Context(), req.PromptName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	prompt := templates.Substitute(tpl.Text, stringVariables(req.Variables))

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = id.NewSessionID().String()
	}
	model := req.Model
	if model == "" {
		model = h.provider.DefaultModel()
	}

	trace := h.tracer.StartTrace("prompt_completion", langfuse.TraceOptions{
		UserID:    req.UserID,
		SessionID: sessionID,
		Input: langfuse.Metadata{
			"prompt_name": req.PromptName,
			"variables":   req.Variables,
			"prompt":      prompt,
		},
		Tags: []string{"api", "prompt"},
	})

	messages := []openai.Message{{Role: "user", Content: prompt}}
	start := time.Now()
	completion, err := h.provider.Complete(c.Request.Context(), openai.CompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		h.tracer.RecordEvent(trace.ID, langfuse.EventRecord{
			Name:          "provider-error",
			Level:         "ERROR",
			StatusMessage: err.Error(),
			Metadata:      langfuse.Metadata{"model": model, "prompt_name": req.PromptName},
		})
		h.respondError(c, err)
		return
	}

	h.tracer.RecordGeneration(trace, langfuse.GenerationRecord{
		Name:          "prompt-completion",
		Model:         completion.Model,
		Input:         messages,
		Output:        completion.Text,
		PromptName:    tpl.Name,
		PromptVersion: tpl.Version,
		ModelParameters: langfuse.Metadata{
			"temperature": req.Temperature,
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
	h.tracer.SetTraceOutput(trace, langfuse.Metadata{"response": completion.Text})

	c.JSON(http.StatusOK, PromptCompletionResponse{
		Response:      completion.Text,
		PromptName:    tpl.Name,
		PromptVersion: tpl.Version,
		SessionID:     sessionID,
		TraceID:       trace.ID,
		Model:         completion.Model,
		Usage: Usage{
			PromptTokens:     completion.PromptTokens,
			CompletionTokens: completion.CompletionTokens,
			TotalTokens:      completion.TotalTokens,
		},
		LatencyMS: completion.Latency.Milliseconds(),
	})
}

func stringVariables(vars map[string]interface{}) map[string]string {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[string]string, len(vars))
	for name, value := range vars {
		switch v := value.(type) {
		case string:
			out[name] = v
		default:
			out[name] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
