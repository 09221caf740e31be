package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/langfuse"
)

// LogEvent handles POST /api/v1/event. Events with a trace id attach to
// that trace; events without one get a fresh trace of their own so they
// remain queryable in the backend.
func (h *Handlers) LogEvent(c *gin.Context) {
	var req EventRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	traceID := req.TraceID
	if traceID == "" {
		trace := h.tracer.StartTrace(req.Name, langfuse.TraceOptions{
			Metadata: langfuse.Metadata(req.Metadata),
			Tags:     []string{"api", "event"},
		})
		traceID = trace.ID
	}

	h.tracer.RecordEvent(traceID, langfuse.EventRecord{
		Name:     req.Name,
		Level:    req.Level,
		Metadata: langfuse.Metadata(req.Metadata),
	})
	h.logEvent(req)

	c.JSON(http.StatusOK, gin.H{
		"status":   "logged",
		"trace_id": traceID,
	})
}

// logEvent mirrors the event into the process log with metadata as fields.
func (h *Handlers) logEvent(req EventRequest) {
	fields := make([]zap.Field, 0, len(req.Metadata)+1)
	fields = append(fields, zap.String("event", req.Name))
	for key, value := range req.Metadata {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch req.Level {
	case "ERROR":
		h.logger.Error("client event", fields...)
	case "WARNING":
		h.logger.Warn("client event", fields...)
	case "DEBUG":
		h.logger.Debug("client event", fields...)
	default:
		h.logger.Info("client event", fields...)
	}
}
