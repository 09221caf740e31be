package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSession handles GET /api/v1/sessions/:id with a summary of the
// session's traces.
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	session, err := h.tracer.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	traces := make([]TraceSummary, len(session.Traces))
	for i, trace := range session.Traces {
		summary := TraceSummary{
			TraceID: trace.ID,
			Name:    trace.Name,
		}
		if !trace.Timestamp.IsZero() {
			summary.Timestamp = trace.Timestamp.UTC().Format(time.RFC3339)
		}
		traces[i] = summary
	}

	c.JSON(http.StatusOK, SessionResponse{
		SessionID:  session.ID,
		TraceCount: len(traces),
		Traces:     traces,
	})
}
