package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Feedback handles POST /api/v1/feedback. The trace must already exist;
// scoring an unknown trace is a 404, never a silent create.
func (h *Handlers) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	// Ingestion is asynchronous, so existence has to be checked against the
	// backend's read API before the score is enqueued.
	if _, err := h.tracer.GetTrace(c.Request.Context(), req.TraceID); err != nil {
		h.respondError(c, err)
		return
	}

	h.tracer.RecordScore(req.TraceID, req.Name, *req.Score, req.Comment)

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"trace_id": req.TraceID,
		"name":     req.Name,
		"score":    *req.Score,
	})
}
