package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/langfuse"
)

// Evaluate handles POST /api/v1/evaluate. The trace's recorded generation is
// fetched, scored by the judge model, and the verdict recorded under the
// criteria name. Unparsable verdicts fail the request but are kept as an
// event on the trace for later inspection.
func (h *Handlers) Evaluate(c *gin.Context) {
	var req EvaluationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.respondError(c, err)
		return
	}

	trace, err := h.tracer.GetTrace(c.Request.Context(), req.TraceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	input, output := trace.Input, trace.Output
	if gen, ok := trace.Generation(); ok {
		input, output = gen.Input, gen.Output
	}
	if output == nil {
		h.respondError(c, apperr.Validation("trace %q has no recorded generation output", req.TraceID))
		return
	}

	result, err := h.judge.Evaluate(c.Request.Context(), req.Criteria, input, output)
	if err != nil {
		appErr := apperr.As(err)
		if appErr.Code == apperr.CodeEvaluationParse {
			h.tracer.RecordEvent(req.TraceID, langfuse.EventRecord{
				Name:          "evaluation-parse-failure",
				Level:         "ERROR",
				StatusMessage: appErr.Message,
				Metadata:      langfuse.Metadata{"criteria": req.Criteria},
			})
		}
		h.respondError(c, err)
		return
	}

	h.tracer.RecordScore(req.TraceID, result.Criteria, result.Score,
		fmt.Sprintf("judged by %s", result.Model))

	c.JSON(http.StatusOK, EvaluationResponse{
		TraceID:  req.TraceID,
		Criteria: result.Criteria,
		Score:    result.Score,
		Model:    result.Model,
	})
}
