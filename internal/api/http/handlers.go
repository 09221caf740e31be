package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/judge"
	"github.com/observekit/llm-gateway/internal/langfuse"
	"github.com/observekit/llm-gateway/internal/logging"
	"github.com/observekit/llm-gateway/internal/openai"
	"github.com/observekit/llm-gateway/internal/templates"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Tracer is the tracing adapter surface the handlers use. *langfuse.Client
// satisfies it.
type Tracer interface {
	StartTrace(name string, opts langfuse.TraceOptions) *langfuse.Trace
	SetTraceOutput(t *langfuse.Trace, output interface{})
	RecordGeneration(t *langfuse.Trace, rec langfuse.GenerationRecord)
	RecordScore(traceID, name string, value float64, comment string)
	RecordEvent(traceID string, rec langfuse.EventRecord)
	GetTrace(ctx context.Context, traceID string) (*langfuse.TraceDetail, error)
	GetSession(ctx context.Context, sessionID string) (*langfuse.Session, error)
}

// Provider is the chat-completion surface. *openai.Client satisfies it.
type Provider interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (*openai.Completion, error)
	DefaultModel() string
}

// Evaluator scores a recorded generation. *judge.Judge satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, criteria string, input, output interface{}) (*judge.Result, error)
}

// TemplateResolver resolves named prompt templates. *templates.Registry
// satisfies it.
type TemplateResolver interface {
	Resolve(ctx context.Context, name string) (*templates.Template, error)
}

// Handlers holds the adapters behind every endpoint. All dependencies are
// injected at startup; handlers keep no per-request state.
type Handlers struct {
	tracer    Tracer
	provider  Provider
	judge     Evaluator
	templates TemplateResolver
	logger    *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(tracer Tracer, provider Provider, evaluator Evaluator, resolver TemplateResolver, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracer:    tracer,
		provider:  provider,
		judge:     evaluator,
		templates: resolver,
		logger:    logger,
	}
}

// Root returns the health payload.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"app":     "llm-gateway",
		"version": Version,
	})
}

// Health is an alias of Root for load balancers probing /health.
func (h *Handlers) Health(c *gin.Context) {
	h.Root(c)
}

// respondError translates a classified error to its HTTP status. Unclassified
// errors become 500s.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperr.As(err)
	if appErr.Code == apperr.CodeInternal || appErr.Code == apperr.CodeProvider {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", string(appErr.Code)),
			zap.Error(err))
	} else {
		h.logger.Debug("request rejected",
			zap.String("path", c.FullPath()),
			zap.String("code", string(appErr.Code)),
			zap.String("message", appErr.Message))
	}

	c.JSON(appErr.HTTPStatus(), gin.H{
		"error": gin.H{
			"code":    string(appErr.Code),
			"message": appErr.Message,
		},
	})
}

// bindJSON decodes the body or rejects the request with a validation error.
func (h *Handlers) bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		h.respondError(c, apperr.Validation("invalid request body: %v", err))
		return false
	}
	return true
}
