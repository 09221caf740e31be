package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/observekit/llm-gateway/internal/api/http"
	"github.com/observekit/llm-gateway/internal/api/middleware"
	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/judge"
	"github.com/observekit/llm-gateway/internal/langfuse"
	"github.com/observekit/llm-gateway/internal/logging"
	"github.com/observekit/llm-gateway/internal/monitoring"
	"github.com/observekit/llm-gateway/internal/openai"
	"github.com/observekit/llm-gateway/internal/templates"
)

// templatesFile is picked up from the working directory when present.
const templatesFile = "templates.yaml"

// Server wraps the HTTP server and the adapters behind it.
type Server struct {
	cfg    *config.Config
	logger *logging.Logger
	router *gin.Engine
	http   *http.Server
	tracer *langfuse.Client
}

// New constructs the full gateway: tracing client, provider client, judge,
// template registry, middleware stack, and routes.
func New(cfg *config.Config, logger *logging.Logger) *Server {
	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := monitoring.NewMetrics()
	tracer := langfuse.New(cfg.Langfuse, logger, metrics)
	provider := openai.New(cfg.OpenAI, logger, metrics)
	evaluator := judge.New(provider, cfg.Evaluation, logger)

	registry := templates.NewRegistry(tracer, logger)
	if _, err := os.Stat(templatesFile); err == nil {
		if err := registry.LoadFile(templatesFile); err != nil {
			logger.Warn("ignoring local templates file", zap.Error(err))
		}
	}

	handlers := apihttp.NewHandlers(tracer, provider, evaluator, registry, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", handlers.Chat)
		v1.POST("/feedback", handlers.Feedback)
		v1.POST("/prompt-completion", handlers.PromptCompletion)
		v1.POST("/evaluate", handlers.Evaluate)
		v1.GET("/sessions/:id", handlers.GetSession)
		v1.POST("/event", handlers.LogEvent)
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		tracer: tracer,
	}
}

// Router exposes the configured engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	s.logger.Info("server listening", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests, then
// drains the tracing buffer within the configured flush timeout. The drain
// happens once per process regardless of how often Shutdown is called.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	if s.http != nil {
		shutdownErr = s.http.Shutdown(ctx)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Langfuse.FlushTimeout)
	defer cancel()
	if err := s.tracer.Close(flushCtx); err != nil {
		s.logger.Error("failed to drain tracing buffer", zap.Error(err))
	}

	return shutdownErr
}
