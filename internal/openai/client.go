package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/logging"
	"github.com/observekit/llm-gateway/internal/resilience"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat-completion call. A nil Temperature
// leaves the provider default in effect.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// Completion is the result of a successful chat-completion call.
type Completion struct {
	Text             string
	Model            string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Latency          time.Duration
}

// MetricsRecorder receives provider call measurements. Nil disables them.
type MetricsRecorder interface {
	RecordProviderCall(model, status string, duration time.Duration)
	RecordProviderError(model, errorType string)
	RecordTokenUsage(model string, promptTokens, completionTokens int)
}

// Client calls the provider's chat-completions endpoint.
type Client struct {
	http         *resty.Client
	logger       *logging.Logger
	metrics      MetricsRecorder
	breaker      *resilience.Breaker
	defaultModel string
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// New creates a provider client from configuration.
func New(cfg config.OpenAIConfig, logger *logging.Logger, metrics MetricsRecorder) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{
		http:    http,
		logger:  logger,
		metrics: metrics,
		breaker: resilience.New("openai", resilience.Settings{
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
		defaultModel: cfg.DefaultModel,
	}
}

// DefaultModel returns the model used when a request does not name one.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// Complete performs one chat-completion call. Any failure comes back as a
// provider-class error carrying the upstream detail.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, model, req)
	})
	latency := time.Since(start)

	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordProviderCall(model, "error", latency)
			c.metrics.RecordProviderError(model, errorType(err))
		}
		c.logger.Warn("chat completion failed",
			zap.String("model", model),
			zap.Duration("latency", latency),
			zap.Error(err))
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			return nil, apperr.Provider("chat completion provider unavailable", err)
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperr.Provider("chat completion request failed", err)
	}

	completion := result.(*Completion)
	completion.Latency = latency

	if c.metrics != nil {
		c.metrics.RecordProviderCall(model, "success", latency)
		c.metrics.RecordTokenUsage(model, completion.PromptTokens, completion.CompletionTokens)
	}
	c.logger.Debug("chat completion succeeded",
		zap.String("model", completion.Model),
		zap.Int("total_tokens", completion.TotalTokens),
		zap.Duration("latency", latency))
	return completion, nil
}

// complete is the single-attempt call body run inside the breaker.
func (c *Client) complete(ctx context.Context, model string, req CompletionRequest) (*Completion, error) {
	var (
		result  chatResponse
		callErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}).
		SetResult(&result).
		SetError(&callErr).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		message := callErr.Error.Message
		if message == "" {
			message = resp.String()
		}
		return nil, apperr.Provider(
			fmt.Sprintf("provider returned %d: %s", resp.StatusCode(), message), nil)
	}

	if len(result.Choices) == 0 {
		return nil, apperr.Provider("provider returned no choices", nil)
	}

	return &Completion{
		Text:             result.Choices[0].Message.Content,
		Model:            result.Model,
		FinishReason:     result.Choices[0].FinishReason,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
	}, nil
}

// errorType buckets an error for the provider error counter.
func errorType(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return "circuit_open"
	case apperr.IsProvider(err):
		return "upstream"
	default:
		return "transport"
	}
}
