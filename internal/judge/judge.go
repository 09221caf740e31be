// Package judge scores a recorded generation against a named criteria by
// asking a second model for a numeric verdict.
package judge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/config"
	"github.com/observekit/llm-gateway/internal/logging"
	"github.com/observekit/llm-gateway/internal/openai"
)

const systemPrompt = "You are an impartial evaluator. Score the assistant " +
	"response against the given criteria. Respond with a single number " +
	"between 0.0 and 1.0 and nothing else."

// CompletionProvider is the LLM call the judge makes. *openai.Client
// satisfies it.
type CompletionProvider interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (*openai.Completion, error)
}

// Result is a parsed judge verdict.
type Result struct {
	Score     float64
	Criteria  string
	Model     string
	RawOutput string
}

// Judge evaluates generations with a dedicated model and temperature.
type Judge struct {
	provider    CompletionProvider
	logger      *logging.Logger
	model       string
	temperature float64
}

// New creates a judge from evaluation configuration.
func New(provider CompletionProvider, cfg config.EvaluationConfig, logger *logging.Logger) *Judge {
	return &Judge{
		provider:    provider,
		logger:      logger,
		model:       cfg.JudgeModel,
		temperature: cfg.JudgeTemperature,
	}
}

// Evaluate asks the judge model to score the input/output pair against
// criteria. An unparsable verdict comes back as an evaluation-parse error.
func (j *Judge) Evaluate(ctx context.Context, criteria string, input, output interface{}) (*Result, error) {
	temp := j.temperature
	completion, err := j.provider.Complete(ctx, openai.CompletionRequest{
		Model:       j.model,
		Temperature: &temp,
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: j.prompt(criteria, input, output)},
		},
	})
	if err != nil {
		return nil, err
	}

	score, err := ParseScore(completion.Text)
	if err != nil {
		j.logger.Warn("unparsable judge verdict",
			zap.String("criteria", criteria),
			zap.String("verdict", completion.Text),
			zap.Error(err))
		return nil, apperr.EvaluationParse(
			fmt.Sprintf("judge output %q is not a score", truncate(completion.Text, 80)), err)
	}

	return &Result{
		Score:     score,
		Criteria:  criteria,
		Model:     completion.Model,
		RawOutput: completion.Text,
	}, nil
}

func (j *Judge) prompt(criteria string, input, output interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Criteria: %s\n\n", criteria)
	fmt.Fprintf(&b, "User input:\n%v\n\n", input)
	fmt.Fprintf(&b, "Assistant response:\n%v\n\n", output)
	b.WriteString("Score (0.0 to 1.0):")
	return b.String()
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// ParseScore extracts a score in [0, 1] from judge output. It tolerates
// surrounding prose ("Score: 0.75") by taking the first number found.
func ParseScore(text string) (float64, error) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no number in %q", text)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, err
	}
	if score < 0 || score > 1 {
		return 0, fmt.Errorf("score %v outside [0, 1]", score)
	}
	return score, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
