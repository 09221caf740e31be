// Package templates resolves named prompt templates.
//
// Resolution order: the tracing backend's prompt store, then templates loaded
// from an optional local YAML file, then the built-in set. Store lookups that
// fail for reasons other than not-found fall through to the local set so a
// degraded backend does not break prompt completion.
package templates

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/observekit/llm-gateway/internal/apperr"
	"github.com/observekit/llm-gateway/internal/langfuse"
	"github.com/observekit/llm-gateway/internal/logging"
)

// Template is a resolved prompt template ready for substitution.
type Template struct {
	Name    string
	Version int
	Text    string
	Source  string // "store", "file", or "builtin"
}

// PromptStore is the remote prompt lookup. *langfuse.Client satisfies it.
type PromptStore interface {
	GetPrompt(ctx context.Context, name string) (*langfuse.Prompt, error)
}

// builtin mirrors the default template set shipped with the gateway.
var builtin = map[string]string{
	"summarize":   "Summarize the following text in a concise manner:\n\n{text}",
	"translate":   "Translate the following text to {target_language}:\n\n{text}",
	"explain":     "Explain the following concept in simple terms:\n\n{concept}",
	"code_review": "Review the following code and provide suggestions:\n\n{code}",
}

// Registry resolves template names against the store and the local set.
type Registry struct {
	store  PromptStore
	local  map[string]string
	logger *logging.Logger
}

// NewRegistry creates a registry. A nil store limits resolution to the local
// set.
func NewRegistry(store PromptStore, logger *logging.Logger) *Registry {
	local := make(map[string]string, len(builtin))
	for name, text := range builtin {
		local[name] = text
	}
	return &Registry{store: store, local: local, logger: logger}
}

// LoadFile merges templates from a YAML file of name-to-text mappings into
// the local set, overriding built-ins of the same name.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}

	var loaded map[string]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse templates file: %w", err)
	}

	for name, text := range loaded {
		r.local[name] = text
	}
	r.logger.Info("loaded local templates",
		zap.String("path", path), zap.Int("count", len(loaded)))
	return nil
}

// Resolve returns the template for name, or a not-found error.
func (r *Registry) Resolve(ctx context.Context, name string) (*Template, error) {
	if r.store != nil {
		prompt, err := r.store.GetPrompt(ctx, name)
		switch {
		case err == nil:
			return &Template{
				Name:    prompt.Name,
				Version: prompt.Version,
				Text:    prompt.Prompt,
				Source:  "store",
			}, nil
		case apperr.IsNotFound(err):
			// fall through to the local set
		default:
			r.logger.Warn("prompt store lookup failed, using local templates",
				zap.String("template", name), zap.Error(err))
		}
	}

	if text, ok := r.local[name]; ok {
		source := "file"
		if builtinText, isBuiltin := builtin[name]; isBuiltin && builtinText == text {
			source = "builtin"
		}
		return &Template{Name: name, Text: text, Source: source}, nil
	}
	return nil, apperr.NotFound("template", name)
}

// Substitute replaces {{var}} and {var} placeholders with values from vars.
// Placeholders without a matching variable are left intact.
func Substitute(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	pairs := make([]string, 0, len(vars)*4)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
