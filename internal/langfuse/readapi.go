package langfuse

import (
	"context"
	"fmt"
	"net/http"

	"github.com/observekit/llm-gateway/internal/apperr"
)

// GetTrace fetches a stored trace with its observations.
func (c *Client) GetTrace(ctx context.Context, traceID string) (*TraceDetail, error) {
	var trace TraceDetail
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&trace).
		SetPathParam("traceID", traceID).
		Get("/traces/{traceID}")
	if err != nil {
		return nil, apperr.Provider("tracing backend unreachable", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("trace", traceID)
	}
	if resp.IsError() {
		return nil, apperr.Provider(
			fmt.Sprintf("tracing backend returned %d", resp.StatusCode()), nil)
	}
	return &trace, nil
}

// GetSession fetches a stored session with its traces.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&session).
		SetPathParam("sessionID", sessionID).
		Get("/sessions/{sessionID}")
	if err != nil {
		return nil, apperr.Provider("tracing backend unreachable", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("session", sessionID)
	}
	if resp.IsError() {
		return nil, apperr.Provider(
			fmt.Sprintf("tracing backend returned %d", resp.StatusCode()), nil)
	}
	return &session, nil
}

// GetPrompt fetches the latest production version of a managed prompt.
func (c *Client) GetPrompt(ctx context.Context, name string) (*Prompt, error) {
	var prompt Prompt
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&prompt).
		SetPathParam("name", name).
		Get("/v2/prompts/{name}")
	if err != nil {
		return nil, apperr.Provider("tracing backend unreachable", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperr.NotFound("prompt", name)
	}
	if resp.IsError() {
		return nil, apperr.Provider(
			fmt.Sprintf("tracing backend returned %d", resp.StatusCode()), nil)
	}
	return &prompt, nil
}
