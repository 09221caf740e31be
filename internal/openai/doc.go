// Package openai is the chat-completion provider adapter.
//
// Complete makes exactly one upstream attempt per call; retry policy belongs
// to the caller. A circuit breaker fails fast once the provider has been
// failing consecutively, so a dead upstream does not tie up handlers in
// timeouts. All failures surface as provider-class errors.
package openai
