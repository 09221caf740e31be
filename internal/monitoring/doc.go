// Package monitoring provides Prometheus metrics for the gateway.
//
// Metrics cover the HTTP surface (request counts, durations, sizes), the
// chat-completion provider (calls, latency, token usage), and the tracing
// backend (ingestion events buffered/sent/dropped, scores recorded).
package monitoring
