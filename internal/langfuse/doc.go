// Package langfuse is the tracing backend adapter.
//
// The write path (traces, generations, scores, events) goes through a
// buffered batch ingestion client: records are enqueued in memory and
// delivered to POST /api/public/ingestion by a background flush loop.
// Write failures are logged and counted but never surfaced to request
// handlers; observability is best-effort.
//
// The read path (GetTrace, GetSession, GetPrompt) is a synchronous
// pass-through to the corresponding public API endpoints and maps backend
// 404s onto the gateway's not-found error class.
//
// Flush drains the buffer synchronously and is invoked once at shutdown so
// buffered records are not lost on exit.
package langfuse
