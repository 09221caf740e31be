// Package http contains the gateway's request handlers.
//
// Handlers validate input, call the provider and tracing adapters through
// narrow interfaces, and translate classified errors to HTTP statuses.
// Validation failures never reach an adapter; tracing writes are fire-and-
// forget and cannot fail a request.
package http
