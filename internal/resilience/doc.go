// Package resilience provides a circuit breaker guarding outbound calls.
//
// Both upstreams (the chat-completion provider and the tracing backend) sit
// behind a breaker so a dead upstream fails fast instead of tying up
// request handlers in timeouts.
//
// States: Closed (normal), Open (failing fast), Half-Open (probing).
//
//	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
package resilience
