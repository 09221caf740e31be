// Package config provides 12-factor configuration management for the gateway.
//
// Configuration is loaded from environment variables with sensible defaults.
// Credentials for both upstreams are required and checked at startup via
// Validate; everything else has a working default.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - OpenAI: chat-completion provider settings (key, base URL, model, timeout)
//   - Langfuse: tracing backend settings (keys, host, flush tuning)
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//   - Evaluation: LLM-as-judge model settings
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - SERVER_PORT, SERVER_HOST
//   - OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_DEFAULT_MODEL, OPENAI_TIMEOUT
//   - LANGFUSE_PUBLIC_KEY, LANGFUSE_SECRET_KEY, LANGFUSE_HOST
//   - LOG_LEVEL, DEBUG
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
