// Package llm provides an OpenRouter-compatible chat client used to translate
// subtitle batches.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Translate: translate a block of captions, one caption per line.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts and empty
// replies with a fixed delay (3 attempts, 5s apart by default; a Retry-After
// header wins when present). Context cancellation aborts retries immediately.
// The final error carries services.ErrTransient, or services.ErrConfiguration
// when the provider rejects the credentials.
package llm
