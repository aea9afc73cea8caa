// Package llm provides an OpenAI-compatible chat client used by the translate,
// rewrite and podcast stages.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive free text.
// Client.CompleteJSON: same, with response_format json_object.
// Client.HealthCheck: verify API key and model availability.
// DecodeJSON, StripFence: tolerate fenced or chatty model output.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts and empty
// completions with exponential backoff, honouring Retry-After. Context
// cancellation aborts retries immediately. Other 4xx responses fail at once.
package llm
