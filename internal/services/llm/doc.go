// Package llm talks to the text-generation backends used during analysis.
//
// Every backend implements Generator: one prompt in, one completion out,
// with token usage when the backend reports it. Three providers exist:
//
//   - OpenRouter: hosted chat-completions over plain HTTP, with retry and
//     exponential backoff on 408/429/5xx and network timeouts.
//   - OpenAI: hosted chat-completions through the official SDK.
//   - Ollama: a local model server. Before a job starts the model is probed
//     (listed in /api/tags, then a tiny warm-up generation). The probe is
//     skipped while the model is still inside its keep-alive window.
//
// New builds the configured provider from a *config.Config. Estimated cost
// is filled from the pricing table when the backend does not report one.
//
// Generators never retry on empty text. Deciding whether an empty or
// refused completion is worth another attempt belongs to the caller.
package llm
