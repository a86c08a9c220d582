// Package config loads, normalizes, and validates clippy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY, OPENAI_API_KEY, and OLLAMA_HOST. The Config type holds
// every knob the analysis engine and CLI need: LLM provider selection, the
// pipeline tuning constants, category definitions, and log settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
