// Package config loads, normalizes, and validates talkpress configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LLM_API_KEY, LLM_BASE_URL and LLM_MODEL. The Config type centralizes every
// knob the pipeline and CLI need.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
