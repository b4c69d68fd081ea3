// Package config loads, normalizes, and validates studio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides such as
// GEMINI_API_KEY. The Config type centralizes every knob the CLI and the MCP
// server need, so data directories, the storage backend and the speech/text
// service credentials are discovered in one pass.
package config
