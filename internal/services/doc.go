// Package services defines shared utilities consumed by the audio pipeline,
// the rewrite orchestrator and the external speech/text integrations.
//
// Key responsibilities:
//   - Context helpers that stamp segment IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (missing credential, network, empty response, decode) with
//     errors.Is regardless of where it was raised.
//
// Use these helpers when wiring new boundary code so failure reporting stays
// uniform between the CLI and the MCP server.
package services
