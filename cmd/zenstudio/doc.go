// Package main hosts the zenstudio CLI entrypoint and command graph.
//
// Every command opens the configured studio session, performs one operation
// against the story graph, library or asset cache, and closes the session so
// the change is persisted before exit. "zenstudio serve" keeps the session
// open and exposes the same operations as MCP tools over stdio.
//
// Keep this package lean: add behaviour to the internal packages first and
// surface it here through dedicated commands or flags.
package main
