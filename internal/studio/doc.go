// Package studio assembles a working editing session: the segment graph,
// library, persistence, asset store, navigation, audio pipeline and rewrite
// orchestrator, all sharing one lease table.
//
// Every graph or library mutation is saved through the configured store.
// Theme and credential settings live in the same persisted record; a stored
// credential takes precedence over the configured API key.
package studio
