// Package story owns the segment graph: the narrative segments, their display
// order, branch edges, story variables and the active selection.
//
// Graph is an explicit, constructible object. Every mutation runs under the
// graph mutex so no two mutations interleave, and every successful mutation
// keeps the display order a permutation of the segment ids. Listeners
// registered with OnChange receive a deep-copied Snapshot after each change,
// which is how the persistence layer keeps the stored state current.
package story
