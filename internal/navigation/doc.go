// Package navigation resolves the next and previous segment for a story.
//
// Forward movement is branch-first: the active segment's branches are tried
// in order and the first one whose target exists and whose condition holds
// is followed. When no branch applies, forward movement falls back to the
// display order. Backward movement always retraces the display order, even
// after a branch jump.
//
// Branch conditions are Lua expressions evaluated against the story
// variables. An empty condition always holds.
package navigation
