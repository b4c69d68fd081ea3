// Package preflight provides readiness checks for the filesystem paths,
// the speech service and the local fallback command the studio depends on.
//
// The CLI "zenstudio status" command runs RunAll and prints one line per
// check. A failing check never blocks editing; it only explains why audio
// or rewrites will fall back.
package preflight
