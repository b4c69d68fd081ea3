// Package audiogen turns segment text into stored WAV narration.
//
// EnsureAudio is idempotent per segment: a segment whose audio URI still
// resolves in the asset store is returned as Cached without touching the
// network. Every failure path yields FallbackRequired carrying the text so
// the caller can speak it with a local engine. The segment's audio URI is
// only written after the blob is safely stored.
package audiogen
