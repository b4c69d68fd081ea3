// Package gemini talks to the Gemini generateContent endpoint for speech
// synthesis and text rewriting.
//
// The client performs a single attempt per call. Failures are tagged with the
// services error markers: transport errors and non-2xx statuses carry
// ErrNetwork, responses without a usable part carry ErrEmptyResponse, and
// malformed bodies carry ErrDecode. The credential is passed per call so the
// caller can resolve it from studio state at the time of the request.
package gemini
