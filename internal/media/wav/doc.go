// Package wav wraps raw linear PCM in a minimal RIFF/WAVE container.
//
// Encode writes the canonical 44-byte header (PCM format tag 1, a single
// "fmt " chunk and a single "data" chunk) followed by the samples unchanged.
// ParseHeader reads that header back so stored blobs can be verified before
// they are handed to a player.
package wav
