// Package assetcache stores generated audio blobs on disk and resolves the
// asset:// URIs that segments reference.
//
// Blobs are content addressed: the file name carries the segment id and a
// sha256 prefix, so regenerating identical audio reuses the same URI. Writes
// go through a temp file and rename so a reader never observes a partial
// blob. Prune removes blobs no longer referenced by any segment.
package assetcache
