// Package ingest turns scanned-page manifests into story segments.
//
// Text recognition happens outside the studio; a manifest lists the
// already-extracted text, mood and page image for each page. Every entry is
// recorded in the library, and entries that validate become segments via
// the graph's ingestion constructor.
package ingest
