// Package persist defines the durable studio state record and the store
// contract its backends implement.
//
// The whole state (story, library, selection, theme and credential) is one
// JSON document saved under a single key after every mutation. Backends live
// in the sqlite and postgres subpackages; Memory is used by tests and
// dry runs.
package persist
