// Package store is the on-disk record layer: append-only, length-prefixed
// record files paired with sorted binary id indexes, memory-mapped for
// query-time lookup without loading the dataset into the process heap.
//
// Every record type gets a "<name>.bin" holding records in ingest order.
// Titles, ratings and episodes pair it with a "<name>.idx" of fixed-width
// (id, offset) pairs sorted by id for binary search, and episodes also get
// "episodes.byshow.idx", a range index keyed by their parent show. Alternate
// names have no id of their own: "akas.idx" is a range index keyed by the
// owning title. "names.idx" is a positional offset table indexed by the
// sequential name-entry id.
package store

import "fmt"

// ErrNotFound is returned by a Get when no record matches the requested id.
var ErrNotFound = fmt.Errorf("store: not found")
