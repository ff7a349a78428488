package query

import (
	"errors"
	"fmt"

	"github.com/kasuboski/imdbidx/pkg/invindex"
	"github.com/kasuboski/imdbidx/pkg/store"
)

// Kind classifies a query-engine failure (§7).
type Kind string

const (
	KindIO              Kind = "io"
	KindParse           Kind = "parse"
	KindIndexFormat     Kind = "index_format"
	KindIndexIncomplete Kind = "index_incomplete"
	KindLockBusy        Kind = "lock_busy"
	KindNotFound        Kind = "not_found"
	KindUnknownParent   Kind = "unknown_parent"
	KindEmptyQuery      Kind = "empty_query"
	KindConfigInvalid   Kind = "config_invalid"
)

// Error is the structured failure every public operation returns instead
// of logging or panicking (§7): callers classify it with errors.Is against
// the Err* sentinels or by inspecting Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("query: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Sentinel errors usable with errors.Is. KindIO, KindParse and
// KindConfigInvalid have no sentinel; match those through Error.Kind.
var (
	ErrEmptyQuery      = errors.New("query: empty query text")
	ErrUnknownParent   = errors.New("query: unknown parent title")
	ErrNotFound        = store.ErrNotFound
	ErrIndexFormat     = invindex.ErrIndexFormat
	ErrIndexIncomplete = invindex.ErrIndexIncomplete
	ErrLockBusy        = invindex.ErrLockBusy
)

// classify maps a lower-layer error to its query Kind, preferring the most
// specific sentinel it matches.
func classify(err error) Kind {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, invindex.ErrIndexFormat):
		return KindIndexFormat
	case errors.Is(err, invindex.ErrIndexIncomplete):
		return KindIndexIncomplete
	case errors.Is(err, invindex.ErrLockBusy):
		return KindLockBusy
	default:
		return KindIO
	}
}
