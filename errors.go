// Package sofa provides a single-writer document store with revision
// metadata and a change feed.
//
// Every saved record gets a sequence number from a store-wide counter that
// only increases, and a revision sequence that increases by one each time
// its id is saved again. Deletion saves a tombstone: the id keeps its
// metadata and stays visible in the change feed, but its body is gone.
// ForEachChange replays every current record after a given sequence, in
// order, which is how a consumer catches up with a store.
//
// Persistence is delegated to an engine behind the engine package's
// boundary. The default engine (engine/jsonl) keeps a store in one
// append-only file; engine/sqlite keeps it in a SQLite database. Saves are
// visible to the handle at once and durable after Commit.
package sofa

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jpl-au/sofa/engine"
)

// Sentinel errors for programmatic handling. Callers use errors.Is to tell
// them apart; engine failures without a sentinel surface as *StorageError.
var (
	ErrNotFound     = errors.New("document not found")
	ErrOutOfMemory  = errors.New("out of memory")
	ErrPathNotFound = fmt.Errorf("store path not found: %w", fs.ErrNotExist)
	ErrReadOnly     = errors.New("store is read-only")

	// ErrUsage marks a call the API does not allow in the current state.
	// The errors below all satisfy errors.Is(err, ErrUsage).
	ErrUsage           = errors.New("usage error")
	ErrClosed          = fmt.Errorf("%w: store is closed", ErrUsage)
	ErrIterating       = fmt.Errorf("%w: change iteration already running", ErrUsage)
	ErrContentsUnknown = fmt.Errorf("%w: contents unknown", ErrUsage)
	ErrStaleToken      = fmt.Errorf("%w: body token outlived its store state", ErrUsage)
	ErrInvalidID       = fmt.Errorf("%w: document id is empty", ErrUsage)
)

// StorageError is an engine failure with no more specific sentinel.
type StorageError struct {
	Op      string        // store operation that failed
	Code    engine.Status // engine status code
	Message string        // engine description of Code
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sofa: %s: %s (status %d)", e.Op, e.Message, int(e.Code))
}

// check maps an engine status onto the error taxonomy. It is the only
// place engine statuses are interpreted.
func check(e engine.Engine, op string, s engine.Status) error {
	switch s {
	case engine.StatusOK:
		return nil
	case engine.StatusAllocFail:
		return ErrOutOfMemory
	case engine.StatusDocNotFound:
		return ErrNotFound
	case engine.StatusNoSuchFile:
		return ErrPathNotFound
	case engine.StatusReadOnly:
		return ErrReadOnly
	default:
		return &StorageError{Op: op, Code: s, Message: e.Describe(s)}
	}
}
