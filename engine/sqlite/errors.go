package sqlite

import (
	"database/sql"
	"errors"
	"io/fs"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

var (
	// ErrNotStore is returned when a database has no sofa meta row.
	ErrNotStore  = errors.New("database is not a sofa store")
	ErrInvalidID = errors.New("invalid document id")
)

// status maps an internal error onto the engine status family.
func status(err error) engine.Status {
	var se sqlite3.Error
	switch {
	case err == nil:
		return engine.StatusOK
	case errors.Is(err, fs.ErrNotExist):
		return engine.StatusNoSuchFile
	case errors.Is(err, sql.ErrNoRows):
		return engine.StatusDocNotFound
	case errors.Is(err, ErrNotStore):
		return engine.StatusNoHeader
	case errors.Is(err, ErrInvalidID), errors.Is(err, codec.ErrUnknownCodec):
		return engine.StatusInvalidArguments
	case errors.Is(err, codec.ErrDecompress):
		return engine.StatusCorrupt
	case errors.Is(err, sql.ErrConnDone), errors.Is(err, sql.ErrTxDone):
		return engine.StatusFileClosed
	case errors.As(err, &se):
		return code(se.Code)
	default:
		return engine.StatusRead
	}
}

// code maps a SQLite primary result code.
func code(c sqlite3.ErrNo) engine.Status {
	switch c {
	case sqlite3.ErrNomem:
		return engine.StatusAllocFail
	case sqlite3.ErrReadonly:
		return engine.StatusReadOnly
	case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
		return engine.StatusCorrupt
	case sqlite3.ErrCantOpen, sqlite3.ErrPerm, sqlite3.ErrBusy, sqlite3.ErrLocked:
		return engine.StatusOpenFile
	case sqlite3.ErrFull, sqlite3.ErrIoErr:
		return engine.StatusWrite
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrTooBig, sqlite3.ErrRange:
		return engine.StatusInvalidArguments
	default:
		return engine.StatusRead
	}
}
