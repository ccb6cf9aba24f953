// Package jsonl is the default sofa storage engine: an append-only file of
// newline-delimited JSON records behind a fixed-size header.
//
// Every save appends one line per record version. The header records the
// last committed sequence and the byte offset where the committed region
// ends; Commit fsyncs the appended lines and then patches the header in
// place. Anything past the committed end belongs to a session that never
// committed and is discarded the next time the file is opened for writing.
//
// The by-id and by-sequence indexes live in memory and are rebuilt from the
// committed region on Open. Only the newest version of an id is reachable;
// older versions stay in the file until Compact rewrites it.
package jsonl

import (
	"errors"
	"io"
	"io/fs"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

// Sentinel errors. Conn methods reduce these to engine status codes; they
// are exported so tests and tools that use the package directly can match
// them with errors.Is.
var (
	ErrCorruptHeader  = errors.New("corrupt header")
	ErrHeaderVersion  = errors.New("unsupported header version")
	ErrCorruptRecord  = errors.New("corrupt record")
	ErrChecksum       = errors.New("checksum mismatch")
	ErrLocked         = errors.New("file is locked by another handle")
	ErrRecordTooLarge = errors.New("record exceeds maximum size")
	ErrInvalidID      = errors.New("invalid document id")
	ErrReadOnly       = errors.New("file opened read-only")
	ErrClosed         = errors.New("file is closed")
)

// status maps an internal error onto the engine status family.
func status(err error) engine.Status {
	switch {
	case err == nil:
		return engine.StatusOK
	case errors.Is(err, fs.ErrNotExist):
		return engine.StatusNoSuchFile
	case errors.Is(err, ErrReadOnly):
		return engine.StatusReadOnly
	case errors.Is(err, ErrClosed), errors.Is(err, fs.ErrClosed):
		return engine.StatusFileClosed
	case errors.Is(err, ErrHeaderVersion):
		return engine.StatusHeaderVersion
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return engine.StatusNoHeader
	case errors.Is(err, ErrCorruptHeader), errors.Is(err, ErrCorruptRecord), errors.Is(err, codec.ErrDecompress):
		return engine.StatusCorrupt
	case errors.Is(err, ErrChecksum):
		return engine.StatusChecksumFail
	case errors.Is(err, ErrLocked), errors.Is(err, fs.ErrPermission):
		return engine.StatusOpenFile
	case errors.Is(err, ErrRecordTooLarge), errors.Is(err, ErrInvalidID), errors.Is(err, codec.ErrUnknownCodec):
		return engine.StatusInvalidArguments
	default:
		return engine.StatusRead
	}
}
