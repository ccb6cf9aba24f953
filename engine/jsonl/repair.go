// Compaction rewrites the file keeping only the current version of every
// id.
//
// Superseded versions accumulate because saves only ever append. Compact
// copies the current lines, in sequence order, into a temporary file
// (<name>.tmp), syncs it, and atomically renames it over the original.
// The original is intact until the rename succeeds; a crash before that
// leaves an orphaned .tmp which the next writable Open removes.
//
// Pending saves are committed first, so the rewritten file is exactly the
// state a reopen would have seen. Lines are copied byte for byte; only
// their offsets change, which is why body positions handed out before a
// compaction must not be used after it.
package jsonl

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/jpl-au/sofa/engine"
)

var renameFile = (*os.Root).Rename

// Compact rewrites the file. See the file comment for the procedure.
func (db *DB) Compact() engine.Status {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed.Load() {
		return engine.StatusFileClosed
	}
	if db.readOnly {
		return engine.StatusReadOnly
	}

	before := db.tail
	if err := db.compact(); err != nil {
		if !db.closed.Load() {
			db.root.Remove(db.name + ".tmp")
		}
		return db.fail("compact", err)
	}
	db.log.Info("jsonl: compacted", "before", before, "after", db.tail, "docs", db.index.live+db.index.deleted)
	return engine.StatusOK
}

// compact runs the rewrite. The write lock must be held.
func (db *DB) compact() error {
	if err := db.commit(); err != nil {
		return err
	}

	tmp, err := db.root.OpenFile(db.name+".tmp", os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	end, err := db.rebuild(tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close temp: %w", cerr)
	}
	if err != nil {
		return err
	}

	// Drain in-flight lock calls before closing the fd (see lock.go).
	db.lock.setFile(nil)
	db.reader.Close()
	db.writer.Close()

	if err := renameFile(db.root, db.name+".tmp", db.name); err != nil {
		// The original is untouched; go back to it.
		if rerr := db.reopen(); rerr != nil {
			db.abandon(rerr)
		}
		return fmt.Errorf("rename: %w", err)
	}
	if err := db.reopen(); err != nil {
		db.abandon(err)
		return err
	}
	if db.tail != end {
		return fmt.Errorf("%w: compacted file ends at %d, expected %d", ErrCorruptHeader, db.tail, end)
	}
	return nil
}

// rebuild writes the current records to tmp and returns the end offset.
func (db *DB) rebuild(tmp *os.File) (int64, error) {
	if _, err := tmp.Write(make([]byte, HeaderSize)); err != nil {
		return 0, fmt.Errorf("write header placeholder: %w", err)
	}
	ow := &offsetWriter{w: tmp, off: HeaderSize}

	for _, e := range db.index.current() {
		record, err := line(db.reader, e.off, db.tail)
		if err != nil {
			return 0, fmt.Errorf("read record at %d: %w", e.off, err)
		}
		if _, err := ow.Write(record); err != nil {
			return 0, fmt.Errorf("write record: %w", err)
		}
		if _, err := ow.Write([]byte{'\n'}); err != nil {
			return 0, fmt.Errorf("write newline: %w", err)
		}
	}

	hdr := *db.header
	hdr.Timestamp = now()
	hdr.End = ow.off
	hdr.UUID = uuid.Must(uuid.NewV7()).String()
	buf, err := hdr.encode()
	if err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}
	if _, err := tmp.WriteAt(buf, 0); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	return ow.off, nil
}

// reopen opens fresh handles on the renamed file and rebuilds the index.
func (db *DB) reopen() error {
	reader, err := db.root.OpenFile(db.name, os.O_RDONLY, 0644)
	if err != nil {
		return fmt.Errorf("reopen reader: %w", err)
	}
	writer, err := db.root.OpenFile(db.name, os.O_RDWR, 0644)
	if err != nil {
		reader.Close()
		return fmt.Errorf("reopen writer: %w", err)
	}

	db.reader = reader
	db.writer = writer
	db.lock.setFile(writer)
	if err := db.lock.TryLock(LockExclusive); err != nil {
		return fmt.Errorf("relock: %w", err)
	}
	return db.reload()
}

// abandon closes a handle that compaction left without a locked file.
// Every later call fails with StatusFileClosed. The write lock must be
// held.
func (db *DB) abandon(cause error) {
	db.log.Error("jsonl: handle closed after failed compaction", "error", cause)
	db.closed.Store(true)
	db.lock.setFile(nil)
	db.release()
	db.reader, db.writer = nil, nil
	db.index = newIndex()
}

// offsetWriter adapts WriterAt to sequential writes while tracking the
// current position, so the header can be backfilled at offset 0.
type offsetWriter struct {
	w   io.WriterAt
	off int64
}

func (ow *offsetWriter) Write(p []byte) (int, error) {
	n, err := ow.w.WriteAt(p, ow.off)
	ow.off += int64(n)
	return n, err
}
