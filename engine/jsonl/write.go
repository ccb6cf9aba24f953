// Write primitives for the append-only file.
//
// New lines are always appended at db.tail. Nothing past header.End is
// durable until Commit has synced the file and rewritten the header; a
// crash before that leaves a tail that the next writable Open truncates.
package jsonl

import (
	"fmt"

	"github.com/jpl-au/sofa/engine"
)

// raw writes buf at db.tail in a single WriteAt and advances the tail.
// On failure the tail is left where it was, so a partial write is
// overwritten by the next append or truncated on close.
func (db *DB) raw(buf []byte) (int64, error) {
	offset := db.tail
	if _, err := db.writer.WriteAt(buf, offset); err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}
	if db.config.SyncWrites {
		if err := db.writer.Sync(); err != nil {
			return 0, fmt.Errorf("sync: %w", err)
		}
	}

	db.tail += int64(len(buf))
	return offset, nil
}

// Commit makes every save so far durable.
func (db *DB) Commit() engine.Status {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed.Load() {
		return engine.StatusFileClosed
	}
	if db.readOnly {
		return engine.StatusReadOnly
	}
	if err := db.commit(); err != nil {
		return db.fail("commit", err)
	}
	return engine.StatusOK
}

// commit syncs appended lines, then publishes them by rewriting the
// header. The write lock must be held.
func (db *DB) commit() error {
	if db.tail == db.header.End && db.index.lastSeq == db.header.Seq {
		return nil
	}

	if err := db.writer.Sync(); err != nil {
		return fmt.Errorf("commit: sync data: %w", err)
	}

	hdr := *db.header
	hdr.Seq = db.index.lastSeq
	hdr.End = db.tail
	hdr.Timestamp = now()
	buf, err := hdr.encode()
	if err != nil {
		return fmt.Errorf("commit: encode header: %w", err)
	}
	if _, err := db.writer.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("commit: write header: %w", err)
	}
	if err := db.writer.Sync(); err != nil {
		return fmt.Errorf("commit: sync header: %w", err)
	}

	db.header = &hdr
	return nil
}
