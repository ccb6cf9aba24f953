// Record lookups.
//
// Metadata lookups are answered from the in-memory index. Bodies are read
// from the file at the record's line offset, checked against the stored
// checksum, and decompressed when the record was saved compressed.
package jsonl

import (
	"bytes"
	"fmt"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

// InfoByID returns the metadata of the newest version of id.
func (db *DB) InfoByID(id []byte) (*engine.Info, engine.Status) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	e := db.index.get(id)
	if e == nil {
		return nil, engine.StatusDocNotFound
	}
	return infoOf(e), engine.StatusOK
}

// InfoBySeq returns the metadata of the current record carrying seq.
func (db *DB) InfoBySeq(seq uint64) (*engine.Info, engine.Status) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	e := db.index.find(seq)
	if e == nil {
		return nil, engine.StatusDocNotFound
	}
	return infoOf(e), engine.StatusOK
}

// DocByID returns the body of the newest live version of id.
func (db *DB) DocByID(id []byte, flags engine.ReadFlags) (*engine.Doc, engine.Status) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	e := db.index.get(id)
	if e == nil || e.info.Deleted {
		return nil, engine.StatusDocNotFound
	}
	doc, err := db.body(&e.info)
	if err != nil {
		return nil, db.fail("get", err)
	}
	return doc, engine.StatusOK
}

// DocByInfo returns the body an Info's BodyPos refers to.
func (db *DB) DocByInfo(info *engine.Info, flags engine.ReadFlags) (*engine.Doc, engine.Status) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	if info == nil || info.BodyPos == 0 {
		return nil, engine.StatusDocNotFound
	}
	if info.BodyPos < HeaderSize || info.BodyPos >= uint64(db.tail) {
		return nil, engine.StatusInvalidArguments
	}
	doc, err := db.body(info)
	if err != nil {
		return nil, db.fail("get body", err)
	}
	return doc, engine.StatusOK
}

// body reads, verifies and decodes the record at info.BodyPos.
func (db *DB) body(info *engine.Info) (*engine.Doc, error) {
	data, err := line(db.reader, int64(info.BodyPos), db.tail)
	if err != nil {
		return nil, fmt.Errorf("read at %d: %w", info.BodyPos, err)
	}
	if !valid(data) {
		return nil, fmt.Errorf("%w: at offset %d", ErrCorruptRecord, info.BodyPos)
	}
	rec, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: at offset %d", err, info.BodyPos)
	}
	if !bytes.Equal(rec.ID, info.ID) || rec.Deleted {
		return nil, fmt.Errorf("%w: offset %d does not hold a body for this id", ErrCorruptRecord, info.BodyPos)
	}
	if sum := checksum(rec.Body, db.header.Algorithm); sum != rec.Sum {
		return nil, fmt.Errorf("%w: at offset %d", ErrChecksum, info.BodyPos)
	}

	body := rec.Body
	if rec.Content&engine.ContentCompressed != 0 {
		body, err = codec.Decompress(codec.Codec(db.header.Codec), body)
		if err != nil {
			return nil, err
		}
	}

	doc := engine.NewDoc()
	doc.ID = rec.ID
	doc.Body = body
	return doc, nil
}

// infoOf copies an index entry into a pooled Info.
func infoOf(e *entry) *engine.Info {
	info := engine.NewInfo()
	*info = e.info
	return info
}

// ReleaseDoc returns d to the pool.
func (db *DB) ReleaseDoc(d *engine.Doc) {
	engine.FreeDoc(d)
}

// ReleaseInfo returns i to the pool.
func (db *DB) ReleaseInfo(i *engine.Info) {
	engine.FreeInfo(i)
}
