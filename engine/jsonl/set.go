// Record saves.
//
// A save call, single or batch, encodes every record first and then
// appends all of its lines with one WriteAt. The in-memory index and the
// caller's Info values are only updated once that write has succeeded, so
// a failed call leaves no trace visible to readers.
package jsonl

import (
	"bytes"
	"fmt"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

// Save writes one record.
func (db *DB) Save(doc *engine.Doc, info *engine.Info, flags engine.SaveFlags) engine.Status {
	return db.SaveBatch([]*engine.Doc{doc}, []*engine.Info{info}, flags)
}

// SaveBatch writes every record or none.
func (db *DB) SaveBatch(docs []*engine.Doc, infos []*engine.Info, flags engine.SaveFlags) engine.Status {
	if len(docs) != len(infos) {
		return engine.StatusInvalidArguments
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed.Load() {
		return engine.StatusFileClosed
	}
	if db.readOnly {
		return engine.StatusReadOnly
	}
	if len(infos) == 0 {
		return engine.StatusOK
	}

	if err := db.save(docs, infos, flags); err != nil {
		return db.fail("save", err)
	}
	return engine.StatusOK
}

// save encodes and appends the batch. The write lock must be held.
func (db *DB) save(docs []*engine.Doc, infos []*engine.Info, flags engine.SaveFlags) error {
	entries := make([]*entry, len(infos))
	revs := make(map[string]uint64) // revisions assigned earlier in this batch
	seq := db.index.lastSeq
	ts := now()

	var buf bytes.Buffer
	for i, info := range infos {
		if info == nil || len(info.ID) == 0 {
			return ErrInvalidID
		}
		doc := docs[i]
		deleted := info.Deleted || doc == nil || doc.Body == nil

		seq++
		rev := info.RevSeq
		if rev == 0 {
			rev = revs[string(info.ID)]
			if rev == 0 {
				if prev := db.index.get(info.ID); prev != nil {
					rev = prev.info.RevSeq
				}
			}
			rev++
		}
		revs[string(info.ID)] = rev

		rec := &Record{
			Seq:       seq,
			Rev:       rev,
			Timestamp: ts,
			ID:        info.ID,
			Meta:      info.RevMeta,
			Deleted:   deleted,
			Content:   info.ContentMeta &^ engine.ContentCompressed,
		}
		if !deleted {
			body := doc.Body
			if flags&engine.SaveCompress != 0 && len(body) > 0 {
				compressed, err := codec.Compress(codec.Codec(db.header.Codec), body)
				if err != nil {
					return fmt.Errorf("compress: %w", err)
				}
				body = compressed
				rec.Content |= engine.ContentCompressed
			}
			rec.Body = body
			rec.Size = uint64(len(body))
			rec.Sum = checksum(body, db.header.Algorithm)
		}

		line, err := rec.encode()
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if len(line) >= db.config.MaxRecordSize {
			return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(line))
		}

		off := db.tail + int64(buf.Len())
		buf.Write(line)
		buf.WriteByte('\n')

		e := &entry{
			info: engine.Info{
				ID:          bytes.Clone(info.ID),
				Seq:         rec.Seq,
				RevSeq:      rec.Rev,
				RevMeta:     bytes.Clone(info.RevMeta),
				Deleted:     deleted,
				ContentMeta: rec.Content,
				Size:        rec.Size,
			},
			off: off,
		}
		if !deleted {
			e.info.BodyPos = uint64(off)
		}
		entries[i] = e
	}

	if _, err := db.raw(buf.Bytes()); err != nil {
		return err
	}

	for i, e := range entries {
		db.index.put(e)
		infos[i].Seq = e.info.Seq
		infos[i].RevSeq = e.info.RevSeq
		infos[i].Deleted = e.info.Deleted
		infos[i].ContentMeta = e.info.ContentMeta
		infos[i].BodyPos = e.info.BodyPos
		infos[i].Size = e.info.Size
	}
	return nil
}
