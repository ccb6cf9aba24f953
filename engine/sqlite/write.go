package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

// Save writes one record.
func (c *Conn) Save(doc *engine.Doc, info *engine.Info, flags engine.SaveFlags) engine.Status {
	return c.SaveBatch([]*engine.Doc{doc}, []*engine.Info{info}, flags)
}

// SaveBatch writes every record or none. The batch runs under a savepoint
// inside the pending transaction, so a failure part way through rolls
// back only this call.
func (c *Conn) SaveBatch(docs []*engine.Doc, infos []*engine.Info, flags engine.SaveFlags) engine.Status {
	if len(docs) != len(infos) {
		return engine.StatusInvalidArguments
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return engine.StatusFileClosed
	}
	if c.readOnly {
		return engine.StatusReadOnly
	}
	if len(infos) == 0 {
		return engine.StatusOK
	}

	tx, err := c.begin()
	if err != nil {
		return c.fail("save", err)
	}
	if _, err := tx.Exec("SAVEPOINT batch"); err != nil {
		return c.fail("save", fmt.Errorf("savepoint: %w", err))
	}

	saved, err := c.save(tx, docs, infos, flags)
	if err != nil {
		if _, rerr := tx.Exec("ROLLBACK TO batch"); rerr != nil {
			err = errors.Join(err, rerr)
		}
		tx.Exec("RELEASE batch")
		return c.fail("save", err)
	}
	if _, err := tx.Exec("RELEASE batch"); err != nil {
		return c.fail("save", fmt.Errorf("release: %w", err))
	}

	for i, s := range saved {
		infos[i].Seq = s.Seq
		infos[i].RevSeq = s.RevSeq
		infos[i].Deleted = s.Deleted
		infos[i].ContentMeta = s.ContentMeta
		infos[i].BodyPos = s.BodyPos
		infos[i].Size = s.Size
	}
	c.lastSeq = saved[len(saved)-1].Seq
	return engine.StatusOK
}

// save inserts the batch and returns what was stored for each record.
// Nothing is written back to infos or c until the savepoint is released.
func (c *Conn) save(tx *sql.Tx, docs []*engine.Doc, infos []*engine.Info, flags engine.SaveFlags) ([]engine.Info, error) {
	saved := make([]engine.Info, len(infos))
	seq := c.lastSeq

	for i, info := range infos {
		if info == nil || len(info.ID) == 0 {
			return nil, ErrInvalidID
		}
		doc := docs[i]
		deleted := info.Deleted || doc == nil || doc.Body == nil

		seq++
		rev := info.RevSeq
		if rev == 0 {
			var prev int64
			err := tx.QueryRow("SELECT rev_seq FROM docs WHERE id = ?", info.ID).Scan(&prev)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("read revision: %w", err)
			}
			rev = uint64(prev) + 1
		}

		content := info.ContentMeta &^ engine.ContentCompressed
		var body []byte
		if !deleted {
			body = doc.Body
			if flags&engine.SaveCompress != 0 && len(body) > 0 {
				compressed, err := codec.Compress(c.codec, body)
				if err != nil {
					return nil, fmt.Errorf("compress: %w", err)
				}
				body = compressed
				content |= engine.ContentCompressed
			}
		}

		res, err := tx.Exec(`
			INSERT OR REPLACE INTO docs
			(id, seq, rev_seq, rev_meta, deleted, content, size, body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			info.ID,
			int64(seq),
			int64(rev),
			info.RevMeta,
			deleted,
			content,
			len(body),
			body,
		)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}

		saved[i] = engine.Info{
			Seq:         seq,
			RevSeq:      rev,
			Deleted:     deleted,
			ContentMeta: content,
			Size:        uint64(len(body)),
		}
		if !deleted {
			rowid, err := res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("row id: %w", err)
			}
			saved[i].BodyPos = uint64(rowid)
		}
	}

	if _, err := tx.Exec("UPDATE meta SET last_seq = ? WHERE id = 1", int64(seq)); err != nil {
		return nil, fmt.Errorf("update meta: %w", err)
	}
	return saved, nil
}
