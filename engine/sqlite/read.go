package sqlite

import (
	"fmt"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

const infoColumns = "id, seq, rev_seq, rev_meta, deleted, content, size, rowid"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanInfo reads one row selected with infoColumns into i.
func scanInfo(s scanner, i *engine.Info) error {
	var seq, rev, size, rowid int64
	var content int64
	if err := s.Scan(&i.ID, &seq, &rev, &i.RevMeta, &i.Deleted, &content, &size, &rowid); err != nil {
		return err
	}
	i.Seq = uint64(seq)
	i.RevSeq = uint64(rev)
	i.ContentMeta = uint8(content)
	i.Size = uint64(size)
	if !i.Deleted {
		i.BodyPos = uint64(rowid)
	}
	return nil
}

// InfoByID returns the metadata of the newest version of id.
func (c *Conn) InfoByID(id []byte) (*engine.Info, engine.Status) {
	return c.info("SELECT "+infoColumns+" FROM docs WHERE id = ?", id)
}

// InfoBySeq returns the metadata of the current record carrying seq.
func (c *Conn) InfoBySeq(seq uint64) (*engine.Info, engine.Status) {
	return c.info("SELECT "+infoColumns+" FROM docs WHERE seq = ?", int64(seq))
}

func (c *Conn) info(query string, arg any) (*engine.Info, engine.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	i := engine.NewInfo()
	if err := scanInfo(c.q().QueryRow(query, arg), i); err != nil {
		engine.FreeInfo(i)
		return nil, c.fail("get info", err)
	}
	return i, engine.StatusOK
}

// DocByID returns the body of the newest live version of id.
func (c *Conn) DocByID(id []byte, flags engine.ReadFlags) (*engine.Doc, engine.Status) {
	return c.doc("SELECT id, content, body FROM docs WHERE id = ? AND deleted = 0", id)
}

// DocByInfo returns the body an Info's BodyPos refers to. The row must
// still hold the version the Info describes.
func (c *Conn) DocByInfo(info *engine.Info, flags engine.ReadFlags) (*engine.Doc, engine.Status) {
	if info == nil || info.BodyPos == 0 {
		return nil, engine.StatusDocNotFound
	}
	return c.doc(
		"SELECT id, content, body FROM docs WHERE rowid = ? AND id = ? AND seq = ? AND deleted = 0",
		int64(info.BodyPos), info.ID, int64(info.Seq),
	)
}

func (c *Conn) doc(query string, args ...any) (*engine.Doc, engine.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil, engine.StatusFileClosed
	}

	var id, body []byte
	var content int64
	if err := c.q().QueryRow(query, args...).Scan(&id, &content, &body); err != nil {
		return nil, c.fail("get", err)
	}
	if uint8(content)&engine.ContentCompressed != 0 {
		var err error
		if body, err = codec.Decompress(c.codec, body); err != nil {
			return nil, c.fail("get", err)
		}
	}
	if body == nil {
		body = []byte{}
	}

	d := engine.NewDoc()
	d.ID = id
	d.Body = body
	return d, engine.StatusOK
}

// ChangesSince calls fn for every record with seq > since, in seq order.
// The rows are read before the first call so fn may use the connection.
func (c *Conn) ChangesSince(since uint64, fn func(*engine.Info) bool) engine.Status {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return engine.StatusFileClosed
	}
	snapshot, err := c.since(since)
	c.mu.Unlock()
	if err != nil {
		return c.fail("changes", err)
	}

	info := engine.NewInfo()
	defer engine.FreeInfo(info)
	for i := range snapshot {
		*info = snapshot[i]
		if !fn(info) {
			return engine.StatusOK
		}
		if c.closed.Load() {
			return engine.StatusFileClosed
		}
	}
	return engine.StatusOK
}

func (c *Conn) since(seq uint64) ([]engine.Info, error) {
	rows, err := c.q().Query("SELECT "+infoColumns+" FROM docs WHERE seq > ? ORDER BY seq", int64(seq))
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var out []engine.Info
	for rows.Next() {
		var i engine.Info
		if err := scanInfo(rows, &i); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read changes: %w", err)
	}
	return out, nil
}

// ReleaseDoc returns d to the pool.
func (c *Conn) ReleaseDoc(d *engine.Doc) {
	engine.FreeDoc(d)
}

// ReleaseInfo returns i to the pool.
func (c *Conn) ReleaseInfo(i *engine.Info) {
	engine.FreeInfo(i)
}

var _ engine.Conn = (*Conn)(nil)
