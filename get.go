// Point reads.
package sofa

import (
	"bytes"

	"github.com/jpl-au/sofa/engine"
)

// Get returns the body of the live record for id.
func (s *Store) Get(id []byte, opts ReadOptions) ([]byte, error) {
	doc, err := s.GetDocument(id, opts)
	if err != nil {
		return nil, err
	}
	return doc.Body, nil
}

// GetDocument returns the id/body pair of the live record for id.
func (s *Store) GetDocument(id []byte, opts ReadOptions) (*Document, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	d, st := s.conn.DocByID(id, engine.ReadFlags(opts))
	if err := check(s.engine, "get", st); err != nil {
		return nil, err
	}
	defer s.conn.ReleaseDoc(d)

	body := bytes.Clone(d.Body)
	if body == nil {
		body = []byte{}
	}
	return &Document{ID: bytes.Clone(d.ID), Body: body}, nil
}

// GetInfo returns the metadata of the newest record for id, deleted or
// not. It fails with ErrNotFound only if id was never saved.
func (s *Store) GetInfo(id []byte) (*DocumentInfo, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	ei, st := s.conn.InfoByID(id)
	if err := check(s.engine, "get info", st); err != nil {
		return nil, err
	}
	defer s.conn.ReleaseInfo(ei)
	return s.info(ei), nil
}

// GetInfoBySequence returns the metadata of the current record carrying
// seq. A sequence that was superseded by a later save of the same id, or
// never assigned, fails with ErrNotFound.
func (s *Store) GetInfoBySequence(seq uint64) (*DocumentInfo, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	ei, st := s.conn.InfoBySeq(seq)
	if err := check(s.engine, "get info by sequence", st); err != nil {
		return nil, err
	}
	defer s.conn.ReleaseInfo(ei)
	return s.info(ei), nil
}
