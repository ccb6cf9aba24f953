// Single and batch saves.
//
// A batch is submitted to the engine in one call, so it is applied
// entirely or not at all. Bodies are passed through without copying; the
// engine copies what it keeps before the call returns.
package sofa

import (
	"github.com/jpl-au/sofa/engine"
)

// Save writes one record and returns its sequence. A nil body saves a
// tombstone: the id stays visible to GetInfo and the change feed but Get
// fails with ErrNotFound.
func (s *Store) Save(rec Record, body []byte, opts SaveOptions) (uint64, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	info, err := rec.engineInfo(body)
	if err != nil {
		return 0, err
	}

	doc := &engine.Doc{ID: info.ID, Body: body}
	if err := check(s.engine, "save", s.conn.Save(doc, info, engine.SaveFlags(opts))); err != nil {
		return 0, err
	}
	rec.saved(info)
	return info.Seq, nil
}

// Item pairs a record with its body in a batch. A nil Body saves a
// tombstone.
type Item struct {
	Record Record
	Body   []byte
}

// SaveMultiple writes every item or none and returns their sequences in
// input order.
func (s *Store) SaveMultiple(items []Item, opts SaveOptions) ([]uint64, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []uint64{}, nil
	}

	docs := make([]*engine.Doc, len(items))
	infos := make([]*engine.Info, len(items))
	for i, item := range items {
		info, err := item.Record.engineInfo(item.Body)
		if err != nil {
			return nil, err
		}
		infos[i] = info
		docs[i] = &engine.Doc{ID: info.ID, Body: item.Body}
	}

	if err := check(s.engine, "save multiple", s.conn.SaveBatch(docs, infos, engine.SaveFlags(opts))); err != nil {
		return nil, err
	}

	seqs := make([]uint64, len(items))
	for i, item := range items {
		item.Record.saved(infos[i])
		seqs[i] = infos[i].Seq
	}
	return seqs, nil
}

// Delete saves a tombstone for id.
func (s *Store) Delete(id []byte) (uint64, error) {
	return s.Save(NewRecord(id), nil, 0)
}
