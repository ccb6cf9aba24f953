// Document and record types.
//
// Values handed to callers are always copies: ids, revision meta and
// bodies are cloned out of engine-owned structures before those are
// released back to the engine.
package sofa

import (
	"bytes"
	"fmt"

	"github.com/jpl-au/sofa/engine"
)

// SaveOptions are per-call storage hints.
type SaveOptions uint8

// Compress stores bodies compressed. Reads are unaffected.
const Compress SaveOptions = SaveOptions(engine.SaveCompress)

// ReadOptions are per-call read hints.
type ReadOptions uint8

// Decompress is accepted for symmetry with Compress. Bodies are always
// returned decompressed.
const Decompress ReadOptions = ReadOptions(engine.ReadDecompress)

// Document is an identifier/body pair.
type Document struct {
	ID   []byte
	Body []byte
}

// DocumentInfo is the metadata of a stored record. Values returned by the
// store carry a body token that Body resolves while the store is open and
// has not been compacted since.
type DocumentInfo struct {
	ID          []byte
	Sequence    uint64 // assigned by the store, strictly increasing
	RevSequence uint64 // +1 on every save of ID unless given explicitly
	RevMeta     []byte // caller-defined revision metadata
	Deleted     bool
	ContentMeta uint8  // caller bits, plus engine.ContentCompressed
	Size        uint64 // stored body size in bytes

	token *token
}

// token locates a body in the store that produced it.
type token struct {
	store *Store
	epoch uint64
	pos   uint64
}

// Body fetches the body the info was read with.
func (i *DocumentInfo) Body(opts ReadOptions) ([]byte, error) {
	t := i.token
	if t == nil {
		return nil, ErrContentsUnknown
	}
	s := t.store
	if err := s.usable(); err != nil {
		return nil, err
	}
	if s.epoch.Load() != t.epoch {
		return nil, ErrStaleToken
	}

	info := &engine.Info{
		ID:          i.ID,
		Seq:         i.Sequence,
		RevSeq:      i.RevSequence,
		ContentMeta: i.ContentMeta,
		BodyPos:     t.pos,
		Size:        i.Size,
	}
	doc, st := s.conn.DocByInfo(info, engine.ReadFlags(opts))
	if err := check(s.engine, "get body", st); err != nil {
		return nil, err
	}
	defer s.conn.ReleaseDoc(doc)
	body := bytes.Clone(doc.Body)
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

// Release drops the body token. Body fails with ErrContentsUnknown
// afterwards.
func (i *DocumentInfo) Release() {
	i.token = nil
}

func (i *DocumentInfo) String() string {
	return fmt.Sprintf("DocumentInfo(%q, %d bytes)", i.ID, i.Size)
}

// Dump renders every field, including the body position, for debugging.
func (i *DocumentInfo) Dump() string {
	var pos uint64
	if i.token != nil {
		pos = i.token.pos
	}
	return fmt.Sprintf("DocumentInfo(%q, %d bytes, seq=%d, revSeq=%d, deleted=%t, contentMeta=%d, revMeta=%x, bp=%d)",
		i.ID, i.Size, i.Sequence, i.RevSequence, i.Deleted, i.ContentMeta, i.RevMeta, pos)
}

// info builds a caller-owned DocumentInfo from an engine Info.
func (s *Store) info(ei *engine.Info) *DocumentInfo {
	i := &DocumentInfo{
		ID:          bytes.Clone(ei.ID),
		Sequence:    ei.Seq,
		RevSequence: ei.RevSeq,
		RevMeta:     bytes.Clone(ei.RevMeta),
		Deleted:     ei.Deleted,
		ContentMeta: ei.ContentMeta,
		Size:        ei.Size,
	}
	if !ei.Deleted && ei.BodyPos != 0 {
		i.token = &token{store: s, epoch: s.epoch.Load(), pos: ei.BodyPos}
	}
	return i
}

// Record is the metadata half of a save. Build one with NewRecord for a
// fresh revision or ExistingRecord to save over a record the caller
// already holds.
type Record struct {
	id   []byte
	info *DocumentInfo
}

// NewRecord starts fresh metadata for id. The store assigns the revision
// sequence.
func NewRecord(id []byte) Record {
	return Record{id: id}
}

// ExistingRecord reuses the revision fields of info: RevSequence,
// RevMeta, ContentMeta and Deleted are saved as given. info.Sequence is
// updated in place when the save succeeds.
func ExistingRecord(info *DocumentInfo) Record {
	return Record{info: info}
}

// ID returns the identifier the record will be saved under.
func (r Record) ID() []byte {
	if r.info != nil {
		return r.info.ID
	}
	return r.id
}

// engineInfo builds the engine Info for saving r with body. A nil body
// always saves a tombstone; otherwise a reused info keeps its Deleted flag.
func (r Record) engineInfo(body []byte) (*engine.Info, error) {
	id := r.ID()
	if len(id) == 0 {
		return nil, ErrInvalidID
	}
	info := &engine.Info{ID: id, Deleted: body == nil}
	if r.info != nil {
		info.RevSeq = r.info.RevSequence
		info.RevMeta = r.info.RevMeta
		info.Deleted = info.Deleted || r.info.Deleted
		info.ContentMeta = r.info.ContentMeta &^ engine.ContentCompressed
	}
	return info, nil
}

// saved copies the assigned sequence back into a reused info.
func (r Record) saved(info *engine.Info) {
	if r.info != nil {
		r.info.Sequence = info.Seq
	}
}
