// Package engine defines the boundary between the sofa document store and
// the storage engine that persists its records.
//
// An engine opens connections; a connection saves and looks up records,
// iterates the by-sequence index, and commits. Every call reports a Status
// rather than an error so that callers can map engine conditions onto their
// own error taxonomy in one place.
//
// Structures returned by a connection (Doc, Info) are engine-owned. The
// caller copies what it needs and hands them back with ReleaseDoc and
// ReleaseInfo. Info values passed to a ChangesSince callback belong to the
// engine for the duration of that callback only.
package engine

// OpenFlags selects how a connection is opened.
type OpenFlags uint8

const (
	FlagCreate   OpenFlags = 1 << 0 // create an empty store if the path is absent
	FlagReadOnly OpenFlags = 1 << 1 // reject every write with StatusReadOnly
)

// SaveFlags are per-call storage hints.
type SaveFlags uint8

// SaveCompress stores bodies compressed. Reads are unaffected.
const SaveCompress SaveFlags = 1 << 0

// ReadFlags are per-call read hints.
type ReadFlags uint8

// ReadDecompress requests decompression of stored bodies. Engines always
// return decompressed bodies; the flag exists for symmetry with SaveCompress.
const ReadDecompress ReadFlags = 1 << 0

// ContentCompressed is set in Info.ContentMeta by the engine when the stored
// body is compressed. The remaining bits belong to the caller.
const ContentCompressed uint8 = 0x80

// Doc is an identifier/body pair. A nil Body on save requests deletion.
type Doc struct {
	ID   []byte
	Body []byte
}

// Info is the metadata of a stored record.
type Info struct {
	ID          []byte
	Seq         uint64 // assigned by the engine on save
	RevSeq      uint64 // assigned by the engine on save when zero
	RevMeta     []byte
	Deleted     bool
	ContentMeta uint8
	BodyPos     uint64 // engine-private body location; 0 means none
	Size        uint64 // stored body size in bytes
}

// Stats summarises the state of an open store.
type Stats struct {
	LastSeq      uint64
	DocCount     uint64 // live records
	DeletedCount uint64 // tombstones
	Size         int64  // bytes on disk
	UUID         string
}

// Engine opens connections to stores at a path.
type Engine interface {
	Open(path string, flags OpenFlags) (Conn, Status)
	Describe(s Status) string
}

// Conn is one open store. Implementations need not be safe for concurrent
// use but must allow lookups from inside a ChangesSince callback.
type Conn interface {
	Close() Status

	// Save writes one record. doc may be nil, or carry a nil Body, to save
	// a tombstone. info.Seq (and info.RevSeq when zero) are set in place.
	Save(doc *Doc, info *Info, flags SaveFlags) Status
	// SaveBatch writes len(infos) records in one call. docs[i] pairs with
	// infos[i]; either every record is applied or none is.
	SaveBatch(docs []*Doc, infos []*Info, flags SaveFlags) Status
	Commit() Status

	DocByID(id []byte, flags ReadFlags) (*Doc, Status)
	DocByInfo(info *Info, flags ReadFlags) (*Doc, Status)
	InfoByID(id []byte) (*Info, Status)
	InfoBySeq(seq uint64) (*Info, Status)

	// ChangesSince calls fn for every current record with Seq > since, in
	// increasing Seq order, over a snapshot taken at the call. fn returns
	// false to stop; stopping is not a failure.
	ChangesSince(since uint64, fn func(*Info) bool) Status

	ReleaseDoc(d *Doc)
	ReleaseInfo(i *Info)

	Stats() (Stats, Status)
	Compact() Status
}
