// Record encoding.
//
// Each saved record version is one JSON line. Byte slices (id, revision
// meta, body) are base64 encoded by the JSON codec, which keeps every line
// free of raw newlines regardless of content.
package jsonl

import (
	"time"

	json "github.com/goccy/go-json"
)

// MaxRecordSize is the default maximum length of a single line (16MB).
const MaxRecordSize = 16 * 1024 * 1024

// Record is one stored version of a document.
type Record struct {
	Seq       uint64 `json:"_s"`
	Rev       uint64 `json:"_r"`
	Timestamp int64  `json:"_ts"` // Unix milliseconds
	ID        []byte `json:"_id"`
	Meta      []byte `json:"_m,omitempty"`
	Deleted   bool   `json:"_x,omitempty"`
	Content   uint8  `json:"_f,omitempty"`
	Size      uint64 `json:"_n"`
	Sum       string `json:"_c,omitempty"` // checksum of the stored body
	Body      []byte `json:"_b,omitempty"`
}

// head is Record without the body. Decoding into it skips the body field,
// which is all the index rebuild needs.
type head struct {
	Seq     uint64 `json:"_s"`
	Rev     uint64 `json:"_r"`
	ID      []byte `json:"_id"`
	Meta    []byte `json:"_m,omitempty"`
	Deleted bool   `json:"_x,omitempty"`
	Content uint8  `json:"_f,omitempty"`
	Size    uint64 `json:"_n"`
}

// decode parses a full record line.
func decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, ErrCorruptRecord
	}
	if len(r.ID) == 0 || r.Seq == 0 {
		return nil, ErrCorruptRecord
	}
	// A live body of zero length is omitted on encode.
	if !r.Deleted && r.Body == nil {
		r.Body = []byte{}
	}
	return &r, nil
}

// decodeHead parses the metadata of a record line.
func decodeHead(data []byte) (*head, error) {
	var h head
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, ErrCorruptRecord
	}
	if len(h.ID) == 0 || h.Seq == 0 {
		return nil, ErrCorruptRecord
	}
	return &h, nil
}

// encode serialises a record to a single line without the trailing newline.
func (r *Record) encode() ([]byte, error) {
	return json.Marshal(r)
}

// valid checks if a line looks like a record (starts with '{').
func valid(line []byte) bool {
	return len(line) > 0 && line[0] == '{'
}

// now returns the current time in unix milliseconds.
func now() int64 {
	return time.Now().UnixMilli()
}
