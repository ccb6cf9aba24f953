// Header management for the store file.
//
// The header is exactly HeaderSize bytes of JSON, padded with spaces and
// terminated with a newline, so it can be rewritten in place on every
// commit without moving the records that follow it.
package jsonl

import (
	"bytes"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// HeaderSize is the fixed size of the header in bytes.
const HeaderSize = 256

// Version is the file format version written by this package.
const Version = 1

// Header is the store metadata at the start of the file.
type Header struct {
	Version   int    `json:"_v"`
	Algorithm int    `json:"_alg"` // checksum algorithm (1=xxHash3, 2=FNV1a, 3=Blake2b)
	Codec     int    `json:"_z"`   // compression codec (1=zstd, 2=snappy)
	Timestamp int64  `json:"_ts"`  // Unix milliseconds of the last commit
	Seq       uint64 `json:"_seq"` // last committed sequence
	End       int64  `json:"_end"` // end of the committed region
	UUID      string `json:"_u"`   // file identity, new on create and compact
}

// header reads and parses the header from a file.
func header(f *os.File) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var hdr Header
	if err := json.Unmarshal(bytes.TrimSpace(buf), &hdr); err != nil {
		return nil, ErrCorruptHeader
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrHeaderVersion, hdr.Version)
	}
	if hdr.End < HeaderSize {
		return nil, ErrCorruptHeader
	}
	return &hdr, nil
}

// encode serialises the header to exactly HeaderSize bytes with padding.
func (h *Header) encode() ([]byte, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	if len(data) > HeaderSize-1 {
		return nil, ErrCorruptHeader
	}

	buf := make([]byte, HeaderSize)
	copy(buf, data)
	for i := len(data); i < HeaderSize-1; i++ {
		buf[i] = ' '
	}
	buf[HeaderSize-1] = '\n'

	return buf, nil
}
