// Index rebuild from the committed region.
//
// Records are appended in sequence order and compaction preserves that
// order, so a single forward pass over [HeaderSize, End) rebuilds both
// indexes. A sequence that does not increase means the file was modified
// outside this package and is reported as corrupt.
package jsonl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/jpl-au/sofa/engine"
)

// load scans the committed region and returns the rebuilt index.
func load(f *os.File, start, end int64, readBuffer, maxRecord int) (*index, error) {
	idx := newIndex()
	if start >= end {
		return idx, nil
	}

	section := io.NewSectionReader(f, start, end-start)
	scanner := bufio.NewScanner(section)
	scanner.Buffer(make([]byte, readBuffer), maxRecord)
	offset := start

	for scanner.Scan() {
		data := scanner.Bytes()
		length := len(data)

		if !valid(data) {
			return nil, fmt.Errorf("%w: at offset %d", ErrCorruptRecord, offset)
		}
		h, err := decodeHead(data)
		if err != nil {
			return nil, fmt.Errorf("%w: at offset %d", err, offset)
		}
		if h.Seq <= idx.lastSeq {
			return nil, fmt.Errorf("%w: sequence %d after %d at offset %d", ErrCorruptRecord, h.Seq, idx.lastSeq, offset)
		}

		e := &entry{
			info: engine.Info{
				ID:          h.ID,
				Seq:         h.Seq,
				RevSeq:      h.Rev,
				RevMeta:     h.Meta,
				Deleted:     h.Deleted,
				ContentMeta: h.Content,
				Size:        h.Size,
			},
			off: offset,
		}
		if !h.Deleted {
			e.info.BodyPos = uint64(offset)
		}
		idx.put(e)

		offset += int64(length) + 1 // +1 for newline
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return idx, nil
}
