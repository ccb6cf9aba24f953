// Low-level read primitives for the newline-delimited record format.
//
// All reads go through SectionReader or ReadAt so that lookups sharing a
// single *os.File do not disturb each other's offsets.
package jsonl

import (
	"bufio"
	"io"
	"os"
)

// line reads the record starting at offset up to the next newline.
func line(f *os.File, offset, end int64) ([]byte, error) {
	remaining := end - offset
	if remaining <= 0 {
		return nil, io.EOF
	}

	section := io.NewSectionReader(f, offset, remaining)
	reader := bufio.NewReader(section)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	return data, nil
}

func size(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
