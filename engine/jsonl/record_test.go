package jsonl

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/jpl-au/sofa/engine"
)

func TestHeaderEncode(t *testing.T) {
	h := &Header{
		Version:   Version,
		Algorithm: AlgXXHash3,
		Codec:     int(CodecZstd),
		Timestamp: 1706000000000,
		Seq:       42,
		End:       9000,
		UUID:      "0190b5d2-7c4e-7a3b-9f1e-2d3c4b5a6978",
	}

	buf, err := h.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(buf) != HeaderSize {
		t.Errorf("encoded length = %d, want %d", len(buf), HeaderSize)
	}
	if buf[HeaderSize-1] != '\n' {
		t.Errorf("last byte = %q, want newline", buf[HeaderSize-1])
	}
	if bytes.IndexByte(buf[:HeaderSize-1], '\n') >= 0 {
		t.Error("header contains an interior newline")
	}
}

func TestRecordEncodeSingleLine(t *testing.T) {
	r := &Record{
		Seq:  1,
		Rev:  1,
		ID:   []byte("id\nwith newline"),
		Body: []byte("{\"a\":\n1}\n"),
		Size: 9,
	}
	line, err := r.encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bytes.IndexByte(line, '\n') >= 0 {
		t.Errorf("encoded record contains a newline: %s", line)
	}

	got, err := decode(line)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.ID, r.ID) || !bytes.Equal(got.Body, r.Body) {
		t.Errorf("decode = %q/%q, want %q/%q", got.ID, got.Body, r.ID, r.Body)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", "nope"},
		{"no id", `{"_s":1,"_r":1,"_n":0}`},
		{"no seq", `{"_r":1,"_id":"YQ==","_n":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decode([]byte(tt.line)); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("decode: got %v, want ErrCorruptRecord", err)
			}
			if _, err := decodeHead([]byte(tt.line)); !errors.Is(err, ErrCorruptRecord) {
				t.Errorf("decodeHead: got %v, want ErrCorruptRecord", err)
			}
		})
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	live, err := decode([]byte(`{"_s":1,"_r":1,"_id":"YQ==","_n":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if live.Body == nil {
		t.Error("live record decoded with nil body")
	}
	dead, err := decode([]byte(`{"_s":2,"_r":2,"_id":"YQ==","_x":true,"_n":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if dead.Body != nil {
		t.Error("tombstone decoded with a body")
	}
}

func TestChecksum(t *testing.T) {
	data := []byte("hello world")
	for _, alg := range []int{AlgXXHash3, AlgFNV1a, AlgBlake2b} {
		sum := checksum(data, alg)
		if len(sum) != 16 {
			t.Errorf("alg %d: checksum %q is %d chars, want 16", alg, sum, len(sum))
		}
		if sum != checksum(data, alg) {
			t.Errorf("alg %d: checksum not deterministic", alg)
		}
		if sum == checksum([]byte("hello world!"), alg) {
			t.Errorf("alg %d: different inputs share a checksum", alg)
		}
	}
	if checksum(data, 0) != "" {
		t.Error("unknown algorithm produced a checksum")
	}
}

func TestIndexPutSupersedes(t *testing.T) {
	x := newIndex()
	put := func(id string, seq uint64, deleted bool) {
		x.put(&entry{info: engine.Info{ID: []byte(id), Seq: seq, Deleted: deleted}})
	}

	put("a", 1, false)
	put("b", 2, false)
	put("a", 3, false)
	put("b", 4, true)

	if x.live != 1 || x.deleted != 1 {
		t.Errorf("counts = %d live, %d deleted, want 1, 1", x.live, x.deleted)
	}
	if x.find(1) != nil || x.find(2) != nil {
		t.Error("superseded sequence still found")
	}
	if e := x.find(3); e == nil || string(e.info.ID) != "a" {
		t.Error("current sequence 3 not found")
	}
	if got := x.since(0); len(got) != 2 || got[0].Seq != 3 || got[1].Seq != 4 {
		t.Errorf("since(0) = %v", got)
	}
	if got := x.since(3); len(got) != 1 || got[0].Seq != 4 {
		t.Errorf("since(3) = %v", got)
	}
	if got := x.since(4); len(got) != 0 {
		t.Errorf("since(4) = %v, want empty", got)
	}
}

func TestIndexSweep(t *testing.T) {
	x := newIndex()
	for i := range 500 {
		x.put(&entry{info: engine.Info{ID: []byte(fmt.Sprintf("doc%d", i%3)), Seq: uint64(i + 1)}})
	}
	if len(x.bySeq) > 3+64*2 {
		t.Errorf("bySeq holds %d entries for 3 ids, stale entries not swept", len(x.bySeq))
	}
	if cur := x.current(); len(cur) != 3 {
		t.Errorf("current() = %d entries, want 3", len(cur))
	}
	if x.lastSeq != 500 {
		t.Errorf("lastSeq = %d, want 500", x.lastSeq)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want engine.Status
	}{
		{nil, engine.StatusOK},
		{ErrCorruptRecord, engine.StatusCorrupt},
		{fmt.Errorf("read: %w", ErrChecksum), engine.StatusChecksumFail},
		{ErrLocked, engine.StatusOpenFile},
		{ErrHeaderVersion, engine.StatusHeaderVersion},
		{ErrReadOnly, engine.StatusReadOnly},
		{ErrClosed, engine.StatusFileClosed},
		{ErrInvalidID, engine.StatusInvalidArguments},
		{errors.New("disk on fire"), engine.StatusRead},
	}
	for _, tt := range tests {
		if got := status(tt.err); got != tt.want {
			t.Errorf("status(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
