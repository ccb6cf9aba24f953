// Package enginetest is a conformance suite for engine implementations.
//
// An engine package runs it from its own tests:
//
//	func TestConformance(t *testing.T) {
//		enginetest.Run(t, func(t *testing.T) engine.Engine { return mine.New(mine.Config{}) })
//	}
//
// Every case opens a fresh store under t.TempDir.
package enginetest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jpl-au/sofa/engine"
)

// Factory returns the engine under test.
type Factory func(t *testing.T) engine.Engine

// Run runs every conformance case against the engine returned by newEngine.
func Run(t *testing.T, newEngine Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, e engine.Engine, path string)
	}{
		{"OpenMissing", testOpenMissing},
		{"CreateEmpty", testCreateEmpty},
		{"SequenceIncreases", testSequenceIncreases},
		{"RevisionIncrements", testRevisionIncrements},
		{"ExplicitRevision", testExplicitRevision},
		{"Tombstone", testTombstone},
		{"EmptyBody", testEmptyBody},
		{"Batch", testBatch},
		{"BatchLengthMismatch", testBatchLengthMismatch},
		{"InfoBySeq", testInfoBySeq},
		{"DocByInfo", testDocByInfo},
		{"Changes", testChanges},
		{"ChangesStop", testChangesStop},
		{"ChangesNestedLookup", testChangesNestedLookup},
		{"CommitReopen", testCommitReopen},
		{"UncommittedLost", testUncommittedLost},
		{"ReadOnly", testReadOnly},
		{"Compress", testCompress},
		{"ContentMeta", testContentMeta},
		{"Compact", testCompact},
		{"Stats", testStats},
		{"Closed", testClosed},
		{"Describe", testDescribe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.sofa")
			tc.fn(t, newEngine(t), path)
		})
	}
}

// open opens path or fails the test. The connection is closed on cleanup.
func open(t *testing.T, e engine.Engine, path string, flags engine.OpenFlags) engine.Conn {
	t.Helper()
	c, s := e.Open(path, flags)
	if s != engine.StatusOK {
		t.Fatalf("Open(%q, %d): %v", path, flags, s)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func create(t *testing.T, e engine.Engine, path string) engine.Conn {
	t.Helper()
	return open(t, e, path, engine.FlagCreate)
}

// save writes id with body (nil for a tombstone) and returns its info.
func save(t *testing.T, c engine.Conn, id, body string) *engine.Info {
	t.Helper()
	doc := &engine.Doc{ID: []byte(id)}
	if body != "" {
		doc.Body = []byte(body)
	}
	info := &engine.Info{ID: []byte(id), Deleted: doc.Body == nil}
	if s := c.Save(doc, info, 0); s != engine.StatusOK {
		t.Fatalf("Save(%q): %v", id, s)
	}
	return info
}

func commit(t *testing.T, c engine.Conn) {
	t.Helper()
	if s := c.Commit(); s != engine.StatusOK {
		t.Fatalf("Commit: %v", s)
	}
}

// body returns the body of id, or fails the test.
func body(t *testing.T, c engine.Conn, id string) string {
	t.Helper()
	doc, s := c.DocByID([]byte(id), engine.ReadDecompress)
	if s != engine.StatusOK {
		t.Fatalf("DocByID(%q): %v", id, s)
	}
	defer c.ReleaseDoc(doc)
	return string(doc.Body)
}

// info returns a copy of the metadata of id, or fails the test.
func info(t *testing.T, c engine.Conn, id string) engine.Info {
	t.Helper()
	i, s := c.InfoByID([]byte(id))
	if s != engine.StatusOK {
		t.Fatalf("InfoByID(%q): %v", id, s)
	}
	defer c.ReleaseInfo(i)
	out := *i
	out.ID = bytes.Clone(i.ID)
	out.RevMeta = bytes.Clone(i.RevMeta)
	return out
}

// changes collects the ids and sequences visited after since.
func changes(t *testing.T, c engine.Conn, since uint64) ([]string, []uint64) {
	t.Helper()
	var ids []string
	var seqs []uint64
	s := c.ChangesSince(since, func(i *engine.Info) bool {
		ids = append(ids, string(i.ID))
		seqs = append(seqs, i.Seq)
		return true
	})
	if s != engine.StatusOK {
		t.Fatalf("ChangesSince(%d): %v", since, s)
	}
	return ids, seqs
}

func testOpenMissing(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, 0)
	if s != engine.StatusNoSuchFile {
		if c != nil {
			c.Close()
		}
		t.Fatalf("Open missing: got %v, want %v", s, engine.StatusNoSuchFile)
	}
	c, s = e.Open(path, engine.FlagReadOnly)
	if s != engine.StatusNoSuchFile {
		if c != nil {
			c.Close()
		}
		t.Fatalf("Open missing read-only: got %v, want %v", s, engine.StatusNoSuchFile)
	}
}

func testCreateEmpty(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	stats, s := c.Stats()
	if s != engine.StatusOK {
		t.Fatalf("Stats: %v", s)
	}
	if stats.LastSeq != 0 || stats.DocCount != 0 || stats.DeletedCount != 0 {
		t.Errorf("new store stats = %+v, want empty", stats)
	}
	if stats.UUID == "" {
		t.Error("new store has no UUID")
	}
	if ids, _ := changes(t, c, 0); len(ids) != 0 {
		t.Errorf("changes on new store = %v, want none", ids)
	}
	if _, s := c.DocByID([]byte("missing"), 0); s != engine.StatusDocNotFound {
		t.Errorf("DocByID missing: got %v, want %v", s, engine.StatusDocNotFound)
	}
	if _, s := c.InfoByID([]byte("missing")); s != engine.StatusDocNotFound {
		t.Errorf("InfoByID missing: got %v, want %v", s, engine.StatusDocNotFound)
	}
}

func testSequenceIncreases(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	var last uint64
	for i := range 20 {
		info := save(t, c, fmt.Sprintf("doc%d", i%5), fmt.Sprintf("v%d", i))
		if info.Seq <= last {
			t.Fatalf("save %d: seq %d not greater than %d", i, info.Seq, last)
		}
		last = info.Seq
	}
}

func testRevisionIncrements(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	for want := uint64(1); want <= 4; want++ {
		got := save(t, c, "doc", fmt.Sprintf("v%d", want))
		if got.RevSeq != want {
			t.Fatalf("save %d: RevSeq = %d, want %d", want, got.RevSeq, want)
		}
	}
	// A deletion is a save too.
	if got := save(t, c, "doc", ""); got.RevSeq != 5 {
		t.Errorf("delete: RevSeq = %d, want 5", got.RevSeq)
	}
	if got := save(t, c, "other", "x"); got.RevSeq != 1 {
		t.Errorf("other: RevSeq = %d, want 1", got.RevSeq)
	}
}

func testExplicitRevision(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	in := &engine.Info{ID: []byte("doc"), RevSeq: 7, RevMeta: []byte("meta")}
	if s := c.Save(&engine.Doc{ID: in.ID, Body: []byte("x")}, in, 0); s != engine.StatusOK {
		t.Fatalf("Save: %v", s)
	}
	got := info(t, c, "doc")
	if got.RevSeq != 7 {
		t.Errorf("RevSeq = %d, want 7", got.RevSeq)
	}
	if string(got.RevMeta) != "meta" {
		t.Errorf("RevMeta = %q, want %q", got.RevMeta, "meta")
	}
	if got := save(t, c, "doc", "y"); got.RevSeq != 8 {
		t.Errorf("next RevSeq = %d, want 8", got.RevSeq)
	}
}

func testTombstone(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	save(t, c, "doc", "hello")
	del := save(t, c, "doc", "")
	if !del.Deleted {
		t.Error("saved info not marked deleted")
	}

	if _, s := c.DocByID([]byte("doc"), 0); s != engine.StatusDocNotFound {
		t.Errorf("DocByID deleted: got %v, want %v", s, engine.StatusDocNotFound)
	}
	got := info(t, c, "doc")
	if !got.Deleted {
		t.Error("InfoByID: Deleted = false, want true")
	}
	if got.Seq != del.Seq {
		t.Errorf("InfoByID: Seq = %d, want %d", got.Seq, del.Seq)
	}
	if got.BodyPos != 0 {
		t.Errorf("tombstone BodyPos = %d, want 0", got.BodyPos)
	}

	// A tombstone can be resurrected.
	save(t, c, "doc", "again")
	if b := body(t, c, "doc"); b != "again" {
		t.Errorf("body after resurrect = %q, want %q", b, "again")
	}
}

func testEmptyBody(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	info := &engine.Info{ID: []byte("empty")}
	if s := c.Save(&engine.Doc{ID: info.ID, Body: []byte{}}, info, 0); s != engine.StatusOK {
		t.Fatalf("Save: %v", s)
	}
	if info.Deleted {
		t.Fatal("empty body saved as a tombstone")
	}
	if b := body(t, c, "empty"); b != "" {
		t.Errorf("body = %q, want empty", b)
	}
	if got := info.Size; got != 0 {
		t.Errorf("Size = %d, want 0", got)
	}
}

func testBatch(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	docs := []*engine.Doc{
		{ID: []byte("a"), Body: []byte("da")},
		{ID: []byte("b")},
		{ID: []byte("c"), Body: []byte("dc")},
	}
	infos := []*engine.Info{
		{ID: []byte("a")},
		{ID: []byte("b"), Deleted: true},
		{ID: []byte("c")},
	}
	if s := c.SaveBatch(docs, infos, 0); s != engine.StatusOK {
		t.Fatalf("SaveBatch: %v", s)
	}

	if !(infos[0].Seq < infos[1].Seq && infos[1].Seq < infos[2].Seq) {
		t.Errorf("batch sequences not increasing: %d, %d, %d", infos[0].Seq, infos[1].Seq, infos[2].Seq)
	}
	if b := body(t, c, "a"); b != "da" {
		t.Errorf("a = %q, want %q", b, "da")
	}
	if b := body(t, c, "c"); b != "dc" {
		t.Errorf("c = %q, want %q", b, "dc")
	}
	if _, s := c.DocByID([]byte("b"), 0); s != engine.StatusDocNotFound {
		t.Errorf("b: got %v, want %v", s, engine.StatusDocNotFound)
	}
	if !info(t, c, "b").Deleted {
		t.Error("b not deleted")
	}

	// The same id twice in one batch gets consecutive revisions.
	docs = []*engine.Doc{{ID: []byte("a"), Body: []byte("1")}, {ID: []byte("a"), Body: []byte("2")}}
	infos = []*engine.Info{{ID: []byte("a")}, {ID: []byte("a")}}
	if s := c.SaveBatch(docs, infos, 0); s != engine.StatusOK {
		t.Fatalf("SaveBatch repeat: %v", s)
	}
	if infos[0].RevSeq != 2 || infos[1].RevSeq != 3 {
		t.Errorf("repeat revisions = %d, %d, want 2, 3", infos[0].RevSeq, infos[1].RevSeq)
	}
	if b := body(t, c, "a"); b != "2" {
		t.Errorf("a = %q, want %q", b, "2")
	}

	if s := c.SaveBatch(nil, nil, 0); s != engine.StatusOK {
		t.Errorf("empty batch: %v", s)
	}
}

func testBatchLengthMismatch(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	s := c.SaveBatch([]*engine.Doc{{ID: []byte("a")}}, nil, 0)
	if s != engine.StatusInvalidArguments {
		t.Errorf("got %v, want %v", s, engine.StatusInvalidArguments)
	}
	if ids, _ := changes(t, c, 0); len(ids) != 0 {
		t.Errorf("failed batch left records: %v", ids)
	}
}

func testInfoBySeq(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	first := save(t, c, "doc", "v1")
	second := save(t, c, "doc", "v2")

	i, s := c.InfoBySeq(second.Seq)
	if s != engine.StatusOK {
		t.Fatalf("InfoBySeq current: %v", s)
	}
	if string(i.ID) != "doc" || i.RevSeq != 2 {
		t.Errorf("InfoBySeq = %q rev %d, want doc rev 2", i.ID, i.RevSeq)
	}
	c.ReleaseInfo(i)

	if _, s := c.InfoBySeq(first.Seq); s != engine.StatusDocNotFound {
		t.Errorf("superseded seq: got %v, want %v", s, engine.StatusDocNotFound)
	}
	if _, s := c.InfoBySeq(second.Seq + 100); s != engine.StatusDocNotFound {
		t.Errorf("unknown seq: got %v, want %v", s, engine.StatusDocNotFound)
	}
	if _, s := c.InfoBySeq(0); s != engine.StatusDocNotFound {
		t.Errorf("seq 0: got %v, want %v", s, engine.StatusDocNotFound)
	}
}

func testDocByInfo(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	save(t, c, "a", "alpha")
	save(t, c, "b", "beta")

	i, s := c.InfoByID([]byte("b"))
	if s != engine.StatusOK {
		t.Fatalf("InfoByID: %v", s)
	}
	defer c.ReleaseInfo(i)
	if i.BodyPos == 0 {
		t.Fatal("live record has no body position")
	}
	doc, s := c.DocByInfo(i, 0)
	if s != engine.StatusOK {
		t.Fatalf("DocByInfo: %v", s)
	}
	defer c.ReleaseDoc(doc)
	if string(doc.Body) != "beta" {
		t.Errorf("DocByInfo = %q, want %q", doc.Body, "beta")
	}

	if _, s := c.DocByInfo(&engine.Info{ID: []byte("a")}, 0); s != engine.StatusDocNotFound {
		t.Errorf("DocByInfo without position: got %v, want %v", s, engine.StatusDocNotFound)
	}
}

func testChanges(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	save(t, c, "a", "1")
	b := save(t, c, "b", "1")
	save(t, c, "a", "2") // supersedes the first a
	save(t, c, "c", "")  // tombstone

	ids, seqs := changes(t, c, 0)
	want := []string{"b", "a", "c"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("changes(0) = %v, want %v", ids, want)
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Errorf("changes out of order: %v", seqs)
		}
	}

	ids, _ = changes(t, c, b.Seq)
	if fmt.Sprint(ids) != "[a c]" {
		t.Errorf("changes(%d) = %v, want [a c]", b.Seq, ids)
	}
	ids, _ = changes(t, c, seqs[len(seqs)-1])
	if len(ids) != 0 {
		t.Errorf("changes past the end = %v, want none", ids)
	}
}

func testChangesStop(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	for i := range 5 {
		save(t, c, fmt.Sprintf("doc%d", i), "x")
	}

	calls := 0
	s := c.ChangesSince(0, func(*engine.Info) bool {
		calls++
		return calls < 2
	})
	if s != engine.StatusOK {
		t.Errorf("stopped pass: got %v, want %v", s, engine.StatusOK)
	}
	if calls != 2 {
		t.Errorf("visited %d records after stop at 2", calls)
	}
}

func testChangesNestedLookup(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	save(t, c, "a", "alpha")
	save(t, c, "b", "beta")

	var got []string
	s := c.ChangesSince(0, func(i *engine.Info) bool {
		doc, s := c.DocByInfo(i, 0)
		if s != engine.StatusOK {
			t.Errorf("DocByInfo inside callback: %v", s)
			return false
		}
		got = append(got, string(doc.Body))
		c.ReleaseDoc(doc)
		return true
	})
	if s != engine.StatusOK {
		t.Fatalf("ChangesSince: %v", s)
	}
	if fmt.Sprint(got) != "[alpha beta]" {
		t.Errorf("bodies = %v, want [alpha beta]", got)
	}
}

func testCommitReopen(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, engine.FlagCreate)
	if s != engine.StatusOK {
		t.Fatalf("Open: %v", s)
	}
	a := save(t, c, "a", "alpha")
	save(t, c, "b", "")
	commit(t, c)
	if s := c.Close(); s != engine.StatusOK {
		t.Fatalf("Close: %v", s)
	}

	c = open(t, e, path, 0)
	if b := body(t, c, "a"); b != "alpha" {
		t.Errorf("a = %q, want %q", b, "alpha")
	}
	got := info(t, c, "a")
	if got.Seq != a.Seq || got.RevSeq != a.RevSeq {
		t.Errorf("a seq/rev = %d/%d, want %d/%d", got.Seq, got.RevSeq, a.Seq, a.RevSeq)
	}
	if !info(t, c, "b").Deleted {
		t.Error("b not deleted after reopen")
	}
	next := save(t, c, "c", "gamma")
	if next.Seq <= a.Seq {
		t.Errorf("seq after reopen %d not greater than %d", next.Seq, a.Seq)
	}
}

func testUncommittedLost(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, engine.FlagCreate)
	if s != engine.StatusOK {
		t.Fatalf("Open: %v", s)
	}
	save(t, c, "kept", "1")
	commit(t, c)
	save(t, c, "lost", "2")
	save(t, c, "kept", "3")
	if b := body(t, c, "lost"); b != "2" {
		t.Errorf("uncommitted save not visible to its handle: %q", b)
	}
	c.Close()

	c = open(t, e, path, 0)
	if _, s := c.DocByID([]byte("lost"), 0); s != engine.StatusDocNotFound {
		t.Errorf("uncommitted record survived: %v", s)
	}
	if b := body(t, c, "kept"); b != "1" {
		t.Errorf("kept = %q, want %q", b, "1")
	}
}

func testReadOnly(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, engine.FlagCreate)
	if s != engine.StatusOK {
		t.Fatalf("Open: %v", s)
	}
	save(t, c, "doc", "x")
	commit(t, c)
	c.Close()

	ro := open(t, e, path, engine.FlagReadOnly)
	if b := body(t, ro, "doc"); b != "x" {
		t.Errorf("read-only body = %q, want %q", b, "x")
	}
	info := &engine.Info{ID: []byte("new")}
	if s := ro.Save(&engine.Doc{ID: info.ID, Body: []byte("y")}, info, 0); s != engine.StatusReadOnly {
		t.Errorf("Save: got %v, want %v", s, engine.StatusReadOnly)
	}
	if s := ro.Commit(); s != engine.StatusReadOnly {
		t.Errorf("Commit: got %v, want %v", s, engine.StatusReadOnly)
	}
	if s := ro.Compact(); s != engine.StatusReadOnly {
		t.Errorf("Compact: got %v, want %v", s, engine.StatusReadOnly)
	}
}

func testCompress(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	text := bytes.Repeat([]byte("compressible "), 200)
	in := &engine.Info{ID: []byte("doc")}
	if s := c.Save(&engine.Doc{ID: in.ID, Body: text}, in, engine.SaveCompress); s != engine.StatusOK {
		t.Fatalf("Save: %v", s)
	}
	if in.ContentMeta&engine.ContentCompressed == 0 {
		t.Error("compressed save did not set ContentCompressed")
	}
	if in.Size >= uint64(len(text)) {
		t.Errorf("stored size %d not smaller than %d", in.Size, len(text))
	}
	if b := body(t, c, "doc"); b != string(text) {
		t.Error("compressed body did not round trip")
	}

	plain := save(t, c, "plain", "text")
	if plain.ContentMeta&engine.ContentCompressed != 0 {
		t.Error("plain save set ContentCompressed")
	}
}

func testContentMeta(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	in := &engine.Info{ID: []byte("doc"), ContentMeta: 0x05}
	if s := c.Save(&engine.Doc{ID: in.ID, Body: []byte("x")}, in, 0); s != engine.StatusOK {
		t.Fatalf("Save: %v", s)
	}
	if got := info(t, c, "doc").ContentMeta; got != 0x05 {
		t.Errorf("ContentMeta = %#x, want 0x05", got)
	}
}

func testCompact(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, engine.FlagCreate)
	if s != engine.StatusOK {
		t.Fatalf("Open: %v", s)
	}
	for i := range 10 {
		save(t, c, "hot", fmt.Sprintf("v%d", i))
	}
	cold := save(t, c, "cold", "ice")
	save(t, c, "gone", "")
	hot := info(t, c, "hot")
	// Left uncommitted: Compact commits first.

	before, _ := c.Stats()
	if s := c.Compact(); s != engine.StatusOK {
		t.Fatalf("Compact: %v", s)
	}
	after, _ := c.Stats()
	if after.LastSeq != before.LastSeq {
		t.Errorf("LastSeq changed across compact: %d -> %d", before.LastSeq, after.LastSeq)
	}
	if after.DocCount != 2 || after.DeletedCount != 1 {
		t.Errorf("after compact: %d live, %d deleted, want 2, 1", after.DocCount, after.DeletedCount)
	}

	if b := body(t, c, "hot"); b != "v9" {
		t.Errorf("hot = %q, want %q", b, "v9")
	}
	if got := info(t, c, "cold"); got.Seq != cold.Seq {
		t.Errorf("cold seq = %d, want %d", got.Seq, cold.Seq)
	}
	ids, _ := changes(t, c, 0)
	if fmt.Sprint(ids) != "[hot cold gone]" {
		t.Errorf("changes after compact = %v, want [hot cold gone]", ids)
	}
	c.Close()

	c = open(t, e, path, 0)
	if got := info(t, c, "hot"); got.Seq != hot.Seq || got.RevSeq != 10 {
		t.Errorf("hot after reopen: seq %d rev %d, want %d rev 10", got.Seq, got.RevSeq, hot.Seq)
	}
	if next := save(t, c, "new", "x"); next.Seq <= before.LastSeq {
		t.Errorf("seq after compact %d not greater than %d", next.Seq, before.LastSeq)
	}
}

func testStats(t *testing.T, e engine.Engine, path string) {
	c := create(t, e, path)

	save(t, c, "a", "1")
	save(t, c, "b", "2")
	last := save(t, c, "a", "")

	stats, s := c.Stats()
	if s != engine.StatusOK {
		t.Fatalf("Stats: %v", s)
	}
	if stats.LastSeq != last.Seq {
		t.Errorf("LastSeq = %d, want %d", stats.LastSeq, last.Seq)
	}
	if stats.DocCount != 1 || stats.DeletedCount != 1 {
		t.Errorf("counts = %d live, %d deleted, want 1, 1", stats.DocCount, stats.DeletedCount)
	}
	if stats.Size <= 0 {
		t.Errorf("Size = %d, want > 0", stats.Size)
	}
}

func testClosed(t *testing.T, e engine.Engine, path string) {
	c, s := e.Open(path, engine.FlagCreate)
	if s != engine.StatusOK {
		t.Fatalf("Open: %v", s)
	}
	save(t, c, "doc", "x")
	commit(t, c)
	if s := c.Close(); s != engine.StatusOK {
		t.Fatalf("Close: %v", s)
	}
	if s := c.Close(); s != engine.StatusOK {
		t.Errorf("second Close: %v", s)
	}

	if _, s := c.DocByID([]byte("doc"), 0); s != engine.StatusFileClosed {
		t.Errorf("DocByID: got %v, want %v", s, engine.StatusFileClosed)
	}
	if _, s := c.InfoByID([]byte("doc")); s != engine.StatusFileClosed {
		t.Errorf("InfoByID: got %v, want %v", s, engine.StatusFileClosed)
	}
	info := &engine.Info{ID: []byte("doc")}
	if s := c.Save(&engine.Doc{ID: info.ID, Body: []byte("y")}, info, 0); s != engine.StatusFileClosed {
		t.Errorf("Save: got %v, want %v", s, engine.StatusFileClosed)
	}
	if s := c.ChangesSince(0, func(*engine.Info) bool { return true }); s != engine.StatusFileClosed {
		t.Errorf("ChangesSince: got %v, want %v", s, engine.StatusFileClosed)
	}
	if _, s := c.Stats(); s != engine.StatusFileClosed {
		t.Errorf("Stats: got %v, want %v", s, engine.StatusFileClosed)
	}
}

func testDescribe(t *testing.T, e engine.Engine, path string) {
	for _, s := range []engine.Status{engine.StatusOK, engine.StatusDocNotFound, engine.StatusNoSuchFile} {
		if e.Describe(s) == "" {
			t.Errorf("Describe(%d) is empty", s)
		}
	}
}
