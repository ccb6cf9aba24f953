package sofa

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/engine/jsonl"
	"github.com/jpl-au/sofa/engine/sqlite"
)

// engines lists the engines every store test runs against.
var engines = []struct {
	name string
	new  func() engine.Engine
}{
	{"jsonl", func() engine.Engine { return jsonl.New(jsonl.Config{}) }},
	{"sqlite", func() engine.Engine { return sqlite.New(sqlite.Config{}) }},
}

// eachEngine runs fn once per engine with a fresh store path.
func eachEngine(t *testing.T, fn func(t *testing.T, path string, config Config)) {
	t.Helper()
	for _, e := range engines {
		t.Run(e.name, func(t *testing.T) {
			fn(t, filepath.Join(t.TempDir(), "test.sofa"), Config{Engine: e.new()})
		})
	}
}

func openTestStore(t *testing.T, path string, mode Mode, config Config) *Store {
	t.Helper()
	s, err := Open(path, mode, config)
	if err != nil {
		t.Fatalf("Open(%q, %v): %v", path, mode, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenMissing(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		for _, mode := range []Mode{ModeDefault, ModeReadOnly} {
			_, err := Open(path, mode, config)
			if !errors.Is(err, ErrPathNotFound) {
				t.Errorf("Open %v: got %v, want ErrPathNotFound", mode, err)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("Open %v: %v does not match fs.ErrNotExist", mode, err)
			}
		}
	})
}

func TestOpenCreateEmpty(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s := openTestStore(t, path, ModeCreate, config)

		changes, err := s.ChangesSince(0)
		if err != nil {
			t.Fatalf("ChangesSince: %v", err)
		}
		if changes == nil || len(changes) != 0 {
			t.Errorf("ChangesSince(0) = %v, want empty non-nil slice", changes)
		}
		info, err := s.Info()
		if err != nil {
			t.Fatalf("Info: %v", err)
		}
		if info.LastSequence != 0 || info.DocCount != 0 {
			t.Errorf("Info = %+v, want empty", info)
		}
	})
}

func TestOpenInvalidMode(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "x"), Mode(7), Config{})
	if !errors.Is(err, ErrUsage) {
		t.Errorf("got %v, want ErrUsage", err)
	}
}

func TestOpenDefaultEngine(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "test.sofa"), ModeCreate, Config{})
	if _, ok := s.engine.(*jsonl.Engine); !ok {
		t.Errorf("default engine is %T, want *jsonl.Engine", s.engine)
	}
	if s.log == nil {
		t.Error("logger not defaulted")
	}
}

func TestAccessors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sofa")
	s := openTestStore(t, path, ModeCreate, Config{})

	if s.Path() != path {
		t.Errorf("Path = %q, want %q", s.Path(), path)
	}
	if s.Mode() != ModeCreate {
		t.Errorf("Mode = %v, want %v", s.Mode(), ModeCreate)
	}
	if got, want := s.String(), "Store("+path+")"; got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
	if ModeReadOnly.String() != "read-only" || Mode(9).String() != "Mode(9)" {
		t.Errorf("Mode.String: %q, %q", ModeReadOnly.String(), Mode(9).String())
	}
}

func TestCommitReopen(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s, err := Open(path, ModeCreate, config)
		if err != nil {
			t.Fatal(err)
		}
		seq, err := s.Save(NewRecord([]byte("a")), []byte("x"), 0)
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		s = openTestStore(t, path, ModeDefault, config)
		body, err := s.Get([]byte("a"), 0)
		if err != nil {
			t.Fatalf("Get after reopen: %v", err)
		}
		if string(body) != "x" {
			t.Errorf("Get = %q, want %q", body, "x")
		}
		info, err := s.GetInfo([]byte("a"))
		if err != nil {
			t.Fatalf("GetInfo: %v", err)
		}
		if info.Sequence != seq {
			t.Errorf("Sequence = %d, want %d", info.Sequence, seq)
		}
	})
}

func TestUncommittedLost(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s, err := Open(path, ModeCreate, config)
		if err != nil {
			t.Fatal(err)
		}
		s.Save(NewRecord([]byte("kept")), []byte("1"), 0)
		s.Commit()
		s.Save(NewRecord([]byte("lost")), []byte("2"), 0)
		s.Close()

		s = openTestStore(t, path, ModeDefault, config)
		if _, err := s.Get([]byte("lost"), 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("uncommitted save survived: %v", err)
		}
		if _, err := s.Get([]byte("kept"), 0); err != nil {
			t.Errorf("committed save lost: %v", err)
		}
	})
}

func TestReadOnly(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s, err := Open(path, ModeCreate, config)
		if err != nil {
			t.Fatal(err)
		}
		s.Save(NewRecord([]byte("doc")), []byte("x"), 0)
		s.Commit()
		s.Close()

		ro := openTestStore(t, path, ModeReadOnly, config)
		if _, err := ro.Get([]byte("doc"), 0); err != nil {
			t.Errorf("Get: %v", err)
		}
		if _, err := ro.Save(NewRecord([]byte("new")), []byte("y"), 0); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Save: got %v, want ErrReadOnly", err)
		}
		if _, err := ro.SaveMultiple([]Item{{Record: NewRecord([]byte("new")), Body: []byte("y")}}, 0); !errors.Is(err, ErrReadOnly) {
			t.Errorf("SaveMultiple: got %v, want ErrReadOnly", err)
		}
		if _, err := ro.Delete([]byte("doc")); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Delete: got %v, want ErrReadOnly", err)
		}
		if err := ro.Commit(); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Commit: got %v, want ErrReadOnly", err)
		}
		if err := ro.Compact(); !errors.Is(err, ErrReadOnly) {
			t.Errorf("Compact: got %v, want ErrReadOnly", err)
		}
	})
}

func TestClosed(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s, err := Open(path, ModeCreate, config)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("second Close: %v", err)
		}
		if s.state.Load() != stateClosed {
			t.Errorf("state = %d, want closed", s.state.Load())
		}

		id := []byte("doc")
		checks := map[string]error{}
		_, checks["Save"] = s.Save(NewRecord(id), []byte("x"), 0)
		_, checks["SaveMultiple"] = s.SaveMultiple([]Item{{Record: NewRecord(id)}}, 0)
		_, checks["Delete"] = s.Delete(id)
		_, checks["Get"] = s.Get(id, 0)
		_, checks["GetInfo"] = s.GetInfo(id)
		_, checks["GetInfoBySequence"] = s.GetInfoBySequence(1)
		_, checks["ChangesSince"] = s.ChangesSince(0)
		_, checks["Info"] = s.Info()
		checks["ForEachChange"] = s.ForEachChange(0, func(*DocumentInfo) bool { return true })
		checks["Commit"] = s.Commit()
		checks["Compact"] = s.Compact()

		for op, err := range checks {
			if !errors.Is(err, ErrClosed) {
				t.Errorf("%s after Close: got %v, want ErrClosed", op, err)
			}
			if !errors.Is(err, ErrUsage) {
				t.Errorf("%s after Close: %v is not a usage error", op, err)
			}
		}
	})
}

func TestInfo(t *testing.T) {
	eachEngine(t, func(t *testing.T, path string, config Config) {
		s := openTestStore(t, path, ModeCreate, config)
		s.Save(NewRecord([]byte("a")), []byte("1"), 0)
		s.Save(NewRecord([]byte("b")), []byte("2"), 0)
		last, _ := s.Delete([]byte("a"))

		info, err := s.Info()
		if err != nil {
			t.Fatalf("Info: %v", err)
		}
		if info.LastSequence != last {
			t.Errorf("LastSequence = %d, want %d", info.LastSequence, last)
		}
		if info.DocCount != 1 || info.DeletedCount != 1 {
			t.Errorf("counts = %d live, %d deleted, want 1, 1", info.DocCount, info.DeletedCount)
		}
		if info.UUID == "" {
			t.Error("UUID is empty")
		}
	})
}
