package sofa

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/jpl-au/sofa/engine"
)

// fakeEngine opens connections whose every call fails with status.
type fakeEngine struct {
	status engine.Status
}

func (e *fakeEngine) Open(string, engine.OpenFlags) (engine.Conn, engine.Status) {
	return &fakeConn{status: e.status}, engine.StatusOK
}

func (e *fakeEngine) Describe(s engine.Status) string {
	return "fake: " + engine.StatusText(s)
}

type fakeConn struct {
	status engine.Status
}

func (c *fakeConn) Close() engine.Status { return engine.StatusOK }
func (c *fakeConn) Save(*engine.Doc, *engine.Info, engine.SaveFlags) engine.Status { return c.status }
func (c *fakeConn) SaveBatch([]*engine.Doc, []*engine.Info, engine.SaveFlags) engine.Status {
	return c.status
}
func (c *fakeConn) Commit() engine.Status { return c.status }
func (c *fakeConn) DocByID([]byte, engine.ReadFlags) (*engine.Doc, engine.Status) {
	return nil, c.status
}
func (c *fakeConn) DocByInfo(*engine.Info, engine.ReadFlags) (*engine.Doc, engine.Status) {
	return nil, c.status
}
func (c *fakeConn) InfoByID([]byte) (*engine.Info, engine.Status) { return nil, c.status }
func (c *fakeConn) InfoBySeq(uint64) (*engine.Info, engine.Status) { return nil, c.status }
func (c *fakeConn) ChangesSince(uint64, func(*engine.Info) bool) engine.Status {
	return c.status
}
func (c *fakeConn) ReleaseDoc(*engine.Doc) {}
func (c *fakeConn) ReleaseInfo(*engine.Info) {}
func (c *fakeConn) Stats() (engine.Stats, engine.Status) { return engine.Stats{}, c.status }
func (c *fakeConn) Compact() engine.Status { return c.status }

func TestErrorsDistinct(t *testing.T) {
	errs := []error{
		ErrNotFound,
		ErrOutOfMemory,
		ErrPathNotFound,
		ErrReadOnly,
		ErrUsage,
		ErrClosed,
		ErrIterating,
		ErrContentsUnknown,
		ErrStaleToken,
		ErrInvalidID,
	}

	seen := make(map[string]int)
	for i, err := range errs {
		if err == nil {
			t.Fatalf("error at index %d is nil", i)
		}
		msg := err.Error()
		if prev, ok := seen[msg]; ok {
			t.Errorf("error at index %d has same message as index %d: %q", i, prev, msg)
		}
		seen[msg] = i
	}
}

func TestUsageErrors(t *testing.T) {
	for _, err := range []error{ErrClosed, ErrIterating, ErrContentsUnknown, ErrStaleToken, ErrInvalidID} {
		if !errors.Is(err, ErrUsage) {
			t.Errorf("%v is not a usage error", err)
		}
	}
	for _, err := range []error{ErrNotFound, ErrOutOfMemory, ErrPathNotFound, ErrReadOnly} {
		if errors.Is(err, ErrUsage) {
			t.Errorf("%v should not be a usage error", err)
		}
	}
	if !errors.Is(ErrPathNotFound, fs.ErrNotExist) {
		t.Error("ErrPathNotFound does not match fs.ErrNotExist")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status engine.Status
		want   error
	}{
		{engine.StatusAllocFail, ErrOutOfMemory},
		{engine.StatusDocNotFound, ErrNotFound},
		{engine.StatusNoSuchFile, ErrPathNotFound},
		{engine.StatusReadOnly, ErrReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			s := openTestStore(t, filepath.Join(t.TempDir(), "fake"), ModeDefault, Config{Engine: &fakeEngine{status: tt.status}})
			if _, err := s.Get([]byte("doc"), 0); !errors.Is(err, tt.want) {
				t.Errorf("Get: got %v, want %v", err, tt.want)
			}
			if err := s.Commit(); !errors.Is(err, tt.want) {
				t.Errorf("Commit: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStorageError(t *testing.T) {
	for _, status := range []engine.Status{engine.StatusChecksumFail, engine.StatusCorrupt, engine.StatusWrite, engine.StatusOpenFile} {
		t.Run(status.String(), func(t *testing.T) {
			s := openTestStore(t, filepath.Join(t.TempDir(), "fake"), ModeDefault, Config{Engine: &fakeEngine{status: status}})

			_, err := s.GetInfo([]byte("doc"))
			var se *StorageError
			if !errors.As(err, &se) {
				t.Fatalf("got %T %v, want *StorageError", err, err)
			}
			if se.Op != "get info" || se.Code != status {
				t.Errorf("StorageError = %+v, want op %q code %d", se, "get info", status)
			}
			if se.Message != "fake: "+engine.StatusText(status) {
				t.Errorf("Message = %q, want the engine's description", se.Message)
			}
			if errors.Is(err, ErrUsage) || errors.Is(err, ErrNotFound) {
				t.Errorf("%v matches a sentinel", err)
			}
		})
	}
}

func TestFailedBatchReturnsNoSequences(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "fake"), ModeDefault, Config{Engine: &fakeEngine{status: engine.StatusWrite}})

	info := &DocumentInfo{ID: []byte("a"), RevSequence: 3}
	seqs, err := s.SaveMultiple([]Item{{Record: ExistingRecord(info), Body: []byte("x")}}, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if seqs != nil {
		t.Errorf("sequences = %v, want nil", seqs)
	}
	if info.Sequence != 0 {
		t.Errorf("failed save updated Sequence to %d", info.Sequence)
	}
}

func TestOpenFailureWrapsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sofa")
	_, err := Open(path, ModeDefault, Config{})
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("got %v, want ErrPathNotFound", err)
	}
	if got := err.Error(); got != "open "+path+": "+ErrPathNotFound.Error() {
		t.Errorf("Error = %q", got)
	}
}

func TestChangesFailure(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "fake"), ModeDefault, Config{Engine: &fakeEngine{status: engine.StatusRead}})

	passes := []struct {
		name string
		run  func() error
	}{
		{"ForEachChange", func() error {
			return s.ForEachChange(0, func(*DocumentInfo) bool { return true })
		}},
		{"ChangesSince", func() error {
			_, err := s.ChangesSince(0)
			return err
		}},
		{"Changes", func() error {
			for _, err := range s.Changes(0) {
				if err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, p := range passes {
		t.Run(p.name, func(t *testing.T) {
			err := p.run()
			var se *StorageError
			if !errors.As(err, &se) {
				t.Fatalf("got %T %v, want *StorageError", err, err)
			}
			if se.Op != "changes" || se.Code != engine.StatusRead {
				t.Errorf("StorageError = %+v, want op changes code %d", se, engine.StatusRead)
			}

			// A failed pass leaves the store idle.
			if s.state.Load() != stateIdle {
				t.Errorf("state = %d after failed pass, want idle", s.state.Load())
			}
			err = s.ForEachChange(0, func(*DocumentInfo) bool { return true })
			if errors.Is(err, ErrIterating) {
				t.Errorf("pass after failure: got ErrIterating")
			}
			if !errors.As(err, &se) {
				t.Errorf("pass after failure: got %v, want *StorageError", err)
			}
		})
	}
}
