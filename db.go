// Store type and lifecycle operations.
//
// A Store owns exactly one engine connection. It tracks a small atomic
// state word so that calls after Close fail cleanly and a change iteration
// cannot be started while another is running. It adds no locking of its
// own: a Store is meant to be used from one goroutine at a time.
package sofa

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/engine/jsonl"
)

// State constants for the store's state word.
const (
	stateIdle      = 0 // Open, no iteration running
	stateIterating = 1 // A change iteration is running
	stateClosed    = 2 // Closed; every call fails with ErrClosed
)

// Mode selects how Open treats the path.
type Mode int

const (
	ModeDefault  Mode = iota // Open an existing store for reading and writing
	ModeReadOnly             // Open an existing store; writes fail with ErrReadOnly
	ModeCreate               // Like ModeDefault, creating an empty store if the path is absent
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeReadOnly:
		return "read-only"
	case ModeCreate:
		return "create"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) flags() engine.OpenFlags {
	switch m {
	case ModeReadOnly:
		return engine.FlagReadOnly
	case ModeCreate:
		return engine.FlagCreate
	default:
		return 0
	}
}

// Config holds store configuration.
type Config struct {
	Engine engine.Engine // Default jsonl.New(jsonl.Config{Logger: Logger})
	Logger *slog.Logger  // Default discards
}

// Store is an open document store.
type Store struct {
	path   string
	mode   Mode
	engine engine.Engine
	conn   engine.Conn
	log    *slog.Logger
	state  atomic.Int32
	epoch  atomic.Uint64 // bumped when outstanding body tokens become invalid
}

// Open opens the store at path. It fails with ErrPathNotFound when the
// path is absent and mode is not ModeCreate.
func Open(path string, mode Mode, config Config) (*Store, error) {
	if mode < ModeDefault || mode > ModeCreate {
		return nil, fmt.Errorf("open %s: %w: unknown mode %d", path, ErrUsage, int(mode))
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Engine == nil {
		config.Engine = jsonl.New(jsonl.Config{Logger: config.Logger})
	}

	conn, s := config.Engine.Open(path, mode.flags())
	if err := check(config.Engine, "open", s); err != nil {
		config.Logger.Debug("sofa: open failed", "path", path, "mode", mode, "error", err)
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	st := &Store{
		path:   path,
		mode:   mode,
		engine: config.Engine,
		conn:   conn,
		log:    config.Logger.With("store", path),
	}
	st.log.Debug("sofa: opened", "mode", mode)
	return st, nil
}

// Close releases the engine connection. Saves that were not committed
// are discarded. Close is idempotent.
func (s *Store) Close() error {
	if s.state.Swap(stateClosed) == stateClosed {
		return nil
	}
	s.epoch.Add(1)
	s.log.Debug("sofa: closing")
	return check(s.engine, "close", s.conn.Close())
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Mode returns the mode the store was opened with.
func (s *Store) Mode() Mode {
	return s.mode
}

func (s *Store) String() string {
	return "Store(" + s.path + ")"
}

// usable fails once the store is closed.
func (s *Store) usable() error {
	if s.state.Load() == stateClosed {
		return ErrClosed
	}
	return nil
}

// writable fails when the store is closed or read-only.
func (s *Store) writable() error {
	if err := s.usable(); err != nil {
		return err
	}
	if s.mode == ModeReadOnly {
		return ErrReadOnly
	}
	return nil
}

// Commit makes every save so far durable.
func (s *Store) Commit() error {
	if err := s.writable(); err != nil {
		return err
	}
	return check(s.engine, "commit", s.conn.Commit())
}

// StoreInfo summarises an open store.
type StoreInfo struct {
	LastSequence uint64 // highest sequence assigned so far
	DocCount     uint64 // live documents
	DeletedCount uint64 // tombstones
	Size         int64  // bytes on disk as reported by the engine
	UUID         string // store identity; changes on compaction for some engines
}

// Info reports counts and identity as seen by this handle.
func (s *Store) Info() (StoreInfo, error) {
	if err := s.usable(); err != nil {
		return StoreInfo{}, err
	}
	stats, st := s.conn.Stats()
	if err := check(s.engine, "info", st); err != nil {
		return StoreInfo{}, err
	}
	return StoreInfo{
		LastSequence: stats.LastSeq,
		DocCount:     stats.DocCount,
		DeletedCount: stats.DeletedCount,
		Size:         stats.Size,
		UUID:         stats.UUID,
	}, nil
}
