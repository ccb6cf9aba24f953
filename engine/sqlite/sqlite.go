// Package sqlite is a sofa storage engine backed by a SQLite database.
//
// Each id occupies one row of the docs table holding its newest version.
// A one-row meta table carries the last assigned sequence and the store's
// UUID. Saves run inside a transaction that is begun lazily on the first
// save and committed by Commit; closing without a commit rolls it back.
// Reads go through the same transaction while it is open, so a handle
// always sees its own saves.
//
// The database is configured the same way for every connection:
//   - WAL mode so read-only handles can read while a writer is open
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
package sqlite

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

//go:embed schema.sql
var schemaSQL string

// Config holds engine configuration. Codec applies to stores created by
// this engine; existing stores keep the codec recorded in their meta row.
type Config struct {
	Codec  codec.Codec  // body compression codec (default zstd)
	Logger *slog.Logger // Default discards
}

// Engine opens SQLite store files.
type Engine struct {
	config Config
}

// New returns an engine with config defaults applied.
func New(config Config) *Engine {
	if config.Codec == 0 {
		config.Codec = codec.Zstd
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{config: config}
}

// Describe returns the standard description of s.
func (e *Engine) Describe(s engine.Status) string {
	return engine.StatusText(s)
}

// Conn is an open SQLite store. It implements engine.Conn.
type Conn struct {
	db       *sql.DB
	tx       *sql.Tx // pending saves, nil when there are none
	path     string
	config   Config
	log      *slog.Logger
	lastSeq  uint64
	uuid     string
	codec    codec.Codec // from the meta row; fixed when the store is created
	readOnly bool
	closed   atomic.Bool
	mu       sync.Mutex
}

// Open opens the store at path.
func (e *Engine) Open(path string, flags engine.OpenFlags) (engine.Conn, engine.Status) {
	if !e.config.Codec.Valid() {
		return nil, engine.StatusInvalidArguments
	}
	c, err := e.open(path, flags)
	if err != nil {
		e.config.Logger.Debug("sqlite: open failed", "path", path, "error", err)
		return nil, status(err)
	}
	return c, engine.StatusOK
}

func (e *Engine) open(path string, flags engine.OpenFlags) (*Conn, error) {
	readOnly := flags&engine.FlagReadOnly != 0
	mode := "rw"
	switch {
	case readOnly:
		mode = "ro"
	case flags&engine.FlagCreate != 0:
		mode = "rwc"
	}
	if mode != "rwc" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=%s", filepath.ToSlash(path), mode))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: pragmas are per connection, and the pending
	// transaction must be the only writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Conn{
		db:       db,
		path:     path,
		config:   e.config,
		log:      e.config.Logger.With("store", path),
		readOnly: readOnly,
	}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// init applies pragmas, creates the schema on writable handles and loads
// the meta row.
func (c *Conn) init() error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	if !c.readOnly {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := c.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	if !c.readOnly {
		if _, err := c.db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		if _, err := c.db.Exec(
			"INSERT OR IGNORE INTO meta (id, last_seq, uuid, codec) VALUES (1, 0, ?, ?)",
			uuid.Must(uuid.NewV7()).String(),
			int(c.config.Codec),
		); err != nil {
			return fmt.Errorf("init meta: %w", err)
		}
	}

	var last, z int64
	err := c.db.QueryRow("SELECT last_seq, uuid, codec FROM meta WHERE id = 1").Scan(&last, &c.uuid, &z)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotStore, err)
	}
	c.lastSeq = uint64(last)
	c.codec = codec.Codec(z)
	if !c.codec.Valid() {
		return fmt.Errorf("%w: codec %d", codec.ErrUnknownCodec, z)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// q returns the pending transaction if there is one. Querying the pool
// while a transaction holds its only connection would block forever.
func (c *Conn) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

// begin returns the pending transaction, starting one if needed.
func (c *Conn) begin() (*sql.Tx, error) {
	if c.tx == nil {
		tx, err := c.db.Begin()
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Close releases the handle. Saves that were not committed are rolled back.
func (c *Conn) Close() engine.Status {
	if !c.closed.CompareAndSwap(false, true) {
		return engine.StatusOK
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.tx != nil {
		c.log.Debug("sqlite: discarding uncommitted saves")
		if err := c.tx.Rollback(); err != nil {
			errs = append(errs, err)
		}
		c.tx = nil
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		c.log.Error("sqlite: close", "error", err)
		return engine.StatusFileClosed
	}
	return engine.StatusOK
}

// Commit makes every save so far durable.
func (c *Conn) Commit() engine.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return engine.StatusFileClosed
	}
	if c.readOnly {
		return engine.StatusReadOnly
	}
	if err := c.commit(); err != nil {
		return c.fail("commit", err)
	}
	return engine.StatusOK
}

// commit commits the pending transaction. The lock must be held.
func (c *Conn) commit() error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Compact commits, then rebuilds the database file with VACUUM.
func (c *Conn) Compact() engine.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return engine.StatusFileClosed
	}
	if c.readOnly {
		return engine.StatusReadOnly
	}

	before, _ := c.size()
	if err := c.commit(); err != nil {
		return c.fail("compact", err)
	}
	if _, err := c.db.Exec("VACUUM"); err != nil {
		return c.fail("compact", fmt.Errorf("vacuum: %w", err))
	}
	after, _ := c.size()
	c.log.Info("sqlite: compacted", "before", before, "after", after)
	return engine.StatusOK
}

// Stats reports counts and the store identity.
func (c *Conn) Stats() (engine.Stats, engine.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return engine.Stats{}, engine.StatusFileClosed
	}

	var live, deleted int64
	err := c.q().QueryRow(
		"SELECT COALESCE(SUM(deleted = 0), 0), COALESCE(SUM(deleted = 1), 0) FROM docs",
	).Scan(&live, &deleted)
	if err != nil {
		return engine.Stats{}, c.fail("stats", err)
	}
	sz, err := c.size()
	if err != nil {
		return engine.Stats{}, c.fail("stats", err)
	}
	return engine.Stats{
		LastSeq:      c.lastSeq,
		DocCount:     uint64(live),
		DeletedCount: uint64(deleted),
		Size:         sz,
		UUID:         c.uuid,
	}, engine.StatusOK
}

// size returns the database size in bytes as seen by this handle.
func (c *Conn) size() (int64, error) {
	var pages, pageSize int64
	if err := c.q().QueryRow("PRAGMA page_count").Scan(&pages); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if err := c.q().QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page size: %w", err)
	}
	return pages * pageSize, nil
}

// fail logs err against op and reduces it to a status.
func (c *Conn) fail(op string, err error) engine.Status {
	s := status(err)
	if s != engine.StatusDocNotFound {
		c.log.Error("sqlite: "+op, "error", err, "status", int(s))
	}
	return s
}
