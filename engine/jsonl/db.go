// Engine configuration and connection lifecycle.
package jsonl

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jpl-au/sofa/engine"
	"github.com/jpl-au/sofa/internal/codec"
)

// Codec selects body compression for new stores.
type Codec = codec.Codec

const (
	CodecZstd   = codec.Zstd
	CodecSnappy = codec.Snappy
)

// Config holds engine configuration. Checksum and Codec apply to stores
// created by this engine; existing stores keep the values in their header.
type Config struct {
	Checksum      int          // 1=xxHash3, 2=FNV1a, 3=Blake2b
	Codec         Codec        // body compression codec (default zstd)
	ReadBuffer    int          // Buffer size for reading (default 64KB)
	MaxRecordSize int          // Maximum single record size (default 16MB)
	SyncWrites    bool         // Call fsync after every save, not only on commit
	Logger        *slog.Logger // Default discards
}

// Engine opens jsonl store files.
type Engine struct {
	config Config
}

// New returns an engine with config defaults applied.
func New(config Config) *Engine {
	if config.Checksum == 0 {
		config.Checksum = AlgXXHash3
	}
	if config.Codec == 0 {
		config.Codec = CodecZstd
	}
	if config.ReadBuffer == 0 {
		config.ReadBuffer = 64 * 1024
	}
	if config.MaxRecordSize == 0 {
		config.MaxRecordSize = MaxRecordSize
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

// DB is an open store file. It implements engine.Conn.
type DB struct {
	root     *os.Root  // Sandboxed access to the store's directory
	name     string    // Store filename
	reader   *os.File  // Read handle (O_RDONLY)
	writer   *os.File  // Write handle (O_RDWR), nil when read-only
	lock     *fileLock // OS-level file lock
	header   *Header   // Last committed header
	config   Config
	log      *slog.Logger
	index    *index
	tail     int64 // Append offset (end of file)
	readOnly bool
	closed   atomic.Bool
	mu       sync.RWMutex
}

// Open opens the store at path.
func (e *Engine) Open(path string, flags engine.OpenFlags) (engine.Conn, engine.Status) {
	if !validAlg(e.config.Checksum) || !e.config.Codec.Valid() {
		return nil, engine.StatusInvalidArguments
	}
	db, err := e.open(path, flags)
	if err != nil {
		e.config.Logger.Debug("jsonl: open failed", "path", path, "error", err)
		return nil, status(err)
	}
	return db, engine.StatusOK
}

func (e *Engine) open(path string, flags engine.OpenFlags) (*DB, error) {
	readOnly := flags&engine.FlagReadOnly != 0
	log := e.config.Logger.With("store", path)

	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)

	// A temp file left by an interrupted Compact; the original is intact.
	if !readOnly {
		if _, err := root.Stat(name + ".tmp"); err == nil {
			log.Warn("jsonl: removing interrupted compaction file")
			root.Remove(name + ".tmp")
		}
	}

	_, err = root.Stat(name)
	if errors.Is(err, fs.ErrNotExist) && flags&engine.FlagCreate != 0 {
		err = e.create(root, name)
	}
	if err != nil {
		root.Close()
		return nil, err
	}

	reader, err := root.OpenFile(name, os.O_RDONLY, 0644)
	if err != nil {
		root.Close()
		return nil, err
	}

	db := &DB{
		root:     root,
		name:     name,
		reader:   reader,
		config:   e.config,
		log:      log,
		readOnly: readOnly,
	}

	if readOnly {
		db.lock = &fileLock{f: reader}
		err = db.lock.TryLock(LockShared)
	} else {
		db.writer, err = root.OpenFile(name, os.O_RDWR, 0644)
		if err == nil {
			db.lock = &fileLock{f: db.writer}
			err = db.lock.TryLock(LockExclusive)
		}
	}
	if err != nil {
		db.release()
		return nil, err
	}

	if err := db.reload(); err != nil {
		db.lock.Unlock()
		db.release()
		return nil, err
	}
	return db, nil
}

// create writes a new file containing only a header.
func (e *Engine) create(root *os.Root, name string) error {
	file, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	hdr := Header{
		Version:   Version,
		Algorithm: e.config.Checksum,
		Codec:     int(e.config.Codec),
		Timestamp: now(),
		End:       HeaderSize,
		UUID:      uuid.Must(uuid.NewV7()).String(),
	}
	buf, err := hdr.encode()
	if err != nil {
		return err
	}
	if _, err := file.Write(buf); err != nil {
		return fmt.Errorf("create: %w", err)
	}
	return file.Sync()
}

// reload reads the header and rebuilds the index from the committed
// region, discarding any uncommitted tail.
func (db *DB) reload() error {
	hdr, err := header(db.reader)
	if err != nil {
		return err
	}

	sz, err := size(db.reader)
	if err != nil {
		return err
	}
	if sz < hdr.End {
		return fmt.Errorf("%w: file ends at %d before committed end %d", ErrCorruptHeader, sz, hdr.End)
	}
	if sz > hdr.End {
		if db.readOnly {
			db.log.Warn("jsonl: ignoring uncommitted data", "bytes", sz-hdr.End)
		} else {
			db.log.Warn("jsonl: truncating uncommitted data", "bytes", sz-hdr.End)
			if err := db.writer.Truncate(hdr.End); err != nil {
				return fmt.Errorf("truncate: %w", err)
			}
		}
	}

	idx, err := load(db.reader, HeaderSize, hdr.End, db.config.ReadBuffer, db.config.MaxRecordSize)
	if err != nil {
		return err
	}
	if idx.lastSeq > hdr.Seq {
		return fmt.Errorf("%w: record sequence %d beyond committed %d", ErrCorruptHeader, idx.lastSeq, hdr.Seq)
	}
	// The header is authoritative for the last assigned sequence.
	idx.lastSeq = hdr.Seq

	db.header = hdr
	db.index = idx
	db.tail = hdr.End
	return nil
}

// Close releases the handle. Saves that were not committed are discarded.
func (db *DB) Close() engine.Status {
	if !db.closed.CompareAndSwap(false, true) {
		return engine.StatusOK
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var errs []error
	if db.writer != nil && db.tail > db.header.End {
		db.log.Debug("jsonl: discarding uncommitted data", "bytes", db.tail-db.header.End)
		if err := db.writer.Truncate(db.header.End); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.lock.Unlock(); err != nil {
		errs = append(errs, err)
	}
	if err := db.release(); err != nil {
		errs = append(errs, err)
	}
	db.index = newIndex()

	if len(errs) > 0 {
		db.log.Error("jsonl: close", "error", errs[0])
		return engine.StatusFileClosed
	}
	return engine.StatusOK
}

// release closes the file handles and the root.
func (db *DB) release() error {
	var errs []error
	if db.reader != nil {
		if err := db.reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if db.writer != nil {
		if err := db.writer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.root.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Stats reports counts and the file identity.
func (db *DB) Stats() (engine.Stats, engine.Status) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed.Load() {
		return engine.Stats{}, engine.StatusFileClosed
	}

	return engine.Stats{
		LastSeq:      db.index.lastSeq,
		DocCount:     db.index.live,
		DeletedCount: db.index.deleted,
		Size:         db.tail,
		UUID:         db.header.UUID,
	}, engine.StatusOK
}

// fail logs err against op and reduces it to a status.
func (db *DB) fail(op string, err error) engine.Status {
	s := status(err)
	if s != engine.StatusDocNotFound {
		db.log.Error("jsonl: "+op, "error", err, "status", int(s))
	}
	return s
}
