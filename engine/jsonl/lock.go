// Cross-process writer exclusion.
//
// Writable handles hold an exclusive advisory lock on the store file and
// read-only handles a shared one, from open until close. Acquisition never
// waits: if the lock is taken the open fails with ErrLocked.
package jsonl

import (
	"os"
	"sync"
)

// LockMode is the kind of lock a handle holds.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// fileLock serialises lock calls with changes of the locked file, so a
// descriptor is never used after Compact has closed it.
type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// TryLock takes the lock without blocking. With no file attached it is a
// no-op.
func (l *fileLock) TryLock(mode LockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return lockFile(l.f, mode)
}

// Unlock drops the lock. With no file attached it is a no-op.
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return unlockFile(l.f)
}

// setFile attaches f, or detaches the current file when f is nil.
func (l *fileLock) setFile(f *os.File) {
	l.mu.Lock()
	l.f = f
	l.mu.Unlock()
}
