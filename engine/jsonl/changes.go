// By-sequence iteration.
package jsonl

import "github.com/jpl-au/sofa/engine"

// ChangesSince calls fn for every current record with Seq > since. The
// entries are copied under the read lock and fn runs without it, so fn may
// look up other records on the same handle. Saves made from inside fn are
// not part of the pass.
func (db *DB) ChangesSince(since uint64, fn func(*engine.Info) bool) engine.Status {
	db.mu.RLock()
	if db.closed.Load() {
		db.mu.RUnlock()
		return engine.StatusFileClosed
	}
	snapshot := db.index.since(since)
	db.mu.RUnlock()

	info := engine.NewInfo()
	defer engine.FreeInfo(info)

	for i := range snapshot {
		*info = snapshot[i]
		if !fn(info) {
			return engine.StatusOK
		}
		if db.closed.Load() {
			return engine.StatusFileClosed
		}
	}
	return engine.StatusOK
}
