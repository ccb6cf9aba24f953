// Change feed iteration.
//
// A pass visits every current record with a sequence greater than the
// starting point, in increasing sequence order, deleted records included.
// Only the newest version of an id is visited: an id saved three times
// appears once, at its latest sequence. The pass covers a snapshot taken
// when it starts, so saves made from inside the visitor are not visited.
//
// One pass may run at a time per Store. The visitor may read from the
// store while the pass runs; starting a second pass from inside it fails
// with ErrIterating.
package sofa

import (
	"iter"

	"github.com/jpl-au/sofa/engine"
)

// ForEachChange calls visit for each record with Sequence > since. visit
// returns false to stop early, which is not an error.
func (s *Store) ForEachChange(since uint64, visit func(*DocumentInfo) bool) error {
	if !s.state.CompareAndSwap(stateIdle, stateIterating) {
		if err := s.usable(); err != nil {
			return err
		}
		return ErrIterating
	}
	// A Close from inside visit leaves the state closed.
	defer s.state.CompareAndSwap(stateIterating, stateIdle)

	st := s.conn.ChangesSince(since, func(ei *engine.Info) bool {
		return visit(s.info(ei))
	})
	if st != engine.StatusOK && s.state.Load() == stateClosed {
		return ErrClosed
	}
	return check(s.engine, "changes", st)
}

// ChangesSince returns the records ForEachChange would visit. The slice
// is empty, not nil, when nothing changed.
func (s *Store) ChangesSince(since uint64) ([]*DocumentInfo, error) {
	out := []*DocumentInfo{}
	err := s.ForEachChange(since, func(info *DocumentInfo) bool {
		out = append(out, info)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Changes yields the records ForEachChange would visit. Breaking out of
// the loop stops the pass. A failure is yielded once, with a nil info,
// as the last element.
func (s *Store) Changes(since uint64) iter.Seq2[*DocumentInfo, error] {
	return func(yield func(*DocumentInfo, error) bool) {
		err := s.ForEachChange(since, func(info *DocumentInfo) bool {
			return yield(info, nil)
		})
		if err != nil {
			yield(nil, err)
		}
	}
}
