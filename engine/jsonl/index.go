// In-memory indexes over the record lines.
//
// byID maps an id to the entry of its newest version. bySeq holds entries
// in increasing sequence order; when an id is saved again its previous
// entry is marked stale rather than removed, and stale entries are swept
// once they make up half of the slice. Lookups skip stale entries, so only
// the newest version of every id is visible by sequence.
package jsonl

import (
	"slices"
	"sort"

	"github.com/jpl-au/sofa/engine"
)

type entry struct {
	info  engine.Info // BodyPos is the line offset for live records, 0 for tombstones
	off   int64       // line offset, also set for tombstones
	stale bool
}

type index struct {
	byID    map[string]*entry
	bySeq   []*entry
	stale   int
	lastSeq uint64
	live    uint64
	deleted uint64
}

func newIndex() *index {
	return &index{byID: make(map[string]*entry)}
}

// put records e as the newest version of its id. e.info.Seq must be
// greater than every sequence already indexed.
func (x *index) put(e *entry) {
	key := string(e.info.ID)
	if prev, ok := x.byID[key]; ok {
		prev.stale = true
		x.stale++
		if prev.info.Deleted {
			x.deleted--
		} else {
			x.live--
		}
	}
	x.byID[key] = e
	x.bySeq = append(x.bySeq, e)
	x.lastSeq = e.info.Seq
	if e.info.Deleted {
		x.deleted++
	} else {
		x.live++
	}

	if x.stale > 64 && x.stale > len(x.bySeq)/2 {
		x.sweep()
	}
}

// sweep drops stale entries from bySeq.
func (x *index) sweep() {
	x.bySeq = slices.DeleteFunc(x.bySeq, func(e *entry) bool { return e.stale })
	x.stale = 0
}

// get returns the newest entry for id, or nil.
func (x *index) get(id []byte) *entry {
	return x.byID[string(id)]
}

// find returns the current entry carrying exactly seq, or nil.
func (x *index) find(seq uint64) *entry {
	i := x.search(seq)
	if i < len(x.bySeq) && x.bySeq[i].info.Seq == seq && !x.bySeq[i].stale {
		return x.bySeq[i]
	}
	return nil
}

// search returns the position of the first entry with Seq >= seq.
func (x *index) search(seq uint64) int {
	return sort.Search(len(x.bySeq), func(i int) bool {
		return x.bySeq[i].info.Seq >= seq
	})
}

// since copies the current entries with Seq > seq, in sequence order.
func (x *index) since(seq uint64) []engine.Info {
	start := len(x.bySeq)
	if seq < x.lastSeq {
		start = x.search(seq + 1)
	}
	out := make([]engine.Info, 0, len(x.bySeq)-start)
	for _, e := range x.bySeq[start:] {
		if !e.stale {
			out = append(out, e.info)
		}
	}
	return out
}

// current returns the non-stale entries in sequence order.
func (x *index) current() []*entry {
	out := make([]*entry, 0, len(x.byID))
	for _, e := range x.bySeq {
		if !e.stale {
			out = append(out, e)
		}
	}
	return out
}
