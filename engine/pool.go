package engine

import "sync"

// Engine-owned structures are recycled through pools. A connection hands
// out values from NewDoc/NewInfo and takes them back in ReleaseDoc and
// ReleaseInfo, so a caller that holds on to a released value observes it
// being zeroed and reused.
var (
	docPool  = sync.Pool{New: func() any { return new(Doc) }}
	infoPool = sync.Pool{New: func() any { return new(Info) }}
)

// NewDoc returns a zeroed Doc from the shared pool.
func NewDoc() *Doc {
	return docPool.Get().(*Doc)
}

// FreeDoc zeroes d and returns it to the shared pool.
func FreeDoc(d *Doc) {
	if d == nil {
		return
	}
	*d = Doc{}
	docPool.Put(d)
}

// NewInfo returns a zeroed Info from the shared pool.
func NewInfo() *Info {
	return infoPool.Get().(*Info)
}

// FreeInfo zeroes i and returns it to the shared pool.
func FreeInfo(i *Info) {
	if i == nil {
		return
	}
	*i = Info{}
	infoPool.Put(i)
}
