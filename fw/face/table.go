package face

import (
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/std/ndn"
)

// Table is the face table: a slot array indexed by the low bits of a
// face-id, plus lookup indices by fd and by datagram peer address.
type Table struct {
	slots      []*Face
	rover      int
	generation uint32
	maxFaces   int

	byFd   map[int]*Face
	byAddr map[string]*Face
}

// NewTable returns a face table with initial slot capacity and a hard
// ceiling of maxFaces slots - the slot array grows ×1.5 up to that ceiling.
func NewTable(initial, maxFaces int) *Table {
	if initial < 1 {
		initial = 1
	}
	return &Table{
		slots:    make([]*Face, initial),
		maxFaces: maxFaces,
		byFd:     make(map[int]*Face),
		byAddr:   make(map[string]*Face),
	}
}

func (t *Table) String() string { return "face-table" }

// Len reports live face count, for the status endpoint - byFd holds
// stream faces and listeners, byAddr holds datagram children sharing a
// listener's fd, and the two index sets are disjoint.
func (t *Table) Len() int { return len(t.byFd) + len(t.byAddr) }

func (t *Table) place(f *Face, idx int) defn.FaceID {
	t.slots[idx] = f
	t.rover = idx + 1
	id := defn.NewFaceID(idx, t.generation)
	f.ID = id
	if f.PeerKey != "" {
		// A datagram child shares its physical fd with the listener face
		// that spawned it, so it is never the byFd entry for that fd -
		// only the listener itself is reachable that way. Dispatch finds
		// the child by address once a datagram has been read.
		t.byAddr[f.PeerKey] = f
	} else {
		t.byFd[f.Fd] = f
	}
	return id
}

// Enroll assigns f a face-id and registers it in every lookup index.
// Scans forward from the rover; a full first pass wraps to the
// start and bumps the generation counter (so ids in slots reused after the
// wrap are distinguishable from ids issued before it); a still-full second
// pass grows the slot array by ×1.5 up to maxFaces.
func (t *Table) Enroll(f *Face) (defn.FaceID, error) {
	n := len(t.slots)
	for i := t.rover; i < n; i++ {
		if t.slots[i] == nil {
			return t.place(f, i), nil
		}
	}
	t.generation++
	for i := 0; i < t.rover; i++ {
		if t.slots[i] == nil {
			return t.place(f, i), nil
		}
	}
	if n >= t.maxFaces {
		return 0, ndn.ErrResourceExhausted
	}
	growTo := n*3/2 + 1
	if growTo > t.maxFaces {
		growTo = t.maxFaces
	}
	grown := make([]*Face, growTo)
	copy(grown, t.slots)
	t.slots = grown
	return t.place(f, n), nil
}

// Shutdown releases the face owning fd (a stream face or a datagram
// listener), its fd index, and its slot. Not valid for a datagram child
// face, which shares its fd with the listener - use ShutdownFace for
// those.
func (t *Table) Shutdown(fd int) {
	f, ok := t.byFd[fd]
	if !ok {
		return
	}
	t.ShutdownFace(f)
}

// ShutdownFace releases f's slot and whichever lookup index holds it -
// byFd for a stream face or datagram listener, byAddr for a datagram
// child. The slot's generation is not bumped here - it only advances
// when the rover wraps past this slot again.
func (t *Table) ShutdownFace(f *Face) {
	if f.ID.Slot() < len(t.slots) && t.slots[f.ID.Slot()] == f {
		t.slots[f.ID.Slot()] = nil
	}
	if f.PeerKey != "" {
		delete(t.byAddr, f.PeerKey)
	} else if t.byFd[f.Fd] == f {
		delete(t.byFd, f.Fd)
	}
	f.Out = nil
	f.In = nil
	f.closed = true
}

// LookupByFd returns the face owning fd, or nil.
func (t *Table) LookupByFd(fd int) *Face {
	return t.byFd[fd]
}

// LookupByAddress returns the datagram child face for addrKey and whether
// it already existed, or (nil, false) if none.
func (t *Table) LookupByAddress(addrKey string) (*Face, bool) {
	f, ok := t.byAddr[addrKey]
	return f, ok
}

// LookupByID resolves id to its face iff the slot's occupant matches both
// the slot index and the current generation recorded in id - a mismatched
// generation means id is stale and the lookup fails without needing a
// tombstone.
func (t *Table) LookupByID(id defn.FaceID) *Face {
	slot := id.Slot()
	if slot < 0 || slot >= len(t.slots) {
		return nil
	}
	f := t.slots[slot]
	if f == nil || f.ID != id {
		return nil
	}
	return f
}

// All iterates over every live face - walking slots directly rather than
// either lookup index, since a datagram child only ever appears in byAddr
// and a stream face or listener only ever appears in byFd.
func (t *Table) All(fn func(*Face)) {
	for _, f := range t.slots {
		if f != nil {
			fn(f)
		}
	}
}
