package table

import "github.com/ccnfwd/ccnfwd/fw/defn"

// UnitInterest is the counter quantum CCN_UNIT_INTEREST: the "one
// arrival" amount added per Interest and subtracted per satisfaction.
const UnitInterest int64 = 1024

// idleTombstoneTicks is how many consecutive empty aging ticks an
// InterestPrefixEntry survives before it is deleted.
const idleTombstoneTicks = 8

type facePair struct {
	Face    defn.FaceID
	Counter int64
}

// InterestPrefixEntry aggregates demand for one name prefix: a set of
// (face, counter) pairs with a decaying counter per face, plus the list
// of outstanding propagating-interest entries keyed under this prefix.
type InterestPrefixEntry struct {
	Key   string // canonical prefix bytes, doubling as durable storage
	NComp int

	faces []facePair
	idle  int

	Propagating []*PropagatingEntry
}

func (ipe *InterestPrefixEntry) String() string { return "interest-prefix-entry" }

// indexOf returns the slot holding face's counter pair, or -1.
func (ipe *InterestPrefixEntry) indexOf(face defn.FaceID) int {
	for i := range ipe.faces {
		if ipe.faces[i].Face == face {
			return i
		}
	}
	return -1
}

// Bump adds unit to face's counter, creating the pair if face has none
// yet.
func (ipe *InterestPrefixEntry) Bump(face defn.FaceID, unit int64) {
	if i := ipe.indexOf(face); i >= 0 {
		ipe.faces[i].Counter += unit
		return
	}
	ipe.faces = append(ipe.faces, facePair{Face: face, Counter: unit})
}

// Sub subtracts unit from face's counter, flooring at 0.
func (ipe *InterestPrefixEntry) Sub(face defn.FaceID, unit int64) {
	if i := ipe.indexOf(face); i >= 0 {
		ipe.faces[i].Counter -= unit
		if ipe.faces[i].Counter < 0 {
			ipe.faces[i].Counter = 0
		}
	}
}

// Has reports whether face currently has a (possibly zero) counter in this
// entry's set.
func (ipe *InterestPrefixEntry) Has(face defn.FaceID) bool {
	return ipe.indexOf(face) >= 0
}

// Counters iterates over the live (face, counter) pairs.
func (ipe *InterestPrefixEntry) Counters(fn func(face defn.FaceID, counter int64)) {
	for _, p := range ipe.faces {
		fn(p.Face, p.Counter)
	}
}

// Empty reports whether the entry has no (face, counter) pairs left.
func (ipe *InterestPrefixEntry) Empty() bool { return len(ipe.faces) == 0 }

// PrefixTable indexes aggregated Interest demand by prefix-key bytes.
type PrefixTable struct {
	byKey map[string]*InterestPrefixEntry
}

// NewPrefixTable returns an empty prefix table.
func NewPrefixTable() *PrefixTable {
	return &PrefixTable{byKey: make(map[string]*InterestPrefixEntry)}
}

func (pt *PrefixTable) String() string { return "interest-prefix-table" }

// Len reports live entry count, for the status endpoint.
func (pt *PrefixTable) Len() int { return len(pt.byKey) }

// Upsert returns the entry keyed by prefixBytes (the Interest's name
// through its PrefixComp boundary), creating it if absent.
func (pt *PrefixTable) Upsert(prefixBytes []byte, ncomp int) *InterestPrefixEntry {
	key := string(prefixBytes)
	if e, ok := pt.byKey[key]; ok {
		return e
	}
	e := &InterestPrefixEntry{Key: key, NComp: ncomp}
	pt.byKey[key] = e
	return e
}

// Lookup returns the entry keyed by prefixBytes, or nil.
func (pt *PrefixTable) Lookup(prefixBytes []byte) *InterestPrefixEntry {
	return pt.byKey[string(prefixBytes)]
}

// All iterates over every live entry - used by aging and by walking a
// content entry's ancestor prefixes in match_interests.
func (pt *PrefixTable) All(fn func(*InterestPrefixEntry)) {
	for _, e := range pt.byKey {
		fn(e)
	}
}

// Age applies one aging tick to every entry: entries whose face set is
// empty get an idle tick and are deleted past idleTombstoneTicks; every
// counter decays geometrically down to one unit, then linearly to zero; a
// counter that reaches zero is removed from the set, keeping the order of
// the rest.
func (pt *PrefixTable) Age() {
	for key, e := range pt.byKey {
		if e.Empty() {
			e.idle++
			if e.idle > idleTombstoneTicks {
				delete(pt.byKey, key)
			}
			continue
		}
		e.idle = 0
		kept := e.faces[:0]
		for _, p := range e.faces {
			switch {
			case p.Counter > UnitInterest:
				p.Counter = (5*p.Counter + 3) / 6
				kept = append(kept, p)
			case p.Counter > 0:
				p.Counter--
				if p.Counter > 0 {
					kept = append(kept, p)
				}
				// counter reached 0: removed (dropped from kept)
			default:
				// already zero: tombstone, drop it
			}
		}
		e.faces = kept
	}
}
