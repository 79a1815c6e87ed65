// Package table implements the forwarder's three coupled tables: the
// content store, the interest-prefix table, and the propagating-interest
// table.
package table

import (
	"bytes"
	"math/rand"

	"github.com/cespare/xxhash"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/ccnfwd/ccnfwd/std/ndn"
)

// skiplistMaxLevel caps the tower height a ContentEntry can be sampled
// at.
const skiplistMaxLevel = 30

// ContentEntry is a cached named data packet.
type ContentEntry struct {
	Accession int64
	Raw       []byte // the ContentObject TLV's value bytes, owned copy
	Name      enc.Name
	SigStart, SigEnd int

	// HashKeyEnd is the offset one past the end of the Name: Raw up to it is
	// the key used for by-hash lookup, and the bytes past it decide between
	// duplicate and collision.
	HashKeyEnd int

	// Forward holds this entry's skiplist forward pointers, one per
	// level, as accession numbers - never raw pointers, so the skiplist
	// and the sliding by-accession window cooperate without dangling
	// references.
	Forward []int64

	Faces     []defn.FaceID
	NFaceDone int
	NFaceOld  int

	HasSender bool
	Sender    scheduler.Handle

	SlowSend bool
	DupCount int
}

func (e *ContentEntry) String() string { return "content-entry" }

// Tail returns the bytes past the hash key - the content body and
// signature - used to disambiguate a duplicate delivery from a name
// collision on upsert.
func (e *ContentEntry) Tail() []byte {
	return e.Raw[e.HashKeyEnd:]
}

// SignatureBits returns the 32-byte signature bits, the response-filter
// suppression key used by the unblocked check.
func (e *ContentEntry) SignatureBits() []byte {
	if e.SigEnd <= e.SigStart {
		return nil
	}
	return e.Raw[e.SigStart:e.SigEnd]
}

// UpsertKind reports the outcome of a ContentStore.Upsert call.
type UpsertKind int

const (
	UpsertNew UpsertKind = iota
	UpsertDuplicate
	UpsertCollision
)

// ContentStore is a three-index cache: by-hash (exact lookup + dedup),
// by-accession (sliding window), by-name skiplist (canonical-order
// prefix scan). The by-hash index is keyed on an xxhash digest of the
// name bytes (Raw up to HashKeyEnd) rather than the bytes themselves, so
// the key is not copied into a Go string on every lookup; a digest hit is
// still verified against the full key bytes before
// being treated as the same key. A genuine 64-bit digest collision
// between two different keys is treated as if no entry were present,
// same tradeoff any xxhash-keyed cache makes.
type ContentStore struct {
	byHash      map[uint64]*ContentEntry
	byAccession []*ContentEntry
	accBase     int64
	nextAcc     int64
	capacity    int

	head []int64 // skiplist head forward pointers, by level; -1 = end

	sched *scheduler.Scheduler
	rng   *rand.Rand
}

// sentinel marks "no accession" - skiplist end-of-list or head pointer.
const sentinel int64 = -1

// NewContentStore builds an empty store. capacity bounds the by-accession
// sliding window before it starts evicting its oldest entries - the
// window itself grows ×1.5 with a constant floor.
func NewContentStore(sched *scheduler.Scheduler, capacity int) *ContentStore {
	if capacity < 16 {
		capacity = 16
	}
	return &ContentStore{
		byHash:      make(map[uint64]*ContentEntry),
		byAccession: make([]*ContentEntry, 0, 16),
		capacity:    capacity,
		head:        []int64{sentinel},
		sched:       sched,
		rng:         rand.New(rand.NewSource(1)),
	}
}

func (cs *ContentStore) String() string { return "content-store" }

// Len reports the number of live ContentEntry values, for the status
// endpoint.
func (cs *ContentStore) Len() int { return len(cs.byHash) }

// Upsert parses and inserts value (a ContentObject TLV's value bytes). On
// a brand-new name it allocates an accession and indexes the entry in all
// three tables. On a repeat name with matching tail bytes, it reports a
// duplicate without allocating. On a repeat name with differing tail
// bytes, both the existing and (logically) the new entry are dropped - a
// name collision the core does not resolve.
func (cs *ContentStore) Upsert(value []byte) (*ContentEntry, UpsertKind, error) {
	probe, err := enc.ParseContentObject(value, 0)
	if err != nil {
		return nil, 0, ndn.ErrParse
	}
	hashKeyBytes := probe.Raw[:probe.HashKeyEnd]
	digest := xxhash.Sum64(hashKeyBytes)

	if existing, ok := cs.byHash[digest]; ok && bytes.Equal(hashKeyBytes, existing.Raw[:existing.HashKeyEnd]) {
		if bytes.Equal(probe.Tail(), existing.Tail()) {
			existing.DupCount++
			return existing, UpsertDuplicate, nil
		}
		cs.evict(existing)
		return nil, UpsertCollision, nil
	}

	if len(cs.byHash) >= cs.capacity*8 {
		return nil, 0, ndn.ErrResourceExhausted
	}

	owned := append([]byte(nil), value...)
	parsed, err := enc.ParseContentObject(owned, 0)
	if err != nil {
		return nil, 0, ndn.ErrParse
	}

	entry := &ContentEntry{
		Accession:  cs.nextAcc,
		Raw:        owned,
		Name:       parsed.NameVal,
		SigStart:   parsed.SignatureBitsStart,
		SigEnd:     parsed.SignatureBitsEnd,
		HashKeyEnd: parsed.HashKeyEnd,
	}
	cs.nextAcc++

	cs.byHash[digest] = entry
	cs.enrollAccession(entry)
	cs.skiplistInsert(entry)
	return entry, UpsertNew, nil
}

// evict removes an entry from all three indices and cancels its pending
// send, if any.
func (cs *ContentStore) evict(e *ContentEntry) {
	delete(cs.byHash, xxhash.Sum64(e.Raw[:e.HashKeyEnd]))
	if idx := e.Accession - cs.accBase; idx >= 0 && idx < int64(len(cs.byAccession)) {
		cs.byAccession[idx] = nil
	}
	cs.skiplistRemove(e)
	if e.HasSender {
		cs.sched.Cancel(e.Sender)
		e.HasSender = false
	}
}

// Evict is the exported form, used by the cleaner and by collision
// handling outside this file.
func (cs *ContentStore) Evict(e *ContentEntry) { cs.evict(e) }

func (cs *ContentStore) entryAt(acc int64) *ContentEntry {
	if acc == sentinel {
		return nil
	}
	idx := acc - cs.accBase
	if idx < 0 || idx >= int64(len(cs.byAccession)) {
		return nil
	}
	return cs.byAccession[idx]
}

func (cs *ContentStore) enrollAccession(e *ContentEntry) {
	for e.Accession-cs.accBase >= int64(len(cs.byAccession)) {
		if len(cs.byAccession) < cs.capacity {
			cs.growWindow()
		} else {
			cs.slideWindow()
		}
	}
	cs.byAccession[e.Accession-cs.accBase] = e
}

// growWindow extends the sliding window by ×1.5, up to capacity.
func (cs *ContentStore) growWindow() {
	newLen := len(cs.byAccession)*3/2 + 1
	if newLen > cs.capacity {
		newLen = cs.capacity
	}
	grown := make([]*ContentEntry, newLen)
	copy(grown, cs.byAccession)
	cs.byAccession = grown
}

// slideWindow evicts the oldest half of the window to make room for new
// accessions once the window has reached its capacity ceiling.
func (cs *ContentStore) slideWindow() {
	shift := len(cs.byAccession) / 2
	if shift < 1 {
		shift = 1
	}
	for i := 0; i < shift; i++ {
		if e := cs.byAccession[i]; e != nil {
			cs.evict(e)
		}
	}
	copy(cs.byAccession, cs.byAccession[shift:])
	for i := len(cs.byAccession) - shift; i < len(cs.byAccession); i++ {
		cs.byAccession[i] = nil
	}
	cs.accBase += int64(shift)
}

// sampleLevel draws a skiplist tower height from Geom(¼), capped at 30:
// the tower grows one more level for as long as rand()&3==0 keeps hitting.
func (cs *ContentStore) sampleLevel() int {
	level := 1
	for level < skiplistMaxLevel && cs.rng.Intn(4) == 0 {
		level++
	}
	return level
}

func (cs *ContentStore) forwardAt(predAcc int64, lvl int) int64 {
	if predAcc == sentinel {
		if lvl < len(cs.head) {
			return cs.head[lvl]
		}
		return sentinel
	}
	e := cs.entryAt(predAcc)
	if e == nil || lvl >= len(e.Forward) {
		return sentinel
	}
	return e.Forward[lvl]
}

func (cs *ContentStore) setForwardAt(predAcc int64, lvl int, val int64) {
	if predAcc == sentinel {
		cs.head[lvl] = val
		return
	}
	if e := cs.entryAt(predAcc); e != nil && lvl < len(e.Forward) {
		e.Forward[lvl] = val
	}
}

// findBefore walks the skiplist from the head, descending level by level,
// recording at each level the last entry whose name is strictly less than
// key - a predecessor array, one entry per level.
func (cs *ContentStore) findBefore(key enc.Name) []int64 {
	update := make([]int64, len(cs.head))
	pred := sentinel
	for lvl := len(cs.head) - 1; lvl >= 0; lvl-- {
		cur := cs.forwardAt(pred, lvl)
		for cur != sentinel {
			e := cs.entryAt(cur)
			if e == nil || enc.Compare(e.Name, key) >= 0 {
				break
			}
			pred = cur
			cur = cs.forwardAt(pred, lvl)
		}
		update[lvl] = pred
	}
	return update
}

func (cs *ContentStore) skiplistInsert(e *ContentEntry) {
	level := cs.sampleLevel()
	for len(cs.head) < level {
		cs.head = append(cs.head, sentinel)
	}
	update := cs.findBefore(e.Name)
	e.Forward = make([]int64, level)
	for lvl := 0; lvl < level; lvl++ {
		pred := sentinel
		if lvl < len(update) {
			pred = update[lvl]
		}
		e.Forward[lvl] = cs.forwardAt(pred, lvl)
		cs.setForwardAt(pred, lvl, e.Accession)
	}
}

func (cs *ContentStore) skiplistRemove(e *ContentEntry) {
	update := cs.findBefore(e.Name)
	for lvl := 0; lvl < len(e.Forward); lvl++ {
		pred := sentinel
		if lvl < len(update) {
			pred = update[lvl]
		}
		if cs.forwardAt(pred, lvl) == e.Accession {
			cs.setForwardAt(pred, lvl, e.Forward[lvl])
		}
	}
	for len(cs.head) > 1 && cs.head[len(cs.head)-1] == sentinel {
		cs.head = cs.head[:len(cs.head)-1]
	}
}

// FirstCandidate returns the first entry whose name is not less than
// prefix in canonical order - the skiplist's level-0 successor of
// findBefore(prefix).
func (cs *ContentStore) FirstCandidate(prefix enc.Name) *ContentEntry {
	update := cs.findBefore(prefix)
	pred := sentinel
	if len(update) > 0 {
		pred = update[0]
	}
	return cs.entryAt(cs.forwardAt(pred, 0))
}

// EntryByAccession resolves an accession hint (e.g. a face's
// cached_accession) back to its entry, or nil if it has since been
// evicted.
func (cs *ContentStore) EntryByAccession(acc int64) *ContentEntry {
	return cs.entryAt(acc)
}

// Next returns entry's level-0 skiplist successor - the canonical next
// entry for a prefix scan.
func (cs *ContentStore) Next(e *ContentEntry) *ContentEntry {
	if len(e.Forward) == 0 {
		return nil
	}
	return cs.entryAt(e.Forward[0])
}

// All iterates over every live ContentEntry - used by the cleaner to
// rewrite face lists in place.
func (cs *ContentStore) All(fn func(*ContentEntry)) {
	for _, e := range cs.byHash {
		fn(e)
	}
}
