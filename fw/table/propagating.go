package table

import (
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
)

// PropagatingEntry is an outstanding outbound Interest, keyed by its nonce.
type PropagatingEntry struct {
	Nonce [enc.NonceLength]byte
	Msg   []byte // owned copy of the (possibly nonce-spliced) message bytes
	Origin defn.FaceID
	HasOrigin bool

	Outbound []defn.FaceID

	IPE *InterestPrefixEntry // owning prefix entry, for list membership only

	HasSendHandle bool
	SendHandle    scheduler.Handle
}

func (pe *PropagatingEntry) String() string { return "propagating-entry" }

// PopOutbound removes and returns one face-id from the back of Outbound,
// and reports whether one was available.
func (pe *PropagatingEntry) PopOutbound() (defn.FaceID, bool) {
	n := len(pe.Outbound)
	if n == 0 {
		return 0, false
	}
	f := pe.Outbound[n-1]
	pe.Outbound = pe.Outbound[:n-1]
	return f, true
}

// RemoveOutbound drops face from Outbound if present - used when a
// duplicate arrival of the same nonce is heard from a face we were about
// to (re)send to.
func (pe *PropagatingEntry) RemoveOutbound(face defn.FaceID) {
	for i, f := range pe.Outbound {
		if f == face {
			pe.Outbound = append(pe.Outbound[:i], pe.Outbound[i+1:]...)
			return
		}
	}
}

// PropagatingTable indexes outstanding outbound Interests by nonce.
type PropagatingTable struct {
	byNonce map[[enc.NonceLength]byte]*PropagatingEntry
	sched   *scheduler.Scheduler
}

// NewPropagatingTable returns an empty propagating table whose Remove can
// cancel a still-pending send task.
func NewPropagatingTable(sched *scheduler.Scheduler) *PropagatingTable {
	return &PropagatingTable{byNonce: make(map[[enc.NonceLength]byte]*PropagatingEntry), sched: sched}
}

func (pt *PropagatingTable) String() string { return "propagating-table" }

// Len reports live entry count, for the status endpoint.
func (pt *PropagatingTable) Len() int { return len(pt.byNonce) }

// Lookup returns the entry for nonce, or nil.
func (pt *PropagatingTable) Lookup(nonce [enc.NonceLength]byte) *PropagatingEntry {
	return pt.byNonce[nonce]
}

// Insert registers a brand-new entry and links it into ipe's propagating
// list.
func (pt *PropagatingTable) Insert(pe *PropagatingEntry, ipe *InterestPrefixEntry) {
	pt.byNonce[pe.Nonce] = pe
	pe.IPE = ipe
	ipe.Propagating = append(ipe.Propagating, pe)
}

// Remove deletes pe from the table, unlinks it from its owning prefix
// entry's list, and cancels whatever send task is still scheduled against
// it, clearing Msg and Outbound so that task becomes a no-op even if it
// somehow still fires - a cancelled entry must never resend.
func (pt *PropagatingTable) Remove(pe *PropagatingEntry) {
	delete(pt.byNonce, pe.Nonce)
	if pe.HasSendHandle {
		pt.sched.Cancel(pe.SendHandle)
		pe.HasSendHandle = false
	}
	pe.Msg = nil
	pe.Outbound = nil
	if pe.IPE == nil {
		return
	}
	list := pe.IPE.Propagating
	for i, e := range list {
		if e == pe {
			pe.IPE.Propagating = append(list[:i], list[i+1:]...)
			break
		}
	}
	pe.IPE = nil
}

// CancelOneForOrigin removes and returns one live PropagatingEntry under
// ipe whose originating face is origin, or nil if none - used once content
// arrives that satisfies the outstanding ask that entry represents.
func (pt *PropagatingTable) CancelOneForOrigin(ipe *InterestPrefixEntry, origin defn.FaceID) *PropagatingEntry {
	for _, pe := range ipe.Propagating {
		if pe.HasOrigin && pe.Origin == origin {
			pt.Remove(pe)
			return pe
		}
	}
	return nil
}

// Reapable reports whether pe is a stale, empty entry fit for the reaper
// to collect: no message bytes retained and no outbound faces left to
// send to.
func (pe *PropagatingEntry) Reapable() bool {
	return pe.Msg == nil && len(pe.Outbound) == 0
}
