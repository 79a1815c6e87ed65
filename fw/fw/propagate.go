package fw

import (
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/ccnfwd/ccnfwd/fw/table"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
)

// propagateFirstSendMaxMicros / propagateRetry* are the jitter bounds for
// propagation: first send in [0, 8192)us, retries at rand()%8192 + 500 us.
const (
	propagateFirstSendMaxMicros = 8192
	propagateRetryJitterMicros  = 8192
	propagateRetryMinMicros     = 500
)

// propagate forwards an Interest that found no local match to every other
// live face the scope mask permits.
func (fw *Forwarder) propagate(raw []byte, pi *enc.ParsedInterest, origin *face.Face, ipe *table.InterestPrefixEntry) {
	outbound := fw.outboundFaces(origin, pi.ScopeVal)
	if len(outbound) == 0 {
		return
	}

	nonce := pi.Nonce
	msg := raw
	if !pi.HasNonce {
		nonce = enc.NewNonce()
		msg = enc.BuildInterest(pi.NameVal.Comps, pi.ScopeVal, pi.OrderPref, &nonce)
	}

	if existing := fw.PET.Lookup(nonce); existing != nil {
		// Same nonce already propagating (a synthesized-nonce collision,
		// since a wire-carried duplicate would have been dropped by the
		// loop check before propagate was ever called) - don't send back
		// to whichever face produced it.
		existing.RemoveOutbound(origin.ID)
		return
	}

	pe := &table.PropagatingEntry{
		Nonce:     nonce,
		Msg:       append([]byte(nil), msg...),
		Origin:    origin.ID,
		HasOrigin: true,
		Outbound:  outbound,
	}
	fw.PET.Insert(pe, ipe)
	fw.scheduleSend(pe, fw.rng.Int63n(propagateFirstSendMaxMicros))
	fw.Counters.OutInterests++
}

// outboundFaces collects every live face but origin whose flags pass the
// scope mask - link-framed faces excluded when scope==1. An Interest is
// never sent back to the face it arrived on.
func (fw *Forwarder) outboundFaces(origin *face.Face, scope int) []defn.FaceID {
	var out []defn.FaceID
	fw.Faces.All(func(f *face.Face) {
		if f.ID == origin.ID {
			return
		}
		// The bare UDP listener face (no peer address yet) isn't a
		// deliverable destination by itself - only its per-peer children
		// (spawned on first receive) are.
		if f.Kind == defn.KindDatagram && f.PeerKey == "" {
			return
		}
		if scope == enc.ScopeLocalLinks && f.LinkFramed {
			return
		}
		out = append(out, f.ID)
	})
	return out
}

func (fw *Forwarder) scheduleSend(pe *table.PropagatingEntry, delay int64) {
	pe.SendHandle = fw.Sched.Schedule(delay, func(payload any) {
		fw.sendOnePropagating(payload.(*table.PropagatingEntry))
	}, pe, 0)
	pe.HasSendHandle = true
}

// sendOnePropagating is the propagation send task: pop one face from the
// back of outbound, send, and reschedule until outbound is drained.
func (fw *Forwarder) sendOnePropagating(pe *table.PropagatingEntry) {
	pe.HasSendHandle = false
	fid, ok := pe.PopOutbound()
	if !ok {
		fw.finalizePropagating(pe)
		return
	}
	if f := fw.Faces.LookupByID(fid); f != nil {
		msg := pe.Msg
		if f.LinkFramed {
			msg = enc.WrapLinkPDU(msg)
		}
		if err := f.Send(msg); err != nil {
			fw.Faces.ShutdownFace(f)
		}
	}
	if len(pe.Outbound) == 0 {
		fw.finalizePropagating(pe)
		return
	}
	fw.scheduleSend(pe, propagateRetryMinMicros+fw.rng.Int63n(propagateRetryJitterMicros))
}

// finalizePropagating drops the entry's owned message once fully sent,
// relying on the already-running periodic reaper to collect it instead of
// triggering an ad hoc one, since Reapable() is satisfied the moment Msg
// is nil and Outbound is empty and nothing else needs the entry gone any
// sooner than the next reap tick.
func (fw *Forwarder) finalizePropagating(pe *table.PropagatingEntry) {
	pe.Msg = nil
}
