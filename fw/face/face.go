// Package face implements the face table: the registry of peer endpoints,
// their stable face-ids, and their per-face I/O buffers. The event loop
// (fw/fw) owns the epoll set; this package owns only the bookkeeping
// epoll dispatches into.
package face

import (
	"fmt"

	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/std/types/optional"
	"golang.org/x/sys/unix"
)

// Face is one peer endpoint.
type Face struct {
	ID   defn.FaceID
	Fd   int
	Kind defn.Kind
	Scope defn.Scope

	// LinkFramed becomes true the first time a message wrapped in a link
	// PDU arrives on this face (datagram child faces start out flagged);
	// thereafter every write to it is wrapped.
	LinkFramed bool

	// PeerKey is the raw sockaddr bytes for a datagram child face, used
	// as the by-address map key; empty for stream faces and the
	// datagram listener face itself.
	PeerKey string

	// PeerAddr is the sockaddr a datagram child face's sends must target,
	// since all of them share one underlying socket fd with the listener
	// face; peers materialize as child faces on first receive. Nil for
	// stream faces and the listener face itself.
	PeerAddr unix.Sockaddr

	// In is the inbound accumulation buffer: a stream face's reads may
	// split a message across several calls, so bytes accumulate here
	// until a full TLV can be decoded; a datagram face's In holds
	// exactly one received datagram at a time.
	In []byte

	// Out is the deferred-write buffer: when a non-blocking send would
	// block, the unsent tail is appended here and drained on write-
	// readiness.
	Out       []byte
	OutOffset int

	// CachedAccession is the "give me what's next" hint: advanced one step
	// past an earlier hit iff the hint still matches the new prefix.
	// Cleared on face creation, never on face-id recycle - absent and
	// present-but-zero are genuinely different states here, hence
	// Optional rather than a zero value standing in for "none".
	CachedAccession optional.Optional[int64]

	// RecvCount is the reaper's two-tick grace counter for datagram
	// faces.
	RecvCount int

	closed bool
}

func (f *Face) String() string {
	return fmt.Sprintf("face(%s fd=%d kind=%s)", f.ID, f.Fd, f.Kind)
}

// HasPendingWrite reports whether this face has unsent bytes queued.
func (f *Face) HasPendingWrite() bool {
	return f.OutOffset < len(f.Out)
}

// QueueWrite appends msg to the deferred-write buffer. Called both when a
// direct write returns EAGAIN and when queuing behind bytes already
// pending, to preserve per-face FIFO order.
func (f *Face) QueueWrite(msg []byte) {
	if f.OutOffset > 0 && f.OutOffset == len(f.Out) {
		f.Out = f.Out[:0]
		f.OutOffset = 0
	}
	f.Out = append(f.Out, msg...)
}

// ClearCachedAccession resets the re-ask resume hint, e.g. when the
// underlying content entry it pointed to has been evicted.
func (f *Face) ClearCachedAccession() {
	f.CachedAccession.Clear()
}

// SetCachedAccession records accession as the resume hint for this
// face's next store lookup.
func (f *Face) SetCachedAccession(accession int64) {
	f.CachedAccession.Set(accession)
}
