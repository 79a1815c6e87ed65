// Package defn holds the small shared types every other fw package depends
// on, so none of them need to import each other just to name a face or a
// scope.
package defn

import "fmt"

// MaxPacketSize is the size of the buffer each inbound datagram is read
// into, so it bounds a datagram message, link PDU included. Stream faces
// apply no message size limit of their own.
const MaxPacketSize = 65536

// Scope distinguishes faces whose Interests/Content may cross the local
// machine boundary from ones that may not.
type Scope int

const (
	NonLocal Scope = iota
	Local
)

func (s Scope) String() string {
	if s == Local {
		return "local"
	}
	return "non-local"
}

// LinkType distinguishes a point-to-point face (unix-domain stream, one
// peer) from a multi-access one (a UDP socket shared by many remote
// peers, requiring per-datagram addressing).
type LinkType int

const (
	PointToPoint LinkType = iota
	MultiAccess
)

func (l LinkType) String() string {
	if l == MultiAccess {
		return "multi-access"
	}
	return "point-to-point"
}

// FaceID packs a face's table slot and the generation counter of whatever
// occupied that slot when the id was handed out: the low bits are the slot
// index into the fixed-size face array, the high bits a generation counter
// that increments every time the slot is reused, so a stale id naturally
// fails the generation check instead of needing a tombstone.
type FaceID uint32

// slotBits is the width of the slot-index portion of a FaceID - 16 bits
// supports up to 65536 concurrently open faces, comfortably above any
// plausible fd-table size on a single host.
const slotBits = 16
const slotMask = 1<<slotBits - 1

// NewFaceID packs a slot index and generation counter into a FaceID.
func NewFaceID(slot int, generation uint32) FaceID {
	return FaceID(uint32(slot)&slotMask | generation<<slotBits)
}

// Slot returns the slot-index portion of the id.
func (f FaceID) Slot() int { return int(uint32(f) & slotMask) }

// Generation returns the generation-counter portion of the id.
func (f FaceID) Generation() uint32 { return uint32(f) >> slotBits }

func (f FaceID) String() string {
	return fmt.Sprintf("%d", uint32(f))
}

// TombstoneFaceID marks a slot in a ContentEntry.Faces list as already sent
// and now unblocked for resend. Its bit pattern is all ones - slot 65535
// with generation 65535. A FaceID keeps only the low 16 bits of the
// generation counter, so an Enroll-assigned id takes this value only in
// slot 65535 when those 16 bits are all ones.
const TombstoneFaceID FaceID = ^FaceID(0)

// Kind distinguishes how a face frames its messages on the wire.
type Kind int

const (
	// KindStream faces are unix-domain stream sockets: one peer per fd,
	// messages self-delimit via TLV length and may be split across reads.
	KindStream Kind = iota
	// KindDatagram faces are UDP sockets: one fd serves many peers,
	// addressed per-datagram, each datagram exactly one message.
	KindDatagram
)

func (k Kind) String() string {
	if k == KindDatagram {
		return "datagram"
	}
	return "stream"
}
