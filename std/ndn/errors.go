// Package ndn holds the sentinel error values shared across the forwarder's
// data-plane packages: parse, scope-violation, duplicate-nonce, collision,
// resource-exhaustion, peer-gone, and internal-invariant.
package ndn

import (
	"errors"
	"fmt"
)

// ErrInvalidValue reports a field whose value is well-formed but out of the
// range this forwarder accepts.
type ErrInvalidValue struct {
	Item  string
	Value any
}

func (e ErrInvalidValue) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Item, e.Value)
}

// ErrNotSupported reports a field or selector combination this forwarder
// does not implement.
type ErrNotSupported struct {
	Item string
}

func (e ErrNotSupported) Error() string {
	return fmt.Sprintf("not supported field: %s", e.Item)
}

// ErrParse is returned when the codec fails to decode a message (negative
// TLV length, truncated buffer, bad outer tag).
var ErrParse = errors.New("ccnfwd: malformed message")

// ErrScope is returned when an Interest's scope forbids the operation that
// was about to be performed (e.g. propagation out of a link-framed face
// with scope<2, or propagation at all with scope=0).
var ErrScope = errors.New("ccnfwd: out of scope")

// ErrDuplicateNonce is returned when an Interest's nonce is already present
// in the propagating table - a loop.
var ErrDuplicateNonce = errors.New("ccnfwd: duplicate nonce")

// ErrCollision is returned when two ContentObjects arrive under the same
// name with different bodies. Both entries are evicted; the core does not
// resolve collisions.
var ErrCollision = errors.New("ccnfwd: name collision")

// ErrResourceExhausted is returned when an enroll/upsert cannot proceed
// because a table has no room left to grow (face-table overflow, failed
// allocation). Existing state is left intact.
var ErrResourceExhausted = errors.New("ccnfwd: resource exhausted")

// ErrPeerGone is returned on EOF on a stream face, a short datagram, or a
// fatal send errno.
var ErrPeerGone = errors.New("ccnfwd: peer gone")

// ErrInvariant marks a condition that should be structurally impossible
// (skiplist or slot-generation contradiction). These are programming
// errors, not runtime faults, so callers should route this to
// log.Log.Fatal and abort the process, never return it up to a
// client-facing path.
var ErrInvariant = errors.New("ccnfwd: internal invariant violated")

// ErrFaceDown is returned when a send is attempted on a face that has
// already been shut down.
var ErrFaceDown = errors.New("ccnfwd: face is down")

// ErrUnknownFace is returned by a face-id lookup whose slot generation no
// longer matches - the face-id is stale.
var ErrUnknownFace = errors.New("ccnfwd: unknown or stale face-id")
