package fw

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/stretchr/testify/require"
)

func newReapTestForwarder(t *testing.T) *Forwarder {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Forwarder.ContentStoreByAccessionCapacity = 64
	return New(cfg)
}

// A datagram face that never receives again survives the tick right after
// its last datagram and is only evicted on the following one - two ticks'
// grace between the last datagram and eviction.
func TestReapGivesDatagramFaceTwoTicksGrace(t *testing.T) {
	fwd := newReapTestForwarder(t)
	child := &face.Face{Fd: 7, Kind: defn.KindDatagram, Scope: defn.NonLocal, PeerKey: "peer", RecvCount: 1}
	_, err := fwd.Faces.Enroll(child)
	require.NoError(t, err)

	fwd.reap()
	require.NotNil(t, fwd.Faces.LookupByID(child.ID), "face must survive the first idle tick")
	require.Equal(t, 0, child.RecvCount)

	fwd.reap()
	require.Nil(t, fwd.Faces.LookupByID(child.ID), "face must be gone by the second idle tick")
}

// A datagram face that keeps receiving between ticks is folded back to
// zero by each tick but is never found at zero by one, and so never gets
// reaped.
func TestReapKeepsActiveDatagramFace(t *testing.T) {
	fwd := newReapTestForwarder(t)
	child := &face.Face{Fd: 7, Kind: defn.KindDatagram, Scope: defn.NonLocal, PeerKey: "peer"}
	_, err := fwd.Faces.Enroll(child)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		child.RecvCount++
		fwd.reap()
		require.NotNil(t, fwd.Faces.LookupByID(child.ID))
	}
}

// The bare UDP listener face (PeerKey=="") never ages out via this path,
// regardless of RecvCount.
func TestReapNeverEvictsListenerFace(t *testing.T) {
	fwd := newReapTestForwarder(t)
	listener := &face.Face{Fd: 9, Kind: defn.KindDatagram, Scope: defn.NonLocal}
	_, err := fwd.Faces.Enroll(listener)
	require.NoError(t, err)

	fwd.reap()
	fwd.reap()
	require.NotNil(t, fwd.Faces.LookupByID(listener.ID))
}
