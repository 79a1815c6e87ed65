package table_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	"github.com/ccnfwd/ccnfwd/fw/table"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/stretchr/testify/require"
)

// A nonce uniquely identifies a live propagating entry; Insert/Lookup/
// Remove round-trip correctly and unlink the entry from its owning
// prefix's list.
func TestPropagatingInsertLookupRemove(t *testing.T) {
	pt := table.NewPropagatingTable(scheduler.New())
	prefixes := table.NewPrefixTable()
	ipe := prefixes.Upsert([]byte("/x"), 1)

	pe := &table.PropagatingEntry{Nonce: enc.NewNonce(), Origin: defn.FaceID(1), HasOrigin: true}
	pt.Insert(pe, ipe)

	require.Equal(t, 1, pt.Len())
	require.Same(t, pe, pt.Lookup(pe.Nonce))
	require.Len(t, ipe.Propagating, 1)

	pt.Remove(pe)
	require.Equal(t, 0, pt.Len())
	require.Len(t, ipe.Propagating, 0)
	require.Nil(t, pt.Lookup(pe.Nonce))
}

// PopOutbound drains from the back, and RemoveOutbound drops a face
// heard duplicating the same nonce before it was sent to (loop
// suppression).
func TestOutboundPopAndRemove(t *testing.T) {
	pe := &table.PropagatingEntry{Outbound: []defn.FaceID{1, 2, 3}}
	pe.RemoveOutbound(2)
	require.Equal(t, []defn.FaceID{1, 3}, pe.Outbound)

	f, ok := pe.PopOutbound()
	require.True(t, ok)
	require.Equal(t, defn.FaceID(3), f)

	f, ok = pe.PopOutbound()
	require.True(t, ok)
	require.Equal(t, defn.FaceID(1), f)

	_, ok = pe.PopOutbound()
	require.False(t, ok)
}

// CancelOneForOrigin removes exactly one entry whose origin matches,
// consuming one outstanding ask, and leaves entries from other origins
// untouched.
func TestCancelOneForOrigin(t *testing.T) {
	pt := table.NewPropagatingTable(scheduler.New())
	prefixes := table.NewPrefixTable()
	ipe := prefixes.Upsert([]byte("/y"), 1)

	pe1 := &table.PropagatingEntry{Nonce: enc.NewNonce(), Origin: 1, HasOrigin: true}
	pe2 := &table.PropagatingEntry{Nonce: enc.NewNonce(), Origin: 2, HasOrigin: true}
	pt.Insert(pe1, ipe)
	pt.Insert(pe2, ipe)

	cancelled := pt.CancelOneForOrigin(ipe, 1)
	require.Same(t, pe1, cancelled)
	require.Len(t, ipe.Propagating, 1)
	require.Same(t, pe2, ipe.Propagating[0])

	require.Nil(t, pt.CancelOneForOrigin(ipe, 1))
}
