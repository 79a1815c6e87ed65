package fw_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/ccnfwd/ccnfwd/fw/fw"
	"github.com/ccnfwd/ccnfwd/fw/table"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/stretchr/testify/require"
)

func comp(s string) enc.Component { return enc.NewGenericComponent([]byte(s)) }

func newTestForwarder(t *testing.T) *fw.Forwarder {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Forwarder.ContentStoreByAccessionCapacity = 64
	return fw.New(cfg)
}

func enrollFace(t *testing.T, f *fw.Forwarder, fd int, kind defn.Kind) *face.Face {
	t.Helper()
	fc := &face.Face{Fd: fd, Kind: kind, Scope: defn.Local}
	_, err := f.Faces.Enroll(fc)
	require.NoError(t, err)
	return fc
}

func contentObjectValue(t *testing.T, name []enc.Component) []byte {
	t.Helper()
	sig := make([]byte, 32)
	for i := range sig {
		sig[i] = byte(i)
	}
	wire := enc.BuildContentObject(name, sig, []byte("hello world"))
	msg, consumed, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	return msg.Content.Raw
}

func interestWire(name []enc.Component, scope int) []byte {
	return enc.BuildInterest(name, scope, enc.OrderLeftmost, nil)
}

// S1 - hit: preloaded content under /a/b answers an Interest for /a on the
// asking face, and content.faces/nface_done reflect the one delivery.
func TestHandleInterest_HitFromContentStore(t *testing.T) {
	fwd := newTestForwarder(t)
	f1 := enrollFace(t, fwd, 1, defn.KindStream)

	name := []enc.Component{comp("a"), comp("b")}
	val := contentObjectValue(t, name)
	entry, kind, err := fwd.CS.Upsert(val)
	require.NoError(t, err)
	require.Equal(t, table.UpsertNew, kind)

	wire := interestWire([]enc.Component{comp("a")}, enc.ScopeUnlimited)
	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)

	fwd.HandleInterest(f1, wire, msg.Interest)

	require.Equal(t, []defn.FaceID{f1.ID}, entry.Faces)
	cached, ok := f1.CachedAccession.Get()
	require.True(t, ok)
	require.Equal(t, entry.Accession, cached)
	require.Equal(t, uint64(1), fwd.Counters.SatisfiedInterests)
	require.Equal(t, 0, fwd.PET.Len())
}

// S2 - miss then fill: an Interest with no local match propagates to every
// other live face; a subsequent ContentObject under that prefix satisfies
// it and removes the propagating entry.
func TestHandleInterest_MissThenContentFills(t *testing.T) {
	fwd := newTestForwarder(t)
	f1 := enrollFace(t, fwd, 1, defn.KindStream)
	f2 := enrollFace(t, fwd, 2, defn.KindStream)

	wire := interestWire([]enc.Component{comp("x")}, enc.ScopeUnlimited)
	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)

	fwd.HandleInterest(f1, wire, msg.Interest)
	require.Equal(t, 1, fwd.PET.Len())
	require.Equal(t, uint64(1), fwd.Counters.UnsatisfiedInterests)

	val := contentObjectValue(t, []enc.Component{comp("x"), comp("1")})
	pc, err := enc.ParseContentObject(val, 0)
	require.NoError(t, err)
	fwd.HandleContentObject(f2, pc)

	entry := fwd.CS.FirstCandidate(enc.Name{Comps: []enc.Component{comp("x")}})
	require.NotNil(t, entry)
	require.Contains(t, entry.Faces, f1.ID)
}

// S3 - loop suppression: a second Interest carrying the same nonce is
// dropped as a duplicate, and the face it arrived on is removed from the
// original entry's remaining outbound set.
func TestHandleInterest_DuplicateNonceDropsAndPrunesOutbound(t *testing.T) {
	fwd := newTestForwarder(t)
	f1 := enrollFace(t, fwd, 1, defn.KindStream)
	f2 := enrollFace(t, fwd, 2, defn.KindStream)
	f3 := enrollFace(t, fwd, 3, defn.KindStream)

	nonce := [enc.NonceLength]byte{1, 2, 3, 4, 5, 6}
	wire := enc.BuildInterest([]enc.Component{comp("y")}, enc.ScopeUnlimited, enc.OrderLeftmost, &nonce)
	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)

	fwd.HandleInterest(f1, wire, msg.Interest)
	pe := fwd.PET.Lookup(nonce)
	require.NotNil(t, pe)
	require.Contains(t, pe.Outbound, f2.ID)
	require.Contains(t, pe.Outbound, f3.ID)

	fwd.HandleInterest(f2, wire, msg.Interest)
	require.Equal(t, uint64(1), fwd.Counters.DuplicateNonce)
	require.NotContains(t, pe.Outbound, f2.ID)
}

// S4 - scope: scope=0 never propagates even on a miss.
func TestHandleInterest_ScopeZeroNeverPropagates(t *testing.T) {
	fwd := newTestForwarder(t)
	f1 := enrollFace(t, fwd, 1, defn.KindStream)
	enrollFace(t, fwd, 2, defn.KindStream)

	wire := interestWire([]enc.Component{comp("z")}, enc.ScopeLocalOnly)
	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)

	fwd.HandleInterest(f1, wire, msg.Interest)
	require.Equal(t, 0, fwd.PET.Len())
}

// Invariant 5: no Interest is sent back to the face it arrived on.
func TestPropagate_NeverTargetsOrigin(t *testing.T) {
	fwd := newTestForwarder(t)
	f1 := enrollFace(t, fwd, 1, defn.KindStream)
	f2 := enrollFace(t, fwd, 2, defn.KindStream)

	wire := interestWire([]enc.Component{comp("w")}, enc.ScopeUnlimited)
	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)

	fwd.HandleInterest(f1, wire, msg.Interest)

	ipe := fwd.PIT.Lookup(enc.BuildName([]enc.Component{comp("w")}))
	require.NotNil(t, ipe)
	require.Len(t, ipe.Propagating, 1)

	found := false
	for _, fid := range ipe.Propagating[0].Outbound {
		require.NotEqual(t, f1.ID, fid)
		found = found || fid == f2.ID
	}
	require.True(t, found)
}
