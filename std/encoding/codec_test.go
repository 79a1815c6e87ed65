package encoding_test

import (
	"bytes"
	"testing"

	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/stretchr/testify/require"
)

// Round-trips TLNum encoding across all four size classes.
func TestTLNumRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000} {
		tl := enc.TLNum(v)
		buf := make([]byte, tl.EncodingLength())
		n := tl.EncodeInto(buf)
		require.Equal(t, len(buf), n)
		got, pos := enc.ParseTLNum(buf)
		require.Equal(t, tl, got)
		require.Equal(t, n, pos)
	}
}

// A synthesized nonce decodes back to its original 6 bytes, per the
// property that loop suppression depends on.
func TestNonceRoundTrip(t *testing.T) {
	nonce := enc.NewNonce()
	wire := enc.BuildNonce(nonce)

	c := enc.NewCursor(wire)
	typ, val, err := c.ReadTL()
	require.NoError(t, err)
	require.Equal(t, enc.TypeNonce, typ)
	require.Equal(t, nonce[:], val)
}

// Building then parsing an Interest preserves its name, scope, order
// preference, and nonce.
func TestInterestRoundTrip(t *testing.T) {
	name := []enc.Component{
		enc.NewGenericComponent([]byte("ccnx")),
		enc.NewGenericComponent([]byte("ping")),
	}
	nonce := enc.NewNonce()
	wire := enc.BuildInterest(name, enc.ScopeLocalLinks, enc.OrderLeftmost, &nonce)

	msg, consumed, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	require.Equal(t, enc.KindInterest, msg.Kind)

	pi := msg.Interest
	require.Equal(t, enc.ScopeLocalLinks, pi.ScopeVal)
	require.Equal(t, enc.OrderLeftmost, pi.OrderPref)
	require.True(t, pi.HasNonce)
	require.Equal(t, nonce, pi.Nonce)
	require.Equal(t, 2, pi.NameVal.Len())
	require.Equal(t, []byte("ccnx"), pi.NameVal.Comps[0].Val)
	require.Equal(t, []byte("ping"), pi.NameVal.Comps[1].Val)
}

// An Interest missing a Scope field defaults to unlimited scope, and a
// missing prefix-components field defaults to the full name, matching
// ccnd's historical defaults.
func TestInterestDefaults(t *testing.T) {
	name := []enc.Component{enc.NewGenericComponent([]byte("x"))}
	wire := enc.AppendTLV(nil, enc.TypeInterest, enc.BuildName(name))

	msg, _, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)
	require.Equal(t, enc.ScopeUnlimited, msg.Interest.ScopeVal)
	require.False(t, msg.Interest.HasNonce)
	require.Equal(t, 1, msg.Interest.PrefixComp)
}

// Building then parsing a ContentObject preserves its name, signature
// bits, and content body, and locates the body/tail offsets correctly.
func TestContentObjectRoundTrip(t *testing.T) {
	name := []enc.Component{
		enc.NewGenericComponent([]byte("ccnx")),
		enc.NewGenericComponent([]byte("ping")),
	}
	sigBits := bytes.Repeat([]byte{0xab}, 32)
	content := []byte("pong")
	wire := enc.BuildContentObject(name, sigBits, content)

	msg, consumed, err := enc.ParseMessage(wire, true)
	require.NoError(t, err)
	require.Equal(t, len(wire), consumed)
	require.Equal(t, enc.KindContentObject, msg.Kind)

	co := msg.Content
	require.Equal(t, sigBits, co.SignatureBits())
	require.Equal(t, content, co.Body())
	require.Equal(t, 2, co.NameVal.Len())
}

// A link PDU wraps and unwraps back to the same Interest; a PDU nested
// inside another PDU is rejected rather than silently flattened.
func TestLinkPDU(t *testing.T) {
	name := []enc.Component{enc.NewGenericComponent([]byte("x"))}
	inner := enc.BuildInterest(name, enc.ScopeUnlimited, enc.OrderLeftmost, nil)
	framed := enc.WrapLinkPDU(inner)

	msg, consumed, err := enc.ParseMessage(framed, true)
	require.NoError(t, err)
	require.Equal(t, len(framed), consumed)
	require.True(t, msg.LinkFramed)
	require.Equal(t, enc.KindInterest, msg.Kind)

	nested := enc.WrapLinkPDU(framed)
	_, _, err = enc.ParseMessage(nested, true)
	require.Error(t, err)
}

// Names compare component-wise in unsigned byte order, and a digest-shaped
// trailing prefix component is tolerated by MatchesPrefixWithDigestSuffix
// but not by the stricter HasPrefix used elsewhere.
func TestNameCompareAndPrefix(t *testing.T) {
	a := enc.Name{Comps: []enc.Component{enc.NewGenericComponent([]byte("a"))}}
	b := enc.Name{Comps: []enc.Component{enc.NewGenericComponent([]byte("b"))}}
	require.Negative(t, enc.Compare(a, b))
	require.Positive(t, enc.Compare(b, a))
	require.Zero(t, enc.Compare(a, a))

	digest := bytes.Repeat([]byte{0x01}, 32)
	withDigest := enc.Name{Comps: []enc.Component{
		enc.NewGenericComponent([]byte("a")),
		enc.NewDigestComponent(digest),
	}}
	require.False(t, a.HasPrefix(withDigest))
	require.True(t, a.MatchesPrefixWithDigestSuffix(withDigest))
}

// A response filter round-trips its set of digests, and rejects a length
// that isn't a multiple of the digest size.
func TestResponseFilterRoundTrip(t *testing.T) {
	d1 := bytes.Repeat([]byte{0x11}, 32)
	d2 := bytes.Repeat([]byte{0x22}, 32)
	wire := enc.BuildResponseFilter([][]byte{d1, d2})

	c := enc.NewCursor(wire)
	typ, val, err := c.ReadTL()
	require.NoError(t, err)
	require.Equal(t, enc.TypeResponseFilter, typ)

	rf, err := enc.ParseResponseFilter(val)
	require.NoError(t, err)
	require.Len(t, rf.Digests, 2)
	require.Equal(t, d1, rf.Digests[0])
	require.Equal(t, d2, rf.Digests[1])

	_, err = enc.ParseResponseFilter(val[:len(val)-1])
	require.Error(t, err)
}
