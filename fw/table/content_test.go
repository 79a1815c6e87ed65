package table_test

import (
	"bytes"
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/scheduler"
	"github.com/ccnfwd/ccnfwd/fw/table"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"github.com/stretchr/testify/require"
)

func co(name string, sig byte, body string) []byte {
	var comps []enc.Component
	for _, c := range bytesSplit(name) {
		comps = append(comps, enc.NewGenericComponent([]byte(c)))
	}
	wire := enc.BuildContentObject(comps, bytes.Repeat([]byte{sig}, 32), []byte(body))
	// Upsert takes the TypeContentObject value, not the outer tag.
	c := enc.NewCursor(wire)
	_, val, err := c.ReadTL()
	if err != nil {
		panic(err)
	}
	return val
}

func bytesSplit(name string) []string {
	var out []string
	cur := []byte{}
	for i := 1; i < len(name); i++ { // skip leading '/'
		if name[i] == '/' {
			out = append(out, string(cur))
			cur = nil
			continue
		}
		cur = append(cur, name[i])
	}
	out = append(out, string(cur))
	return out
}

// A brand-new name inserts into all three indices, and the prefix scan
// recovers it.
func TestUpsertNewAndFirstCandidate(t *testing.T) {
	cs := table.NewContentStore(scheduler.New(), 64)
	value := co("/a/b", 0xaa, "hello")

	entry, kind, err := cs.Upsert(value)
	require.NoError(t, err)
	require.Equal(t, table.UpsertNew, kind)
	require.Equal(t, int64(0), entry.Accession)
	require.Equal(t, 1, cs.Len())

	got := cs.FirstCandidate(entry.Name.Prefix(1))
	require.NotNil(t, got)
	require.Equal(t, entry.Accession, got.Accession)
}

// A repeat name with matching tail bytes is a duplicate, not a new entry.
func TestUpsertDuplicate(t *testing.T) {
	cs := table.NewContentStore(scheduler.New(), 64)
	value := co("/a/b", 0xaa, "hello")

	_, kind, err := cs.Upsert(value)
	require.NoError(t, err)
	require.Equal(t, table.UpsertNew, kind)

	entry, kind, err := cs.Upsert(value)
	require.NoError(t, err)
	require.Equal(t, table.UpsertDuplicate, kind)
	require.Equal(t, 1, entry.DupCount)
	require.Equal(t, 1, cs.Len())
}

// A repeat name with differing tail bytes is a collision: both entries
// are dropped from the store.
func TestUpsertCollision(t *testing.T) {
	cs := table.NewContentStore(scheduler.New(), 64)
	first := co("/k", 0x11, "B1")
	second := co("/k", 0x22, "B2")

	_, kind, err := cs.Upsert(first)
	require.NoError(t, err)
	require.Equal(t, table.UpsertNew, kind)
	require.Equal(t, 1, cs.Len())

	_, kind, err = cs.Upsert(second)
	require.NoError(t, err)
	require.Equal(t, table.UpsertCollision, kind)
	require.Equal(t, 0, cs.Len())
}

// The skiplist keeps entries in canonical name order across many inserts,
// so a level-0 walk from any entry reaches the next name in order.
func TestSkiplistOrdering(t *testing.T) {
	cs := table.NewContentStore(scheduler.New(), 64)
	names := []string{"/a", "/b", "/c", "/d", "/e"}
	for _, n := range names {
		_, _, err := cs.Upsert(co(n, 0x01, "x"))
		require.NoError(t, err)
	}

	first := cs.FirstCandidate(enc.Name{})
	require.NotNil(t, first)
	var walked []string
	for e := first; e != nil; e = cs.Next(e) {
		walked = append(walked, string(e.Name.Comps[0].Val))
	}
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, walked)
}

// Evicting an entry (e.g. on collision) removes it from the skiplist
// without breaking the ordering of the entries that remain.
func TestEvictPreservesSkiplistOrder(t *testing.T) {
	cs := table.NewContentStore(scheduler.New(), 64)
	for _, n := range []string{"/a", "/b", "/c"} {
		_, _, err := cs.Upsert(co(n, 0x01, "x"))
		require.NoError(t, err)
	}
	mid, kind, err := cs.Upsert(co("/b", 0x01, "x")) // duplicate, fetch existing
	require.NoError(t, err)
	require.Equal(t, table.UpsertDuplicate, kind)
	cs.Evict(mid)

	first := cs.FirstCandidate(enc.Name{})
	var walked []string
	for e := first; e != nil; e = cs.Next(e) {
		walked = append(walked, string(e.Name.Comps[0].Val))
	}
	require.Equal(t, []string{"a", "c"}, walked)
}
