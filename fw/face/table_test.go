package face_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"github.com/stretchr/testify/require"
)

// A face's id resolves back to the face that was enrolled with it, and
// stops resolving once that face is shut down - even across slot reuse.
func TestLookupByIDAcrossChurn(t *testing.T) {
	tbl := face.NewTable(4, 16)

	f1 := newTestFace(1)
	id1, err := tbl.Enroll(f1)
	require.NoError(t, err)
	require.Same(t, f1, tbl.LookupByID(id1))

	tbl.Shutdown(f1.Fd)
	require.Nil(t, tbl.LookupByID(id1))
	require.Nil(t, tbl.LookupByFd(f1.Fd))

	// Re-enrolling a new face may reuse the freed slot, but the old id
	// must still fail to resolve (its generation no longer matches once
	// the rover wraps back around, or its slot holds a different face).
	f2 := newTestFace(2)
	id2, err := tbl.Enroll(f2)
	require.NoError(t, err)
	require.Same(t, f2, tbl.LookupByID(id2))
	if id1 == id2 {
		t.Fatalf("re-enrolled face must not reuse the exact same id")
	}
}

// Enroll grows the slot array by ×1.5 once the initial capacity fills, up
// to the configured ceiling, and still refuses once truly full.
func TestEnrollGrowsAndCapsAtMax(t *testing.T) {
	tbl := face.NewTable(2, 4)
	var ids []defn.FaceID
	for i := 0; i < 4; i++ {
		id, err := tbl.Enroll(newTestFace(i + 1))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.Equal(t, 4, tbl.Len())

	_, err := tbl.Enroll(newTestFace(99))
	require.Error(t, err)
}

func newTestFace(fd int) *face.Face {
	return &face.Face{Fd: fd, Kind: defn.KindStream, Scope: defn.Local}
}
