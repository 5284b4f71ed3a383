package polyhj

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeRelation(n int) *Relation {
	rel := &Relation{ID: RelationR, Tuples: make([]Tuple, n)}
	for i := range rel.Tuples {
		rel.Tuples[i] = Tuple{Key: uint32(i) + 1, Payload: uint32(i) + 1}
	}
	return rel
}

func TestSplitCoversRelation(t *testing.T) {
	for _, n := range []int{1, 3, 4, 7, 64} {
		rel := makeRelation(1000)
		subs := Split(rel, n)
		require.Len(t, subs, n)

		next := 0
		total := 0
		for _, sub := range subs {
			require.Equal(t, next, sub.Offset)
			next += sub.Size()
			total += sub.Size()
		}
		require.Equal(t, 1000, total)
	}
}

func TestSplitRemainderGoesFirst(t *testing.T) {
	rel := makeRelation(10)
	subs := Split(rel, 4)
	// 10 = 3 + 3 + 2 + 2
	require.Equal(t, 3, subs[0].Size())
	require.Equal(t, 3, subs[1].Size())
	require.Equal(t, 2, subs[2].Size())
	require.Equal(t, 2, subs[3].Size())
}

func TestLocalizeDetachesFromParent(t *testing.T) {
	rel := makeRelation(100)
	subs := Split(rel, 2)
	subs[0].Localize()
	subs[0].Tuples[0].Key = 9999
	require.NotEqual(t, uint32(9999), rel.Tuples[0].Key)
}

func TestFingerprintTracksContent(t *testing.T) {
	a := makeRelation(256)
	b := makeRelation(256)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Tuples[17].Payload++
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
