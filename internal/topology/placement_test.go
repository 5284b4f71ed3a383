package topology

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmuq-ccl/polyhj/errors"
)

func TestSynthetic(t *testing.T) {
	topo := Synthetic(2, 4, 2)
	require.Equal(t, 2, topo.NumLLCs())
	require.Equal(t, 8, topo.NumCores())
	require.Equal(t, 16, topo.NumCPUs())
	require.Equal(t, 4, topo.CoresPerLLC)
	require.Equal(t, 2, topo.CPUsPerCore)
	// back-edges are consistent in both directions
	for c, core := range topo.Cores {
		for _, cpu := range core.CPUs {
			require.Equal(t, c, topo.CPUs[cpu].Core)
			require.Equal(t, core.LLC, topo.CPUs[cpu].LLC)
		}
	}
}

func TestPlaceGroupInvariant(t *testing.T) {
	topo := Synthetic(4, 4, 2)
	for n := 1; n <= topo.NumCPUs(); n++ {
		p, err := Place(topo, n, true)
		require.Nil(t, err)
		require.Equal(t, p.UtilizedLLCs, p.NumGroups)
		for _, w := range p.Workers {
			require.Equal(t, w.TID%p.NumGroups, w.Group)
		}
	}
}

func TestPlaceFavorPhysicalCores(t *testing.T) {
	topo := Synthetic(2, 4, 2)
	// 8 threads fit on 8 physical cores: both LLCs used, one CPU per core
	p, err := Place(topo, 8, true)
	require.Nil(t, err)
	require.Equal(t, 2, p.UtilizedLLCs)
	require.Equal(t, 1, p.UtilizedCPUsPerCore)

	// without the preference, 8 threads pack onto one LLC using siblings
	p, err = Place(topo, 8, false)
	require.Nil(t, err)
	require.Equal(t, 1, p.UtilizedLLCs)
	require.Equal(t, 2, p.UtilizedCPUsPerCore)
}

func TestPlaceDistinctCPUs(t *testing.T) {
	topo := Synthetic(2, 2, 2)
	p, err := Place(topo, 8, true)
	require.Nil(t, err)
	seen := map[int]bool{}
	for _, w := range p.Workers {
		require.False(t, seen[w.CPU])
		seen[w.CPU] = true
	}
}

func TestPlaceRoundRobinAcrossLLCs(t *testing.T) {
	topo := Synthetic(2, 2, 1)
	p, err := Place(topo, 4, true)
	require.Nil(t, err)
	// threads alternate LLCs: 0, 1, 0, 1
	require.Equal(t, 0, p.Workers[0].Group)
	require.Equal(t, 1, p.Workers[1].Group)
	require.Equal(t, 0, p.Workers[2].Group)
	require.Equal(t, 1, p.Workers[3].Group)
	// and the two threads of one group sit on different cores of one LLC
	require.NotEqual(t, p.Workers[0].CPU, p.Workers[2].CPU)
}

func TestPlaceTooManyThreads(t *testing.T) {
	topo := Synthetic(1, 2, 1)
	_, err := Place(topo, 3, true)
	require.NotNil(t, err)
	require.IsType(t, errors.PlacementError{}, err)
	_, err = Place(topo, 0, true)
	require.NotNil(t, err)
}
