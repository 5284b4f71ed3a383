package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLgFloor(t *testing.T) {
	require.Equal(t, uint32(0), LgFloor(1))
	require.Equal(t, uint32(1), LgFloor(2))
	require.Equal(t, uint32(1), LgFloor(3))
	require.Equal(t, uint32(2), LgFloor(4))
	require.Equal(t, uint32(10), LgFloor(1024))
	require.Equal(t, uint32(10), LgFloor(2047))
	require.Panics(t, func() { LgFloor(0) })
}

func TestLgCeil(t *testing.T) {
	require.Equal(t, uint32(0), LgCeil(1))
	require.Equal(t, uint32(1), LgCeil(2))
	require.Equal(t, uint32(2), LgCeil(3))
	require.Equal(t, uint32(2), LgCeil(4))
	require.Equal(t, uint32(11), LgCeil(1025))
	require.Equal(t, uint32(20), LgCeil(1<<20))
}

func TestDivCeil(t *testing.T) {
	require.Equal(t, 1, DivCeil(1, 4))
	require.Equal(t, 1, DivCeil(4, 4))
	require.Equal(t, 2, DivCeil(5, 4))
	require.Equal(t, 0, DivCeil(0, 4))
}
