package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	raw := `{
		"llc_size": 16777216,
		"line_size": 64,
		"llcs": [
			{ "cores": [ { "cpus": [0, 4] }, { "cpus": [1, 5] } ] },
			{ "cores": [ { "cpus": [2, 6] }, { "cpus": [3, 7] } ] }
		]
	}`
	path := filepath.Join(t.TempDir(), "topo.json")
	require.Nil(t, os.WriteFile(path, []byte(raw), 0644))

	topo, err := Load(path)
	require.Nil(t, err)
	require.Equal(t, uint64(16777216), topo.LLCSize)
	require.Equal(t, 2, topo.NumLLCs())
	require.Equal(t, 4, topo.NumCores())
	require.Equal(t, 8, topo.NumCPUs())
	require.Equal(t, 2, topo.CoresPerLLC)
	require.Equal(t, 2, topo.CPUsPerCore)
	// CPU records are ordered by kernel ID; cpu4 is cpu0's sibling
	require.Equal(t, topo.CPUs[0].Core, topo.CPUs[4].Core)
	require.Equal(t, 1, topo.CPUs[2].LLC)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topo.json")
	require.Nil(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err := Load(path)
	require.NotNil(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NotNil(t, err)
}
