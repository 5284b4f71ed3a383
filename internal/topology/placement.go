package topology

import (
	"github.com/cmuq-ccl/polyhj/errors"
	"github.com/cmuq-ccl/polyhj/internal/util"
)

// Assignment pins one worker thread to one hardware thread.
type Assignment struct {
	TID   int
	Group int // LLC group; always TID mod NumGroups
	CPU   int // kernel CPU ID to pin to
}

// Placement is a mapping of worker threads onto the machine. Threads are
// dealt round-robin across the utilized LLCs, filling hardware threads
// within a core up to UtilizedCPUsPerCore, then cores within an LLC. The
// deal guarantees the invariant the build/probe models rely on:
// tid mod NumGroups == group.
type Placement struct {
	NumGroups           int // == UtilizedLLCs
	UtilizedLLCs        int
	UtilizedCPUsPerCore int
	Workers             []Assignment
}

// Place computes a Placement of n threads on topo.
//
// When favorPhysicalCores is set and the machine has at least n physical
// cores, one hardware thread per core is used: threads then spread over
// more LLCs rather than stacking as siblings. Otherwise threads pack onto
// as few LLCs as sibling hardware threads allow.
func Place(topo *Topology, n int, favorPhysicalCores bool) (*Placement, error) {
	if n < 1 || n > topo.NumCPUs() {
		return nil, errors.PlacementError{Requested: n, Supported: topo.NumCPUs()}
	}

	cpusPerCore := topo.CPUsPerCore
	cpusPerLLC := cpusPerCore * topo.CoresPerLLC
	if favorPhysicalCores && topo.NumCores() >= n {
		cpusPerCore = 1
		cpusPerLLC = topo.CoresPerLLC
	}

	utilizedLLCs := util.DivCeil(n, cpusPerLLC)
	utilizableCores := utilizedLLCs * topo.CoresPerLLC
	utilizedCPUsPerCore := util.DivCeil(n, utilizableCores)

	if utilizedLLCs > topo.NumLLCs() {
		// Reachable even with n <= NumCPUs when LLCs host differing numbers
		// of cores or hardware contexts.
		return nil, errors.PlacementError{
			Requested: n,
			Supported: topo.NumLLCs() * topo.CoresPerLLC * topo.CPUsPerCore,
		}
	}

	p := &Placement{
		NumGroups:           utilizedLLCs,
		UtilizedLLCs:        utilizedLLCs,
		UtilizedCPUsPerCore: utilizedCPUsPerCore,
		Workers:             make([]Assignment, n),
	}

	coresOnLLC := make([]int, utilizedLLCs)
	cpusOnCore := make([]int, topo.NumCores())

	llc := 0
	for t := 0; t < n; t++ {
		if coresOnLLC[llc] >= len(topo.LLCs[llc].Cores) {
			return nil, errors.PlacementError{
				Requested: n,
				Supported: topo.NumLLCs() * topo.CoresPerLLC * topo.CPUsPerCore,
			}
		}
		core := topo.LLCs[llc].Cores[coresOnLLC[llc]]
		if cpusOnCore[core] >= len(topo.Cores[core].CPUs) {
			return nil, errors.PlacementError{
				Requested: n,
				Supported: topo.NumLLCs() * topo.CoresPerLLC * topo.CPUsPerCore,
			}
		}

		p.Workers[t] = Assignment{
			TID:   t,
			Group: llc,
			CPU:   topo.CPUs[topo.Cores[core].CPUs[cpusOnCore[core]]].OS,
		}
		cpusOnCore[core]++

		// Enough siblings placed on this core; continue with the LLC's next
		// core on the following round.
		if cpusOnCore[core] == utilizedCPUsPerCore {
			coresOnLLC[llc]++
		}

		llc = (llc + 1) % utilizedLLCs
	}

	return p, nil
}
