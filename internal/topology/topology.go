// Package topology describes the host machine as a hierarchy of last-level
// caches, physical cores and hardware threads, and computes thread-to-CPU
// placements over that hierarchy. The hierarchy is represented as parallel
// arrays with index back-edges, so navigation in both directions is O(1)
// without pointer cycles.
package topology

import (
	"sort"

	"github.com/cmuq-ccl/polyhj/errors"
)

// Default sizes relied upon when discovery cannot determine them.
const (
	DefaultLLCSize  = 32 * 1024 * 1024
	DefaultLineSize = 64
	DefaultPageSize = 2 * 1024 * 1024
)

// CPU is a single hardware thread.
type CPU struct {
	OS   int // kernel CPU ID; not necessarily sequential
	Core int // index of the parent core in Topology.Cores
	LLC  int // index of the parent LLC in Topology.LLCs
}

// Core is a physical core and the hardware threads it hosts.
type Core struct {
	LLC  int   // index of the parent LLC in Topology.LLCs
	CPUs []int // indices into Topology.CPUs
}

// LLC is a last-level cache and the cores that share it. Threads placed on
// the same LLC form a group for collaborative build/probe.
type LLC struct {
	Cores []int // indices into Topology.Cores
}

// Topology is the discovered LLC > core > hardware-thread hierarchy plus
// cache geometry.
type Topology struct {
	LLCSize  uint64 // bytes
	LineSize uint64 // bytes
	PageSize uint64 // bytes

	CPUs  []CPU
	Cores []Core
	LLCs  []LLC

	// If core or thread counts vary across the hierarchy, these hold the
	// minimum non-zero values.
	CoresPerLLC int
	CPUsPerCore int
}

// NumCPUs returns the number of hardware threads.
func (t *Topology) NumCPUs() int { return len(t.CPUs) }

// NumCores returns the number of physical cores.
func (t *Topology) NumCores() int { return len(t.Cores) }

// NumLLCs returns the number of last-level caches.
func (t *Topology) NumLLCs() int { return len(t.LLCs) }

// cpuRecord is one hardware thread as reported by discovery, before core and
// LLC identifiers are normalized to sequential indices.
type cpuRecord struct {
	os      int
	coreKey int64
	llcKey  int64
}

// build assembles a Topology from flat discovery records, normalizing core
// and LLC identifiers into dense indices ordered by first appearance of the
// kernel's IDs.
func build(records []cpuRecord, llcSize, lineSize uint64) (*Topology, error) {
	if len(records) == 0 {
		return nil, errors.TopologyError{Reason: "no usable CPUs reported"}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].os < records[j].os })

	topo := &Topology{
		LLCSize:  llcSize,
		LineSize: lineSize,
		PageSize: DefaultPageSize,
	}
	coreIdx := map[int64]int{}
	llcIdx := map[int64]int{}

	for _, rec := range records {
		l, ok := llcIdx[rec.llcKey]
		if !ok {
			l = len(topo.LLCs)
			llcIdx[rec.llcKey] = l
			topo.LLCs = append(topo.LLCs, LLC{})
		}
		c, ok := coreIdx[rec.coreKey]
		if !ok {
			c = len(topo.Cores)
			coreIdx[rec.coreKey] = c
			topo.Cores = append(topo.Cores, Core{LLC: l})
			topo.LLCs[l].Cores = append(topo.LLCs[l].Cores, c)
		}
		topo.Cores[c].CPUs = append(topo.Cores[c].CPUs, len(topo.CPUs))
		topo.CPUs = append(topo.CPUs, CPU{OS: rec.os, Core: c, LLC: l})
	}

	for _, core := range topo.Cores {
		if topo.CPUsPerCore == 0 || len(core.CPUs) < topo.CPUsPerCore {
			topo.CPUsPerCore = len(core.CPUs)
		}
	}
	for _, llc := range topo.LLCs {
		if topo.CoresPerLLC == 0 || len(llc.Cores) < topo.CoresPerLLC {
			topo.CoresPerLLC = len(llc.Cores)
		}
	}
	return topo, nil
}

// Synthetic constructs an artificial Topology with the given shape and
// default cache geometry. Kernel CPU IDs are assigned sequentially. Used by
// tests and as the discovery fallback on hosts without sysfs.
func Synthetic(numLLCs, coresPerLLC, cpusPerCore int) *Topology {
	var records []cpuRecord
	os := 0
	for l := 0; l < numLLCs; l++ {
		for c := 0; c < coresPerLLC; c++ {
			for p := 0; p < cpusPerCore; p++ {
				records = append(records, cpuRecord{
					os:      os,
					coreKey: int64(l)<<32 | int64(c),
					llcKey:  int64(l),
				})
				os++
			}
		}
	}
	topo, err := build(records, DefaultLLCSize, DefaultLineSize)
	if err != nil {
		panic(err)
	}
	return topo
}
