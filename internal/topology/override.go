package topology

import (
	"os"

	"github.com/tidwall/gjson"

	"github.com/cmuq-ccl/polyhj/errors"
)

// Load reads a Topology from a JSON description, used to pin down placement
// in tests and on machines where discovery misreports the hierarchy. The
// expected shape is:
//
//	{
//	  "llc_size": 33554432,
//	  "line_size": 64,
//	  "llcs": [ { "cores": [ { "cpus": [0, 8] }, ... ] }, ... ]
//	}
//
// CPU entries are kernel CPU IDs.
func Load(path string) (*Topology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.TopologyError{Reason: err.Error()}
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.TopologyError{Reason: "override file is not valid JSON"}
	}
	doc := gjson.ParseBytes(raw)

	llcSize := doc.Get("llc_size").Uint()
	if llcSize == 0 {
		llcSize = DefaultLLCSize
	}
	lineSize := doc.Get("line_size").Uint()
	if lineSize == 0 {
		lineSize = DefaultLineSize
	}

	var records []cpuRecord
	coreKey := int64(0)
	doc.Get("llcs").ForEach(func(l, llc gjson.Result) bool {
		llc.Get("cores").ForEach(func(c, core gjson.Result) bool {
			core.Get("cpus").ForEach(func(_, cpu gjson.Result) bool {
				records = append(records, cpuRecord{
					os:      int(cpu.Int()),
					coreKey: coreKey,
					llcKey:  l.Int(),
				})
				return true
			})
			coreKey++
			return true
		})
		return true
	})

	topo, err := build(records, llcSize, lineSize)
	if err != nil {
		return nil, err
	}
	if pageSize := doc.Get("page_size").Uint(); pageSize > 0 {
		topo.PageSize = pageSize
	}
	return topo, nil
}
