package join

import (
	polyhj "github.com/cmuq-ccl/polyhj"
)

// colBPI joins through a single shared hash table over unpartitioned R.
// The table is indexed directly by key: R's keys are dense primary keys, so
// the array is a perfect hash. Thread 0 allocates; every thread first-touches
// a contiguous share so the table's pages spread across NUMA nodes.
func (c *Context) colBPI(w *worker) {
	if c.plan.RBits != 0 || c.plan.SBits != 0 {
		panic("ColBP model I requires an unpartitioned plan")
	}

	var matches, checksum uint64
	tid := w.tid

	c.phaseStart(tid)

	tableSize := c.relR.Size() + 1
	if tid == 0 {
		c.tables = [][]polyhj.Bucket{make([]polyhj.Bucket, tableSize)}
	}

	c.gbar.Wait() // wait for allocation

	table := c.tables[0]
	share := tableSize / c.n
	offset := tid * share
	end := offset + share
	if tid == c.n-1 {
		end = tableSize
	}
	for j := offset; j < end; j++ {
		table[j] = 0
	}

	c.gbar.Wait() // wait for NUMA distribution

	// Build from R.
	for _, t := range w.subR.Tuples {
		k := t.Key
		if c.opts.KeyAsPayload {
			table[k] = k
		} else {
			table[k] = t.Payload
		}
		checksum += uint64(k)
	}

	c.phaseReport(tid, "building", &c.buildProbeTime) // barrier: table complete
	c.phaseStart(tid)

	// Probe from S. The join result is not materialized; matches' payloads
	// are located and accessed.
	for _, t := range w.subS.Tuples {
		k := t.Key
		v := table[k]
		checksum += uint64(v)
		if c.opts.KeyAsPayload {
			if v == k {
				matches++
			}
		} else {
			matches++
		}
	}

	c.phaseReport(tid, "probing", &c.buildProbeTime) // barrier: probing done

	w.matches = matches
	w.checksum = checksum

	if tid == 0 {
		c.tables = nil
	}
}
