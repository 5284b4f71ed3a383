package join

import (
	polyhj "github.com/cmuq-ccl/polyhj"
)

// colBPIII joins through a single |R|-sized table indexed by raw key, with S
// left unpartitioned: the escape hatch for heavily skewed S, where
// partitioning the probe side would funnel most tuples through a few
// partitions. R was partitioned on high-order bits of its keys, so each
// partition's keys fall into a few narrow bands of the global table and NUMA
// distribution falls out of the build rotation itself.
func (c *Context) colBPIII(w *worker) {
	if c.plan.RBits == 0 || c.plan.SBits != 0 {
		panic("ColBP model III requires R partitioned and S unpartitioned")
	}

	var matches, checksum uint64

	tid := w.tid
	group := w.group
	numGroups := c.numGroups
	if tid%numGroups != group {
		panic("worker group does not match its thread ID")
	}

	shift := c.modelIIIShift()
	mask := c.plan.MaskR()
	fanout := int(c.plan.FanoutR())
	R := w.subR.Tuples

	tableSize := c.relR.Size() + 1
	if tid == 0 {
		c.tables = [][]polyhj.Bucket{make([]polyhj.Bucket, tableSize)}
	}

	c.gbar.Wait() // wait for allocation

	table := c.tables[0]

	iters := fanout / numGroups
	if fanout%numGroups != 0 {
		panic("fanout of R not divisible by the number of LLC groups")
	}

	// Build rotation as in Model II, but scattering by raw key into the one
	// global table. Every partition must be fully built before any probing:
	// S is unsliced, so a probe can touch any region.
	for i := 0; i < iters; i++ {
		for g := 0; g < numGroups; g++ {
			h := (g + group) % numGroups
			p := uint32(h*iters + i)

			for b := range w.blocksR.pos {
				sb := &w.blocksR.pos[b][h]
				idx := sb.cursor
				for idx < sb.end && polyhj.HashShifted(R[idx].Key, mask, shift) == p {
					t := R[idx]
					if c.opts.KeyAsPayload {
						table[t.Key] = t.Key
					} else {
						table[t.Key] = t.Payload
					}
					checksum += uint64(t.Key)
					idx++
				}
				sb.cursor = idx
			}

			c.sbar.Wait(tid) // agree on the table rotation
		}
	}

	c.gbar.Wait() // all partitions built

	// Probe the whole sub-relation of S in one sweep.
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

	c.gbar.Wait() // all probing done

	w.matches = matches
	w.checksum = checksum

	if tid == 0 {
		c.tables = nil
	}
}
