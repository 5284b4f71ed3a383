package join

import (
	polyhj "github.com/cmuq-ccl/polyhj"
	"github.com/cmuq-ccl/polyhj/internal/util"
)

// colBPII joins through one hash table per LLC group, sized so each fits
// comfortably in its group's cache. Build and probe proceed in fanout/groups
// iterations; within an iteration, table ownership rotates across the groups
// step by step, so every group builds (and later probes) every table while
// the table stays hot in the LLC of the group that last touched it.
func (c *Context) colBPII(w *worker) {
	if c.plan.RBits != c.plan.SBits || c.plan.RBits == 0 {
		panic("ColBP model II requires a symmetric partitioned plan")
	}

	var matches, checksum uint64

	tid := w.tid
	group := w.group
	numGroups := c.numGroups
	if tid%numGroups != group {
		panic("worker group does not match its thread ID")
	}

	rbits := c.plan.RBits
	mask := c.plan.MaskR()
	fanout := int(c.plan.FanoutR())

	R := w.subR.Tuples
	S := w.subS.Tuples

	// One table per LLC group, sized to the next power of two above the
	// average partition.
	avgPartition := uint32(c.relR.Size()>>rbits) + 1
	tableSize := 1 << util.LgCeil(avgPartition)

	if tid == 0 {
		c.tables = make([][]polyhj.Bucket, numGroups)
	}

	c.gbar.Wait() // wait for the table directory

	// Each group's leader allocates its group's own table; the leader is the
	// group's lowest thread, which exists because tid mod numGroups == group.
	if tid == group {
		c.tables[group] = make([]polyhj.Bucket, tableSize)
	}

	c.gbar.Wait() // wait for the tables

	// First-touch disjoint slices of every table from a couple of threads
	// per group, spreading each table's pages across the utilized nodes.
	zeroers := numGroups * 2
	share := tableSize / zeroers
	for g := 0; g < numGroups; g++ {
		if tid >= zeroers {
			break
		}
		table := c.tables[g]
		for j := tid * share; j < (tid+1)*share; j++ {
			table[j] = 0
		}
	}

	c.gbar.Wait() // wait for NUMA distribution

	iters := fanout / numGroups
	if fanout%numGroups != 0 {
		panic("fanout of R not divisible by the number of LLC groups")
	}

	for i := 0; i < iters; i++ {
		// Build phase: on step g, this group scatters partition p into table
		// h while every other group works a different table.
		for g := 0; g < numGroups; g++ {
			h := (g + group) % numGroups
			p := uint32(h*iters + i)
			table := c.tables[h]

			for b := range w.blocksR.pos {
				sb := &w.blocksR.pos[b][h]
				idx := sb.cursor
				for idx < sb.end && polyhj.Hash(R[idx].Key, mask) == p {
					t := R[idx]
					if c.opts.KeyAsPayload {
						table[t.Key>>rbits] = t.Key
					} else {
						table[t.Key>>rbits] = t.Payload
					}
					checksum += uint64(t.Key)
					idx++
				}
				sb.cursor = idx
			}

			// Agree on the table rotation. Not required for correctness of
			// the build itself, but at least one rendezvous must precede
			// probing, and stepping together reduces cross-LLC false sharing.
			c.sbar.Wait(tid)
		}

		// Probe phase: same rotation, groups iterated in reverse, so each
		// group starts on the table it just finished building.
		for g := numGroups - 1; g >= 0; g-- {
			h := (g + group) % numGroups
			p := uint32(h*iters + i)
			table := c.tables[h]

			for b := range w.blocksS.pos {
				sb := &w.blocksS.pos[b][h]
				idx := sb.cursor
				for idx < sb.end && polyhj.Hash(S[idx].Key, mask) == p {
					k := S[idx].Key
					v := table[k>>rbits]
					checksum += uint64(v)
					if c.opts.KeyAsPayload {
						if v == k {
							matches++
						}
					} else {
						matches++
					}
					idx++
				}
				sb.cursor = idx
			}
		}

		// No building for the next partitions until probing is done.
		c.sbar.Wait(tid)
	}

	w.matches = matches
	w.checksum = checksum

	// The final iteration's rendezvous means probing is complete everywhere;
	// dropping the directory releases every group's table.
	if tid == 0 {
		c.tables = nil
	}
}
