package join

import (
	polyhj "github.com/cmuq-ccl/polyhj"
	"github.com/cmuq-ccl/polyhj/internal/util"
)

// counter is an ICP histogram cell. Blocks hold at most ChunkSize tuples,
// so 16 bits suffice and the whole histogram stays cache-resident.
type counter = uint16

// partition reorders a sub-relation's tuples in place into 2^radix radix
// partitions, block by block, and fills the (block × sub-block) position
// matrix ColBP consumes. A radix of 0 is a no-op.
//
// Each block's tuples are scattered into a directory: a thread-local scratch
// buffer for block 0, and the previous block's (already drained) region of
// the tuple array for every later block. This rotation is what makes the
// reordering in-place: block 0's scratch copy is written back into the
// trailing slot once the last block has moved forward. The position matrix
// records the rotated layout, with block 0 at the tail.
//
// While partitioning the first block of S, skew is estimated cooperatively
// across threads and the radix plan may be rewritten; partitioning then
// restarts under the new plan.
func (c *Context) partition(w *worker, sub *polyhj.SubRelation, radix uint32, blocks *blockMeta) {
	if radix == 0 {
		return
	}

	shift := uint32(0)
	fanout := uint32(1) << radix
	mask := fanout - 1

	// Under Model III, R is partitioned on high-order bits of the key so each
	// partition's keys land in a few narrow bands of the global table.
	if sub.ID == polyhj.RelationR && c.plan.SBits == 0 {
		shift = c.modelIIIShift()
	}

	T := sub.Tuples
	N := sub.Size()
	if N == 0 {
		return
	}

	numBlocks := util.DivCeil(N, polyhj.ChunkSize)
	avgBlockSize := N / numBlocks
	remainder := N % numBlocks
	firstBlockSize := avgBlockSize
	if remainder > 0 {
		firstBlockSize++
	}

	// A block is divided into as many sub-blocks as there are LLC groups, so
	// the groups can build distinct hash tables from distinct partition
	// windows in parallel. Relation S under an asymmetric plan keeps a
	// single sub-block: its per-partition work is not rotated across groups.
	numSubBlocks := c.numGroups
	if sub.ID == polyhj.RelationS && c.plan.RBits > c.plan.SBits {
		numSubBlocks = 1
	}
	if fanout%uint32(numSubBlocks) != 0 {
		panic("partition fanout not divisible by the number of LLC groups")
	}
	subBlockPartitions := fanout / uint32(numSubBlocks)

	blocks.pos = make([][]blockPos, numBlocks)
	backing := make([]blockPos, numBlocks*numSubBlocks)
	for b := 0; b < numBlocks; b++ {
		blocks.pos[b] = backing[b*numSubBlocks : (b+1)*numSubBlocks]
	}

	histo := make([]counter, fanout)
	tmpBlock := make([]polyhj.Tuple, firstBlockSize)
	directory := tmpBlock
	directoryInTmp := true
	directoryOffset := 0

	block := 0
	for i := 0; i < N; {
		from := i
		length := avgBlockSize
		if remainder > 0 {
			length++
			remainder--
		}
		to := from + length

		for j := range histo {
			histo[j] = 0
		}
		for j := from; j < to; j++ {
			histo[polyhj.HashShifted(T[j].Key, mask, shift)]++
		}

		// Estimate skew on the first block of S. On a unanimous vote the
		// plan has been rewritten; drop this pass's state and restart under
		// the new radix (a radix of zero stops partitioning altogether).
		if sub.ID == polyhj.RelationS && block == 0 && !c.plan.UserDefined {
			if !c.changedRadixS.Load() && c.estimateSkew(w, histo, firstBlockSize) {
				blocks.pos = nil
				c.partition(w, sub, c.plan.SBits, blocks)
				return
			}
		}

		// exclusive prefix sum over the histogram
		var accum counter
		for j := range histo {
			pre := histo[j]
			histo[j] = accum
			accum += pre
		}

		// Block base under rotation: block 0 will end up in the trailing
		// slot, every later block in the slot before its original one.
		base := from - firstBlockSize
		if block == 0 {
			base = N - firstBlockSize
		}
		for m := 0; m < numSubBlocks; m++ {
			p := uint32(m) * subBlockPartitions
			q := p + subBlockPartitions
			end := base + length
			if q != fanout {
				end = base + int(histo[q])
			}
			start := base + int(histo[p])
			blocks.pos[block][m] = blockPos{start: start, end: end, cursor: start}
		}

		// scatter the block's tuples into the directory
		for ; i < to; i++ {
			t := T[i]
			h := polyhj.HashShifted(t.Key, mask, shift)
			directory[histo[h]] = t
			histo[h]++
		}

		// next block writes over the region the block before it vacated
		if directoryInTmp {
			directoryInTmp = false
			directoryOffset = 0
		} else {
			directoryOffset += length
		}
		directory = T[directoryOffset:]
		block++
	}

	// block 0's scratch copy takes the trailing slot
	copy(T[N-firstBlockSize:], tmpBlock)
}

// modelIIIShift returns the hash shift Model III partitions R under:
// partitioning moves to the bits just below the key's top bit, so keys with
// the top bit set wrap onto the same partitions as the lower half.
func (c *Context) modelIIIShift() uint32 {
	return util.LgCeil(uint32(c.relR.Size())) - c.plan.RBits - 1
}

// estimateSkew decides, cooperatively across all threads, whether S is too
// skewed to partition profitably. Each thread votes from its own first
// block's histogram; only a unanimous vote rewrites the plan, which avoids
// misfiring when heavy partitions are spread unevenly across threads.
// Returns true iff the plan was rewritten (Model III: S unpartitioned, R at
// double fanout).
func (c *Context) estimateSkew(w *worker, histo []counter, blockSize int) bool {
	// Partitioning S is only worth escaping when S dominates R.
	if c.relS.Size()/c.relR.Size() < 3 {
		return false
	}

	var maxA, maxB int
	fanoutS := int(c.plan.FanoutS())
	for j := 0; j < fanoutS; j++ {
		h := int(histo[j])
		if h > maxA {
			maxB = maxA
			maxA = h
		} else if h > maxB {
			maxB = h
		}
	}

	threshold := blockSize * 35 / 100
	if (fanoutS > 4 && maxA+maxB > threshold) ||
		(fanoutS <= 4 && maxA > blockSize/2+10) {
		c.highSkew.Inc()
	}

	// Wait for every thread's vote.
	c.sbar.Wait(w.tid)

	if w.tid == 0 && c.highSkew.Load() == uint32(c.n) {
		c.changedRadixS.Store(true)
		c.log.Infof("high skew observed; switching to Model III with f_R = 2^%d, f_S = 2^0", c.plan.RBits+1)
		c.plan.SBits = 0
		c.plan.RBits++
	}

	// Wait for the rewritten radix bits.
	c.sbar.Wait(w.tid)

	return c.highSkew.Load() == uint32(c.n)
}
