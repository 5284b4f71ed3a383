package join

import (
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	polyhj "github.com/cmuq-ccl/polyhj"
	"github.com/cmuq-ccl/polyhj/internal/topology"
)

// Run executes the join: N pinned workers partition their sub-relations,
// the model implied by the (possibly rewritten) plan builds and probes, and
// the per-worker counts reduce into a Result. A Context runs exactly once.
func Run(c *Context) (*polyhj.Result, error) {
	c.log.Infof("join info: |R| = %d, |S| = %d (z = %.2f), f_R = 2^%d, f_S = 2^%d",
		c.relR.Size(), c.relS.Size(), c.relS.Skew, c.plan.RBits, c.plan.SBits)
	c.log.Infof("running %d threads, pinned to %d hyperthread(s)/core on %d LLC(s) [%.2f MiBs each]",
		c.n, c.place.UtilizedCPUsPerCore, c.place.UtilizedLLCs,
		float64(c.topo.LLCSize)/1024.0/1024.0)

	start := time.Now()

	var g errgroup.Group
	for t := range c.workers {
		w := &c.workers[t]
		g.Go(func() error {
			c.joinWorker(w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &polyhj.Result{
		Model:          c.plan.Model(),
		Rewritten:      c.changedRadixS.Load(),
		PartitionTime:  c.partitionTime,
		BuildProbeTime: c.buildProbeTime,
		TotalTime:      time.Since(start),
	}
	for t := range c.workers {
		result.Matches += c.workers[t].matches
		result.Checksum += c.workers[t].checksum
	}

	c.log.Infof("checksum: %d", result.Checksum)
	c.log.Infof("total matches: %d", result.Matches)
	return result, nil
}

// joinWorker is the body of one worker thread, from pinning through the
// model dispatch.
func (c *Context) joinWorker(w *worker) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := topology.Pin(w.cpu); err != nil {
		c.log.Warnf("thread %d: pinning to CPU %d failed: %v", w.tid, w.cpu, err)
	}

	// Localize sub-relations so their pages are first-touched on this
	// worker's node, then align before the clocks start.
	w.subR.Localize()
	w.subS.Localize()
	c.gbar.Wait()

	// Partition if the fanouts dictate so. S goes first: its first block
	// votes on skew and may rewrite the plan R is then partitioned under.
	if c.plan.RBits > 0 {
		c.phaseStart(w.tid)
		c.partition(w, w.subS, c.plan.SBits, &w.blocksS)
		c.partition(w, w.subR, c.plan.RBits, &w.blocksR)
		c.phaseReport(w.tid, "partitioning", &c.partitionTime)
	}

	// Dispatch the collaborative build/probe model the plan implies.
	switch {
	case c.plan.RBits == c.plan.SBits && c.plan.RBits == 0:
		c.colBPI(w)
	case c.plan.RBits == c.plan.SBits:
		c.colBPII(w)
	case c.plan.SBits == 0:
		c.colBPIII(w)
	default:
		c.colBPIV(w)
	}
}
