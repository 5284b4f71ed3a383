// Package join implements the PolyHJ engine core: in-place cache-aware
// partitioning (ICP) with cooperative skew detection, and the collaborative
// build/probe (ColBP) model family the engine dispatches between. Workers
// are OS threads pinned to hardware threads and grouped by last-level cache;
// all cross-thread coordination happens through the barriers held here.
package join

import (
	"time"

	uuid "github.com/gofrs/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	polyhj "github.com/cmuq-ccl/polyhj"
	"github.com/cmuq-ccl/polyhj/internal/barrier"
	"github.com/cmuq-ccl/polyhj/internal/topology"
	"github.com/cmuq-ccl/polyhj/logging"
)

// blockPos describes one sub-block of an ICP block: the contiguous range of
// tuples, within a thread's sub-relation, holding the sub-block's window of
// partitions. start/end are the immutable partition layout; cursor is the
// build/probe scan position, advanced only by the thread currently sweeping
// this sub-block.
type blockPos struct {
	start  int
	end    int
	cursor int
}

// blockMeta is the (block × sub-block) position matrix ICP hands to ColBP.
type blockMeta struct {
	pos [][]blockPos
}

// worker is the per-thread state of a join run.
type worker struct {
	tid   int
	group int // LLC group; tid mod numGroups
	cpu   int // kernel CPU ID this worker is pinned to

	subR *polyhj.SubRelation
	subS *polyhj.SubRelation

	blocksR blockMeta
	blocksS blockMeta

	matches  uint64
	checksum uint64
}

// Context carries everything a join run shares across its workers: the
// relations, the radix plan, the placement, the hash tables and the
// barriers. The only fields mutated outside thread-0-between-barriers
// windows are the two atomics used by skew detection.
type Context struct {
	opts *polyhj.Options
	topo *topology.Topology

	n         int
	numGroups int
	place     *topology.Placement
	workers   []worker

	relR *polyhj.Relation
	relS *polyhj.Relation

	// plan is written by thread 0 only, between two staged barriers inside
	// skew estimation; everywhere else it is read-only.
	plan polyhj.Plan

	// tables are allocated by leader threads at ColBP entry and dropped at
	// ColBP exit.
	tables [][]polyhj.Bucket

	changedRadixS atomic.Bool
	highSkew      atomic.Uint32

	gbar *barrier.Barrier
	sbar *barrier.Staged

	log   *zap.SugaredLogger
	runID string

	// phase timing; touched by thread 0 only, on the far side of barriers.
	phaseAt        time.Time
	partitionTime  time.Duration
	buildProbeTime time.Duration
}

// NewContext prepares a join run: selects or adopts a radix plan, places
// workers on the machine, splits the relations and initializes the
// barriers. The returned Context is ready for exactly one Run.
func NewContext(opts *polyhj.Options, topo *topology.Topology, relR, relS *polyhj.Relation) (*Context, error) {
	n := opts.Threads
	if n == 0 {
		n = topo.NumCPUs()
	}

	place, err := topology.Place(topo, n, opts.FavorPhysicalCores)
	if err != nil {
		return nil, err
	}

	plan := opts.Plan()
	if !plan.UserDefined {
		plan = polyhj.ChoosePlan(relR.Size(), topo.LLCSize)
	}
	if err := plan.Validate(place.NumGroups); err != nil {
		return nil, err
	}

	gbar, err := barrier.New(n)
	if err != nil {
		return nil, err
	}
	sbar, err := barrier.NewStaged(n)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	c := &Context{
		opts:      opts,
		topo:      topo,
		n:         n,
		numGroups: place.NumGroups,
		place:     place,
		relR:      relR,
		relS:      relS,
		plan:      plan,
		gbar:      gbar,
		sbar:      sbar,
		runID:     id.String(),
		log:       logging.Sugar().With("run", id.String()),
	}

	subR := polyhj.Split(relR, n)
	subS := polyhj.Split(relS, n)
	c.workers = make([]worker, n)
	for t := 0; t < n; t++ {
		c.workers[t] = worker{
			tid:   t,
			group: place.Workers[t].Group,
			cpu:   place.Workers[t].CPU,
			subR:  &subR[t],
			subS:  &subS[t],
		}
	}
	return c, nil
}

// Plan returns the Context's current radix plan. After Run it reflects any
// skew-triggered rewrite.
func (c *Context) Plan() polyhj.Plan {
	return c.plan
}

// phaseStart stamps the beginning of a timed phase. Thread 0 keeps the
// clock; other threads pass through.
func (c *Context) phaseStart(tid int) {
	if tid == 0 {
		c.phaseAt = time.Now()
	}
}

// phaseReport ends a timed phase: all threads rendezvous, then thread 0
// logs the elapsed time and adds it to total (when given). The contained
// barrier is part of the phase protocol; callers may rely on it.
func (c *Context) phaseReport(tid int, name string, total *time.Duration) {
	c.gbar.Wait()
	if tid != 0 {
		return
	}
	elapsed := time.Since(c.phaseAt)
	c.log.Infof("%s took %v", name, elapsed)
	if total != nil {
		*total += elapsed
	}
}
