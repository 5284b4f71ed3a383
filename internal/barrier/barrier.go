// Package barrier provides the two rendezvous primitives the join engine
// runs on: a reusable global barrier for coarse phase boundaries, and a
// staged spinning barrier for the high-frequency synchronization inside
// build/probe iterations, where a mutex-based wait would dominate the work
// between rendezvous points.
package barrier

import (
	"sync"

	"github.com/cmuq-ccl/polyhj/errors"
)

// Barrier is a reusable all-parties rendezvous. Crossing it establishes a
// happens-before edge between every party's pre- and post-barrier actions.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	arrived int
	round   uint64
}

// New creates a Barrier for the given number of parties.
func New(parties int) (*Barrier, error) {
	if parties < 1 {
		return nil, errors.BarrierError{Reason: "party count must be at least 1"}
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b, nil
}

// Wait blocks until all parties have arrived, then releases them together.
// The Barrier resets itself for reuse.
func (b *Barrier) Wait() {
	b.mu.Lock()
	round := b.round
	b.arrived++
	if b.arrived == b.parties {
		b.arrived = 0
		b.round++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for round == b.round {
		b.cond.Wait()
	}
	b.mu.Unlock()
}
