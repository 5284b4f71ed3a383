package barrier

import (
	"runtime"

	"go.uber.org/atomic"

	"github.com/cmuq-ccl/polyhj/errors"
)

// numSlots is the number of rotating arrival slots. Any value above 3
// suffices: a thread can lag at most one rendezvous behind the pack, so the
// slot being cleared is always two or more steps away from every spinner.
const numSlots = 8

// spinsBeforeYield bounds busy-spinning before the scheduler is offered the
// thread. Contention windows inside build/probe iterations are short, so the
// yield path is rarely taken on a machine with enough hardware threads.
const spinsBeforeYield = 1024

// Staged is a rotating-slot barrier for frequent, short phases. Each thread
// keeps a local step counter naming its current slot; arrival increments the
// slot's counter and spins until all parties have arrived, after which
// thread 0 clears the previous slot for reuse.
//
// Staged is correct only if every party calls Wait the same number of times;
// that contract is the caller's to keep.
type Staged struct {
	parties uint32
	slots   [numSlots]atomic.Uint32
	steps   []uint8 // per-party current slot; each entry owned by one party
}

// NewStaged creates a Staged barrier for the given number of parties.
func NewStaged(parties int) (*Staged, error) {
	if parties < 1 {
		return nil, errors.BarrierError{Reason: "party count must be at least 1"}
	}
	return &Staged{
		parties: uint32(parties),
		steps:   make([]uint8, parties),
	}, nil
}

// Wait blocks party tid until all parties have arrived at the same step.
// The atomic increment and loads order memory on both sides of the
// rendezvous.
func (b *Staged) Wait(tid int) {
	step := b.steps[tid]
	w := b.slots[step].Inc()

	for spins := 0; w != b.parties; spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
		w = b.slots[step].Load()
	}

	if tid == 0 {
		prev := numSlots - 1
		if step > 0 {
			prev = int(step) - 1
		}
		b.slots[prev].Store(0)
	}
	b.steps[tid] = (step + 1) % numSlots
}
