package barrier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestBarrierReleasesTogether(t *testing.T) {
	defer goleak.VerifyNone(t)
	const parties = 8
	const rounds = 50

	b, err := New(parties)
	require.Nil(t, err)

	var arrived atomic.Int32
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				arrived.Inc()
				b.Wait()
				// after release, every party of this round has arrived
				require.GreaterOrEqual(t, int(arrived.Load()), (r+1)*parties)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(parties*rounds), arrived.Load())
}

func TestBarrierSingleParty(t *testing.T) {
	b, err := New(1)
	require.Nil(t, err)
	for i := 0; i < 10; i++ {
		b.Wait() // must never block
	}
}

func TestBarrierRejectsZeroParties(t *testing.T) {
	_, err := New(0)
	require.NotNil(t, err)
	_, err = NewStaged(0)
	require.NotNil(t, err)
}

func TestStagedAgreesOnSteps(t *testing.T) {
	defer goleak.VerifyNone(t)
	const parties = 8
	// more rounds than slots, so every slot is cleared and reused
	const rounds = numSlots * 25

	b, err := NewStaged(parties)
	require.Nil(t, err)

	var counter atomic.Uint64
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				counter.Inc()
				b.Wait(tid)
				// no release before all parties arrived at this step
				require.GreaterOrEqual(t, counter.Load(), uint64((r+1)*parties))
				b.Wait(tid)
			}
		}(p)
	}
	wg.Wait()
	require.Equal(t, uint64(parties*rounds), counter.Load())
}

func TestStagedInterleavesWithWork(t *testing.T) {
	defer goleak.VerifyNone(t)
	const parties = 4
	const rounds = 100

	b, err := NewStaged(parties)
	require.Nil(t, err)

	// one shared cell per round; exactly one writer, readers after the
	// rendezvous must observe the write
	cells := make([]uint64, rounds)
	var wg sync.WaitGroup
	for p := 0; p < parties; p++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if tid == r%parties {
					cells[r] = uint64(r) + 1
				}
				b.Wait(tid)
				require.Equal(t, uint64(r)+1, cells[r])
				b.Wait(tid)
			}
		}(p)
	}
	wg.Wait()
}
