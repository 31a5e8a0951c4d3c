package memsim

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

// TestArenaInvariantsUnderRandomizedChurn drives several independent
// arenas through randomized allocate/free sequences concurrently, each
// goroutine owning its own Arena so no state crosses goroutines, and
// checks the structural invariants after every step.
func TestArenaInvariantsUnderRandomizedChurn(t *testing.T) {
	const workers = 8
	const stepsPerWorker = 300

	p := pool.New().WithMaxGoroutines(workers)
	for w := 0; w < workers; w++ {
		seed := uint64(gofakeit.Uint32()) + uint64(w)
		p.Go(func() {
			runRandomizedChurn(t, seed, stepsPerWorker)
		})
	}
	p.Wait()
}

func runRandomizedChurn(t *testing.T, seed uint64, steps int) {
	rng := rand.New(rand.NewSource(seed))
	a, err := New(8192, FirstFit)
	assert.NoError(t, err)

	strategies := []Strategy{FirstFit, BestFit, WorstFit}
	var live []Handle

	for i := 0; i < steps; i++ {
		switch {
		case rng.Intn(4) == 0 && len(strategies) > 0:
			a.SetStrategy(strategies[rng.Intn(len(strategies))])

		case rng.Intn(2) == 0 || len(live) == 0:
			size := 1 + rng.Intn(200)
			if h, err := a.Allocate(size); err == nil {
				live = append(live, h)
			}

		default:
			idx := rng.Intn(len(live))
			h := live[idx]
			live = append(live[:idx], live[idx+1:]...)
			assert.NoError(t, a.Release(h))
		}

		if violation := a.Verify(); violation != "" {
			t.Fatalf("invariant violated after step %d: %s", i, violation)
		}
	}
}

// TestChecksumTracksUnrelatedLiveChurn allocates a block, snapshots the
// arena checksum, then performs unrelated allocate/free churn elsewhere
// and confirms the checksum changes: it covers every live payload, so
// churn blocks still live at the end change it even though the
// tracked block's bytes were never touched.
func TestChecksumTracksUnrelatedLiveChurn(t *testing.T) {
	a, err := New(8192, FirstFit)
	assert.NoError(t, err)

	tracked, err := a.Allocate(128)
	assert.NoError(t, err)
	baseline := a.Checksum()

	rng := rand.New(rand.NewSource(1))
	var churn []Handle
	for i := 0; i < 50; i++ {
		if rng.Intn(2) == 0 || len(churn) == 0 {
			if h, err := a.Allocate(1 + rng.Intn(64)); err == nil {
				churn = append(churn, h)
			}
		} else {
			idx := rng.Intn(len(churn))
			a.Release(churn[idx])
			churn = append(churn[:idx], churn[idx+1:]...)
		}
	}

	assert.NotEqual(t, baseline, a.Checksum(), "unrelated live churn changes the aggregate checksum")

	for _, h := range churn {
		a.Release(h)
	}
	assert.NoError(t, a.Release(tracked))
}

// TestHierarchyInvariantsUnderRandomizedAccess drives several
// independent hierarchies through randomized access sequences
// concurrently and checks per-set tag uniqueness after every access.
func TestHierarchyInvariantsUnderRandomizedAccess(t *testing.T) {
	const workers = 8
	const accessesPerWorker = 500

	p := pool.New().WithMaxGoroutines(workers)
	for w := 0; w < workers; w++ {
		seed := uint64(gofakeit.Uint32()) + uint64(w)
		p.Go(func() {
			runRandomizedAccess(t, seed, accessesPerWorker)
		})
	}
	p.Wait()
}

func runRandomizedAccess(t *testing.T, seed uint64, n int) {
	rng := rand.New(rand.NewSource(seed))
	h, err := NewHierarchy(DefaultL1Config, DefaultL2Config, LRU)
	assert.NoError(t, err)

	for i := 0; i < n; i++ {
		addr := rng.Uint64() % (1 << 20)
		h.Access(addr)

		for _, s := range h.L1.sets {
			assertTagsUnique(t, s)
		}
	}
	assert.Equal(t, h.Hits(1)+h.Misses(1), uint64(n))
}

func assertTagsUnique(t *testing.T, s set) {
	seen := map[uint64]bool{}
	for _, w := range s.ways {
		if !w.valid {
			continue
		}
		if seen[w.tag] {
			t.Fatalf("duplicate tag %d within one set", w.tag)
		}
		seen[w.tag] = true
	}
}
