package memsim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevelRejectsBadGeometry(t *testing.T) {
	_, err := NewLevel(1, LevelConfig{Size: 100, BlockSize: 16, Associativity: 1}, FIFO)
	assert.ErrorIs(t, err, ErrBadGeometry, "100 is not a multiple of block_size*associativity")

	_, err = NewLevel(1, LevelConfig{Size: 64, BlockSize: 0, Associativity: 1}, FIFO)
	assert.ErrorIs(t, err, ErrBadGeometry)

	_, err = NewLevel(1, LevelConfig{Size: 96, BlockSize: 16, Associativity: 1}, FIFO)
	assert.ErrorIs(t, err, ErrBadGeometry, "6 sets is not a power of two")
}

// S4 Direct-mapped LRU: L1 has 4 sets, 1 way.
func TestScenarioDirectMappedLRU(t *testing.T) {
	l1 := LevelConfig{Size: 64, BlockSize: 16, Associativity: 1}
	l2 := LevelConfig{Size: 256, BlockSize: 16, Associativity: 1}
	h, err := NewHierarchy(l1, l2, LRU)
	assert.NoError(t, err)

	r1 := h.Access(0x00)
	assert.False(t, r1.L1Hit)

	r2 := h.Access(0x40)
	assert.False(t, r2.L1Hit)

	r3 := h.Access(0x00)
	assert.False(t, r3.L1Hit, "0x40 evicted 0x00's line from the shared direct-mapped set")
}

// S5 Two-way LRU: 1 set, 2 ways.
func TestScenarioTwoWayLRU(t *testing.T) {
	l1 := LevelConfig{Size: 32, BlockSize: 16, Associativity: 2}
	l2 := LevelConfig{Size: 256, BlockSize: 16, Associativity: 2}
	h, err := NewHierarchy(l1, l2, LRU)
	assert.NoError(t, err)

	addrA, addrB, addrC := tagAddresses(l1, 3)

	assert.False(t, h.Access(addrA).L1Hit)
	assert.False(t, h.Access(addrB).L1Hit)
	assert.True(t, h.Access(addrA).L1Hit, "A is still resident and now MRU")
	rC := h.Access(addrC)
	assert.False(t, rC.L1Hit)
	assert.NotEmpty(t, rC.Events, "C's fill must evict the LRU way (B)")
}

// S6 FIFO vs LRU divergence, same geometry as S5.
func TestScenarioFIFOvsLRUDivergence(t *testing.T) {
	l1 := LevelConfig{Size: 32, BlockSize: 16, Associativity: 2}
	l2 := LevelConfig{Size: 256, BlockSize: 16, Associativity: 2}
	addrA, addrB, addrC := tagAddresses(l1, 3)

	fifo, _ := NewHierarchy(l1, l2, FIFO)
	tagA, _, _ := fifo.L1.decompose(addrA)
	fifo.Access(addrA)
	fifo.Access(addrB)
	fifo.Access(addrA)
	rC := fifo.Access(addrC)
	assert.Contains(t, rC.Events[0], fmt.Sprintf("0x%x", tagA), "FIFO evicts A (first-in), regardless of the intervening hit")

	lru, _ := NewHierarchy(l1, l2, LRU)
	lru.Access(addrA)
	lru.Access(addrB)
	lru.Access(addrA)
	rC2 := lru.Access(addrC)
	assert.NotEqual(t, rC.Events[0], rC2.Events[0], "LRU evicts B, not A")
}

// tagAddresses returns n addresses that share the same set index (0)
// but carry distinct tags, for a level with the given geometry.
func tagAddresses(cfg LevelConfig, n int) (a, b, c uint64) {
	blockSize := uint64(cfg.BlockSize)
	numSets := uint64(cfg.Size / (cfg.BlockSize * cfg.Associativity))
	stride := blockSize * numSets
	out := make([]uint64, n)
	for i := range out {
		out[i] = stride * uint64(i+1)
	}
	return out[0], out[1], out[2]
}

func TestFillThenHit(t *testing.T) {
	h, _ := NewHierarchy(DefaultL1Config, DefaultL2Config, DefaultPolicy)
	first := h.Access(0x1000)
	assert.False(t, first.L1Hit)

	second := h.Access(0x1000)
	assert.True(t, second.L1Hit)
	assert.Equal(t, uint64(1), h.Hits(1))
}

func TestRepeatedAccessIncrementsHitsByOne(t *testing.T) {
	h, _ := NewHierarchy(DefaultL1Config, DefaultL2Config, DefaultPolicy)
	h.Access(0x2000)
	before := h.Hits(1)
	h.Access(0x2000)
	assert.Equal(t, before+1, h.Hits(1))
}

func TestAccountingHitsPlusMissesEqualsProbes(t *testing.T) {
	h, _ := NewHierarchy(DefaultL1Config, DefaultL2Config, DefaultPolicy)
	addrs := []uint64{0x10, 0x20, 0x10, 0x30, 0x20}
	for _, a := range addrs {
		h.Access(a)
	}
	assert.Equal(t, uint64(len(addrs)), h.Hits(1)+h.Misses(1))
}

func TestAMATWithNoAccessesIsL1Latency(t *testing.T) {
	h, _ := NewHierarchy(DefaultL1Config, DefaultL2Config, DefaultPolicy)
	assert.Equal(t, float64(l1Latency), h.AMAT())
}

func TestCacheTagUniquenessPerSet(t *testing.T) {
	l1 := LevelConfig{Size: 64, BlockSize: 16, Associativity: 4}
	l2 := LevelConfig{Size: 256, BlockSize: 16, Associativity: 4}
	h, _ := NewHierarchy(l1, l2, FIFO)

	for i := uint64(0); i < 20; i++ {
		h.Access(i * 16)
	}
	for _, s := range h.L1.sets {
		tags := map[uint64]bool{}
		for _, w := range s.ways {
			if !w.valid {
				continue
			}
			assert.False(t, tags[w.tag], "duplicate tag in one set")
			tags[w.tag] = true
		}
	}
}
