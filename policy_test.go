package memsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePolicyAcceptsCommonSpellings(t *testing.T) {
	cases := map[string]Policy{"fifo": FIFO, "LRU": LRU, "lfu": LFU}
	for input, want := range cases {
		got, ok := ParsePolicy(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}
	_, ok := ParsePolicy("mru")
	assert.False(t, ok)
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	cfg := LevelConfig{Size: 64, BlockSize: 16, Associativity: 4}
	l, err := NewLevel(1, cfg, LFU)
	assert.NoError(t, err)

	tags := []uint64{0, 1, 2, 3}
	for _, tag := range tags {
		l.fill(tag * 16)
	}
	// Hit tag 0 repeatedly so its access count outranks the rest.
	l.probe(0, true)
	l.probe(0, true)
	l.probe(0, true)

	events := l.fill(4 * 16)
	assert.NotEmpty(t, events)
	assert.NotContains(t, events[0], "Tag 0x0", "the most-frequently-hit tag must survive")
}

func TestPolicySwitchRebuildsAuxStructuresLazily(t *testing.T) {
	cfg := LevelConfig{Size: 64, BlockSize: 16, Associativity: 4}
	l, err := NewLevel(1, cfg, FIFO)
	assert.NoError(t, err)

	for i := uint64(0); i < 4; i++ {
		l.fill(i * 16)
	}
	l.SetPolicy(LRU)

	for _, s := range l.sets {
		assert.Nil(t, s.fifo)
		assert.Nil(t, s.lru)
	}

	// Consuming a victim after the switch must not panic despite the
	// nil aux slices.
	events := l.fill(4 * 16)
	assert.NotEmpty(t, events)
}

func TestFIFOEvictsInsertionOrderDespiteHits(t *testing.T) {
	cfg := LevelConfig{Size: 32, BlockSize: 16, Associativity: 2}
	l, err := NewLevel(1, cfg, FIFO)
	assert.NoError(t, err)

	l.fill(0)
	l.fill(16)
	l.probe(0, true) // hit on the first-loaded tag; FIFO ignores this

	events := l.fill(32)
	assert.Contains(t, events[0], "Tag 0x0")
}
