package memsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStrategyAcceptsCommonSpellings(t *testing.T) {
	cases := map[string]Strategy{
		"first_fit": FirstFit,
		"FirstFit":  FirstFit,
		"firstfit":  FirstFit,
		"best_fit":  BestFit,
		"worst_fit": WorstFit,
	}
	for input, want := range cases {
		got, ok := ParseStrategy(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := ParseStrategy("bogus")
	assert.False(t, ok)
}

func TestFirstFitReuseHintNeverBreaksCorrectness(t *testing.T) {
	a, _ := New(4096, FirstFit)

	var handles []Handle
	for i := 0; i < 10; i++ {
		h, err := a.Allocate(64)
		assert.NoError(t, err)
		handles = append(handles, h)
	}
	// Free every other block so the hint remembers several candidates,
	// some of which will be coalesced away by later frees.
	for i := 0; i < len(handles); i += 2 {
		assert.NoError(t, a.Release(handles[i]))
	}
	for i := 1; i < len(handles); i += 2 {
		assert.NoError(t, a.Release(handles[i]))
	}
	assert.Equal(t, "", a.Verify())

	// Allocating again consults the hint, whose entries now include
	// blocks that were coalesced away.
	for i := 0; i < 10; i++ {
		_, err := a.Allocate(64)
		assert.NoError(t, err)
	}

	assert.Equal(t, "", a.Verify())
}

func TestSettingCurrentStrategyIsNoOp(t *testing.T) {
	a, _ := New(1024, BestFit)
	a.SetStrategy(BestFit)
	assert.Equal(t, BestFit, a.Strategy())
}
