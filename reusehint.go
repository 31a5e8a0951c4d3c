package memsim

import "math"

// reuseHint remembers pointers to a handful of the largest recently
// freed blocks, keyed by total block size (header included), the same
// unit as the allocator's need, so Arena.Allocate's
// First-Fit path gets an O(1) chance at reusing a just-freed block
// before falling back to a full free-list walk. It is purely an
// optimization: every hit is re-validated against the live block
// before use (still free, still large enough), so a stale hint, one
// that was split, coalesced away, or reallocated since, never affects
// correctness. Best-Fit and Worst-Fit never consult it, so their
// deterministic tie-break rules are untouched.
type reuseHint struct {
	size  []int
	block []*Block
}

func newReuseHint(capacity int) reuseHint {
	return reuseHint{
		size:  make([]int, capacity),
		block: make([]*Block, capacity),
	}
}

// remember records a freed block, evicting the current smallest
// remembered size if the slots are full and this one is larger.
func (h *reuseHint) remember(b *Block) {
	if b.size <= 0 || len(h.size) == 0 {
		return
	}
	minSize, pos := minAbove(h.size, -math.MaxInt)
	if b.size > minSize {
		h.size[pos] = b.size
		h.block[pos] = b
	}
}

// take returns the smallest remembered block whose size is at least
// need, removing it from the hint. The caller must still confirm the
// block is free and large enough before trusting it.
func (h *reuseHint) take(need int) *Block {
	_, pos := minAbove(h.size, need)
	if pos < 0 {
		return nil
	}
	b := h.block[pos]
	h.size[pos] = 0
	h.block[pos] = nil
	return b
}

// minAbove finds the smallest value in s that is >= target, returning
// it and its index, or (math.MaxInt, -1) if none qualifies.
func minAbove(s []int, target int) (min, pos int) {
	min = math.MaxInt
	pos = -1
	for i, v := range s {
		if v < min && v >= target {
			min = v
			pos = i
		}
	}
	return
}
