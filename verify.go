package memsim

import "fmt"

// Verify walks the arena's structural invariants, tiling, free-list
// completeness, and no-adjacent-free, and returns a description of the
// first violation found, or "" if none. It is a read-only diagnostic
// backing the driver's `verify` command; it never mutates the arena.
func (a *Arena) Verify() string {
	sum := 0
	seen := make(map[*Block]bool)
	var prevFree bool

	for b := a.first; b != nil; b = b.physNext {
		if seen[b] {
			return "physical order revisits a block"
		}
		seen[b] = true
		sum += b.size

		if b.free && prevFree {
			return fmt.Sprintf("adjacent free blocks at address 0x%08x", b.start)
		}
		prevFree = b.free
	}

	if sum != len(a.buf) {
		return fmt.Sprintf("tiling mismatch: blocks sum to %d, arena is %d", sum, len(a.buf))
	}

	freeSeen := make(map[*Block]bool)
	for b := a.freeHead; b != nil; b = b.freeNext {
		if freeSeen[b] {
			return "free list contains a duplicate"
		}
		if !b.free {
			return "free list contains an allocated block"
		}
		freeSeen[b] = true
	}
	for b := a.first; b != nil; b = b.physNext {
		if b.free && !freeSeen[b] {
			return "free block missing from free list"
		}
		if !b.free && freeSeen[b] {
			return "allocated block present in free list"
		}
	}

	return ""
}
