package memsim

import (
	"github.com/tidwall/hashmap"
	"github.com/zeebo/xxh3"
)

// reuseHintSlots bounds the number of recently freed blocks the
// first-fit fast path remembers.
const reuseHintSlots = 8

// Arena is a fixed-size byte buffer managed by out-of-band-tracked
// blocks. It never grows.
type Arena struct {
	buf []byte

	first    *Block // physical order: address 0
	freeHead *Block

	strategy Strategy
	nextID   uint64

	byID    *hashmap.Map[uint64, *Block]
	reqSize *hashmap.Map[uint64, int]
	hint    reuseHint

	successCount uint64
	failureCount uint64
	freeOK       uint64
	freeFailed   uint64
}

// New constructs an arena of totalSize bytes containing a single free
// block spanning the whole arena. totalSize must be able to hold at
// least one minimal block.
func New(totalSize int, strategy Strategy) (*Arena, error) {
	if totalSize < HeaderBytes+MinPayload {
		return nil, ErrOutOfSpace
	}
	a := &Arena{
		buf:      make([]byte, totalSize),
		strategy: strategy,
		nextID:   1,
		byID:     hashmap.New[uint64, *Block](64),
		reqSize:  hashmap.New[uint64, int](64),
		hint:     newReuseHint(reuseHintSlots),
	}
	root := &Block{start: 0, size: totalSize, free: true}
	a.first = root
	a.pushFree(root)
	return a, nil
}

// SetStrategy changes the placement policy for subsequent allocations.
// It does not alter the arena's structure.
func (a *Arena) SetStrategy(s Strategy) {
	a.strategy = s
}

// Strategy returns the arena's current placement policy.
func (a *Arena) Strategy() Strategy {
	return a.strategy
}

// Allocate reserves size bytes and returns a handle to the new block.
func (a *Arena) Allocate(size int) (Handle, error) {
	if size <= 0 {
		a.failureCount++
		return 0, ErrZeroSize
	}

	need := size + HeaderBytes
	block := a.findCandidate(need)
	if block == nil {
		a.failureCount++
		return 0, ErrOutOfSpace
	}

	a.popFree(block)
	a.split(block, need)

	block.free = false
	block.id = a.nextID
	a.nextID++

	a.byID.Set(block.id, block)
	a.reqSize.Set(block.id, size)
	a.successCount++

	return Handle(block.id), nil
}

// split shrinks block to need bytes if the remainder can hold another
// minimal block, inserting the remainder as a new free block
// immediately after it in physical order.
func (a *Arena) split(block *Block, need int) {
	remaining := block.size - need
	if remaining < HeaderBytes+MinPayload {
		return
	}

	tail := &Block{
		start: block.start + need,
		size:  remaining,
		free:  true,
	}
	tail.physPrev = block
	tail.physNext = block.physNext
	if block.physNext != nil {
		block.physNext.physPrev = tail
	}
	block.physNext = tail
	block.size = need

	a.pushFree(tail)
}

// Release frees the block named by h, coalescing with any adjacent
// free neighbors.
func (a *Arena) Release(h Handle) error {
	block, ok := a.byID.Get(uint64(h))
	if !ok {
		a.freeFailed++
		return ErrUnknownHandle
	}
	return a.release(block)
}

// ReleaseByAddress frees the block whose payload begins at addr.
func (a *Arena) ReleaseByAddress(addr int) error {
	block := a.blockAtAddress(addr)
	if block == nil {
		a.freeFailed++
		return ErrInvalidAddress
	}
	return a.release(block)
}

func (a *Arena) release(block *Block) error {
	if block.free {
		a.freeFailed++
		return ErrDoubleFree
	}

	a.byID.Delete(block.id)
	a.reqSize.Delete(block.id)

	block.free = true
	a.pushFree(block)
	a.coalesce(block)
	a.freeOK++

	return nil
}

// coalesce merges block with a free physical successor and/or
// predecessor. The merged block ends up as the sole survivor holding
// the union of the spans; the absorbed neighbor is retired.
func (a *Arena) coalesce(block *Block) {
	if next := block.physNext; next != nil && next.free {
		a.popFree(next)
		a.unlinkPhysical(next)
		block.size += next.size
		next.free = false // retired: no longer a live tiling member
	}

	if prev := block.physPrev; prev != nil && prev.free {
		a.popFree(block)
		a.unlinkPhysical(block)
		prev.size += block.size
		block.free = false // retired
		a.hint.remember(prev)
		return
	}

	a.hint.remember(block)
}

// unlinkPhysical removes b from the physical (address) order list. Its
// bytes now belong to its predecessor.
func (a *Arena) unlinkPhysical(b *Block) {
	if b.physPrev != nil {
		b.physPrev.physNext = b.physNext
	} else {
		a.first = b.physNext
	}
	if b.physNext != nil {
		b.physNext.physPrev = b.physPrev
	}
	b.physPrev, b.physNext = nil, nil
}

func (a *Arena) blockAtAddress(addr int) *Block {
	start := addr - HeaderBytes
	for b := a.first; b != nil; b = b.physNext {
		if b.start == start {
			return b
		}
		if b.start > start {
			break
		}
	}
	return nil
}

// BlockInfo reports the current state of the block named by h.
func (a *Arena) BlockInfo(h Handle) (BlockInfo, error) {
	block, ok := a.byID.Get(uint64(h))
	if !ok {
		return BlockInfo{}, ErrUnknownHandle
	}
	return block.info(), nil
}

// AllBlocks returns every block currently tiling the arena, in
// physical (address) order.
func (a *Arena) AllBlocks() []BlockInfo {
	var out []BlockInfo
	for b := a.first; b != nil; b = b.physNext {
		out = append(out, b.info())
	}
	return out
}

// Checksum folds the arena's live (allocated) payload bytes through
// xxh3. It backs the driver's `verify` command and lets property tests
// detect any corruption of bytes a sequence of operations should never
// have touched.
func (a *Arena) Checksum() uint64 {
	h := xxh3.New()
	for b := a.first; b != nil; b = b.physNext {
		if !b.free {
			h.Write(a.buf[b.start+HeaderBytes : b.end()])
		}
	}
	return h.Sum64()
}
