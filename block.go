package memsim

// HeaderBytes is the per-block bookkeeping overhead charged against the
// arena's capacity: five 8-byte-aligned fields worth of accounting
// (size, is_free, block_id, two link pointers), tracked out of band in
// Block rather than cast in front of the payload bytes.
const HeaderBytes = 40

// MinPayload is the smallest usable payload a split is allowed to
// leave behind; a candidate that would leave less is not split.
const MinPayload = 8

// Handle names an allocated block. The zero Handle is never issued.
type Handle uint64

// Block is one span of the arena: header bookkeeping plus a payload
// range [start+HeaderBytes, start+size). Blocks tile the arena exactly
// and are linked in physical (address) order via physPrev/physNext.
// freePrev/freeNext are meaningful only while free.
type Block struct {
	start int
	size  int // total span length, including HeaderBytes
	free  bool
	id    uint64 // 0 while never allocated

	physPrev, physNext *Block
	freePrev, freeNext *Block
}

// payload is the usable byte count of this block, header excluded.
func (b *Block) payload() int {
	return b.size - HeaderBytes
}

// end is the exclusive address just past this block's span.
func (b *Block) end() int {
	return b.start + b.size
}

// BlockInfo is the read-only reporting view of a Block, returned to
// callers that must not mutate allocator state.
type BlockInfo struct {
	ID      uint64
	Address int
	Size    int // payload bytes, header excluded
	Free    bool
}

func (b *Block) info() BlockInfo {
	return BlockInfo{
		ID:      b.id,
		Address: b.start + HeaderBytes,
		Size:    b.payload(),
		Free:    b.free,
	}
}
