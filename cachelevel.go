package memsim

import "fmt"

// Level is one level of the cache hierarchy: a fixed geometry, a bank
// of sets, and the counters and clock needed to report hit/miss
// behavior.
type Level struct {
	num int // 1 or 2, used only for event/report labeling

	blockSize     int
	associativity int
	numSets       int

	offsetBits uint
	indexBits  uint
	tagBits    uint

	policy Policy
	sets   []set
	clock  logicalClock

	hits, misses, evictions, fills uint64
}

const addressBits = 64

// NewLevel validates cfg and constructs a Level. Geometry is rejected
// (ErrBadGeometry) at construction, never at access time.
func NewLevel(num int, cfg LevelConfig, policy Policy) (*Level, error) {
	if cfg.BlockSize <= 0 || !isPowerOfTwo(cfg.BlockSize) {
		return nil, fmt.Errorf("%w: block size %d is not a positive power of two", ErrBadGeometry, cfg.BlockSize)
	}
	if cfg.Associativity <= 0 {
		return nil, fmt.Errorf("%w: associativity must be positive", ErrBadGeometry)
	}
	denom := cfg.BlockSize * cfg.Associativity
	if denom <= 0 || cfg.Size < denom || cfg.Size%denom != 0 {
		return nil, fmt.Errorf("%w: size %d is smaller than block_size*associativity or does not divide evenly", ErrBadGeometry, cfg.Size)
	}
	numSets := cfg.Size / denom
	if !isPowerOfTwo(numSets) {
		return nil, fmt.Errorf("%w: number of sets %d is not a power of two", ErrBadGeometry, numSets)
	}

	offsetBits := log2(cfg.BlockSize)
	indexBits := log2(numSets)
	tagBits := uint(addressBits) - indexBits - offsetBits

	l := &Level{
		num:           num,
		blockSize:     cfg.BlockSize,
		associativity: cfg.Associativity,
		numSets:       numSets,
		offsetBits:    offsetBits,
		indexBits:     indexBits,
		tagBits:       tagBits,
		policy:        policy,
		sets:          make([]set, numSets),
	}
	for i := range l.sets {
		l.sets[i] = newSet(cfg.Associativity)
	}
	return l, nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) uint {
	var bits uint
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}

// decompose splits addr into (tag, index); offset is computed for
// completeness but never consulted for hit/miss.
func (l *Level) decompose(addr uint64) (tag, index, offset uint64) {
	offsetMask := uint64(1)<<l.offsetBits - 1
	indexMask := uint64(1)<<l.indexBits - 1
	tagMask := uint64(1)<<l.tagBits - 1

	offset = addr & offsetMask
	index = (addr >> l.offsetBits) & indexMask
	tag = (addr >> (l.offsetBits + l.indexBits)) & tagMask
	return
}

// probe looks up addr. When countStats is true it is an externally
// visible access: the level's clock ticks once and the hit/miss
// counter increments. It never allocates a way.
func (l *Level) probe(addr uint64, countStats bool) bool {
	tag, index, _ := l.decompose(addr)
	s := &l.sets[index]

	if countStats {
		l.clock.tick()
	}

	if w := s.find(tag); w >= 0 {
		if countStats {
			l.hits++
			onHit(l, s, w)
		}
		return true
	}

	if countStats {
		l.misses++
	}
	return false
}

// fill installs addr's block into its set, evicting under the level's
// policy if the set is full. It never counts hit/miss statistics and
// never ticks the clock: a fill following a probe reuses that probe's
// clock value. events describes any eviction that occurred, formatted
// for the driver.
func (l *Level) fill(addr uint64) (events []string) {
	tag, index, _ := l.decompose(addr)
	s := &l.sets[index]

	target := s.freeWay()
	if target < 0 {
		target = victim(l.policy, s)
		l.evictions++
		events = append(events, fmt.Sprintf("L%d Eviction: Tag 0x%x (Set %d)", l.num, s.ways[target].tag, index))
	}

	now := l.clock.peek()
	s.ways[target] = way{
		valid:       true,
		tag:         tag,
		loadTime:    now,
		lastAccess:  now,
		accessCount: 1,
	}
	l.fills++

	onFill(l, s, target)
	return events
}

// Policy returns the level's current replacement policy.
func (l *Level) Policy() Policy {
	return l.policy
}

// NumSets returns the level's set count.
func (l *Level) NumSets() int {
	return l.numSets
}

// BlockSize returns the level's cache line size in bytes.
func (l *Level) BlockSize() int {
	return l.blockSize
}

// HitRatio is 100*hits/(hits+misses), or 0 with no accesses.
func (l *Level) HitRatio() float64 {
	total := l.hits + l.misses
	if total == 0 {
		return 0
	}
	return 100 * float64(l.hits) / float64(total)
}

// SetPolicy switches the replacement policy. Existing way contents are
// kept; auxiliary FIFO/LRU structures are invalidated and rebuilt
// lazily on next use.
func (l *Level) SetPolicy(p Policy) {
	l.policy = p
	for i := range l.sets {
		l.sets[i].fifo = nil
		l.sets[i].lru = nil
	}
}
