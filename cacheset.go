package memsim

// way is one cache line within a set.
type way struct {
	valid       bool
	tag         uint64
	loadTime    uint64
	lastAccess  uint64
	accessCount uint64
}

// set is an associativity-wide group of ways plus the auxiliary state
// FIFO and LRU need. LFU reads accessCount on the way directly and
// needs no auxiliary structure.
type set struct {
	ways []way

	fifo []int // queue of way indices, oldest at front
	lru  []int // way indices, oldest..newest
}

func newSet(associativity int) set {
	return set{ways: make([]way, associativity)}
}

// freeWay returns the lowest-index invalid way, or -1 if the set is
// full.
func (s *set) freeWay() int {
	for i := range s.ways {
		if !s.ways[i].valid {
			return i
		}
	}
	return -1
}

// find returns the way index holding tag, or -1.
func (s *set) find(tag uint64) int {
	for i := range s.ways {
		if s.ways[i].valid && s.ways[i].tag == tag {
			return i
		}
	}
	return -1
}

func removeFromOrder(order []int, w int) []int {
	for i, v := range order {
		if v == w {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
