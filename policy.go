package memsim

// victim selects the way to evict from s under the current policy. The
// set must be full (no invalid way); callers check that first.
func victim(p Policy, s *set) int {
	switch p {
	case LRU:
		return victimLRU(s)
	case LFU:
		return victimLFU(s)
	default:
		return victimFIFO(s)
	}
}

func victimFIFO(s *set) int {
	if len(s.fifo) == 0 {
		rebuildFIFO(s)
	}
	w := s.fifo[0]
	s.fifo = s.fifo[1:]
	return w
}

func victimLRU(s *set) int {
	if s.lru == nil {
		rebuildLRU(s)
	}
	return s.lru[0]
}

func victimLFU(s *set) int {
	victim := 0
	min := s.ways[0].accessCount
	for i := 1; i < len(s.ways); i++ {
		if s.ways[i].accessCount < min {
			min = s.ways[i].accessCount
			victim = i
		}
	}
	return victim
}

// rebuildFIFO and rebuildLRU lazily reconstruct the FIFO queue / LRU
// list the first time either is consulted after being empty, either
// because the set is brand new, or because a runtime policy switch
// discarded the old auxiliary structure. FIFO is rebuilt by load_time,
// LRU by last_access, both ascending (oldest first).

// rebuildFIFO reconstructs the FIFO queue from load_time, oldest
// first, for the valid ways in s.
func rebuildFIFO(s *set) {
	order := make([]int, 0, len(s.ways))
	for i := range s.ways {
		if s.ways[i].valid {
			order = append(order, i)
		}
	}
	sortByKey(order, func(i int) uint64 { return s.ways[i].loadTime })
	s.fifo = order
}

// rebuildLRU reconstructs the LRU list from last_access, oldest
// first, for the valid ways in s.
func rebuildLRU(s *set) {
	order := make([]int, 0, len(s.ways))
	for i := range s.ways {
		if s.ways[i].valid {
			order = append(order, i)
		}
	}
	sortByKey(order, func(i int) uint64 { return s.ways[i].lastAccess })
	s.lru = order
}

// sortByKey is a small insertion sort: sets are tiny (associativity is
// rarely more than a handful of ways), so this avoids pulling in
// sort.Slice's reflection-driven comparator for a handful of ints.
func sortByKey(order []int, key func(int) uint64) {
	for i := 1; i < len(order); i++ {
		v := order[i]
		kv := key(v)
		j := i - 1
		for j >= 0 && key(order[j]) > kv {
			order[j+1] = order[j]
			j--
		}
		order[j+1] = v
	}
}

// onHit updates the way's replacement metadata after a probe hit.
func onHit(level *Level, s *set, w int) {
	switch level.policy {
	case FIFO:
		// FIFO orders by insertion only; a hit changes nothing.
	case LRU:
		if s.lru == nil {
			rebuildLRU(s)
		}
		s.lru = removeFromOrder(s.lru, w)
		s.lru = append(s.lru, w)
		s.ways[w].lastAccess = level.clock.peek()
	case LFU:
		s.ways[w].accessCount++
	}
}

// onFill updates the way's replacement metadata after a fill installs
// tag into way w.
func onFill(level *Level, s *set, w int) {
	switch level.policy {
	case FIFO:
		if s.fifo == nil {
			rebuildFIFO(s)
		}
		s.fifo = removeFromOrder(s.fifo, w)
		s.fifo = append(s.fifo, w)
	case LRU:
		if s.lru == nil {
			rebuildLRU(s)
		}
		s.lru = removeFromOrder(s.lru, w)
		s.lru = append(s.lru, w)
	case LFU:
		// access_count is reset to 1 by the caller when the way is
		// (re)loaded; nothing else to track.
	}
}
