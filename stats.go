package memsim

import (
	"fmt"
	"io"
)

// Aggregator is a pure accumulator the caller pushes updates into after
// every command, with one report renderer. Page-fault/page-hit
// counters are carried but never incremented: paging is out of scope,
// but the counters stay so the report shape stays complete.
type Aggregator struct {
	totalAllocations, successfulAllocations, failedAllocations uint64

	internalFragmentation, externalFragmentation, memoryUtilization float64
	totalMemory, usedMemory, freeMemory                             int

	l1Hits, l1Misses, l2Hits, l2Misses uint64

	pageFaults, pageHits uint64

	latency *LatencyTracker
}

// NewAggregator returns a zeroed Aggregator ready to accumulate.
func NewAggregator() *Aggregator {
	return &Aggregator{latency: NewLatencyTracker()}
}

// RecordAllocation logs one malloc attempt.
func (s *Aggregator) RecordAllocation(success bool) {
	s.totalAllocations++
	if success {
		s.successfulAllocations++
	} else {
		s.failedAllocations++
	}
}

// RecordAccessLatency charges the simulated per-access cycle cost for
// one AccessReport: 1 for an L1 hit, 11 for an L1 miss / L2 hit, 111
// for a full miss.
func (s *Aggregator) RecordAccessLatency(r AccessReport) {
	cost := 1.0
	if !r.L1Hit {
		cost += l2Latency
		if !r.L2Hit {
			cost += memLatency
		}
	}
	s.latency.Add(cost)
}

// SyncCacheCounters copies the hierarchy's authoritative per-level
// counters.
func (s *Aggregator) SyncCacheCounters(h *Hierarchy) {
	s.l1Hits, s.l1Misses = h.Hits(1), h.Misses(1)
	s.l2Hits, s.l2Misses = h.Hits(2), h.Misses(2)
}

// SetFragmentation records the arena's latest fragmentation snapshot.
func (s *Aggregator) SetFragmentation(internal, external, utilization float64) {
	s.internalFragmentation = internal
	s.externalFragmentation = external
	s.memoryUtilization = utilization
}

// SetMemoryUsage records the arena's latest size accounting.
func (s *Aggregator) SetMemoryUsage(total, used, free int) {
	s.totalMemory, s.usedMemory, s.freeMemory = total, used, free
}

// PrintStats renders the full report: allocation, memory, fragmentation
// and cache sections, plus the simulated-latency section the percentile
// tracker adds.
func (s *Aggregator) PrintStats(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Statistics ===")

	fmt.Fprintln(w, "\nMemory Allocation:")
	fmt.Fprintf(w, "  Total Allocations: %d\n", s.totalAllocations)
	fmt.Fprintf(w, "  Successful: %d\n", s.successfulAllocations)
	fmt.Fprintf(w, "  Failed: %d\n", s.failedAllocations)
	if s.totalAllocations > 0 {
		rate := 100 * float64(s.successfulAllocations) / float64(s.totalAllocations)
		fmt.Fprintf(w, "  Success Rate: %.2f%%\n", rate)
	}

	fmt.Fprintln(w, "\nMemory Usage:")
	fmt.Fprintf(w, "  Total Memory: %d bytes\n", s.totalMemory)
	fmt.Fprintf(w, "  Used Memory: %d bytes\n", s.usedMemory)
	fmt.Fprintf(w, "  Free Memory: %d bytes\n", s.freeMemory)
	fmt.Fprintf(w, "  Memory Utilization: %.2f%%\n", s.memoryUtilization)

	fmt.Fprintln(w, "\nFragmentation:")
	fmt.Fprintf(w, "  Internal Fragmentation: %.2f%%\n", s.internalFragmentation)
	fmt.Fprintf(w, "  External Fragmentation: %.2f%%\n", s.externalFragmentation)

	fmt.Fprintln(w, "\nCache Statistics (L1):")
	fmt.Fprintf(w, "  Hits: %d\n", s.l1Hits)
	fmt.Fprintf(w, "  Misses: %d\n", s.l1Misses)
	if total := s.l1Hits + s.l1Misses; total > 0 {
		fmt.Fprintf(w, "  Hit Ratio: %.2f%%\n", 100*float64(s.l1Hits)/float64(total))
	}

	fmt.Fprintln(w, "\nCache Statistics (L2):")
	fmt.Fprintf(w, "  Hits: %d\n", s.l2Hits)
	fmt.Fprintf(w, "  Misses: %d\n", s.l2Misses)
	if total := s.l2Hits + s.l2Misses; total > 0 {
		fmt.Fprintf(w, "  Hit Ratio: %.2f%%\n", 100*float64(s.l2Hits)/float64(total))
	}

	fmt.Fprintln(w, "\nVirtual Memory:")
	fmt.Fprintf(w, "  Page Faults: %d\n", s.pageFaults)
	fmt.Fprintf(w, "  Page Hits: %d\n", s.pageHits)
	if total := s.pageFaults + s.pageHits; total > 0 {
		fmt.Fprintf(w, "  Page Fault Rate: %.2f%%\n", 100*float64(s.pageFaults)/float64(total))
	}

	fmt.Fprintln(w, "\nSimulated Access Latency:")
	s.latency.Print(w)

	fmt.Fprintln(w, "============================")
}
