package memsim

import (
	"fmt"
	"io"
)

// AMAT latency constants, in cycles, used to weight the estimate by
// each level's observed miss rate.
const (
	l1Latency  = 1.0
	l2Latency  = 10.0
	memLatency = 100.0
)

// AccessReport describes the outcome of one Hierarchy.Access call.
type AccessReport struct {
	Address    uint64
	L1Hit      bool
	L2Accessed bool
	L2Hit      bool
	Events     []string
}

// Hierarchy is a two-level cache filled inclusively: a line missing
// from both levels is installed in L2 and then in L1. Evictions are
// silent: an L2 eviction does not invalidate the line in L1, so L1 can
// hold lines L2 no longer has.
type Hierarchy struct {
	L1 *Level
	L2 *Level
}

// NewHierarchy constructs a two-level hierarchy from independently
// validated level geometries sharing one initial policy.
func NewHierarchy(l1cfg, l2cfg LevelConfig, policy Policy) (*Hierarchy, error) {
	l1, err := NewLevel(1, l1cfg, policy)
	if err != nil {
		return nil, fmt.Errorf("L1: %w", err)
	}
	l2, err := NewLevel(2, l2cfg, policy)
	if err != nil {
		return nil, fmt.Errorf("L2: %w", err)
	}
	return &Hierarchy{L1: l1, L2: l2}, nil
}

// SetPolicy switches both levels to policy p.
func (h *Hierarchy) SetPolicy(p Policy) {
	h.L1.SetPolicy(p)
	h.L2.SetPolicy(p)
}

// SetLevelPolicy switches only the named level (1 or 2).
func (h *Hierarchy) SetLevelPolicy(level int, p Policy) error {
	switch level {
	case 1:
		h.L1.SetPolicy(p)
	case 2:
		h.L2.SetPolicy(p)
	default:
		return fmt.Errorf("%w: no such level %d", ErrBadGeometry, level)
	}
	return nil
}

// Access simulates one memory reference through the hierarchy: probe
// L1, on miss probe L2, on double miss (or an L2-only hit) fill the
// levels the data was missing from, L2 before L1.
func (h *Hierarchy) Access(addr uint64) AccessReport {
	report := AccessReport{Address: addr}

	report.L1Hit = h.L1.probe(addr, true)
	if report.L1Hit {
		return report
	}

	report.L2Accessed = true
	report.L2Hit = h.L2.probe(addr, true)

	if report.L2Hit {
		report.Events = append(report.Events, h.L1.fill(addr)...)
		return report
	}

	report.Events = append(report.Events, h.L2.fill(addr)...)
	report.Events = append(report.Events, h.L1.fill(addr)...)
	return report
}

// Hits and Misses report per-level counters; level must be 1 or 2.
func (h *Hierarchy) Hits(level int) uint64 {
	return h.level(level).hits
}

func (h *Hierarchy) Misses(level int) uint64 {
	return h.level(level).misses
}

func (h *Hierarchy) Evictions(level int) uint64 {
	return h.level(level).evictions
}

func (h *Hierarchy) HitRatio(level int) float64 {
	return h.level(level).HitRatio()
}

func (h *Hierarchy) level(n int) *Level {
	if n == 2 {
		return h.L2
	}
	return h.L1
}

// AMAT is the average memory access time estimate: L1 latency, plus on
// an L1 miss the L2 latency, plus on an L2 miss the memory latency,
// weighted by each level's observed miss rate.
func (h *Hierarchy) AMAT() float64 {
	l1MissRate := missRate(h.L1)
	l2MissRate := missRate(h.L2)
	return l1Latency + l1MissRate*(l2Latency+l2MissRate*memLatency)
}

func missRate(l *Level) float64 {
	total := l.hits + l.misses
	if total == 0 {
		return 0
	}
	return float64(l.misses) / float64(total)
}

// PrintStatistics renders the per-level counters and AMAT estimate for
// the `stats` command.
func (h *Hierarchy) PrintStatistics(w io.Writer) {
	fmt.Fprintln(w, "=== Cache Statistics ===")
	fmt.Fprintln(w, "L1 Cache:")
	fmt.Fprintf(w, "  Hits: %d\n", h.L1.hits)
	fmt.Fprintf(w, "  Misses: %d\n", h.L1.misses)
	fmt.Fprintf(w, "  Evictions: %d\n", h.L1.evictions)
	fmt.Fprintf(w, "  Hit Ratio: %.2f%%\n", h.HitRatio(1))
	fmt.Fprintf(w, "  Miss Traffic (to L2): %d requests\n", h.L1.misses)

	fmt.Fprintln(w, "L2 Cache:")
	fmt.Fprintf(w, "  Hits: %d\n", h.L2.hits)
	fmt.Fprintf(w, "  Misses: %d\n", h.L2.misses)
	fmt.Fprintf(w, "  Evictions: %d\n", h.L2.evictions)
	fmt.Fprintf(w, "  Hit Ratio: %.2f%%\n", h.HitRatio(2))
	fmt.Fprintf(w, "  Miss Traffic (to Memory): %d requests\n", h.L2.misses)

	fmt.Fprintln(w, "System Performance:")
	fmt.Fprintf(w, "  Estimated AMAT: %.4f cycles\n", h.AMAT())
	fmt.Fprintf(w, "  (Assumptions: L1=%d, L2=%d, Mem=%d)\n", int(l1Latency), int(l2Latency), int(memLatency))
	fmt.Fprintln(w, "======================")
}
