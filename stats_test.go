package memsim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatorRecordsAllocationSuccessRate(t *testing.T) {
	s := NewAggregator()
	s.RecordAllocation(true)
	s.RecordAllocation(true)
	s.RecordAllocation(false)

	var buf bytes.Buffer
	s.PrintStats(&buf)
	assert.Contains(t, buf.String(), "Total Allocations: 3")
	assert.Contains(t, buf.String(), "Successful: 2")
	assert.Contains(t, buf.String(), "Failed: 1")
}

func TestAggregatorLatencyChargesExpectedCycles(t *testing.T) {
	s := NewAggregator()
	s.RecordAccessLatency(AccessReport{L1Hit: true})
	s.RecordAccessLatency(AccessReport{L1Hit: false, L2Accessed: true, L2Hit: true})
	s.RecordAccessLatency(AccessReport{L1Hit: false, L2Accessed: true, L2Hit: false})

	assert.Equal(t, 1.0, s.latency.Min())
	assert.Equal(t, float64(1+l2Latency+memLatency), s.latency.Max())
}

func TestAggregatorSyncCacheCounters(t *testing.T) {
	h, _ := NewHierarchy(DefaultL1Config, DefaultL2Config, DefaultPolicy)
	h.Access(0x1000)
	h.Access(0x1000)

	s := NewAggregator()
	s.SyncCacheCounters(h)

	var buf bytes.Buffer
	s.PrintStats(&buf)
	assert.Contains(t, buf.String(), "Hits: 1")
}
