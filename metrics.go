package memsim

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/s2"
)

// Metrics is a snapshot of arena-wide accounting.
type Metrics struct {
	Total                 int
	Used                  int
	Free                  int
	Utilization           float64
	InternalFragmentation float64
	ExternalFragmentation float64
	LargestFreeBlock      int
	SuccessCount          uint64
	FailureCount          uint64
	FreeOK                uint64
	FreeFailed            uint64
	CompressedLiveBytes   int
}

// Metrics computes the current allocator-wide statistics.
func (a *Arena) Metrics() Metrics {
	m := Metrics{
		Total:        len(a.buf),
		SuccessCount: a.successCount,
		FailureCount: a.failureCount,
		FreeOK:       a.freeOK,
		FreeFailed:   a.freeFailed,
	}

	var granted, requested, freeUsable, largestUsable, largestBlock int
	for b := a.first; b != nil; b = b.physNext {
		if b.free {
			usable := b.payload()
			freeUsable += usable
			if usable > largestUsable {
				largestUsable = usable
			}
			if b.size > largestBlock {
				largestBlock = b.size
			}
			continue
		}
		m.Used += b.size
		granted += b.payload()
		if req, ok := a.reqSize.Get(b.id); ok {
			requested += req
		}
	}

	m.LargestFreeBlock = largestBlock
	m.Free = m.Total - m.Used
	if m.Total > 0 {
		m.Utilization = 100 * float64(m.Used) / float64(m.Total)
	}
	if granted > 0 {
		m.InternalFragmentation = 100 * float64(granted-requested) / float64(granted)
	}
	if freeUsable > 0 {
		m.ExternalFragmentation = 100 * float64(freeUsable-largestUsable) / float64(m.Total)
	}
	m.CompressedLiveBytes = a.compressedLiveBytes()

	return m
}

// compressedLiveBytes runs every allocated payload through a
// Snappy-compatible encoder, purely as a diagnostic showing how fill
// patterns affect compressibility. Nothing is persisted.
func (a *Arena) compressedLiveBytes() int {
	var live []byte
	for b := a.first; b != nil; b = b.physNext {
		if !b.free {
			live = append(live, a.buf[b.start+HeaderBytes:b.end()]...)
		}
	}
	if len(live) == 0 {
		return 0
	}
	return len(s2.EncodeSnappy(nil, live))
}

// Dump renders the block layout the way the driver's `dump memory`
// command prints it.
func (a *Arena) Dump() string {
	var sb strings.Builder
	sb.WriteString("=== Memory Dump ===\n")
	for b := a.first; b != nil; b = b.physNext {
		lo := b.start
		hi := b.start + b.size - 1
		if b.free {
			fmt.Fprintf(&sb, "[0x%08x - 0x%08x] FREE\n", lo, hi)
		} else {
			fmt.Fprintf(&sb, "[0x%08x - 0x%08x] USED (id=%d, size=%d bytes)\n", lo, hi, b.id, b.payload())
		}
	}
	sb.WriteString("==================\n")
	return sb.String()
}

// blockRecord is the JSON-friendly shape sonic marshals for
// `dump memory json`.
type blockRecord struct {
	Address string `json:"address"`
	Size    int    `json:"size"`
	Free    bool   `json:"free"`
	ID      uint64 `json:"id,omitempty"`
}

// DumpJSON renders the block layout as a JSON array, encoded with
// bytedance/sonic.
func (a *Arena) DumpJSON() ([]byte, error) {
	records := make([]blockRecord, 0)
	for b := a.first; b != nil; b = b.physNext {
		rec := blockRecord{
			Address: fmt.Sprintf("0x%08x", b.start),
			Size:    b.payload(),
			Free:    b.free,
		}
		if !b.free {
			rec.ID = b.id
		}
		records = append(records, rec)
	}
	return sonic.Marshal(records)
}
