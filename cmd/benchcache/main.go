// Command benchcache times a synthetic allocate/access workload
// against the arena and cache hierarchy, and against bigcache as an
// external reference point, under repeated GC pressure.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/brianvoe/gofakeit/v6"

	memsim "github.com/xgzlucario/memsim"
)

var previousPause time.Duration

func gcPause() time.Duration {
	runtime.GC()
	var stats debug.GCStats
	debug.ReadGCStats(&stats)
	pause := stats.PauseTotal - previousPause
	previousPause = stats.PauseTotal
	return pause
}

func main() {
	target := ""
	ops := 0
	repeat := 0
	arenaSize := 0
	flag.StringVar(&target, "target", "hierarchy", "workload to bench: hierarchy, arena, bigcache")
	flag.IntVar(&ops, "ops", 200000, "number of operations per repetition")
	flag.IntVar(&repeat, "repeat", 10, "number of repetitions")
	flag.IntVar(&arenaSize, "arena-size", 4<<20, "arena size in bytes, for -target=arena")
	flag.Parse()

	debug.SetGCPercent(10)
	fmt.Println("Target:            ", target)
	fmt.Println("Operations:        ", ops)
	fmt.Println("Repeats:           ", repeat)

	var benchFunc func(ops int)
	switch target {
	case "hierarchy":
		benchFunc = benchHierarchy
	case "arena":
		benchFunc = func(ops int) { benchArena(ops, arenaSize) }
	case "bigcache":
		benchFunc = benchBigCache
	default:
		fmt.Printf("unknown target: %s\n", target)
		os.Exit(1)
	}

	start := time.Now()
	benchFunc(ops)
	fmt.Println("GC pause for startup:", gcPause())

	for i := 0; i < repeat; i++ {
		benchFunc(ops)
	}
	fmt.Printf("GC pause for %d repeats: %s\n", repeat, gcPause())
	fmt.Println("Elapsed:", time.Since(start))
}

// benchHierarchy drives ops random accesses through a default-sized
// hierarchy and reports the resulting hit ratios, exercising the same
// replacement-policy machinery the memsim REPL's `access random` uses.
func benchHierarchy(ops int) {
	h, err := memsim.NewHierarchy(memsim.DefaultL1Config, memsim.DefaultL2Config, memsim.LRU)
	if err != nil {
		fmt.Println("hierarchy init failed:", err)
		return
	}
	rng := rand.New(rand.NewSource(gofakeit.Int64()))
	span := uint64(memsim.DefaultL2Config.Size * 4)
	for i := 0; i < ops; i++ {
		h.Access(rng.Uint64() % span)
	}
	fmt.Printf("  L1 hit ratio=%.2f%% L2 hit ratio=%.2f%% AMAT=%.2f\n", h.HitRatio(1), h.HitRatio(2), h.AMAT())
}

// benchArena drives an allocate/free churn workload of random sizes
// through a single arena, sized to force reuse of freed blocks.
func benchArena(ops, arenaSize int) {
	a, err := memsim.New(arenaSize, memsim.FirstFit)
	if err != nil {
		fmt.Println("arena init failed:", err)
		return
	}
	var live []memsim.Handle
	for i := 0; i < ops; i++ {
		size := 8 + gofakeit.Number(1, 512)
		if h, err := a.Allocate(size); err == nil {
			live = append(live, h)
		}
		if len(live) > 64 {
			a.Release(live[0])
			live = live[1:]
		}
	}
	m := a.Metrics()
	fmt.Printf("  utilization=%.2f%% internal_frag=%.2f%% external_frag=%.2f%%\n",
		m.Utilization, m.InternalFragmentation, m.ExternalFragmentation)
}

// benchBigCache is the external reference point: how fast bigcache
// absorbs the same number of Set calls, unrelated to the arena or
// cache hierarchy but useful for judging whether their overhead is in
// the same ballpark as a production cache library.
func benchBigCache(ops int) {
	config := bigcache.Config{
		Shards:             256,
		LifeWindow:         100 * time.Minute,
		MaxEntriesInWindow: ops,
		MaxEntrySize:       200,
	}
	bc, err := bigcache.New(context.Background(), config)
	if err != nil {
		fmt.Println("bigcache init failed:", err)
		return
	}
	for i := 0; i < ops; i++ {
		key := fmt.Sprintf("key-%010d", i)
		val := []byte(gofakeit.LetterN(32))
		bc.Set(key, val)
	}
}
