// Command memsim is an interactive REPL that drives an Arena allocator
// and a two-level cache hierarchy from typed commands.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	memsim "github.com/xgzlucario/memsim"
)

// engine holds the simulator state for one REPL session.
type engine struct {
	arena       *memsim.Arena
	hierarchy   *memsim.Hierarchy
	stats       *memsim.Aggregator
	initialized bool
}

func newEngine() *engine {
	return &engine{stats: memsim.NewAggregator()}
}

func main() {
	e := newEngine()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Memory Management Simulator")
	fmt.Println("Type 'help' for available commands")
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		command := strings.ToLower(tokens[0])

		switch command {
		case "exit", "quit":
			fmt.Println("Simulator exited.")
			return
		case "help":
			printHelp()
		case "init":
			e.handleInit(tokens)
		case "set":
			e.handleSet(tokens)
		case "malloc":
			e.handleMalloc(tokens)
		case "free":
			e.handleFree(tokens)
		case "dump":
			e.handleDump(tokens)
		case "stats":
			e.handleStats()
		case "access":
			e.handleAccess(tokens)
		case "verify":
			e.handleVerify()
		default:
			fmt.Printf("Unknown command: %s\n", command)
			fmt.Println("Type 'help' for available commands")
		}
	}
}

func printHelp() {
	fmt.Println()
	fmt.Println("Available commands:")
	fmt.Println("  init memory <size>                          - initialize memory system (arena + cache)")
	fmt.Println("  init cache <l1sz> <l1blk> <l1way> <l2sz> <l2blk> <l2way> - initialize L1/L2 cache hierarchy")
	fmt.Println("  set allocator <strategy>                     - first_fit, best_fit, worst_fit")
	fmt.Println("  set cache_policy [1|2] <policy>              - fifo, lru, lfu (omit level for both)")
	fmt.Println("  malloc <size>                                - allocate a block")
	fmt.Println("  free <block_id>                              - free by id")
	fmt.Println("  free 0x<address>                             - free by address")
	fmt.Println("  dump memory                                  - display memory layout")
	fmt.Println("  dump memory json                             - display memory layout as JSON")
	fmt.Println("  stats                                        - display statistics")
	fmt.Println("  access <address>                             - simulate one cache access")
	fmt.Println("  access random <n>                            - simulate n random cache accesses")
	fmt.Println("  verify                                       - check arena invariants and checksum")
	fmt.Println("  help                                         - show this help")
	fmt.Println("  exit                                         - exit simulator")
	fmt.Println()
}

func (e *engine) handleInit(tokens []string) {
	if len(tokens) < 2 {
		fmt.Println("Usage: init memory <size> OR init cache <params>")
		return
	}

	switch tokens[1] {
	case "memory":
		if len(tokens) < 3 {
			fmt.Println("Usage: init memory <size>")
			return
		}
		size, err := strconv.Atoi(tokens[2])
		if err != nil {
			fmt.Printf("Error parsing size: %v\n", err)
			return
		}

		arena, err := memsim.New(size, memsim.FirstFit)
		if err != nil {
			fmt.Printf("Error initializing memory: %v\n", err)
			return
		}
		e.arena = arena

		if e.hierarchy == nil {
			h, err := memsim.NewHierarchy(memsim.DefaultL1Config, memsim.DefaultL2Config, memsim.DefaultPolicy)
			if err != nil {
				fmt.Printf("Error initializing cache: %v\n", err)
				return
			}
			e.hierarchy = h
		}

		e.initialized = true
		e.stats = memsim.NewAggregator()
		fmt.Printf("Memory initialized with size: %d bytes\n", size)

	case "cache":
		if len(tokens) < 8 {
			fmt.Println("Usage: init cache <l1_sz> <l1_blk> <l1_assoc> <l2_sz> <l2_blk> <l2_assoc>")
			return
		}
		nums, err := atoiAll(tokens[2:8])
		if err != nil {
			fmt.Printf("Error parsing cache parameters: %v\n", err)
			return
		}
		l1 := memsim.LevelConfig{Size: nums[0], BlockSize: nums[1], Associativity: nums[2]}
		l2 := memsim.LevelConfig{Size: nums[3], BlockSize: nums[4], Associativity: nums[5]}

		policy := memsim.DefaultPolicy
		if e.hierarchy != nil {
			policy = e.hierarchy.L1.Policy()
		}
		h, err := memsim.NewHierarchy(l1, l2, policy)
		if err != nil {
			fmt.Printf("Error initializing cache: %v\n", err)
			return
		}
		e.hierarchy = h

		fmt.Println("Cache initialized:")
		fmt.Printf("L1: %dB, %dB blocks, %d-way\n", l1.Size, l1.BlockSize, l1.Associativity)
		fmt.Printf("L2: %dB, %dB blocks, %d-way\n", l2.Size, l2.BlockSize, l2.Associativity)

	default:
		fmt.Printf("Unknown init subcommand: %s\n", tokens[1])
	}
}

func atoiAll(tokens []string) ([]int, error) {
	out := make([]int, len(tokens))
	for i, t := range tokens {
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (e *engine) handleSet(tokens []string) {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized. Use 'init memory <size>' first.")
		return
	}
	if len(tokens) < 3 {
		fmt.Println("Usage: set allocator <strategy> OR set cache_policy [level] <policy>")
		return
	}

	switch tokens[1] {
	case "cache_policy":
		if e.hierarchy == nil {
			fmt.Println("Cache not initialized. Use init memory or init cache first.")
			return
		}
		levelArg, policyArg := "", tokens[2]
		if len(tokens) >= 4 {
			levelArg, policyArg = tokens[2], tokens[3]
		}
		policy, ok := memsim.ParsePolicy(policyArg)
		if !ok {
			fmt.Println("Invalid policy. Use: fifo, lru, or lfu")
			return
		}
		if levelArg == "" {
			e.hierarchy.SetPolicy(policy)
			fmt.Printf("Cache replacement policy set to: %s\n", policy)
			return
		}
		level, err := strconv.Atoi(levelArg)
		if err != nil || e.hierarchy.SetLevelPolicy(level, policy) != nil {
			fmt.Println("Invalid level. Use 1 or 2.")
			return
		}
		fmt.Printf("L%d cache replacement policy set to: %s\n", level, policy)

	case "allocator":
		strategy, ok := memsim.ParseStrategy(tokens[2])
		if !ok {
			fmt.Println("Invalid strategy. Use: first_fit, best_fit, worst_fit")
			return
		}
		e.arena.SetStrategy(strategy)
		fmt.Printf("Allocation strategy set to: %s\n", strategy)

	default:
		fmt.Println("Usage: set allocator <strategy> OR set cache_policy [level] <policy>")
	}
}

func (e *engine) handleMalloc(tokens []string) {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized. Use 'init memory <size>' first.")
		return
	}
	if len(tokens) < 2 {
		fmt.Println("Usage: malloc <size>")
		return
	}
	size, err := strconv.Atoi(tokens[1])
	if err != nil {
		fmt.Printf("Error parsing size: %v\n", err)
		return
	}

	handle, err := e.arena.Allocate(size)
	if err != nil {
		e.stats.RecordAllocation(false)
		fmt.Printf("Failed to allocate %d bytes: %v\n", size, err)
		return
	}
	e.stats.RecordAllocation(true)

	info, _ := e.arena.BlockInfo(handle)
	fmt.Printf("Allocated block id=%d at address=0x%08x\n", info.ID, info.Address)
}

func (e *engine) handleFree(tokens []string) {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized.")
		return
	}
	if len(tokens) < 2 {
		fmt.Println("Usage: free <block_id> or free 0x<address>")
		return
	}

	arg := tokens[1]
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") {
		addr, err := strconv.ParseInt(arg[2:], 16, 64)
		if err != nil {
			fmt.Printf("Error parsing address: %v\n", err)
			return
		}
		if err := e.arena.ReleaseByAddress(int(addr)); err != nil {
			fmt.Printf("Failed to free address %s: %v\n", arg, err)
			return
		}
		fmt.Printf("Address %s freed and merged\n", arg)
		return
	}

	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		fmt.Printf("Error parsing block id: %v\n", err)
		return
	}
	if err := e.arena.Release(memsim.Handle(id)); err != nil {
		fmt.Printf("Failed to free block %s: %v\n", arg, err)
		return
	}
	fmt.Printf("Block %d freed and merged\n", id)
}

func (e *engine) handleDump(tokens []string) {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized.")
		return
	}
	if len(tokens) < 2 || tokens[1] != "memory" {
		fmt.Println("Usage: dump memory [json]")
		return
	}
	if len(tokens) >= 3 && tokens[2] == "json" {
		out, err := e.arena.DumpJSON()
		if err != nil {
			fmt.Printf("Error encoding dump: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}
	fmt.Print(e.arena.Dump())
}

func (e *engine) handleStats() {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized.")
		return
	}

	metrics := e.arena.Metrics()
	e.stats.SetFragmentation(metrics.InternalFragmentation, metrics.ExternalFragmentation, metrics.Utilization)
	e.stats.SetMemoryUsage(metrics.Total, metrics.Used, metrics.Free)
	if e.hierarchy != nil {
		e.stats.SyncCacheCounters(e.hierarchy)
	}

	e.stats.PrintStats(os.Stdout)

	if e.hierarchy != nil {
		e.hierarchy.PrintStatistics(os.Stdout)
	}
}

func (e *engine) handleAccess(tokens []string) {
	if !e.initialized {
		fmt.Println("System not initialized. Use 'init memory <size>'")
		return
	}
	if e.hierarchy == nil {
		fmt.Println("Cache simulator not initialized.")
		return
	}
	if len(tokens) < 2 {
		fmt.Println("Usage: access <address> OR access random <n>")
		return
	}

	if tokens[1] == "random" {
		e.handleAccessRandom(tokens)
		return
	}

	addr, err := strconv.ParseUint(tokens[1], 0, 64)
	if err != nil {
		fmt.Printf("Error parsing address: %v\n", err)
		return
	}
	e.runAccess(addr, true)
}

func (e *engine) handleAccessRandom(tokens []string) {
	if len(tokens) < 3 {
		fmt.Println("Usage: access random <n>")
		return
	}
	n, err := strconv.Atoi(tokens[2])
	if err != nil || n <= 0 {
		fmt.Println("n must be a positive integer")
		return
	}

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	fmt.Printf("Seed: %d\n", seed)

	span := uint64(e.hierarchy.L2.NumSets() * e.hierarchy.L2.BlockSize() * 4)
	if span == 0 {
		span = 1 << 16
	}
	for i := 0; i < n; i++ {
		addr := rng.Uint64() % span
		e.runAccess(addr, false)
	}
	fmt.Printf("Completed %d random accesses\n", n)
}

func (e *engine) runAccess(addr uint64, verbose bool) {
	report := e.hierarchy.Access(addr)
	e.stats.RecordAccessLatency(report)
	e.stats.SyncCacheCounters(e.hierarchy)

	if !verbose {
		return
	}

	fmt.Printf("Physical address 0x%x\n", addr)
	fmt.Printf("  L1: %s\n", hitLabel(report.L1Hit))
	if !report.L1Hit {
		if report.L2Accessed {
			fmt.Printf("  L2: %s\n", hitLabel(report.L2Hit))
		} else {
			fmt.Println("  L2: -")
		}
	}
	for _, evt := range report.Events {
		fmt.Printf("  [!] %s\n", evt)
	}
}

func hitLabel(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (e *engine) handleVerify() {
	if !e.initialized {
		fmt.Println("Error: Memory not initialized.")
		return
	}
	if violation := e.arena.Verify(); violation != "" {
		fmt.Printf("FAILED: %s\n", violation)
		return
	}
	fmt.Printf("OK (checksum=0x%016x)\n", e.arena.Checksum())
}
