// Package benchmarks provides the benchmark harness for armsim: assembly
// programs run on the functional emulator with the cycle-counting core
// model attached.
package benchmarks

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sarchlab/armsim/asm"
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/timing/cache"
	"github.com/sarchlab/armsim/timing/core"
	"github.com/sarchlab/armsim/timing/latency"
)

// maxInstructions bounds every benchmark run.
const maxInstructions = 1_000_000

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the core model
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of instructions fetched and retired
	InstructionsRetired uint64 `json:"instructions_retired"`

	// Skipped is the number of instructions whose condition failed
	Skipped uint64 `json:"skipped"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// Loads and Stores count executed memory instructions
	Loads  uint64 `json:"loads"`
	Stores uint64 `json:"stores"`

	// MemStalls is cycles added by the data cache
	MemStalls uint64 `json:"mem_stalls"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits       uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses     uint64 `json:"dcache_misses,omitempty"`
	DCacheWritebacks uint64 `json:"dcache_writebacks,omitempty"`

	// Err is set when the program failed to assemble, faulted or left
	// unexpected state behind.
	Err error `json:"-"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the assembly program, loaded at address 0.
	Source string

	// Setup prepares the emulator state after the program is loaded.
	Setup func(regFile *emu.RegFile, memory *emu.Memory)

	// ExpectedRegs and ExpectedMem are checked after the program halts.
	ExpectedRegs map[int]uint32
	ExpectedMem  map[uint32]uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// Cache is the data cache geometry used when EnableDCache is set.
	Cache cache.Config

	// Timing holds the instruction latencies.
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: true,
		Cache:        cache.DefaultConfig(),
		Timing:       latency.DefaultTimingConfig(),
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// newCore builds a fresh core model for one run.
func (h *Harness) newCore() *core.Core {
	opts := []core.CoreOption{
		core.WithLatencyTable(latency.NewTableWithConfig(h.config.Timing)),
	}
	if h.config.EnableDCache {
		opts = append(opts, core.WithDataCache(cache.New(h.config.Cache)))
	}
	return core.NewCore(opts...)
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	prog, err := (&asm.Assembler{}).Parse(strings.NewReader(bench.Source))
	if err != nil {
		result.Err = err
		return result
	}

	model := h.newCore()
	e := emu.NewEmulator(
		emu.WithMaxInstructions(maxInstructions),
		emu.WithObserver(model),
	)
	if err := e.LoadProgram(prog.Bytes()); err != nil {
		result.Err = err
		return result
	}

	if bench.Setup != nil {
		bench.Setup(e.RegFile(), e.Memory())
	}

	// Run simulation and measure time
	start := time.Now()
	err = e.Run()
	result.WallTime = time.Since(start)
	model.Finish()

	stats := model.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.Skipped = stats.Skipped
	result.CPI = stats.CPI()
	result.MemStalls = stats.MemStalls
	result.Loads = stats.Loads
	result.Stores = stats.Stores

	if dcStats, ok := model.CacheStats(); ok {
		result.DCacheHits = dcStats.Hits
		result.DCacheMisses = dcStats.Misses
		result.DCacheWritebacks = dcStats.Writebacks
	}

	if err != nil {
		result.Err = err
		return result
	}

	result.Err = verify(bench, e)
	return result
}

// verify checks the expected registers and memory words.
func verify(bench Benchmark, e *emu.Emulator) error {
	for r, want := range bench.ExpectedRegs {
		got, err := e.RegFile().Reg(r)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%s: r%d = 0x%x, want 0x%x", bench.Name, r, got, want)
		}
	}

	for addr, want := range bench.ExpectedMem {
		got, err := e.Memory().Read32(addr)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%s: [0x%x] = 0x%x, want 0x%x", bench.Name, addr, got, want)
		}
	}

	return nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== armsim Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Err != nil {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %v\n", r.Err)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  Skipped:              %d\n", r.Skipped)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Loads/Stores:         %d/%d\n", r.Loads, r.Stores)
		_, _ = fmt.Fprintf(h.config.Output, "  Mem Stalls:           %d\n", r.MemStalls)

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
			_, _ = fmt.Fprintf(h.config.Output, "  Writebacks: %d\n", r.DCacheWritebacks)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,skipped,cpi,mem_stalls,dcache_hits,dcache_misses,ok")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.Skipped,
			r.CPI,
			r.MemStalls,
			r.DCacheHits,
			r.DCacheMisses,
			r.Err == nil,
		)
	}
}
