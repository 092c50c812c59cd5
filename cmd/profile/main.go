// Package main provides a profiling wrapper for armsim to identify
// performance bottlenecks in the emulator and the core model.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
	"github.com/sarchlab/armsim/timing/cache"
	"github.com/sarchlab/armsim/timing/core"
)

var (
	timing      = flag.Bool("timing", false, "Attach the cycle-counting core model")
	dcache      = flag.Bool("dcache", false, "Model the data cache (implies -timing)")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Int("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	repeat      = flag.Int("repeat", 1000, "number of times to rerun the program")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s (%s, %d bytes)\n", programPath, prog.Format, len(prog.Image))

	start := time.Now()

	stopProfile := func() {}
	if *cpuProfile != "" {
		stopProfile = pprof.StopCPUProfile
	}
	go watchdog(*duration, stopProfile, os.Exit)

	model := newCoreModel()

	var instrCount uint64
	for i := 0; i < *repeat; i++ {
		n, err := runOnce(prog, model)
		instrCount += n
		if err != nil {
			fmt.Fprintf(os.Stderr, "Run %d stopped: %v\n", i, err)
			break
		}
		if i == 0 && model != nil && *repeat > 1 {
			// Report steady-state cycles with the cache warmed by the
			// first run.
			model.ResetStats()
		}
	}

	var cycles uint64
	if model != nil {
		model.Finish()
		cycles = model.Stats().Cycles
	}

	elapsed := time.Since(start)

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Instructions executed: %d\n", instrCount)
	if cycles > 0 {
		fmt.Printf("Simulated cycles: %d\n", cycles)
	}
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// watchdog waits for d, then stops the profile and exits with code 2.
// os.Exit skips deferred calls, so the profile must be stopped first.
func watchdog(d time.Duration, stopProfile func(), exit func(int)) {
	time.Sleep(d)
	fmt.Printf("\nTimeout reached after %v - stopping execution\n", d)
	stopProfile()
	exit(2)
}

// newCoreModel returns the core model selected by the flags, or nil in
// functional mode.
func newCoreModel() *core.Core {
	if !*timing && !*dcache {
		return nil
	}
	var opts []core.CoreOption
	if *dcache {
		opts = append(opts, core.WithDataCache(cache.New(cache.DefaultConfig())))
	}
	return core.NewCore(opts...)
}

// runOnce runs the program on a fresh emulator and returns the number of
// instructions retired. The core model, when set, accumulates across runs.
func runOnce(prog *loader.Program, model *core.Core) (uint64, error) {
	var opts []emu.EmulatorOption
	if *instruction > 0 {
		opts = append(opts, emu.WithMaxInstructions(uint64(*instruction)))
	}
	if model != nil {
		opts = append(opts, emu.WithObserver(model))
	}

	emulator := emu.NewEmulator(opts...)
	if err := emulator.LoadProgram(prog.Image); err != nil {
		return 0, err
	}

	err := emulator.Run()
	if errors.Is(err, emu.ErrInstructionLimit) {
		err = nil
	}

	return emulator.InstructionCount(), err
}
