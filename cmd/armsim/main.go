// Package main provides the entry point for armsim, an ARMv4 instruction
// interpreter.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/armsim/config"
	"github.com/sarchlab/armsim/dump"
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/loader"
	"github.com/sarchlab/armsim/timing/cache"
	"github.com/sarchlab/armsim/timing/core"
	"github.com/sarchlab/armsim/timing/latency"
	"github.com/sarchlab/armsim/translate"
)

var (
	configPath = flag.String("config", "", "Path to a JSON or YAML run configuration")
	trace      = flag.Bool("trace", false, "Dump registers after each executed instruction")
	graphPath  = flag.String("graph", "", "Write the final registers as a Graphviz dot file")
	memRange   = flag.String("mem", "", "Hex dump a memory range after the run, as from:to")
	verbose    = flag.Bool("v", false, "Print run statistics and the timing report")
	maxInsts   = flag.Uint64("max", 0, "Stop after this many instructions (0: use the config)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armsim [options] <program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(flag.Arg(0), os.Stdout, os.Stderr))
}

// run loads and executes one program and returns the process exit code.
func run(programPath string, stdout, stderr io.Writer) int {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	if *maxInsts != 0 {
		cfg.Emulator.MaxInstructions = *maxInsts
	}

	from, to, err := parseRange(*memRange)
	if err != nil {
		fmt.Fprintf(stderr, "Error in -mem: %v\n", err)
		return 1
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	opts, err := cfg.Emulator.Options()
	if err != nil {
		fmt.Fprintf(stderr, "Error in config: %v\n", err)
		return 1
	}
	opts = append(opts, emu.WithLogger(newLogger(stderr, cfg.Log.Verbosity)))

	model := newCoreModel(cfg)
	opts = append(opts, emu.WithObserver(model))

	tracer := &tracer{w: stdout}
	if *trace {
		opts = append(opts, emu.WithObserver(tracer))
	}

	e := emu.NewEmulator(opts...)
	tracer.regs = e.RegFile()

	if err := e.LoadProgram(prog.Image); err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	runErr := e.Run()
	model.Finish()

	_ = dump.Registers(stdout, e.RegFile())
	if to > from {
		if err := dump.Memory(stdout, e.Memory(), from, to); err != nil {
			fmt.Fprintf(stderr, "Error dumping memory: %v\n", err)
		}
	}
	if *graphPath != "" {
		if err := writeGraph(*graphPath, e.RegFile()); err != nil {
			fmt.Fprintf(stderr, "Error writing graph: %v\n", err)
		}
	}
	if *verbose {
		printReport(stdout, programPath, prog, e, model)
	}

	if runErr != nil {
		var fault *emu.FaultError
		if errors.As(runErr, &fault) {
			fmt.Fprintf(stderr, "Fault at PC 0x%08x (word 0x%08x): %v\n", fault.PC, fault.Word, fault.Err)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", runErr)
		}
		return 1
	}

	return 0
}

// newLogger returns a funcr logger writing to w.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	if *trace && verbosity < 1 {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
		} else {
			fmt.Fprintln(w, args)
		}
	}, funcr.Options{Verbosity: verbosity})
}

// newCoreModel builds the cycle counter from the configuration.
func newCoreModel(cfg *config.Config) *core.Core {
	opts := []core.CoreOption{
		core.WithLatencyTable(latency.NewTableWithConfig(&cfg.Timing)),
	}
	if cfg.Cache.Enabled {
		opts = append(opts, core.WithDataCache(cache.New(cfg.Cache.Config)))
	}
	return core.NewCore(opts...)
}

// tracer dumps the registers after every executed instruction.
type tracer struct {
	w    io.Writer
	regs *emu.RegFile
}

func (t *tracer) Retired(info emu.StepInfo) {
	if !info.Executed {
		return
	}
	_ = dump.Registers(t.w, t.regs)
}

func (t *tracer) Accessed(emu.MemAccess) {}

func writeGraph(path string, regs *emu.RegFile) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	dump.Graph(f, regs)
	return f.Close()
}

// parseRange parses "from:to" with C-style integer literals. The empty
// string is an empty range.
func parseRange(s string) (from, to uint32, err error) {
	if s == "" {
		return 0, 0, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("want from:to, got %q", s)
	}
	f, err := strconv.ParseUint(lo, 0, 32)
	if err != nil {
		return 0, 0, err
	}
	t, err := strconv.ParseUint(hi, 0, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(f), uint32(t), nil
}

func printReport(w io.Writer, programPath string, prog *loader.Program, e *emu.Emulator, model *core.Core) {
	p := translate.NewPrinter()
	stats := e.Stats()
	timing := model.Stats()

	p.Fprintf(w, "Program: %s (%s, %d bytes)\n", programPath, prog.Format, len(prog.Image))
	p.Fprintf(w, "Run: %s\n", e.RunID())
	p.Fprintf(w, "Instructions: %d\n", stats.Instructions)
	p.Fprintf(w, "  Executed: %d\n", stats.Executed)
	p.Fprintf(w, "  Skipped:  %d\n", stats.Skipped)
	p.Fprintf(w, "  Loads:    %d\n", stats.Loads)
	p.Fprintf(w, "  Stores:   %d\n", stats.Stores)
	p.Fprintf(w, "  Branches: %d\n", stats.Branches)
	p.Fprintf(w, "Cycles: %d\n", timing.Cycles)
	p.Fprintf(w, "CPI: %.2f\n", timing.CPI())

	if cs, ok := model.CacheStats(); ok {
		p.Fprintf(w, "\nData cache:\n")
		p.Fprintf(w, "  Hits:       %d\n", cs.Hits)
		p.Fprintf(w, "  Misses:     %d\n", cs.Misses)
		p.Fprintf(w, "  Evictions:  %d\n", cs.Evictions)
		p.Fprintf(w, "  Writebacks: %d\n", cs.Writebacks)
		p.Fprintf(w, "  Hit rate:   %.1f%%\n", 100*cs.HitRate())
		p.Fprintf(w, "  Stalls:     %d cycles\n", timing.MemStalls)
	}
}
