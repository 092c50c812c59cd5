// Command benchmark runs the armsim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-no-dcache  Disable data cache simulation
//	-core       Run only the core benchmark subset
//	-timing     Path to a latency configuration JSON file
//	-v          Include wall time in the report
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/armsim/benchmarks"
	"github.com/sarchlab/armsim/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache simulation")
	coreOnly := flag.Bool("core", false, "Run only the core benchmark subset")
	timingPath := flag.String("timing", "", "Path to a latency configuration JSON file")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableDCache = !*noDCache
	config.Output = os.Stdout
	config.Verbose = *verbose

	if *timingPath != "" {
		timing, err := latency.LoadConfig(*timingPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput {
		fmt.Println("armsim Timing Benchmark Harness")
		fmt.Println("===============================")
		fmt.Printf("D-Cache: %v\n", config.EnableDCache)
		fmt.Println("")
	}

	results := harness.RunAll()

	if *csvOutput {
		harness.PrintCSV(results)
	} else {
		harness.PrintResults(results)
	}

	for _, r := range results {
		if r.Err != nil {
			os.Exit(1)
		}
	}
}
