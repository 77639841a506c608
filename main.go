package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/oskarlind/pumpkin/internal/dimacs"
	"github.com/oskarlind/pumpkin/internal/engine"
	"github.com/oskarlind/pumpkin/internal/optimize"
	"github.com/oskarlind/pumpkin/internal/sat"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagFileLocation = flag.String(
	"file-location",
	"",
	"path to a .cnf or .wcnf instance (optionally gzip-compressed with a .gz suffix)",
)

var flagTimeLimit = flag.Int64(
	"time-limit",
	math.MaxInt64,
	"wall-clock time budget in seconds",
)

var flagNumConflictsPerRestart = flag.Int64(
	"num-conflicts-per-restart",
	4000,
	"fixed-length restart interval, in conflicts",
)

var flagThresholdLearnedClauses = flag.Int(
	"threshold-learned-clauses",
	4000,
	"learned-clause count that triggers database reduction (not applied by this command: its search engine never reduces learned clauses)",
)

var flagLearnedClauseSortingStrategy = flag.String(
	"learned-clause-sorting-strategy",
	"lbd",
	"strategy used to rank learned clauses for reduction: lbd or activity (not applied by this command, see -threshold-learned-clauses)",
)

var flagRandomSeed = flag.Int64(
	"random-seed",
	-2,
	"seed for the solver's random number generator (no part of the search draws from it)",
)

// config is the resolved, validated set of options the CLI surface of
// spec.md §6 exposes; parseConfig is the only place flag.Value is read.
type config struct {
	fileLocation            string
	timeLimit               time.Duration
	numConflictsPerRestart  int64
	thresholdLearnedClauses int
	reduceStrategy          sat.ReduceStrategy
	randomSeed              int64
	cpuProfile              bool
	memProfile              bool
}

func parseConfig() (*config, error) {
	flag.Parse()

	if *flagFileLocation == "" {
		return nil, fmt.Errorf("missing instance file: pass -file-location")
	}
	strategy, ok := sat.ParseReduceStrategy(*flagLearnedClauseSortingStrategy)
	if !ok {
		return nil, fmt.Errorf("unknown learned-clause-sorting-strategy %q: want lbd or activity", *flagLearnedClauseSortingStrategy)
	}

	timeLimit := time.Duration(-1)
	if *flagTimeLimit >= 0 && *flagTimeLimit < math.MaxInt64 {
		timeLimit = time.Duration(*flagTimeLimit) * time.Second
	}

	return &config{
		fileLocation:            *flagFileLocation,
		timeLimit:               timeLimit,
		numConflictsPerRestart:  *flagNumConflictsPerRestart,
		thresholdLearnedClauses: *flagThresholdLearnedClauses,
		reduceStrategy:          strategy,
		randomSeed:              *flagRandomSeed,
		cpuProfile:              *flagCPUProfile,
		memProfile:              *flagMemProfile,
	}, nil
}

func (c *config) solverOptions() sat.Options {
	opts := sat.DefaultOptions
	opts.NumConflictsPerRestart = c.numConflictsPerRestart
	opts.ThresholdLearnedClauses = c.thresholdLearnedClauses
	opts.ReduceStrategy = c.reduceStrategy
	opts.RandomSeed = c.randomSeed
	opts.Timeout = c.timeLimit
	return opts
}

func isGzipped(path string) bool { return strings.HasSuffix(path, ".gz") }

func isWCNF(path string) bool {
	path = strings.TrimSuffix(path, ".gz")
	return strings.HasSuffix(path, ".wcnf")
}

// stringifySolution formats a model the way the original driver's
// stringify_solution does: 1-indexed, space-separated, trailing space; the
// caller appends the DIMACS-mandated terminating 0.
func stringifySolution(model []bool) string {
	var b strings.Builder
	for i, v := range model {
		if v {
			fmt.Fprintf(&b, "%d ", i+1)
		} else {
			fmt.Fprintf(&b, "%d ", -(i + 1))
		}
	}
	return b.String()
}

func printModel(model []bool) {
	fmt.Printf("v %s0\n", stringifySolution(model))
}

func run(cfg *config) error {
	opts := cfg.solverOptions()
	eng := engine.New(opts)

	if isWCNF(cfg.fileLocation) {
		return runWCNF(cfg, eng)
	}
	return runCNF(cfg, eng)
}

func runCNF(cfg *config, eng *engine.Engine) error {
	if err := dimacs.LoadCNF(cfg.fileLocation, isGzipped(cfg.fileLocation), eng.Solver); err != nil {
		return fmt.Errorf("could not parse instance: %w", err)
	}

	fmt.Printf("c variables: %d\n", eng.Solver.NumVariables())

	start := time.Now()
	outcome := eng.SolveUnderAssumptions(nil, cfg.timeLimit, cfg.numConflictsPerRestart)
	elapsed := time.Since(start)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())

	switch outcome {
	case engine.Feasible:
		fmt.Println("s SATISFIABLE")
		printModel(eng.Solver.Model)
	case engine.Unsatisfiable:
		fmt.Println("s UNSATISFIABLE")
	default:
		fmt.Println("s UNKNOWN")
	}
	return nil
}

func runWCNF(cfg *config, eng *engine.Engine) error {
	result, err := dimacs.LoadWCNF(cfg.fileLocation, isGzipped(cfg.fileLocation), eng.Solver)
	if err != nil {
		return fmt.Errorf("could not parse instance: %w", err)
	}

	fmt.Printf("c variables: %d\n", eng.Solver.NumVariables())
	fmt.Printf("c objective terms: %d\n", len(result.Objective))

	start := time.Now()
	res := optimize.Solve(eng, result.Objective, result.Constant, cfg.numConflictsPerRestart, cfg.timeLimit)
	elapsed := time.Since(start)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())

	switch res.Outcome {
	case optimize.Optimal:
		fmt.Printf("o %d\n", res.Value)
		fmt.Println("s OPTIMAL")
		printModel(res.Model)
	case optimize.Infeasible:
		fmt.Println("s UNSATISFIABLE")
	case optimize.TimedOut:
		fmt.Println("s UNKNOWN")
		if res.HasSolution {
			fmt.Printf("o %d\n", res.Value)
			printModel(res.Model)
		}
	}
	return nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
