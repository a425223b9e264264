// Command uts-search runs a single unbalanced tree search over a
// simulated fleet of stealstack workers and prints the resulting
// statistics. Flag names mirror the reference driver's
// boost::program_options bindings (original_source/benchmarks/uts/params.hpp),
// translated to Go's stdlib flag package since nothing in the example
// corpus imports a third-party CLI framework in its checked-in code
// (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/go-foundations/uts/fleet"
	"github.com/go-foundations/uts/tree"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("uts-search", flag.ContinueOnError)

	treeType := fs.String("tree-type", "geo", "tree type: bin, geo, hybrid, or balanced")
	b0 := fs.Float64("root-branching-factor", 4.0, "root branching factor (b0)")
	rootSeed := fs.Int("root-seed", 0, "RNG seed for the root node")
	shapeFn := fs.String("tree-shape", "linear", "GEO/HYBRID shape function: linear, expdec, cyclic, fixed")
	genMx := fs.Uint64("tree-depth", 6, "maximum tree depth (gen_mx)")
	nonLeafProb := fs.Float64("non-leaf-probability", 15.0/64.0, "BIN: probability a node is non-leaf")
	numChildren := fs.Int("num-children", 4, "BIN: branching factor of a non-leaf node")
	fractionOfDepth := fs.Float64("fraction-of-depth", 0.5, "HYBRID: fraction of tree-depth at which GEO shifts to BIN")
	computeGranularity := fs.Int("compute-granularity", 1, "RNG advances per spawned child")
	chunkSize := fs.Int("chunk-size", 20, "nodes moved per queue/steal operation")
	interval := fs.Int("interval", 0, "accepted for compatibility with the reference CLI; unused here, since polling cadence is not modeled (see SPEC_FULL.md)")
	overcommitFactor := fs.Float64("overcommit-factor", 1.0, "total workers across the fleet = runtime.NumCPU() * overcommit-factor, unless -workers is set")
	workers := fs.Int("workers", 0, "total worker count across the fleet; 0 derives it from overcommit-factor")
	hosts := fs.Int("hosts", 1, "number of simulated hosts workers are distributed across")
	verbose := fs.Bool("verbose", false, "print a human-readable report instead of CSV")
	debug := fs.Int("debug", 0, "debug verbosity level, forwarded to worker logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	_ = interval

	tType, err := parseTreeType(*treeType)
	if err != nil {
		return err
	}
	shape, err := parseShapeFn(*shapeFn)
	if err != nil {
		return err
	}

	params := tree.Params{
		Type:               tType,
		B0:                 *b0,
		RootSeed:           int32(*rootSeed),
		ShapeFn:            shape,
		GenMx:              *genMx,
		NonLeafProb:        *nonLeafProb,
		NonLeafBF:          *numChildren,
		ShiftDepth:         *fractionOfDepth,
		ComputeGranularity: *computeGranularity,
		ChunkSize:          *chunkSize,
		Debug:              *debug,
	}

	numWorkers := *workers
	if numWorkers <= 0 {
		numWorkers = int(float64(runtime.NumCPU()) * *overcommitFactor)
		if numWorkers < 1 {
			numWorkers = 1
		}
	}

	log := logrus.New()
	if *debug > 0 {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	cfg := fleet.Config{
		Params:           params,
		Hosts:            *hosts,
		Workers:          numWorkers,
		OvercommitFactor: *overcommitFactor,
		Verbose:          *verbose,
		Debug:            *debug,
	}

	f, err := fleet.Build(cfg, logrus.NewEntry(log))
	if err != nil {
		return err
	}

	report := f.Run(context.Background())

	if *verbose {
		fmt.Fprint(out, report.String())
		return nil
	}
	fmt.Fprintln(out, fleet.CSVHeader())
	fmt.Fprintln(out, report.CSV())
	return nil
}

func parseTreeType(s string) (tree.TreeType, error) {
	switch s {
	case "bin":
		return tree.BIN, nil
	case "geo":
		return tree.GEO, nil
	case "hybrid":
		return tree.HYBRID, nil
	case "balanced":
		return tree.BALANCED, nil
	default:
		return 0, fmt.Errorf("uts-search: unknown -tree-type %q", s)
	}
}

func parseShapeFn(s string) (tree.GeoShape, error) {
	switch s {
	case "linear":
		return tree.LINEAR, nil
	case "expdec":
		return tree.EXPDEC, nil
	case "cyclic":
		return tree.CYCLIC, nil
	case "fixed":
		return tree.FIXED, nil
	default:
		return 0, fmt.Errorf("uts-search: unknown -tree-shape %q", s)
	}
}
