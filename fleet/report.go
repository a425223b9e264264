package fleet

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-foundations/uts/stealstack"
	"github.com/go-foundations/uts/tree"
)

// Report is the outcome of one fleet run: the configuration it ran
// under, the merged search statistics, and the wall-clock time taken.
// Its two renderings (String and CSV) mirror the reference driver's
// show_stats human-readable dump and machine-readable summary line
// (original_source/benchmarks/uts/uts.hpp show_stats), per spec.md §6.
type Report struct {
	Config  Config
	Stats   stealstack.Stats
	Elapsed time.Duration
}

// String renders a human-readable multi-line report, shown when
// -verbose is set on the CLI driver.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tree type:     %s\n", r.Config.Params.Type)
	fmt.Fprintf(&b, "Root branching:%v\n", r.Config.Params.B0)
	fmt.Fprintf(&b, "Root seed:     %d\n", r.Config.Params.RootSeed)
	if r.Config.Params.Type == tree.GEO || r.Config.Params.Type == tree.HYBRID {
		fmt.Fprintf(&b, "Tree shape:    %s\n", r.Config.Params.ShapeFn)
	}
	fmt.Fprintf(&b, "Tree depth:    %d\n", r.Config.Params.GenMx)
	fmt.Fprintf(&b, "Chunk size:    %d\n", r.Config.Params.ChunkSize)
	fmt.Fprintf(&b, "Workers:       %d across %d host(s) (overcommit %.2f)\n",
		r.Config.Workers, r.Config.Hosts, r.Config.OvercommitFactor)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Nodes:         %d\n", r.Stats.NNodes)
	fmt.Fprintf(&b, "Leaves:        %d\n", r.Stats.NLeaves)
	fmt.Fprintf(&b, "Max tree depth:%d\n", r.Stats.MaxTreeDepth)
	fmt.Fprintf(&b, "Max stack depth:%d\n", r.Stats.MaxStackDepth)
	fmt.Fprintf(&b, "Released:      %d\n", r.Stats.NRelease)
	fmt.Fprintf(&b, "Acquired:      %d\n", r.Stats.NAcquire)
	fmt.Fprintf(&b, "Steals:        %d\n", r.Stats.NSteal)
	fmt.Fprintf(&b, "Failed steals: %d\n", r.Stats.NFail)
	fmt.Fprintf(&b, "Elapsed:       %s\n", r.Elapsed)
	if r.Elapsed > 0 {
		rate := float64(r.Stats.NNodes) / r.Elapsed.Seconds()
		fmt.Fprintf(&b, "Nodes/sec:     %.1f\n", rate)
	}
	return b.String()
}

// CSV renders the single-line, comma-separated summary the reference
// driver's batch-run tooling expects: os_threads, num_hosts, walltime,
// nodes, chunk_size, overcommit_factor, in that order (spec.md §6
// Output contract). Anything else worth reporting belongs in String,
// not here — this line is a fixed machine-readable contract, not a free
// form dump.
func (r Report) CSV() string {
	return fmt.Sprintf(
		"%d,%d,%.6f,%d,%d,%v",
		r.Config.Workers,
		r.Config.Hosts,
		r.Elapsed.Seconds(),
		r.Stats.NNodes,
		r.Config.Params.ChunkSize,
		r.Config.OvercommitFactor,
	)
}

// CSVHeader names the columns CSV produces, for a caller printing one
// header line before a batch of runs.
func CSVHeader() string {
	return "os_threads,num_hosts,walltime,nodes,chunk_size,overcommit_factor"
}
