package stealstack

import (
	"context"
	"sync"

	"github.com/go-foundations/uts/tree"
)

// TreeSearch drains whatever work arrives in w's local queue — seeded
// work, spilled-back work, or stolen work — expanding nodes chunk_size
// at a time until the hierarchical steal protocol confirms termination
// (spec.md §4.3.1 tree_search). It returns once EnsureLocalWork reports
// no more work exists anywhere in the fleet.
func (w *Worker) TreeSearch(ctx context.Context) Stats {
	for {
		select {
		case <-ctx.Done():
			return w.Stats()
		default:
		}

		work := w.GetWork()
		if len(work) == 0 {
			if !w.EnsureLocalWork(ctx) {
				return w.Stats()
			}
			continue
		}

		w.expandChunk(work)
	}
}

// expandChunk fans out one goroutine per node in the chunk just pulled
// off the local queue, each generating that node's children and
// spilling them back via PutWork, with a barrier before TreeSearch
// pulls the next chunk (spec.md §4.3.1/§5: "expansion of a chunk runs
// in parallel inside one worker, with a barrier before pulling the next
// chunk"). This is distinct from spawnChildrenParallel's fan-out, which
// parallelizes across a single node's children rather than a chunk's
// nodes.
func (w *Worker) expandChunk(work []tree.Node) {
	var wg sync.WaitGroup
	wg.Add(len(work))
	for i := range work {
		go func(n tree.Node) {
			defer wg.Done()
			w.expandOne(n)
		}(work[i])
	}
	wg.Wait()
}

func (w *Worker) expandOne(n tree.Node) {
	depth := int(n.Height)
	w.addStats(func(s *Stats) {
		if depth > s.MaxTreeDepth {
			s.MaxTreeDepth = depth
		}
	})
	children := w.GenChildren(&n)
	if len(children) > 0 {
		w.PutWork(children)
	}
}
