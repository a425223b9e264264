// Package stealstack implements the worker half of the scheduler: each
// Worker owns a local queue and a shared (stealable) queue, expands
// nodes chunk_size at a time, spills overflow to its shared queue, and
// falls back to the hierarchical steal protocol (steal.go) and
// termination detector (terminate.go) once its own queues run dry.
//
// The design is grounded on the reference ws_stealstack component
// (original_source/benchmarks/uts/ws_stealstack.hpp), restructured into
// the teacher's goroutine-and-atomic-counter idiom (workerpool.go's
// Worker/Metrics fields and fan-out-with-WaitGroup style).
package stealstack

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/go-foundations/uts/queue"
	"github.com/go-foundations/uts/transport"
	"github.com/go-foundations/uts/tree"
)

// Worker is one unit of the fleet: a local LIFO queue, a shared queue
// other workers may steal from, and the bookkeeping the steal protocol
// and termination detector need.
type Worker struct {
	handle transport.Handle
	params tree.Params
	system *transport.System[tree.Node]
	log    *logrus.Entry

	localQ  *queue.Deque[tree.Node]
	sharedQ *queue.Deque[tree.Node]

	localCount  atomic.Int64
	sharedCount atomic.Int64
	idle        atomic.Bool

	statsMu sync.Mutex
	stats   Stats
}

// NewWorker constructs a Worker registered under handle within system.
func NewWorker(handle transport.Handle, params tree.Params, system *transport.System[tree.Node], log *logrus.Entry) *Worker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Worker{
		handle:  handle,
		params:  params,
		system:  system,
		log:     log.WithFields(logrus.Fields{"host": handle.HostID, "worker": handle.WorkerID}),
		localQ:  queue.New[tree.Node](params.ChunkSize * 2),
		sharedQ: queue.New[tree.Node](params.ChunkSize * 2),
	}
}

// Handle satisfies transport.Peer.
func (w *Worker) Handle() transport.Handle { return w.handle }

// Idle satisfies transport.Peer: true once both of w's queues are empty
// (spec.md §4.5). It is distinct from the idle flag the termination
// detector raises while actively probing (see terminate.go).
func (w *Worker) Idle() bool {
	return w.localCount.Load() == 0 && w.sharedCount.Load() == 0
}

// Seed places the initial work (typically just the root node, on
// worker 0) directly into the local queue, bypassing PutWork's spill
// check since a single root node never needs to spill.
func (w *Worker) Seed(nodes ...tree.Node) {
	if len(nodes) == 0 {
		return
	}
	w.localQ.PushFrontBulk(nodes)
	w.localCount.Add(int64(len(nodes)))
	w.trackStackDepth()
}

// GetWork pops up to chunk_size nodes off the front of the local queue
// for the search loop to expand (spec.md §4.3.1 get_work).
func (w *Worker) GetWork() []tree.Node {
	work := w.localQ.PopFrontN(w.params.ChunkSize)
	if len(work) > 0 {
		w.localCount.Add(-int64(len(work)))
	}
	return work
}

// PutWork pushes newly generated children onto the front of the local
// queue, then, if the queue has grown past MaxLocal, spills nodes from
// its cold back end to the shared queue until MaxLocal/2 remain
// (spec.md §4.3.2 put_work spill policy).
func (w *Worker) PutWork(nodes []tree.Node) {
	if len(nodes) == 0 {
		return
	}
	w.localQ.PushFrontBulk(nodes)
	newCount := w.localCount.Add(int64(len(nodes)))
	w.trackStackDepth()

	maxLocal := int64(w.params.MaxLocal())
	if newCount <= maxLocal {
		return
	}
	transferSize := int(newCount - maxLocal/2)
	spilled := w.localQ.PopBackExact(transferSize)
	if len(spilled) == 0 {
		return
	}
	w.localCount.Add(-int64(len(spilled)))
	w.putWorkSharedQ(spilled)
}

// putWorkSharedQ donates nodes to the shared queue, where peers (and
// remote-host representatives acting on peers' behalf) may steal them.
func (w *Worker) putWorkSharedQ(nodes []tree.Node) {
	w.sharedQ.PushBackBulk(nodes)
	w.sharedCount.Add(int64(len(nodes)))
	w.addStats(func(s *Stats) { s.NRelease += uint64(len(nodes)) })
}

// popShared is the one place that actually removes nodes from the
// shared queue and keeps sharedCount in step; every steal variant below
// negotiates a count and then calls through here.
func (w *Worker) popShared(n int) []tree.Node {
	if n <= 0 {
		return nil
	}
	stolen := w.sharedQ.PopBackN(n)
	if len(stolen) > 0 {
		w.sharedCount.Add(-int64(len(stolen)))
	}
	return stolen
}

// Steal satisfies transport.Peer: a peer asking w to donate up to n
// nodes from its shared queue, an arbitrary-count primitive distinct
// from the table-driven negotiation LclSteal/RemoteSteal perform on the
// donor's own behalf.
func (w *Worker) Steal(n int) []tree.Node {
	return w.popShared(n)
}

// LclCheckWork reports, without removing anything, whether w's shared
// queue currently holds work a same-host peer could steal (spec.md
// §4.3.3; ws_stealstack.hpp lcl_check_work).
func (w *Worker) LclCheckWork() bool {
	return w.sharedCount.Load() > 0
}

// SharedQueSize reports the current size of w's shared queue, the
// figure remote-check uses to decide whether a whole host's cumulative
// work is worth a cross-host round trip (ws_stealstack.hpp shared_que_size).
func (w *Worker) SharedQueSize() int {
	return int(w.sharedCount.Load())
}

// LclSteal donates w's own negotiated share of its shared queue to a
// same-host peer that just won a check-then-steal race (spec.md §4.3.3
// / §4.4 stage 2; ws_stealstack.hpp lcl_steal_work). Unlike RemoteSteal,
// a worker sitting below chunk_size still gives up everything it has:
// a same-host handoff is cheap enough to bother with scraps.
func (w *Worker) LclSteal() []tree.Node {
	return w.popShared(lclStealNum(int(w.sharedCount.Load()), w.params))
}

// RemoteSteal donates w's own negotiated share to a cross-host asker
// (ws_stealstack.hpp remote_steal_work). A remote round trip costs more
// than a same-host one, so w holds on to anything below chunk_size
// rather than dribbling out scraps across hosts.
func (w *Worker) RemoteSteal() []tree.Node {
	shared := int(w.sharedCount.Load())
	if shared < w.params.ChunkSize {
		return nil
	}
	return w.popShared(remoteStealNum(shared, w.params))
}

// RemoteCheckWork reports whether this host (w plus its same-host
// peers) is estimated to hold enough cumulative shared work to justify
// a remote steal round trip: true immediately if w alone, or any single
// same-host peer, already holds a full MaxLocal, otherwise true once the
// running total across same-host peers passes twice that
// (ws_stealstack.hpp remote_check_work).
func (w *Worker) RemoteCheckWork() bool {
	maxLocal := w.params.MaxLocal()
	cumulative := w.SharedQueSize()
	if cumulative >= maxLocal {
		return true
	}
	for _, peer := range w.system.SameHostPeers(w.handle) {
		sizer, ok := peer.(sharedSizer)
		if !ok {
			continue
		}
		size := sizer.SharedQueSize()
		if size >= maxLocal {
			return true
		}
		cumulative += size
		if cumulative > 2*maxLocal {
			return true
		}
	}
	return false
}

// AggregateSteal is what a remote-host representative does on behalf of
// an asker from another host: negotiate its own donation first, then
// ask same-host peers one at a time for theirs, stopping once the
// collected donation passes twice MaxLocal or every peer has answered
// (ws_stealstack.hpp remote_aggregate_steal_work).
func (w *Worker) AggregateSteal() []tree.Node {
	maxLocal := w.params.MaxLocal()
	out := w.RemoteSteal()
	if len(out) > 2*maxLocal {
		return out
	}
	for _, peer := range w.system.SameHostPeers(w.handle) {
		stealer, ok := peer.(remoteStealer)
		if !ok {
			continue
		}
		if got := stealer.RemoteSteal(); len(got) > 0 {
			out = append(out, got...)
		}
		if len(out) > 2*maxLocal {
			break
		}
	}
	return out
}

// GenChildren expands n, returning its children (nil for a leaf). The
// node's own ChildCount field is filled in as a side effect so stats
// and later inspection can tell leaves from interior nodes without
// recomputing the branching draw (spec.md §4.1 num_children is called
// exactly once per node).
func (w *Worker) GenChildren(n *tree.Node) []tree.Node {
	numChildren := n.NumChildren(w.params)
	n.ChildCount = numChildren

	if numChildren == 0 {
		w.addStats(func(s *Stats) {
			s.NNodes++
			s.NLeaves++
		})
		return nil
	}
	w.addStats(func(s *Stats) { s.NNodes++ })

	childType := n.ChildType(w.params)
	if numChildren > tree.MaxSpawnGranularity {
		return w.spawnChildrenParallel(*n, childType, numChildren)
	}
	children := make([]tree.Node, numChildren)
	for i := 0; i < numChildren; i++ {
		children[i] = tree.SpawnChild(*n, childType, i, w.params)
	}
	return children
}

// spawnChildrenParallel splits a very wide expansion into ranged
// sub-tasks run concurrently, mirroring gen_children's use of
// MAX_SPAWN_GRANULARITY to bound sequential work per call.
func (w *Worker) spawnChildrenParallel(parent tree.Node, childType tree.TreeType, numChildren int) []tree.Node {
	children := make([]tree.Node, numChildren)
	granularity := tree.MaxSpawnGranularity

	var wg sync.WaitGroup
	for start := 0; start < numChildren; start += granularity {
		end := start + granularity
		if end > numChildren {
			end = numChildren
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				children[i] = tree.SpawnChild(parent, childType, i, w.params)
			}
		}(start, end)
	}
	wg.Wait()
	return children
}

func (w *Worker) trackStackDepth() {
	depth := int(w.localCount.Load())
	w.addStats(func(s *Stats) {
		if depth > s.MaxStackDepth {
			s.MaxStackDepth = depth
		}
	})
}

func (w *Worker) addStats(fn func(*Stats)) {
	w.statsMu.Lock()
	fn(&w.stats)
	w.statsMu.Unlock()
}

// Stats returns a snapshot of the worker's accumulated counters.
func (w *Worker) Stats() Stats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}
