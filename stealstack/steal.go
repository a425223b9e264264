package stealstack

import (
	"context"

	"github.com/go-foundations/uts/transport"
	"github.com/go-foundations/uts/tree"
)

// checker is a same-host peer that can be asked, without mutating
// anything, whether it has shared work, and then asked to actually hand
// it over. The two are kept as separate calls on purpose: spec.md §4.4
// stage 2 probes every peer read-only first, then steals from the peers
// that reported work, in the order they answered, stopping at the first
// that yields anything (ws_stealstack.hpp lcl_check_work /
// lcl_steal_work).
type checker interface {
	transport.Peer[tree.Node]
	LclCheckWork() bool
	LclSteal() []tree.Node
}

// sharedSizer is a same-host peer that can report its shared queue
// size, the figure remote-host escalation uses to decide whether a
// host's cumulative work is worth a cross-host round trip
// (ws_stealstack.hpp shared_que_size).
type sharedSizer interface {
	SharedQueSize() int
}

// remoteStealer is a same-host peer that can donate its own negotiated
// share to a remote-host aggregate steal (ws_stealstack.hpp
// remote_steal_work).
type remoteStealer interface {
	RemoteSteal() []tree.Node
}

// representative is what a worker must support to act as a remote
// host's point of contact: a pre-check (is this host worth asking?)
// followed by the actual aggregate donation. Every Worker satisfies it;
// it stays a narrower interface than transport.Peer so the transport
// package itself remains domain-agnostic.
type representative interface {
	transport.Peer[tree.Node]
	RemoteCheckWork() bool
	AggregateSteal() []tree.Node
}

// lclStealNum computes a same-host donation size from the donor's own
// shared-queue depth, following spec.md §4.3.3's chunk-negotiation
// table verbatim (ws_stealstack.hpp lcl_steal_work): steal MaxLocal/2
// (at least one node) once the queue holds a full MaxLocal, a halving
// search once it holds at least two chunks, exactly one chunk between
// chunk_size and 2*chunk_size, and everything below chunk_size.
func lclStealNum(shared int, p tree.Params) int {
	chunk := p.ChunkSize
	if shared < chunk {
		return shared
	}
	maxLocal := p.MaxLocal()
	switch {
	case shared >= maxLocal:
		// chunk_size 1 gives MaxLocal/2 == 0; one node is still handed over.
		if maxLocal/2 == 0 {
			return 1
		}
		return maxLocal / 2
	case shared >= 2*chunk:
		return halvingSearch(shared, maxLocal)
	default:
		return chunk
	}
}

// remoteStealNum is the remote-tier counterpart of lclStealNum
// (ws_stealstack.hpp remote_steal_work): the same halving table, but
// the top bucket's divisor is the donor's own queue depth rather than
// MaxLocal, and nothing below a full chunk_size ever gets offered
// across a host boundary. Callers must check shared >= p.ChunkSize
// themselves before negotiating a size.
func remoteStealNum(shared int, p tree.Params) int {
	chunk := p.ChunkSize
	maxLocal := p.MaxLocal()
	switch {
	case shared > maxLocal:
		return shared / 2
	case shared >= 2*chunk:
		return halvingSearch(shared, maxLocal)
	default:
		return chunk
	}
}

// halvingSearch finds the largest temp/2 strictly below shared by
// repeatedly halving from maxLocal, the search both negotiation tables
// run once shared work sits strictly between chunk_size and MaxLocal
// (ws_stealstack.hpp's "found_cvalue" loop in lcl_steal_work /
// remote_steal_work).
func halvingSearch(shared, maxLocal int) int {
	temp := maxLocal
	for {
		half := temp / 2
		if shared > half {
			return half
		}
		temp = half
	}
}

// EnsureLocalWork implements the hierarchical steal protocol (spec.md
// §4.4): try the worker's own shared queue, then same-host peers, then
// remote hosts, and finally fall back to termination detection. It
// returns true as soon as any tier hands back work (now sitting in
// w's local queue), and also when termination detection finds a peer
// that is not idle (w's local queue is then still empty and the caller
// retries); it returns false only once termination is confirmed.
func (w *Worker) EnsureLocalWork(ctx context.Context) bool {
	if w.localCount.Load() > 0 {
		return true
	}
	if w.stealSelfShared() {
		return true
	}
	if w.stealSameHost(ctx) {
		return true
	}
	if w.stealRemote(ctx) {
		return true
	}
	return w.detectTermination(ctx)
}

// stealSelfShared reclaims from the worker's own shared queue before
// bothering anyone else — the cheapest tier, since it needs no
// coordination with another worker at all.
func (w *Worker) stealSelfShared() bool {
	got := w.LclSteal()
	if len(got) == 0 {
		return false
	}
	w.acquireStolen(got)
	return true
}

func (w *Worker) acquireStolen(nodes []tree.Node) {
	w.localQ.PushFrontBulk(nodes)
	w.localCount.Add(int64(len(nodes)))
	w.trackStackDepth()
	w.addStats(func(s *Stats) {
		s.NAcquire += uint64(len(nodes))
		s.NSteal++
	})
}

// stealSameHost implements spec.md §4.4 stage 2: probe every same-host
// peer's LclCheckWork concurrently (a read-only call, so running them
// all at once risks nothing), then attempt a single, separate LclSteal
// against each peer that reported work, in the order its check
// answered, stopping at the first that actually still has something to
// give. This is the two-phase "check, then steal from the winner"
// shape ws_stealstack.hpp's ensure_local_work uses — never a concurrent
// steal against every peer, which would silently drop whatever
// non-winning peers popped off their own queues.
func (w *Worker) stealSameHost(ctx context.Context) bool {
	peers := w.system.SameHostPeers(w.handle)
	if len(peers) == 0 {
		return false
	}

	for _, p := range w.checkPeers(ctx, peers) {
		if got := p.LclSteal(); len(got) > 0 {
			w.acquireStolen(got)
			return true
		}
	}
	w.addStats(func(s *Stats) { s.NFail++ })
	return false
}

// checkPeers runs LclCheckWork against every peer concurrently and
// returns the ones that answered true, in the order their answers
// arrived — candidates for the single targeted steal stealSameHost then
// attempts in turn.
func (w *Worker) checkPeers(ctx context.Context, peers []transport.Peer[tree.Node]) []checker {
	type response struct {
		peer checker
		has  bool
	}

	var checkable []checker
	for _, p := range peers {
		if c, ok := p.(checker); ok {
			checkable = append(checkable, c)
		}
	}
	if len(checkable) == 0 {
		return nil
	}

	results := make(chan response, len(checkable))
	for _, c := range checkable {
		go func(c checker) {
			results <- response{peer: c, has: c.LclCheckWork()}
		}(c)
	}

	candidates := make([]checker, 0, len(checkable))
	for i := 0; i < len(checkable); i++ {
		select {
		case r := <-results:
			if r.has {
				candidates = append(candidates, r.peer)
			}
		case <-ctx.Done():
			return candidates
		}
	}
	return candidates
}

// stealRemote escalates to remote hosts one at a time: ask each host's
// representative whether its cumulative shared work looks worth the
// round trip (RemoteCheckWork), and only then ask it to aggregate an
// actual donation across its whole host (spec.md §4.4 remote tier;
// ws_stealstack.hpp remote_check_work / remote_aggregate_steal_work).
func (w *Worker) stealRemote(ctx context.Context) bool {
	for _, host := range w.system.RemoteHosts(w.handle) {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		peers := w.system.PeersOnHost(host)
		if len(peers) == 0 {
			continue
		}
		rep, ok := peers[0].(representative)
		if !ok {
			continue
		}
		if !rep.RemoteCheckWork() {
			continue
		}
		got := rep.AggregateSteal()
		if len(got) > 0 {
			w.acquireStolen(got)
			return true
		}
	}
	w.addStats(func(s *Stats) { s.NFail++ })
	return false
}
