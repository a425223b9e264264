package stealstack

import (
	"context"

	"github.com/go-foundations/uts/transport"
	"github.com/go-foundations/uts/tree"
)

// detectTermination runs the two-ring termination check (spec.md §4.5).
// w first marks itself idle, then walks the same-host ring and, only if
// that whole ring reports idle, the remote-host ring. A peer reporting
// non-idle aborts the check:
// that is the benign false positive the protocol tolerates, and the
// caller simply re-enters EnsureLocalWork. Only when every peer on
// every host reports idle while w itself is also idle does this
// function return false, confirming termination from w's point of view.
func (w *Worker) detectTermination(ctx context.Context) bool {
	w.idle.Store(true)
	defer w.idle.Store(false)

	if !w.ringIdle(w.system.SameHostPeers(w.handle)) {
		return true
	}
	for _, host := range w.system.RemoteHosts(w.handle) {
		select {
		case <-ctx.Done():
			return true
		default:
		}
		if !w.ringIdle(w.system.PeersOnHost(host)) {
			return true
		}
	}
	return false
}

// ringIdle walks peers in order, requiring every one to report Idle().
// This is a pure read, like the reference's own check_work: termination
// detection never removes work from a peer, it only asks whether any
// exists. A peer reporting idle here but acquiring work immediately
// afterward is the benign false positive spec.md §4.5 tolerates — the
// caller simply loses the termination race and re-enters
// EnsureLocalWork on its next iteration instead of stopping.
func (w *Worker) ringIdle(peers []transport.Peer[tree.Node]) bool {
	for _, p := range peers {
		if !p.Idle() {
			return false
		}
	}
	return true
}
