package transport

import (
	"fmt"
	"sort"
	"sync"
)

// Peer is anything reachable through a System: the steal protocol's view
// of another worker, regardless of whether it happens to share a
// process (it always does here, but the interface is what keeps the
// hierarchy location-transparent — spec.md §4.4).
type Peer[T any] interface {
	// Steal asks the peer to donate up to n items from its shared queue,
	// returning however many it was willing to give up (possibly zero).
	Steal(n int) []T
	// Idle reports whether the peer currently believes it has no work
	// left anywhere (local or shared) — used by termination detection.
	Idle() bool
	Handle() Handle
}

// System is an in-process registry of Peer[T]s, keyed by Handle. It
// plays the role the spec's "location-transparent RPC" layer would play
// in a real distributed build: every lookup here could, in principle,
// cross a process boundary, but the transport stays in-process because
// networking itself is out of scope (spec.md Non-goals).
type System[T any] struct {
	mu    sync.RWMutex
	peers map[Handle]Peer[T]
}

// NewSystem creates an empty registry.
func NewSystem[T any]() *System[T] {
	return &System[T]{peers: make(map[Handle]Peer[T])}
}

// Register adds p under its own Handle. Registering the same Handle
// twice is a programming error.
func (s *System[T]) Register(p Peer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := p.Handle()
	if _, exists := s.peers[h]; exists {
		panic(fmt.Sprintf("transport: handle %s already registered", h))
	}
	s.peers[h] = p
}

// SameHostPeers returns every registered peer sharing self's host,
// excluding self, in a stable order (the first steal ring — spec.md §4.4).
func (s *System[T]) SameHostPeers(self Handle) []Peer[T] {
	return s.filter(func(h Handle) bool {
		return h != self && h.SameHost(self)
	})
}

// RemoteHosts returns the distinct host IDs other than self's own,
// in ascending order (the second steal ring — spec.md §4.4).
func (s *System[T]) RemoteHosts(self Handle) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]struct{})
	for h := range s.peers {
		if h.HostID != self.HostID {
			seen[h.HostID] = struct{}{}
		}
	}
	hosts := make([]int, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Ints(hosts)
	return hosts
}

// PeersOnHost returns every registered peer on the given host.
func (s *System[T]) PeersOnHost(hostID int) []Peer[T] {
	return s.filter(func(h Handle) bool {
		return h.HostID == hostID
	})
}

// All returns every registered peer, in a stable order.
func (s *System[T]) All() []Peer[T] {
	return s.filter(func(Handle) bool { return true })
}

func (s *System[T]) filter(keep func(Handle) bool) []Peer[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handles := make([]Handle, 0, len(s.peers))
	for h := range s.peers {
		if keep(h) {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool {
		if handles[i].HostID != handles[j].HostID {
			return handles[i].HostID < handles[j].HostID
		}
		return handles[i].WorkerID < handles[j].WorkerID
	})

	out := make([]Peer[T], 0, len(handles))
	for _, h := range handles {
		out = append(out, s.peers[h])
	}
	return out
}
