package stealstack

// Stats accumulates one worker's contribution to the search: node and
// leaf counts, queue traffic counters, and depth watermarks (grounded on
// the reference stats struct in
// original_source/benchmarks/uts/ws_stealstack.hpp, and on the
// teacher's Metrics struct in workerpool.go for the atomic-friendly
// plain-counter shape).
type Stats struct {
	NNodes        uint64
	NLeaves       uint64
	NRelease      uint64
	NAcquire      uint64
	NSteal        uint64
	NFail         uint64
	MaxStackDepth int
	MaxTreeDepth  int
}

// Merge folds other into s in place: counters sum, depth watermarks take
// the max. Used by the fleet to roll per-worker Stats into a fleet-wide
// total once every worker has terminated.
func (s *Stats) Merge(other Stats) {
	s.NNodes += other.NNodes
	s.NLeaves += other.NLeaves
	s.NRelease += other.NRelease
	s.NAcquire += other.NAcquire
	s.NSteal += other.NSteal
	s.NFail += other.NFail
	if other.MaxStackDepth > s.MaxStackDepth {
		s.MaxStackDepth = other.MaxStackDepth
	}
	if other.MaxTreeDepth > s.MaxTreeDepth {
		s.MaxTreeDepth = other.MaxTreeDepth
	}
}
