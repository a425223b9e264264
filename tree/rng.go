package tree

import (
	"crypto/sha256"
	"encoding/binary"
)

// State is the node's RNG state: a fixed-width, serializer-agnostic byte
// array (spec.md §3, §9 "avoid language-specific serializers that encode
// nominal types"). The reference UTS RNG keeps a 5-word (20 byte) Feistel
// state; we keep the same width so wire payloads line up with the spec's
// "fixed-width opaque byte array" contract, but derive it with
// crypto/sha256 rather than the original SHA-1-based generator (see
// DESIGN.md for why: no SHA-1-based PRNG is available in the example
// corpus, and crypto/sha256 gives the same determinism guarantee with a
// standard-library primitive).
type State [20]byte

func seedState(rootSeed int32) State {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(rootSeed))
	sum := sha256.Sum256(buf[:])
	var s State
	copy(s[:], sum[:20])
	return s
}

// rngRand draws a pseudo-random 32 bit value from the state and advances
// the state in place, mirroring the reference generator's "draw and
// advance" contract. It is called on a node's own (already-copied) State,
// never on a shared value, so the mutation is safe under the "nodes are
// values, copied freely" invariant (spec.md §3).
func rngRand(s *State) uint32 {
	sum := sha256.Sum256(s[:])
	copy(s[:], sum[:20])
	return binary.BigEndian.Uint32(sum[20:24])
}

// rngToProb interprets a 32 bit unsigned integer as a value on [0, 1)
// (spec.md §4.1).
func rngToProb(n uint32) float64 {
	return float64(n) / 4294967296.0
}

// spawnChildState is a pure function of (parent state, child index): the
// tree is reproducible from (Params, child index path) alone (spec.md §3
// invariant, §4.1 spawn_child_state). compute_granularity repeats of this
// call (driven by the caller) tune CPU cost per node without changing the
// deterministic result, since every repeat recomputes the same value from
// the same (parent, i) pair.
func spawnChildState(parent State, i int) State {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(uint32(i)))
	h := sha256.New()
	h.Write(parent[:])
	h.Write(idx[:])
	sum := h.Sum(nil)
	var s State
	copy(s[:], sum[:20])
	return s
}
