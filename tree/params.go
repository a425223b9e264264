// Package tree implements the deterministic search-tree node and shape
// engine: given a parent node and the shared Params, it derives how many
// children the node has and the RNG state each child is seeded with.
package tree

import "fmt"

// TreeType selects the branching distribution used by NumChildren.
type TreeType int

const (
	BIN TreeType = iota
	GEO
	HYBRID
	BALANCED
)

func (t TreeType) String() string {
	switch t {
	case BIN:
		return "Binomial"
	case GEO:
		return "Geometric"
	case HYBRID:
		return "Hybrid"
	case BALANCED:
		return "Balanced"
	default:
		return "Unknown"
	}
}

// GeoShape selects the target-branching-factor function used by the GEO
// tree type (and the GEO phase of HYBRID).
type GeoShape int

const (
	LINEAR GeoShape = iota
	EXPDEC
	CYCLIC
	FIXED
)

func (s GeoShape) String() string {
	switch s {
	case LINEAR:
		return "Linear decrease"
	case EXPDEC:
		return "Exponential decrease"
	case CYCLIC:
		return "Cyclic"
	case FIXED:
		return "Fixed branching factor"
	default:
		return "Unknown"
	}
}

// MaxNumChildren caps the branching factor of every node (spec.md §4.1)
// except a BIN root, which is instead capped at ceil(B0), and nodes of a
// BALANCED tree, which are not capped.
const MaxNumChildren = 100

// MaxSpawnGranularity bounds how many children tree_search expands in a
// single sequential pass before splitting into ranged sub-tasks (spec.md §9).
const MaxSpawnGranularity = 500

// Params is the tree-shape and compute configuration shared, read-only,
// by every worker in the fleet.
type Params struct {
	Type               TreeType
	B0                 float64
	RootSeed           int32
	ShapeFn            GeoShape
	GenMx              uint64
	NonLeafProb        float64
	NonLeafBF          int
	ShiftDepth         float64
	ComputeGranularity int
	ChunkSize          int
	Debug              int
}

// DefaultParams mirrors the original driver's defaults (spec.md §6 / the
// UTS reference CLI): a 4-ary geometric tree of depth 6.
func DefaultParams() Params {
	return Params{
		Type:               GEO,
		B0:                 4.0,
		RootSeed:           0,
		ShapeFn:            LINEAR,
		GenMx:              6,
		NonLeafProb:        15.0 / 64.0,
		NonLeafBF:          4,
		ShiftDepth:         0.5,
		ComputeGranularity: 1,
		ChunkSize:          20,
	}
}

// Validate rejects parameter combinations that get_num_children cannot
// make sense of; an unknown tree type is a programming error elsewhere,
// not something recoverable here.
func (p Params) Validate() error {
	if p.ChunkSize <= 0 {
		return fmt.Errorf("tree: chunk-size must be positive, got %d", p.ChunkSize)
	}
	if p.ComputeGranularity <= 0 {
		return fmt.Errorf("tree: compute-granularity must be positive, got %d", p.ComputeGranularity)
	}
	switch p.Type {
	case BIN, GEO, HYBRID, BALANCED:
	default:
		return fmt.Errorf("tree: unknown tree type %d", p.Type)
	}
	return nil
}

// MaxLocal is the per-worker local-queue spill threshold (spec.md §3):
// chunk_size^2.
func (p Params) MaxLocal() int {
	return p.ChunkSize * p.ChunkSize
}
