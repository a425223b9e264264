package tree

import "math"

// Node is a search-tree vertex. Nodes are values: copied freely, never
// shared (spec.md §3). ChildCount is -1 until the node has been expanded.
type Node struct {
	Type       TreeType
	Height     uint64
	ChildCount int
	State      State
}

// InitRoot seeds the root node for rank 0 (spec.md §4.1 init_root).
func InitRoot(p Params) Node {
	return Node{
		Type:       p.Type,
		Height:     0,
		ChildCount: -1,
		State:      seedState(p.RootSeed),
	}
}

// ChildType returns the tree type a child of n should carry (spec.md
// §4.1 child_type): constant except HYBRID, which is GEO below
// shift_depth*gen_mx and BIN at or above it.
func (n Node) ChildType(p Params) TreeType {
	switch p.Type {
	case BIN:
		return BIN
	case GEO:
		return GEO
	case HYBRID:
		if float64(n.Height) < p.ShiftDepth*float64(p.GenMx) {
			return GEO
		}
		return BIN
	case BALANCED:
		return BALANCED
	default:
		panic("tree: Node.ChildType: unknown tree type")
	}
}

// numChildrenBIN implements the BIN non-root branch: draw u uniform on
// [0,1); return non_leaf_bf with probability non_leaf_prob, else 0.
func (n *Node) numChildrenBIN(p Params) int {
	v := rngRand(&n.State)
	if rngToProb(v) < p.NonLeafProb {
		return p.NonLeafBF
	}
	return 0
}

// targetBranching computes b_i for the GEO shape function at the node's
// height (spec.md §4.1).
func targetBranching(p Params, height uint64) float64 {
	if height == 0 {
		return p.B0
	}
	depth := float64(height)
	genMx := float64(p.GenMx)
	switch p.ShapeFn {
	case EXPDEC:
		if p.B0 <= 0 || genMx <= 0 {
			return 0
		}
		return p.B0 * math.Pow(depth, -math.Log(p.B0)/math.Log(genMx))
	case CYCLIC:
		if depth > 5*genMx {
			return 0
		}
		return math.Pow(p.B0, math.Sin(2.0*math.Pi*depth/genMx))
	case FIXED:
		if depth < genMx {
			return p.B0
		}
		return 0
	case LINEAR:
		fallthrough
	default:
		return p.B0 * (1.0 - depth/genMx)
	}
}

// numChildrenGEO implements the GEO branch (and the GEO phase of
// HYBRID): draw the number of children from a geometric distribution
// whose mean matches the shape function's target b_i (spec.md §4.1).
// An arithmetic degeneracy (log of a non-positive argument) is treated
// as a leaf, per spec.md §7.
func (n *Node) numChildrenGEO(p Params) int {
	bi := targetBranching(p, n.Height)
	prob := 1.0 / (1.0 + bi)

	h := rngRand(&n.State)
	u := rngToProb(h)

	num := math.Log(1.0-u) / math.Log(1.0-prob)
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return 0
	}
	if num < 0 {
		return 0
	}
	return int(math.Floor(num))
}

// NumChildren computes the branching factor of n (spec.md §4.1
// num_children), including the MAX_NUM_CHILDREN / root-BIN truncation.
func (n *Node) NumChildren(p Params) int {
	var num int
	switch p.Type {
	case BIN:
		if n.Height == 0 {
			num = int(math.Floor(p.B0))
		} else {
			num = n.numChildrenBIN(p)
		}
	case GEO:
		num = n.numChildrenGEO(p)
	case HYBRID:
		if float64(n.Height) < p.ShiftDepth*float64(p.GenMx) {
			num = n.numChildrenGEO(p)
		} else {
			num = n.numChildrenBIN(p)
		}
	case BALANCED:
		if n.Height < p.GenMx {
			num = int(p.B0)
		}
	default:
		panic("tree: Node.NumChildren: unknown tree type")
	}

	if n.Height == 0 && n.Type == BIN {
		rootBF := int(math.Ceil(p.B0))
		if num > rootBF {
			num = rootBF
		}
	} else if p.Type != BALANCED {
		if num > MaxNumChildren {
			num = MaxNumChildren
		}
	}
	return num
}

// SpawnChild derives child index i of parent deterministically, applying
// spawn_child_state compute_granularity times to tune CPU cost per node
// (spec.md §4.1, §9).
func SpawnChild(parent Node, childType TreeType, index int, p Params) Node {
	child := Node{
		Type:       childType,
		Height:     parent.Height + 1,
		ChildCount: -1,
	}
	for j := 0; j < p.ComputeGranularity; j++ {
		child.State = spawnChildState(parent.State, index)
	}
	return child
}
