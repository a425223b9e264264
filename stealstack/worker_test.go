package stealstack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/uts/transport"
	"github.com/go-foundations/uts/tree"
)

type WorkerTestSuite struct {
	suite.Suite
}

func TestWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}

func newTestWorker(ts *WorkerTestSuite, p tree.Params, hostID, workerID int) (*Worker, *transport.System[tree.Node]) {
	sys := transport.NewSystem[tree.Node]()
	w := NewWorker(transport.NewHandle(hostID, workerID), p, sys, nil)
	sys.Register(w)
	return w, sys
}

func (ts *WorkerTestSuite) TestSeedAndGetWork() {
	p := tree.DefaultParams()
	p.ChunkSize = 2
	w, _ := newTestWorker(ts, p, 0, 0)

	root := tree.InitRoot(p)
	w.Seed(root)

	ts.Equal(int64(1), w.localCount.Load())
	work := w.GetWork()
	ts.Len(work, 1)
	ts.True(w.Idle())
}

func (ts *WorkerTestSuite) TestPutWorkSpillsWhenOverMaxLocal() {
	p := tree.DefaultParams()
	p.ChunkSize = 2 // MaxLocal = 4
	w, _ := newTestWorker(ts, p, 0, 0)

	nodes := make([]tree.Node, 6)
	for i := range nodes {
		nodes[i] = tree.SpawnChild(tree.InitRoot(p), tree.GEO, i, p)
	}
	w.PutWork(nodes)

	ts.LessOrEqual(int(w.localCount.Load()), p.MaxLocal())
	ts.Greater(int(w.sharedCount.Load()), 0)
	ts.Equal(int64(6), w.localCount.Load()+w.sharedCount.Load())
}

func (ts *WorkerTestSuite) TestGenChildrenBalancedTree() {
	p := tree.Params{Type: tree.BALANCED, B0: 3, GenMx: 2, RootSeed: 1, ChunkSize: 4, ComputeGranularity: 1}
	w, _ := newTestWorker(ts, p, 0, 0)

	root := tree.InitRoot(p)
	children := w.GenChildren(&root)
	ts.Len(children, 3)
	ts.Equal(3, root.ChildCount)
	ts.Equal(uint64(1), w.Stats().NNodes)
	ts.Equal(uint64(0), w.Stats().NLeaves)
}

func (ts *WorkerTestSuite) TestGenChildrenLeaf() {
	p := tree.Params{Type: tree.BALANCED, B0: 3, GenMx: 0, RootSeed: 1, ChunkSize: 4, ComputeGranularity: 1}
	w, _ := newTestWorker(ts, p, 0, 0)

	root := tree.InitRoot(p)
	children := w.GenChildren(&root)
	ts.Len(children, 0)
	ts.Equal(uint64(1), w.Stats().NLeaves)
}

func (ts *WorkerTestSuite) TestStealFromSharedQueue() {
	p := tree.DefaultParams()
	p.ChunkSize = 2
	w, _ := newTestWorker(ts, p, 0, 0)

	nodes := []tree.Node{tree.InitRoot(p), tree.InitRoot(p), tree.InitRoot(p)}
	w.putWorkSharedQ(nodes)

	stolen := w.Steal(2)
	ts.Len(stolen, 2)
	ts.Equal(int64(1), w.sharedCount.Load())
}

func (ts *WorkerTestSuite) TestEnsureLocalWorkStealsSelfShared() {
	p := tree.DefaultParams()
	p.ChunkSize = 4
	w, _ := newTestWorker(ts, p, 0, 0)

	nodes := []tree.Node{tree.InitRoot(p), tree.InitRoot(p)}
	w.putWorkSharedQ(nodes)

	ctx := context.Background()
	ts.True(w.EnsureLocalWork(ctx))
	ts.Greater(int(w.localCount.Load()), 0)
}

func (ts *WorkerTestSuite) TestEnsureLocalWorkStealsFromSameHostPeer() {
	p := tree.DefaultParams()
	p.ChunkSize = 4
	sys := transport.NewSystem[tree.Node]()
	w1 := NewWorker(transport.NewHandle(0, 0), p, sys, nil)
	w2 := NewWorker(transport.NewHandle(0, 1), p, sys, nil)
	sys.Register(w1)
	sys.Register(w2)

	w2.putWorkSharedQ([]tree.Node{tree.InitRoot(p), tree.InitRoot(p)})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ts.True(w1.EnsureLocalWork(ctx))
	ts.Greater(int(w1.localCount.Load()), 0)
}

func (ts *WorkerTestSuite) TestEnsureLocalWorkStealsFromRemoteHost() {
	p := tree.DefaultParams()
	p.ChunkSize = 1 // MaxLocal=1, so 2 queued nodes clear RemoteCheckWork's threshold
	sys := transport.NewSystem[tree.Node]()
	w1 := NewWorker(transport.NewHandle(0, 0), p, sys, nil)
	w2 := NewWorker(transport.NewHandle(1, 0), p, sys, nil)
	sys.Register(w1)
	sys.Register(w2)

	w2.putWorkSharedQ([]tree.Node{tree.InitRoot(p), tree.InitRoot(p)})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ts.True(w1.EnsureLocalWork(ctx))
	ts.Greater(int(w1.localCount.Load()), 0)
}

func (ts *WorkerTestSuite) TestEnsureLocalWorkTerminatesWhenAllIdle() {
	p := tree.DefaultParams()
	p.ChunkSize = 4
	sys := transport.NewSystem[tree.Node]()
	w1 := NewWorker(transport.NewHandle(0, 0), p, sys, nil)
	w2 := NewWorker(transport.NewHandle(1, 0), p, sys, nil)
	sys.Register(w1)
	sys.Register(w2)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ts.False(w1.EnsureLocalWork(ctx))
}

func (ts *WorkerTestSuite) TestTreeSearchSingleWorkerBalancedTree() {
	p := tree.Params{Type: tree.BALANCED, B0: 4, GenMx: 3, RootSeed: 0, ChunkSize: 5, ComputeGranularity: 1}
	w, _ := newTestWorker(ts, p, 0, 0)
	w.Seed(tree.InitRoot(p))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats := w.TreeSearch(ctx)

	// A perfect 4-ary tree of depth 3 has (4^4-1)/3 = 85 nodes, 64 leaves.
	ts.Equal(uint64(85), stats.NNodes)
	ts.Equal(uint64(64), stats.NLeaves)
}
