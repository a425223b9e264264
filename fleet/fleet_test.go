package fleet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/uts/tree"
)

type FleetTestSuite struct {
	suite.Suite
}

func TestFleetTestSuite(t *testing.T) {
	suite.Run(t, new(FleetTestSuite))
}

func balancedParams(b0 float64, genMx uint64, chunkSize int) tree.Params {
	return tree.Params{
		Type:               tree.BALANCED,
		B0:                 b0,
		RootSeed:           0,
		GenMx:              genMx,
		ChunkSize:          chunkSize,
		ComputeGranularity: 1,
	}
}

func runFleet(ts *FleetTestSuite, cfg Config) Report {
	f, err := Build(cfg, nil)
	ts.Require().NoError(err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.Run(ctx)
}

// A perfect b0-ary tree of depth genMx has (b0^(genMx+1)-1)/(b0-1) nodes
// and b0^genMx leaves (spec.md §7 BALANCED closed-form property).
func balancedTotals(b0 float64, genMx uint64) (nodes, leaves uint64) {
	b := int64(b0)
	var n, total int64 = 1, 1
	for i := uint64(0); i < genMx; i++ {
		n *= b
		total += n
	}
	return uint64(total), uint64(n)
}

func (ts *FleetTestSuite) TestBalancedTreeSingleWorker() {
	b0, genMx := 4.0, 6
	wantNodes, wantLeaves := balancedTotals(b0, uint64(genMx))

	report := runFleet(ts, Config{
		Params:  balancedParams(b0, uint64(genMx), 20),
		Hosts:   1,
		Workers: 1,
	})

	ts.Equal(wantNodes, report.Stats.NNodes)
	ts.Equal(wantLeaves, report.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestBalancedTreeEightWorkersMatchesSingleWorker() {
	b0, genMx := 4.0, 6
	wantNodes, wantLeaves := balancedTotals(b0, uint64(genMx))

	report := runFleet(ts, Config{
		Params:  balancedParams(b0, uint64(genMx), 20),
		Hosts:   2,
		Workers: 8,
	})

	ts.Equal(wantNodes, report.Stats.NNodes)
	ts.Equal(wantLeaves, report.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestGeoLinearDeterministicAcrossWorkerCounts() {
	params := tree.Params{
		Type:               tree.GEO,
		B0:                 4.0,
		RootSeed:           13,
		ShapeFn:            tree.LINEAR,
		GenMx:              8,
		ChunkSize:          10,
		ComputeGranularity: 1,
	}

	single := runFleet(ts, Config{Params: params, Hosts: 1, Workers: 1})
	multi := runFleet(ts, Config{Params: params, Hosts: 3, Workers: 9})

	ts.Equal(single.Stats.NNodes, multi.Stats.NNodes)
	ts.Equal(single.Stats.NLeaves, multi.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestBinTreeDeterministicAcrossHosts() {
	params := tree.Params{
		Type:               tree.BIN,
		B0:                 5.0,
		RootSeed:           99,
		NonLeafProb:        15.0 / 64.0,
		NonLeafBF:          5,
		ChunkSize:          3, // small MaxLocal (chunk_size^2) so the lone-worker-per-host
		ComputeGranularity: 1, // case below still crosses the remote-check threshold quickly
	}

	oneHost := runFleet(ts, Config{Params: params, Hosts: 1, Workers: 4})
	fourHosts := runFleet(ts, Config{Params: params, Hosts: 4, Workers: 4})

	ts.Equal(oneHost.Stats.NNodes, fourHosts.Stats.NNodes)
	ts.Equal(oneHost.Stats.NLeaves, fourHosts.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestStressOvercommitSmallChunkSize() {
	params := balancedParams(3.0, 5, 1)
	report := runFleet(ts, Config{
		Params:           params,
		Hosts:            3,
		Workers:          12,
		OvercommitFactor: 2.0,
	})

	wantNodes, wantLeaves := balancedTotals(3.0, 5)
	ts.Equal(wantNodes, report.Stats.NNodes)
	ts.Equal(wantLeaves, report.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestDegenerateBranchingTerminatesImmediately() {
	params := tree.Params{
		Type:               tree.BIN,
		B0:                 0.0,
		RootSeed:           1,
		NonLeafProb:        0,
		NonLeafBF:          0,
		ChunkSize:          4,
		ComputeGranularity: 1,
	}

	report := runFleet(ts, Config{Params: params, Hosts: 1, Workers: 1})

	ts.Equal(uint64(1), report.Stats.NNodes)
	ts.Equal(uint64(1), report.Stats.NLeaves)
}

func (ts *FleetTestSuite) TestValidateRejectsZeroHosts() {
	cfg := Config{Params: tree.DefaultParams(), Hosts: 0, Workers: 1}
	_, err := Build(cfg, nil)
	ts.Error(err)
}

func (ts *FleetTestSuite) TestValidateRejectsZeroWorkers() {
	cfg := Config{Params: tree.DefaultParams(), Hosts: 1, Workers: 0}
	_, err := Build(cfg, nil)
	ts.Error(err)
}
