package partition

import (
	"math"
	"testing"

	"github.com/novagraph/communities/internal/graphadapter"
)

func w(v float64) *float64 { return &v }

func fourClique(t *testing.T) *graphadapter.Graph {
	t.Helper()
	nodes := []graphadapter.NodeInput{{ID: "0"}, {ID: "1"}, {ID: "2"}, {ID: "3"}}
	edges := []graphadapter.EdgeInput{
		{Source: "0", Target: "1"}, {Source: "0", Target: "2"}, {Source: "0", Target: "3"},
		{Source: "1", Target: "2"}, {Source: "1", Target: "3"}, {Source: "2", Target: "3"},
	}
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func checkInvariants(t *testing.T, p *Partition, g *graphadapter.Graph) {
	t.Helper()
	sumNodeCount := 0
	for _, n := range p.NodeCount {
		sumNodeCount += n
	}
	if sumNodeCount != g.N {
		t.Errorf("sum(nodeCount) = %d, want %d", sumNodeCount, g.N)
	}
	sumSize, wantSize := 0.0, 0.0
	for _, s := range p.TotalSize {
		sumSize += s
	}
	for _, s := range g.Size {
		wantSize += s
	}
	if math.Abs(sumSize-wantSize) > 1e-9 {
		t.Errorf("sum(totalSize) = %v, want %v", sumSize, wantSize)
	}
	if g.Directed {
		sumOut, sumIn := 0.0, 0.0
		for _, s := range p.TotalOutStrength {
			sumOut += s
		}
		for _, s := range p.TotalInStrength {
			sumIn += s
		}
		if math.Abs(sumOut-g.M) > 1e-9 {
			t.Errorf("sum(totalOutStrength) = %v, want M=%v", sumOut, g.M)
		}
		if math.Abs(sumIn-g.M) > 1e-9 {
			t.Errorf("sum(totalInStrength) = %v, want M=%v", sumIn, g.M)
		}
	} else {
		sum := 0.0
		for _, s := range p.TotalStrength {
			sum += s
		}
		if math.Abs(sum-g.M) > 1e-9 {
			t.Errorf("sum(totalStrength) = %v, want M=%v", sum, g.M)
		}
	}
}

func TestNew_SingletonInvariants(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	checkInvariants(t, p, g)
	for i := 0; i < g.N; i++ {
		if p.NodeCommunity[i] != i {
			t.Errorf("node %d should start in its own community", i)
		}
	}
}

func TestMoveNodeToCommunity_PreservesInvariants(t *testing.T) {
	g := fourClique(t)
	p := New(g)

	p.AccumulateNeighbors(0)
	moved := p.MoveNodeToCommunity(0, 1)
	if !moved {
		t.Fatal("expected move to report true")
	}
	checkInvariants(t, p, g)
	if p.NodeCommunity[0] != 1 {
		t.Errorf("node 0 community = %d, want 1", p.NodeCommunity[0])
	}
	if p.NodeCount[0] != 0 || p.NodeCount[1] != 2 {
		t.Errorf("nodeCount after move: c0=%d c1=%d, want 0,2", p.NodeCount[0], p.NodeCount[1])
	}
}

func TestMoveNodeToCommunity_NoOpWhenSameCommunity(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	if p.MoveNodeToCommunity(0, 0) {
		t.Error("moving to the current community should report false")
	}
}

func TestMoveNodeToCommunity_NewSingletonAppendsSlot(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	p.MoveNodeToCommunity(0, 1) // merge 0 into 1, community 0 now empty
	p.AccumulateNeighbors(0)
	if !p.MoveNodeToCommunity(0, p.Q) {
		t.Fatal("expected move to fresh singleton to succeed")
	}
	if p.Q != 5 {
		t.Errorf("Q = %d, want 5 after appending a fresh slot", p.Q)
	}
	checkInvariants(t, p, g)
}

func TestDeltaModularityUndirected_ZeroForSameCommunity(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	if got := p.DeltaModularityUndirected(0, 0); got != 0 {
		t.Errorf("delta for staying put = %v, want 0", got)
	}
}

func TestDeltaMatchesGlobalQualityDifference(t *testing.T) {
	g := fourClique(t)
	p := New(g)

	before := globalModularity(p)
	p.AccumulateNeighbors(0)
	delta := p.DeltaModularityUndirected(0, 1)
	p.MoveNodeToCommunity(0, 1)
	after := globalModularity(p)

	if math.Abs((after-before)-delta) > 1e-9 {
		t.Errorf("global quality diff = %v, delta reported = %v", after-before, delta)
	}
}

func globalModularity(p *Partition) float64 {
	m2 := p.g.M
	q := 0.0
	for c := 0; c < p.Q; c++ {
		if p.NodeCount[c] == 0 {
			continue
		}
		l := p.InternalEdgeWeight[c]
		d := p.TotalStrength[c]
		q += l/m2 - (d/m2)*(d/m2)
	}
	return q
}

func TestCompactCommunityIds_DefaultOrdersBySizeThenCount(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	p.MoveNodeToCommunity(0, 1)
	p.AccumulateNeighbors(2)
	p.MoveNodeToCommunity(2, 3)

	oldToNew := p.CompactCommunityIds(CompactDefault, nil)
	if p.Q != 2 {
		t.Fatalf("Q after compaction = %d, want 2", p.Q)
	}
	checkInvariants(t, p, g)
	if oldToNew[1] == -1 || oldToNew[3] == -1 {
		t.Errorf("surviving old ids should map to valid new ids: %v", oldToNew)
	}
	if oldToNew[0] != -1 || oldToNew[2] != -1 {
		t.Errorf("emptied old ids should map to -1: %v", oldToNew)
	}
}

func TestCompactCommunityIds_KeepOldOrder(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	p.MoveNodeToCommunity(0, 1)

	oldToNew := p.CompactCommunityIds(CompactKeepOldOrder, nil)
	// community 1 (old id) now has 2 members and must sort before 2,3
	// since ascending-by-old-id puts it first regardless of size.
	if oldToNew[1] != 0 {
		t.Errorf("keepOldOrder should place old id 1 at new id 0, got %d", oldToNew[1])
	}
}

func TestGetCommunityMembers(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	p.MoveNodeToCommunity(0, 1)

	members := p.GetCommunityMembers()
	if len(members[1]) != 2 {
		t.Fatalf("community 1 should have 2 members, got %v", members[1])
	}
	if members[1][0] != 0 || members[1][1] != 1 {
		t.Errorf("members should be ascending by node index: %v", members[1])
	}
}

func directedTwoTriangles(t *testing.T) *graphadapter.Graph {
	t.Helper()
	nodes := []graphadapter.NodeInput{{ID: "0"}, {ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	edges := []graphadapter.EdgeInput{
		{Source: "0", Target: "1"}, {Source: "1", Target: "2"}, {Source: "2", Target: "0"},
		{Source: "3", Target: "4"}, {Source: "4", Target: "5"}, {Source: "5", Target: "3"},
		{Source: "2", Target: "3"},
	}
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{Directed: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestDeltaModularityDirected_ZeroForSameCommunity(t *testing.T) {
	g := directedTwoTriangles(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	if got := p.DeltaModularityDirected(0, 0); got != 0 {
		t.Errorf("delta for staying put = %v, want 0", got)
	}
	checkInvariants(t, p, g)
}

func TestDeltaCPM_ZeroForSameCommunity(t *testing.T) {
	g := fourClique(t)
	p := New(g)
	p.AccumulateNeighbors(0)
	if got := p.DeltaCPM(0, 0, 1.0); got != 0 {
		t.Errorf("delta for staying put = %v, want 0", got)
	}
}

func TestSelfLoopExcludedFromNeighborWeightButTrackedInInternalWeight(t *testing.T) {
	nodes := []graphadapter.NodeInput{{ID: "a"}, {ID: "b"}}
	edges := []graphadapter.EdgeInput{
		{Source: "a", Target: "a", Weight: w(5)},
		{Source: "a", Target: "b", Weight: w(0.1)},
	}
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := New(g)
	ai, _ := g.Index("a")
	bi, _ := g.Index("b")

	p.AccumulateNeighbors(ai)
	// neighborWeight to b's community should be just 0.1, never 5.1.
	if got := p.neighborWeight[p.NodeCommunity[bi]]; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("neighborWeight[b] = %v, want 0.1 (self-loop excluded)", got)
	}
	if math.Abs(p.InternalEdgeWeight[ai]-5) > 1e-9 {
		t.Errorf("InternalEdgeWeight[a] = %v, want 5 (self-loop counted once)", p.InternalEdgeWeight[ai])
	}
}
