package louvain

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/partition"
	"github.com/novagraph/communities/internal/rng"
)

func clique(ids ...string) []graphadapter.EdgeInput {
	var edges []graphadapter.EdgeInput
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			edges = append(edges, graphadapter.EdgeInput{Source: ids[i], Target: ids[j]})
		}
	}
	return edges
}

func bridgedCliques(t *testing.T, sizeEach int) (*graphadapter.Graph, []string, []string) {
	t.Helper()
	var a, b []string
	for i := 0; i < sizeEach; i++ {
		a = append(a, strconv.Itoa(i))
	}
	for i := 0; i < sizeEach; i++ {
		b = append(b, strconv.Itoa(sizeEach+i))
	}
	var nodes []graphadapter.NodeInput
	for _, id := range append(append([]string{}, a...), b...) {
		nodes = append(nodes, graphadapter.NodeInput{ID: id})
	}
	edges := append(clique(a...), clique(b...)...)
	edges = append(edges, graphadapter.EdgeInput{Source: a[len(a)-1], Target: b[0]})
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, a, b
}

func TestRunLocalMoveLoop_TwoCliquesBridged(t *testing.T) {
	g, a, b := bridgedCliques(t, 4)
	p := partition.New(g)
	r := rng.New(1)
	opts := MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       StrategyNeighbors,
		MaxLocalPasses: 20,
	}
	RunLocalMoveLoop(context.Background(), p, r, opts)

	idx := func(id string) int { i, _ := g.Index(id); return i }
	commOf := func(id string) int { return p.NodeCommunity[idx(id)] }

	for _, id := range a[1:] {
		if commOf(id) != commOf(a[0]) {
			t.Errorf("node %s should share clique A's community, got %d want %d", id, commOf(id), commOf(a[0]))
		}
	}
	for _, id := range b[1:] {
		if commOf(id) != commOf(b[0]) {
			t.Errorf("node %s should share clique B's community, got %d want %d", id, commOf(id), commOf(b[0]))
		}
	}
	if commOf(a[0]) == commOf(b[0]) {
		t.Error("clique A and clique B should end up in distinct communities")
	}
}

func TestRunLocalMoveLoop_FixedNodesDoNotMove(t *testing.T) {
	g, a, b := bridgedCliques(t, 4)
	p := partition.New(g)
	r := rng.New(1)
	bridgeA, _ := g.Index(a[len(a)-1])
	bridgeB, _ := g.Index(b[0])
	opts := MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       StrategyNeighbors,
		MaxLocalPasses: 20,
		Fixed:          map[int]bool{bridgeA: true, bridgeB: true},
	}
	RunLocalMoveLoop(context.Background(), p, r, opts)
	if p.NodeCommunity[bridgeA] != bridgeA {
		t.Errorf("fixed node %d moved to community %d", bridgeA, p.NodeCommunity[bridgeA])
	}
	if p.NodeCommunity[bridgeB] != bridgeB {
		t.Errorf("fixed node %d moved to community %d", bridgeB, p.NodeCommunity[bridgeB])
	}
}

func TestRunLocalMoveLoop_MaxCommunitySizeCapsAcrossBridge(t *testing.T) {
	g, a, b := bridgedCliques(t, 3)
	p := partition.New(g)
	r := rng.New(1)
	opts := MoveLoopOptions{
		Quality:          "modularity",
		Strategy:         StrategyNeighbors,
		MaxLocalPasses:   20,
		MaxCommunitySize: 3,
	}
	RunLocalMoveLoop(context.Background(), p, r, opts)

	idx := func(id string) int { i, _ := g.Index(id); return i }
	for _, id := range a {
		for _, id2 := range b {
			if p.NodeCommunity[idx(id)] == p.NodeCommunity[idx(id2)] {
				t.Errorf("maxCommunitySize=3 should prevent %s and %s merging across the bridge", id, id2)
			}
		}
	}
}

func TestCandidatesFor_All(t *testing.T) {
	g, _, _ := bridgedCliques(t, 2)
	p := partition.New(g)
	ids := candidatesFor(p, StrategyAll, rng.New(1))
	if len(ids) != p.Q {
		t.Errorf("StrategyAll should enumerate all %d communities, got %d", p.Q, len(ids))
	}
}

func TestCandidatesFor_RandomAnyRespectsTrialCap(t *testing.T) {
	g, _, _ := bridgedCliques(t, 8)
	p := partition.New(g)
	ids := candidatesFor(p, StrategyRandomAny, rng.New(1))
	if len(ids) != 10 {
		t.Errorf("random-any should draw min(10, Q) trials, got %d", len(ids))
	}
}

func TestDirectedTwoTriangles(t *testing.T) {
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
	p := partition.New(g)
	r := rng.New(2)
	opts := MoveLoopOptions{
		Quality:        "modularity",
		Directed:       true,
		Strategy:       StrategyNeighbors,
		MaxLocalPasses: 20,
	}
	RunLocalMoveLoop(context.Background(), p, r, opts)

	idx := func(id string) int { i, _ := g.Index(id); return i }
	a := []string{"0", "1", "2"}
	b := []string{"3", "4", "5"}
	for _, id := range a[1:] {
		if p.NodeCommunity[idx(id)] != p.NodeCommunity[idx(a[0])] {
			t.Errorf("triangle A should share a community, %s differs", id)
		}
	}
	for _, id := range b[1:] {
		if p.NodeCommunity[idx(id)] != p.NodeCommunity[idx(b[0])] {
			t.Errorf("triangle B should share a community, %s differs", id)
		}
	}
	if p.NodeCommunity[idx("0")] == p.NodeCommunity[idx("3")] {
		t.Error("the two triangles should end up in distinct communities")
	}
}

func TestNonFiniteGainClampedToZero(t *testing.T) {
	// An empty (zero-weight) graph makes M == 0, so every delta must
	// clamp to 0 rather than propagate a NaN/Inf from division by m2.
	nodes := []graphadapter.NodeInput{{ID: "a"}, {ID: "b"}}
	g, err := graphadapter.Build(nodes, nil, graphadapter.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p := partition.New(g)
	p.AccumulateNeighbors(0)
	got := p.DeltaModularityUndirected(0, 1)
	if got != 0 || math.IsNaN(got) {
		t.Errorf("delta on an empty graph should clamp to 0, got %v", got)
	}
}
