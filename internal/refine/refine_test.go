package refine

import (
	"context"
	"testing"

	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/louvain"
	"github.com/novagraph/communities/internal/partition"
	"github.com/novagraph/communities/internal/rng"
)

// chainOfCliques builds three 5-cliques {0..4},{5..9},{10..14} bridged
// by (4,5) and (9,10) — spec.md §8 scenario 7.
func chainOfCliques(t *testing.T) *graphadapter.Graph {
	t.Helper()
	var nodes []graphadapter.NodeInput
	for i := 0; i < 15; i++ {
		nodes = append(nodes, graphadapter.NodeInput{ID: idOf(i)})
	}
	var edges []graphadapter.EdgeInput
	for base := 0; base < 15; base += 5 {
		for i := base; i < base+5; i++ {
			for j := i + 1; j < base+5; j++ {
				edges = append(edges, graphadapter.EdgeInput{Source: idOf(i), Target: idOf(j)})
			}
		}
	}
	edges = append(edges,
		graphadapter.EdgeInput{Source: idOf(4), Target: idOf(5)},
		graphadapter.EdgeInput{Source: idOf(9), Target: idOf(10)},
	)
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func idOf(i int) string {
	return string(rune('a' + i))
}

func TestRun_NeverMergesAcrossMacroCommunity(t *testing.T) {
	g := chainOfCliques(t)
	coarse := partition.New(g) // all-singleton macro partition: every node its own macro group
	r := rng.New(7)
	opts := louvain.MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       louvain.StrategyNeighbors,
		MaxLocalPasses: 20,
	}
	ref := Run(context.Background(), g, coarse, r, opts)
	for i := 0; i < g.N; i++ {
		if ref.NodeCommunity[i] != i {
			t.Errorf("with all-singleton macro partition, refine must keep every node a singleton; node %d moved to %d", i, ref.NodeCommunity[i])
		}
	}
}

func TestRun_SubdividesWithinMacroCommunity(t *testing.T) {
	g := chainOfCliques(t)
	coarse := partition.New(g)
	// collapse everything into one macro community
	for i := 1; i < g.N; i++ {
		coarse.AccumulateNeighbors(i)
		coarse.MoveNodeToCommunity(i, 0)
	}
	r := rng.New(7)
	opts := louvain.MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       louvain.StrategyNeighbors,
		MaxLocalPasses: 20,
	}
	ref := Run(context.Background(), g, coarse, r, opts)

	distinctComms := map[int]bool{}
	for i := 0; i < g.N; i++ {
		distinctComms[ref.NodeCommunity[i]] = true
	}
	if len(distinctComms) < 2 {
		t.Errorf("refinement over one macro community with a weak-bridge chain should subdivide, got %d distinct communities", len(distinctComms))
	}
}

// TestRun_FixedNodeStaysPut checks spec.md §4.5's "same... fixed nodes...
// apply" constraint: a fixed node must not relocate to a different
// sub-community within its own macro group, even when that move is the
// best-gain move an unconstrained node would take.
func TestRun_FixedNodeStaysPut(t *testing.T) {
	g := chainOfCliques(t)
	coarse := partition.New(g)
	for i := 1; i < g.N; i++ {
		coarse.AccumulateNeighbors(i)
		coarse.MoveNodeToCommunity(i, 0)
	}
	r := rng.New(7)
	bridge, _ := g.Index(idOf(4)) // bridge node between the first and second clique

	unconstrained := louvain.MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       louvain.StrategyNeighbors,
		MaxLocalPasses: 20,
	}
	free := Run(context.Background(), g, coarse, r, unconstrained)
	if free.NodeCommunity[bridge] == bridge {
		t.Fatalf("setup invariant broken: expected the unconstrained bridge node to move off its own singleton community")
	}

	fixed := louvain.MoveLoopOptions{
		Quality:        "modularity",
		Strategy:       louvain.StrategyNeighbors,
		MaxLocalPasses: 20,
		Fixed:          map[int]bool{bridge: true},
	}
	pinned := Run(context.Background(), g, coarse, rng.New(7), fixed)
	if pinned.NodeCommunity[bridge] != bridge {
		t.Errorf("fixed node %d must stay in its own singleton refinement community, got %d", bridge, pinned.NodeCommunity[bridge])
	}
}
