// Package coarsen implements the coarsening step (spec.md §4.6): given
// a level's graph and the partition produced on it, contract each
// community into a super-node and sum the weight of every inter- and
// intra-community edge into the next level's graph.
package coarsen

import (
	"sort"
	"strconv"

	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/partition"
)

type pairKey [2]int

// Coarsen builds graph G' whose nodes are 0..Q-1 (node i's size is
// p's TotalSize[i]) and whose edges sum, per ordered community pair
// (P[i], P[j]), the weight of every edge (i, j, w) in g — including
// self-loops, which land on the diagonal (c, c). G' is built with the
// same directed flag as g; an undirected g, having symmetric
// adjacency, naturally yields a symmetric edge set that the next
// level's adapter will re-symmetrize.
func Coarsen(g *graphadapter.Graph, p *partition.Partition) (*graphadapter.Graph, error) {
	q := p.Q
	ids := make([]string, q)
	for c := 0; c < q; c++ {
		ids[c] = strconv.Itoa(c)
	}

	nodes := make([]graphadapter.NodeInput, q)
	for c := 0; c < q; c++ {
		size := p.TotalSize[c]
		nodes[c] = graphadapter.NodeInput{ID: ids[c], Size: &size}
	}

	agg := map[pairKey]float64{}
	for i := 0; i < g.N; i++ {
		ci := p.NodeCommunity[i]
		for _, arc := range g.Out[i] {
			cj := p.NodeCommunity[arc.To]
			agg[pairKey{ci, cj}] += arc.Weight
		}
	}

	keys := make([]pairKey, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	edges := make([]graphadapter.EdgeInput, 0, len(keys))
	for _, k := range keys {
		weight := agg[k]
		edges = append(edges, graphadapter.EdgeInput{Source: ids[k[0]], Target: ids[k[1]], Weight: &weight})
	}

	return graphadapter.Build(nodes, edges, graphadapter.BuildOptions{Directed: g.Directed, NodeOrder: ids})
}
