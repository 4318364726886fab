package multilayer

import (
	"fmt"

	"github.com/novagraph/communities/internal/apperrors"
	"github.com/novagraph/communities/internal/graphadapter"
)

type pairKey struct{ source, target string }

// Aggregate validates that every layer shares the same node id set,
// then sums Σ_layer (layer.Weight · linkWeight(link)) per (source,
// target) pair across all layers, in layer order then input order
// within a layer, so output is deterministic. Pairs whose aggregated
// weight is exactly zero are omitted. Node sizes are taken from layer
// 0 alone, via its NodeSize (or DefaultNodeSize when nil); the
// NodeSize functions and node data of later layers are not consulted.
func Aggregate(layers []Layer) ([]graphadapter.NodeInput, []graphadapter.EdgeInput, error) {
	if len(layers) == 0 {
		return nil, nil, fmt.Errorf("%w: multilayer input requires at least one layer", apperrors.ErrInput)
	}

	baseIDs := nodeIDSet(layers[0].Graph.Nodes)
	for li := 1; li < len(layers); li++ {
		ids := nodeIDSet(layers[li].Graph.Nodes)
		if !sameSet(baseIDs, ids) {
			return nil, nil, fmt.Errorf("%w: layer %d's node set differs from layer 0's", apperrors.ErrInput, li)
		}
	}

	sizeOf := map[string]float64{}
	var order []string
	for _, n := range layers[0].Graph.Nodes {
		if _, seen := sizeOf[n.ID]; !seen {
			order = append(order, n.ID)
		}
		sizeOf[n.ID] = nodeSizeFn(layers[0])(n)
	}

	sums := map[pairKey]float64{}
	var pairOrder []pairKey
	seenPair := map[pairKey]bool{}
	for _, layer := range layers {
		lw := linkWeightFn(layer)
		for _, link := range layer.Graph.Links {
			key := pairKey{link.Source, link.Target}
			if !seenPair[key] {
				seenPair[key] = true
				pairOrder = append(pairOrder, key)
			}
			sums[key] += layer.Weight * lw(link)
		}
	}

	nodes := make([]graphadapter.NodeInput, 0, len(order))
	for _, id := range order {
		s := sizeOf[id]
		nodes = append(nodes, graphadapter.NodeInput{ID: id, Size: &s})
	}

	edges := make([]graphadapter.EdgeInput, 0, len(pairOrder))
	for _, key := range pairOrder {
		w := sums[key]
		if w == 0 {
			continue
		}
		edges = append(edges, graphadapter.EdgeInput{Source: key.source, Target: key.target, Weight: &w})
	}

	return nodes, edges, nil
}

func linkWeightFn(l Layer) func(Link) float64 {
	if l.LinkWeight != nil {
		return l.LinkWeight
	}
	return DefaultLinkWeight
}

func nodeSizeFn(l Layer) func(Node) float64 {
	if l.NodeSize != nil {
		return l.NodeSize
	}
	return DefaultNodeSize
}

func nodeIDSet(nodes []Node) map[string]bool {
	set := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		set[n.ID] = true
	}
	return set
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
