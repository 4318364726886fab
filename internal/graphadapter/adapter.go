// Package graphadapter builds the dense-indexed, symmetrized, weighted
// adjacency that the rest of the engine operates on (spec.md §4.1). A
// Graph is immutable once built and is read-only for the lifetime of a
// level; the mutable per-level state lives in internal/partition.
package graphadapter

import (
	"fmt"
	"sort"
)

// Arc is a single weighted adjacency entry (j, w).
type Arc struct {
	To     int
	Weight float64
}

// Graph is the immutable, dense-indexed adjacency for one level.
//
// Node identities are mapped to 0..N-1; IndexToID keeps the reverse
// mapping so results can be reported in terms of the caller's own ids.
type Graph struct {
	N        int
	Directed bool

	Size []float64 // s_i, default 1
	Loop []float64 // loop_i
	KOut []float64 // out-strength
	KIn  []float64 // in-strength (== KOut when undirected)

	Out [][]Arc // out[i] = (j, w) pairs
	In  [][]Arc // in[i] = (j, w) pairs (== Out when undirected)

	M float64 // total weight, Σ_i KOut(i)

	IndexToID []string
	idToIndex map[string]int
}

// NodeInput describes one input node; Size is nil when the caller did
// not specify a size (defaults to 1).
type NodeInput struct {
	ID   string
	Size *float64
}

// EdgeInput describes one input edge; Weight is nil when the caller did
// not specify a weight (defaults to 1).
type EdgeInput struct {
	Source, Target string
	Weight         *float64
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Directed selects Leicht–Newman (directed) semantics. When false,
	// edges are symmetrized per spec.md §4.1.
	Directed bool

	// NodeOrder, when non-nil, fixes the dense index and is the set
	// every node/edge endpoint must belong to — used by multilayer
	// input to keep layer graphs index-compatible (spec.md §4.1, §6).
	NodeOrder []string
}

// Build constructs a Graph in O(N+E).
func Build(nodes []NodeInput, edges []EdgeInput, opts BuildOptions) (*Graph, error) {
	idToIndex := map[string]int{}
	var indexToID []string

	if opts.NodeOrder != nil {
		indexToID = append(indexToID, opts.NodeOrder...)
		for i, id := range indexToID {
			idToIndex[id] = i
		}
		for _, n := range nodes {
			if _, ok := idToIndex[n.ID]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, n.ID)
			}
		}
		for _, e := range edges {
			if _, ok := idToIndex[e.Source]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Source)
			}
			if _, ok := idToIndex[e.Target]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, e.Target)
			}
		}
		present := make(map[string]bool, len(nodes)+2*len(edges))
		for _, n := range nodes {
			present[n.ID] = true
		}
		for _, e := range edges {
			present[e.Source], present[e.Target] = true, true
		}
		for _, id := range indexToID {
			if !present[id] {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
			}
		}
	} else {
		addID := func(id string) {
			if _, ok := idToIndex[id]; !ok {
				idToIndex[id] = len(indexToID)
				indexToID = append(indexToID, id)
			}
		}
		for _, n := range nodes {
			addID(n.ID)
		}
		for _, e := range edges {
			addID(e.Source)
			addID(e.Target)
		}
	}

	n := len(indexToID)
	g := &Graph{
		N:         n,
		Directed:  opts.Directed,
		Size:      make([]float64, n),
		Loop:      make([]float64, n),
		KOut:      make([]float64, n),
		IndexToID: indexToID,
		idToIndex: idToIndex,
	}
	for i := range g.Size {
		g.Size[i] = 1
	}
	for _, nd := range nodes {
		if nd.Size != nil {
			g.Size[idToIndex[nd.ID]] = *nd.Size
		}
	}

	if opts.Directed {
		g.buildDirected(edges)
	} else {
		g.buildUndirected(edges)
	}

	g.M = 0
	for i := 0; i < n; i++ {
		g.M += g.KOut[i]
	}
	return g, nil
}

func weightOf(w *float64) float64 {
	if w == nil {
		return 1
	}
	return *w
}

func (g *Graph) buildDirected(edges []EdgeInput) {
	g.KIn = make([]float64, g.N)
	g.Out = make([][]Arc, g.N)
	g.In = make([][]Arc, g.N)

	for _, e := range edges {
		u, v, w := g.idToIndex[e.Source], g.idToIndex[e.Target], weightOf(e.Weight)
		if u == v {
			g.Loop[u] += w
			g.KOut[u] += w
			g.KIn[u] += w
			g.Out[u] = append(g.Out[u], Arc{To: u, Weight: w})
			g.In[u] = append(g.In[u], Arc{To: u, Weight: w})
			continue
		}
		g.KOut[u] += w
		g.KIn[v] += w
		g.Out[u] = append(g.Out[u], Arc{To: v, Weight: w})
		g.In[v] = append(g.In[v], Arc{To: u, Weight: w})
	}

	sortAdjacency(g.Out)
	sortAdjacency(g.In)
}

type pairAgg struct {
	sum            float64
	seenAB, seenBA bool
}

// buildUndirected symmetrizes per spec.md §4.1 and §9(c): when both
// directions of an unordered pair are supplied, the stored weight is
// their average rather than their sum, so total weight is unaffected
// by whether callers provide one or both directions.
func (g *Graph) buildUndirected(edges []EdgeInput) {
	g.KIn = g.KOut
	g.Out = make([][]Arc, g.N)

	pairs := map[[2]int]*pairAgg{}
	hasSelfLoop := make([]bool, g.N)

	for _, e := range edges {
		u, v, w := g.idToIndex[e.Source], g.idToIndex[e.Target], weightOf(e.Weight)
		if u == v {
			g.Loop[u] += w
			hasSelfLoop[u] = true
			continue
		}
		a, b := u, v
		forward := true
		if a > b {
			a, b = b, a
			forward = false
		}
		key := [2]int{a, b}
		agg, ok := pairs[key]
		if !ok {
			agg = &pairAgg{}
			pairs[key] = agg
		}
		agg.sum += w
		if forward {
			agg.seenAB = true
		} else {
			agg.seenBA = true
		}
	}

	for key, agg := range pairs {
		a, b := key[0], key[1]
		directions := 0
		if agg.seenAB {
			directions++
		}
		if agg.seenBA {
			directions++
		}
		if directions == 0 {
			directions = 1
		}
		wt := agg.sum / float64(directions)
		g.Out[a] = append(g.Out[a], Arc{To: b, Weight: wt})
		g.Out[b] = append(g.Out[b], Arc{To: a, Weight: wt})
		g.KOut[a] += wt
		g.KOut[b] += wt
	}

	for i := 0; i < g.N; i++ {
		if hasSelfLoop[i] {
			g.Out[i] = append(g.Out[i], Arc{To: i, Weight: g.Loop[i]})
			g.KOut[i] += g.Loop[i]
		}
	}

	g.In = g.Out
	sortAdjacency(g.Out)
}

// sortAdjacency imposes a deterministic iteration order over adjacency
// lists built from an unordered map (spec.md §5: "deterministic key
// sort is required wherever iteration over an associative container
// matters").
func sortAdjacency(adj [][]Arc) {
	for _, arcs := range adj {
		sort.SliceStable(arcs, func(i, j int) bool { return arcs[i].To < arcs[j].To })
	}
}

// Index returns the dense index for id, or false if id is not in the graph.
func (g *Graph) Index(id string) (int, bool) {
	idx, ok := g.idToIndex[id]
	return idx, ok
}

// ID returns the original identifier for dense index i.
func (g *Graph) ID(i int) string {
	return g.IndexToID[i]
}
