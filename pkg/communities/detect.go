package communities

import (
	"context"
	"fmt"

	"github.com/novagraph/communities/internal/apperrors"
	"github.com/novagraph/communities/internal/driver"
	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/multilayer"
)

// DetectClusters runs the multilevel optimization loop over input and
// returns the resulting community assignment (spec.md §4, §6).
func DetectClusters(input Input, opts Options) (*Clusters, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	nodes, edges, err := toAdapterInput(input, opts)
	if err != nil {
		return nil, err
	}

	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{Directed: opts.Directed})
	if err != nil {
		return nil, err
	}

	var fixed map[string]bool
	if len(opts.FixedNodes) > 0 {
		fixed = make(map[string]bool, len(opts.FixedNodes))
		for _, id := range opts.FixedNodes {
			fixed[id] = true
		}
	}

	res, err := driver.Run(context.Background(), g, driver.Options{
		Quality:           opts.Quality,
		Resolution:        opts.Resolution,
		Directed:          opts.Directed,
		RandomSeed:        opts.RandomSeed,
		CandidateStrategy: opts.CandidateStrategy,
		AllowNewCommunity: opts.AllowNewCommunity,
		MaxCommunitySize:  opts.MaxCommunitySize,
		Refine:            opts.Refine,
		FixedNodes:        fixed,
		PreserveLabels:    driver.PreserveLabels{Keep: opts.PreserveLabels.Keep, Map: opts.PreserveLabels.Map},
		MaxLevels:         opts.MaxLevels,
		MaxLocalPasses:    opts.MaxLocalPasses,
		CPMSizeAware:      opts.cpmSizeAware(),
	})
	if err != nil {
		return nil, err
	}

	return newClusters(res, opts), nil
}

func toAdapterInput(input Input, opts Options) ([]graphadapter.NodeInput, []graphadapter.EdgeInput, error) {
	switch {
	case input.Graph != nil && len(input.Layers) > 0:
		return nil, nil, fmt.Errorf("%w: Input must set exactly one of Graph or Layers", apperrors.ErrInput)
	case input.Graph != nil:
		return graphNodesAndEdges(*input.Graph, opts)
	case len(input.Layers) > 0:
		return multilayer.Aggregate(input.Layers)
	default:
		return nil, nil, fmt.Errorf("%w: Input must set Graph or Layers", apperrors.ErrInput)
	}
}

func graphNodesAndEdges(g Graph, opts Options) ([]graphadapter.NodeInput, []graphadapter.EdgeInput, error) {
	sizeFn := multilayer.DefaultNodeSize
	if opts.NodeSize != nil {
		sizeFn = opts.NodeSize
	}
	weightFn := multilayer.DefaultLinkWeight
	if opts.LinkWeight != nil {
		weightFn = opts.LinkWeight
	}

	nodes := make([]graphadapter.NodeInput, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		size := sizeFn(n)
		nodes = append(nodes, graphadapter.NodeInput{ID: n.ID, Size: &size})
	}
	edges := make([]graphadapter.EdgeInput, 0, len(g.Links))
	for _, l := range g.Links {
		w := weightFn(l)
		edges = append(edges, graphadapter.EdgeInput{Source: l.Source, Target: l.Target, Weight: &w})
	}
	return nodes, edges, nil
}
