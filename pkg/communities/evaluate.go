package communities

import (
	"context"

	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/quality"
)

// EvaluateQuality scores an externally supplied membership (node id ->
// community label) against graph, using the same quality metric
// DetectClusters would have optimized for (spec.md §6). Nodes absent
// from membership become singletons unless opts.Strict, in which case
// a missing node fails the call with ErrMissingMembership.
func EvaluateQuality(graph Graph, membership map[string]string, opts Options) (float64, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}

	nodes, edges, err := graphNodesAndEdges(graph, opts)
	if err != nil {
		return 0, err
	}
	g, err := graphadapter.Build(nodes, edges, graphadapter.BuildOptions{Directed: opts.Directed})
	if err != nil {
		return 0, err
	}

	return quality.Evaluate(context.Background(), g, membership, quality.EvaluateOptions{
		Quality:      opts.Quality,
		Resolution:   opts.Resolution,
		Directed:     opts.Directed,
		CPMSizeAware: opts.cpmSizeAware(),
		Strict:       opts.Strict,
	})
}
