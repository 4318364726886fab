package quality

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novagraph/communities/internal/graphadapter"
)

// EvaluateOptions configures Evaluate.
type EvaluateOptions struct {
	Quality      string // "modularity" | "cpm"
	Resolution   float64
	Directed     bool
	CPMSizeAware bool
	Strict       bool // MissingMembership fails instead of singleton fallback
}

// Evaluate computes global quality for g against an externally
// supplied membership map (node id -> community label), in O(N+E).
// Labels are resolved with CommunityID. Nodes absent from membership
// become singletons unless opts.Strict, in which case Evaluate fails
// with ErrMissingMembership.
func Evaluate(ctx context.Context, g *graphadapter.Graph, membership map[string]string, opts EvaluateOptions) (float64, error) {
	_, span := tracer.Start(ctx, "quality.Evaluate", trace.WithAttributes(
		attribute.Int("node_count", g.N),
		attribute.String("quality", opts.Quality),
		attribute.Int("membership_entries", len(membership)),
	))
	defer span.End()

	communityOf := make([]int, g.N)
	nextSynthetic := -1
	for i := 0; i < g.N; i++ {
		label, ok := membership[g.ID(i)]
		if !ok {
			if opts.Strict {
				err := fmt.Errorf("%w: %q", ErrMissingMembership, g.ID(i))
				span.RecordError(err)
				return 0, err
			}
			communityOf[i] = nextSynthetic
			nextSynthetic--
			continue
		}
		communityOf[i] = CommunityID(label)
	}

	nodeCount := map[int]int{}
	totalSize := map[int]float64{}
	totalStrength := map[int]float64{}
	totalOut := map[int]float64{}
	totalIn := map[int]float64{}
	internal := map[int]float64{}

	for i := 0; i < g.N; i++ {
		c := communityOf[i]
		nodeCount[c]++
		totalSize[c] += g.Size[i]
		if opts.Directed {
			totalOut[c] += g.KOut[i]
			totalIn[c] += g.KIn[i]
		} else {
			totalStrength[c] += g.KOut[i]
		}
	}
	for u := 0; u < g.N; u++ {
		cu := communityOf[u]
		for _, arc := range g.Out[u] {
			if communityOf[arc.To] == cu {
				internal[cu] += arc.Weight
			}
		}
	}

	ids := make([]int, 0, len(nodeCount))
	for c := range nodeCount {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	q := 0.0
	switch opts.Quality {
	case "cpm":
		for _, c := range ids {
			n := float64(nodeCount[c])
			if opts.CPMSizeAware {
				n = totalSize[c]
			}
			q += internal[c] - opts.Resolution*n*(n-1)/2
		}
	default:
		if opts.Directed {
			m := g.M
			if m == 0 {
				return 0, nil
			}
			for _, c := range ids {
				q += internal[c]/m - (totalOut[c]*totalIn[c])/(m*m)
			}
		} else {
			m2 := g.M
			if m2 == 0 {
				return 0, nil
			}
			for _, c := range ids {
				d := totalStrength[c]
				q += internal[c]/m2 - (d/m2)*(d/m2)
			}
		}
	}
	span.SetAttributes(attribute.Float64("quality", q))
	return q, nil
}
