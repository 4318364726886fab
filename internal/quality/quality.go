// Package quality computes global quality scores, both from a live
// partition's maintained aggregates and, independently, by scanning a
// graph against an externally supplied membership map (spec.md §4.3).
package quality

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novagraph/communities/internal/partition"
)

var tracer = otel.Tracer("communities.quality")

// ModularityUndirected sums Σ_c[L_c/m2 - (D_c/m2)²] over p's non-empty
// communities.
func ModularityUndirected(p *partition.Partition) float64 {
	m2 := p.Graph().M
	if m2 == 0 {
		return 0
	}
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

// ModularityDirected sums Σ_c[L_c/m - (F_c·T_c)/m²], the Leicht–Newman
// directed modularity.
func ModularityDirected(p *partition.Partition) float64 {
	m := p.Graph().M
	if m == 0 {
		return 0
	}
	q := 0.0
	for c := 0; c < p.Q; c++ {
		if p.NodeCount[c] == 0 {
			continue
		}
		l := p.InternalEdgeWeight[c]
		f := p.TotalOutStrength[c]
		tt := p.TotalInStrength[c]
		q += l/m - (f*tt)/(m*m)
	}
	return q
}

// CPM sums Σ_c[L_c - γ·n_c(n_c-1)/2]. sizeAware selects n_c = totalSize
// instead of nodeCount.
func CPM(p *partition.Partition, gamma float64, sizeAware bool) float64 {
	q := 0.0
	for c := 0; c < p.Q; c++ {
		if p.NodeCount[c] == 0 {
			continue
		}
		l := p.InternalEdgeWeight[c]
		var n float64
		if sizeAware {
			n = p.TotalSize[c]
		} else {
			n = float64(p.NodeCount[c])
		}
		q += l - gamma*n*(n-1)/2
	}
	return q
}

// Global computes whichever objective opts names, against p's current
// aggregates.
func Global(ctx context.Context, p *partition.Partition, quality string, resolution float64, cpmSizeAware bool, directed bool) float64 {
	_, span := tracer.Start(ctx, "quality.Global", trace.WithAttributes(
		attribute.String("quality", quality),
		attribute.Int("community_count", p.Q),
	))
	defer span.End()

	var q float64
	switch quality {
	case "cpm":
		q = CPM(p, resolution, cpmSizeAware)
	default:
		if directed {
			q = ModularityDirected(p)
		} else {
			q = ModularityUndirected(p)
		}
	}
	span.SetAttributes(attribute.Float64("quality", q))
	return q
}
