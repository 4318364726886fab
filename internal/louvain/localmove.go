package louvain

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novagraph/communities/internal/partition"
	"github.com/novagraph/communities/internal/rng"
)

var tracer = otel.Tracer("communities.louvain")

// epsilon is the minimum strictly-positive gain a move must clear to
// be considered an improvement (spec.md §4.4).
const epsilon = 1e-12

func deltaFor(p *partition.Partition, opts MoveLoopOptions, v, c int) float64 {
	if opts.Quality == "cpm" {
		return p.DeltaCPM(v, c, opts.Resolution)
	}
	if opts.Directed {
		return p.DeltaModularityDirected(v, c)
	}
	return p.DeltaModularityUndirected(v, c)
}

func candidatesFor(p *partition.Partition, strategy CandidateStrategy, r *rng.Source) []int {
	switch strategy {
	case StrategyAll:
		ids := make([]int, p.Q)
		for i := range ids {
			ids[i] = i
		}
		return ids
	case StrategyRandomAny:
		pool := p.Q
		trials := pool
		if trials > 10 {
			trials = 10
		}
		if trials < 1 {
			trials = 1
		}
		ids := make([]int, trials)
		for i := range ids {
			ids[i] = r.Intn(pool)
		}
		return ids
	case StrategyRandomNeighbor:
		neighbors := p.Candidates()
		pool := len(neighbors)
		trials := pool
		if trials > 10 {
			trials = 10
		}
		if trials < 1 {
			trials = 1
		}
		ids := make([]int, trials)
		for i := range ids {
			ids[i] = neighbors[r.Intn(pool)]
		}
		return ids
	default: // StrategyNeighbors
		return p.Candidates()
	}
}

func admitsSize(p *partition.Partition, v, c int, maxSize float64) bool {
	if maxSize <= 0 || math.IsInf(maxSize, 1) {
		return true
	}
	cur := 0.0
	if !p.IsNewCommunity(c) {
		cur = p.TotalSize[c]
	}
	return cur+p.Graph().Size[v] <= maxSize
}

// bestMove scans v's candidates (plus a fresh singleton when
// AllowNewCommunity) and returns the best admissible move, or ok=false
// if no candidate clears epsilon.
func bestMove(p *partition.Partition, v int, r *rng.Source, opts MoveLoopOptions) (bestC int, bestGain float64, ok bool) {
	oldC := p.NodeCommunity[v]
	consider := func(c int) {
		if c == oldC {
			return
		}
		if opts.Admissible != nil && !opts.Admissible(v, c) {
			return
		}
		if !admitsSize(p, v, c, opts.MaxCommunitySize) {
			return
		}
		gain := deltaFor(p, opts, v, c)
		if gain > epsilon && gain > bestGain {
			bestGain = gain
			bestC = c
			ok = true
		}
	}
	for _, c := range candidatesFor(p, opts.Strategy, r) {
		consider(c)
	}
	if opts.AllowNewCommunity {
		consider(p.Q)
	}
	return bestC, bestGain, ok
}

// MoveLoopStats reports what one RunLocalMoveLoop call did, for the
// CLI's --stats output and for tracing attributes.
type MoveLoopStats struct {
	AnyMove   bool
	PassesRun int
	// Converged is true when the loop stopped because a full pass made
	// no improving move, false when it instead exhausted MaxLocalPasses.
	Converged bool
}

// RunLocalMoveLoop runs the randomized local-move sweep of spec.md
// §4.4 to convergence (or opts.MaxLocalPasses), mutating p in place.
func RunLocalMoveLoop(ctx context.Context, p *partition.Partition, r *rng.Source, opts MoveLoopOptions) MoveLoopStats {
	_, span := tracer.Start(ctx, "louvain.RunLocalMoveLoop", trace.WithAttributes(
		attribute.Int("node_count", p.Graph().N),
		attribute.String("quality", opts.Quality),
		attribute.Int("max_local_passes", opts.MaxLocalPasses),
	))
	defer span.End()

	n := p.Graph().N
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	r.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	stats := MoveLoopStats{}
	passes := opts.MaxLocalPasses
	if passes <= 0 {
		passes = 1
	}
	for pass := 0; pass < passes; pass++ {
		improved := false
		stats.PassesRun++
		for _, v := range order {
			if opts.Fixed != nil && opts.Fixed[v] {
				continue
			}
			p.AccumulateNeighbors(v)
			bestC, _, ok := bestMove(p, v, r, opts)
			if !ok {
				continue
			}
			if p.MoveNodeToCommunity(v, bestC) {
				improved = true
				stats.AnyMove = true
			}
		}
		if !improved {
			stats.Converged = true
			break
		}
	}
	span.SetAttributes(
		attribute.Int("passes_run", stats.PassesRun),
		attribute.Bool("any_move", stats.AnyMove),
		attribute.Bool("converged", stats.Converged),
		attribute.Int("community_count", p.Q),
	)
	return stats
}
