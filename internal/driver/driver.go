// Package driver implements the multi-level outer loop (spec.md §4.7):
// build → local-move → optional refine → renumber → coarsen, repeated
// until a level produces no aggregation or maxLevels is reached.
package driver

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novagraph/communities/internal/coarsen"
	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/louvain"
	"github.com/novagraph/communities/internal/partition"
	"github.com/novagraph/communities/internal/quality"
	"github.com/novagraph/communities/internal/refine"
	"github.com/novagraph/communities/internal/rng"
)

var tracer = otel.Tracer("communities.driver")

// PreserveLabels mirrors the options table's preserveLabels: false |
// true | Map. Map, when non-nil, wins and is applied (at level 0 only,
// where community ids still correspond 1:1 to original node indices)
// as CompactPreserveMap; otherwise Keep selects CompactKeepOldOrder
// versus the sorted CompactDefault.
type PreserveLabels struct {
	Keep bool
	Map  map[string]int // node id -> sort key
}

// Options configures one Run.
type Options struct {
	Quality           string // "modularity" | "cpm"
	Resolution        float64
	Directed          bool
	RandomSeed        int64
	CandidateStrategy string
	AllowNewCommunity bool
	MaxCommunitySize  float64 // math.Inf(1) for unlimited
	Refine            bool
	FixedNodes        map[string]bool // finest level only
	PreserveLabels    PreserveLabels
	MaxLevels         int
	MaxLocalPasses    int
	CPMSizeAware      bool // cpmMode == "size-aware", reporting-only
}

// Level records one level's graph and the (possibly refined)
// partition produced on it, plus the local-move loop's stats for the
// CLI's --stats reporting.
type Level struct {
	Graph     *graphadapter.Graph
	Partition *partition.Partition
	Passes    int
	Converged bool
}

// Result is everything Run emits.
type Result struct {
	Levels            []Level
	FinalGraph        *graphadapter.Graph
	FinalPartition    *partition.Partition
	OriginalToCurrent []int // by original node index -> final community id
	OriginalIDs       []string
	Quality           float64
}

// Run executes the multi-level loop over base until a level yields no
// aggregation (communityCount == level graph's N) or maxLevels levels
// have run.
func Run(ctx context.Context, base *graphadapter.Graph, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "driver.Run",
		trace.WithAttributes(
			attribute.Int("node_count", base.N),
			attribute.Bool("directed", opts.Directed),
			attribute.String("quality", opts.Quality),
			attribute.Float64("resolution", opts.Resolution),
			attribute.Int("max_levels", opts.MaxLevels),
		),
	)
	defer span.End()

	strategy, err := louvain.ParseCandidateStrategy(opts.CandidateStrategy)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	r := rng.New(opts.RandomSeed)
	originalToCurrent := make([]int, base.N)
	for i := range originalToCurrent {
		originalToCurrent[i] = i
	}

	maxLevels := opts.MaxLevels
	if maxLevels <= 0 {
		maxLevels = 1
	}

	current := base
	var levels []Level
	var finalPartition *partition.Partition

	for level := 0; level < maxLevels; level++ {
		levelCtx, levelSpan := tracer.Start(ctx, "driver.runLevel",
			trace.WithAttributes(
				attribute.Int("level", level),
				attribute.Int("node_count", current.N),
			),
		)

		p := partition.New(current)

		var fixed map[int]bool
		if level == 0 && len(opts.FixedNodes) > 0 {
			fixed = map[int]bool{}
			for id := range opts.FixedNodes {
				if idx, ok := current.Index(id); ok {
					fixed[idx] = true
				}
			}
		}

		moveOpts := louvain.MoveLoopOptions{
			Quality:           opts.Quality,
			Resolution:        opts.Resolution,
			Directed:          opts.Directed,
			Strategy:          strategy,
			AllowNewCommunity: opts.AllowNewCommunity,
			MaxCommunitySize:  opts.MaxCommunitySize,
			MaxLocalPasses:    opts.MaxLocalPasses,
			Fixed:             fixed,
		}
		stats := louvain.RunLocalMoveLoop(levelCtx, p, r, moveOpts)

		mode, preserveMap := compactPolicy(opts.PreserveLabels, current, level)
		p.CompactCommunityIds(mode, preserveMap)

		effective := p
		if opts.Refine {
			refined := refine.Run(levelCtx, current, p, r, moveOpts)
			refMode, refMap := compactPolicy(opts.PreserveLabels, current, -1) // refinement ids never align with original node ids past level 0
			refined.CompactCommunityIds(refMode, refMap)
			effective = refined
		}

		levels = append(levels, Level{Graph: current, Partition: effective, Passes: stats.PassesRun, Converged: stats.Converged})
		finalPartition = effective

		for i, c := range originalToCurrent {
			originalToCurrent[i] = effective.NodeCommunity[c]
		}

		levelSpan.SetAttributes(attribute.Int("community_count", effective.Q))
		levelSpan.End()

		if effective.Q == current.N {
			break
		}

		next, err := coarsen.Coarsen(current, effective)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		current = next
	}

	// Scored on the base graph so unit-mode CPM counts original nodes,
	// not the last level's super-nodes.
	membership := make(map[string]string, base.N)
	for i, c := range originalToCurrent {
		membership[base.ID(i)] = strconv.Itoa(c)
	}
	q, _ := quality.Evaluate(ctx, base, membership, quality.EvaluateOptions{
		Quality:      opts.Quality,
		Resolution:   opts.Resolution,
		Directed:     opts.Directed,
		CPMSizeAware: opts.CPMSizeAware,
	})
	span.SetAttributes(
		attribute.Int("levels_run", len(levels)),
		attribute.Float64("quality", q),
	)

	return &Result{
		Levels:            levels,
		FinalGraph:        current,
		FinalPartition:    finalPartition,
		OriginalToCurrent: originalToCurrent,
		OriginalIDs:       base.IndexToID,
		Quality:           q,
	}, nil
}

func compactPolicy(pl PreserveLabels, g *graphadapter.Graph, level int) (partition.CompactMode, map[int]int) {
	if pl.Map != nil && level == 0 {
		m := map[int]int{}
		for id, key := range pl.Map {
			if idx, ok := g.Index(id); ok {
				m[idx] = key
			}
		}
		return partition.CompactPreserveMap, m
	}
	if pl.Keep {
		return partition.CompactKeepOldOrder, nil
	}
	return partition.CompactDefault, nil
}
