// Package refine implements the Leiden-style refinement pass (spec.md
// §4.5): a fresh singleton partition is locally optimized, but a
// node's candidate moves are constrained to communities founded
// within its own macro-community, so a greedy Louvain pass can be
// subdivided into tighter, better-connected pieces.
package refine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/novagraph/communities/internal/graphadapter"
	"github.com/novagraph/communities/internal/louvain"
	"github.com/novagraph/communities/internal/partition"
	"github.com/novagraph/communities/internal/rng"
)

var tracer = otel.Tracer("communities.refine")

// Run builds a fresh singleton partition over g, records each node's
// macro community from coarse, then runs the local-move loop
// constrained so that a node may only join a refinement community
// founded within its own macro community. opts.AllowNewCommunity is
// forced off: refinement never creates a macro-less singleton.
// opts.Fixed, opts.MaxCommunitySize, and the quality-delta settings
// carry through unchanged (spec.md §4.5: refinement applies "the same
// quality-delta" plus maxCommunitySize and fixed-node constraints as
// the local-move loop). The returned partition subdivides (never
// merges across) coarse's communities.
func Run(ctx context.Context, g *graphadapter.Graph, coarse *partition.Partition, r *rng.Source, opts louvain.MoveLoopOptions) *partition.Partition {
	ctx, span := tracer.Start(ctx, "refine.Run", trace.WithAttributes(
		attribute.Int("node_count", g.N),
		attribute.Int("macro_community_count", coarse.Q),
	))
	defer span.End()

	ref := partition.New(g)

	macro := make([]int, g.N)
	copy(macro, coarse.NodeCommunity)

	// ref starts with singleton community i founded by node i, so its
	// macro group is macro[i]. This mapping never needs to grow since
	// AllowNewCommunity is forced off below, so ref.Q stays fixed at N.
	commMacro := make([]int, ref.Q)
	copy(commMacro, macro)

	opts.AllowNewCommunity = false
	opts.Admissible = func(v, c int) bool {
		return commMacro[c] == macro[v]
	}

	louvain.RunLocalMoveLoop(ctx, ref, r, opts)
	span.SetAttributes(attribute.Int("refined_community_count", ref.Q))
	return ref
}
