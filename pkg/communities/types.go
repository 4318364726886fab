// Package communities is the public API: detect communities in a
// weighted graph (optionally multilayer) by multilevel modularity or
// CPM optimization with optional Leiden refinement (spec.md §6).
package communities

import "github.com/novagraph/communities/internal/multilayer"

// Node, Link, Graph, and Layer mirror the internal multilayer
// aggregator's input shapes; they are exported here as the public
// vocabulary so callers never need to import an internal package.
type (
	Node  = multilayer.Node
	Link  = multilayer.Link
	Graph = multilayer.Graph
	Layer = multilayer.Layer
)

// Input is either a single Graph or a non-empty slice of Layers —
// exactly one must be set.
type Input struct {
	Graph  *Graph
	Layers []Layer
}
