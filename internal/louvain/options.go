// Package louvain implements the per-level local-move loop (spec.md
// §4.4): candidate-community enumeration strategies and the greedy,
// randomized sweep that repeatedly relocates nodes to their best
// candidate community until no further gain is found.
package louvain

import "fmt"

// CandidateStrategy selects how a node's candidate move targets are
// enumerated.
type CandidateStrategy int

const (
	StrategyNeighbors CandidateStrategy = iota
	StrategyAll
	StrategyRandomAny
	StrategyRandomNeighbor
)

// ParseCandidateStrategy maps the CLI/options string form to a
// CandidateStrategy.
func ParseCandidateStrategy(s string) (CandidateStrategy, error) {
	switch s {
	case "", "neighbors":
		return StrategyNeighbors, nil
	case "all":
		return StrategyAll, nil
	case "random":
		return StrategyRandomAny, nil
	case "random-neighbor":
		return StrategyRandomNeighbor, nil
	default:
		return 0, fmt.Errorf("louvain: unknown candidate strategy %q", s)
	}
}

// MoveLoopOptions configures RunLocalMoveLoop.
type MoveLoopOptions struct {
	Quality           string // "modularity" | "cpm"
	Resolution        float64
	Directed          bool
	Strategy          CandidateStrategy
	AllowNewCommunity bool
	MaxCommunitySize  float64 // math.Inf(1), or any value <= 0 (the zero value), for unlimited
	MaxLocalPasses    int

	// Fixed, when non-nil, marks node indices immobile (finest level
	// only, per spec.md §4.4).
	Fixed map[int]bool

	// Admissible, when non-nil, additionally constrains which
	// candidate communities are legal for a given node — used by
	// Leiden refinement to stay within a macro-community (spec.md
	// §4.5). Candidates failing this check are skipped entirely.
	Admissible func(v, c int) bool
}
