package communities

import (
	"fmt"
	"math"

	"github.com/novagraph/communities/internal/apperrors"
	"github.com/novagraph/communities/internal/louvain"
)

// PreserveLabels mirrors the options table's preserveLabels: false |
// true | Map. Map, when non-nil, wins over Keep.
type PreserveLabels struct {
	Keep bool
	Map  map[string]int
}

// Options configures DetectClusters and EvaluateQuality; see
// DefaultOptions for the documented defaults.
type Options struct {
	Quality           string // "modularity" | "cpm"
	Resolution        float64
	Directed          bool
	RandomSeed        int64
	CandidateStrategy string // "neighbors" | "all" | "random" | "random-neighbor"
	AllowNewCommunity bool
	MaxCommunitySize  float64
	Refine            bool
	FixedNodes        []string
	PreserveLabels    PreserveLabels
	LinkWeight        func(Link) float64
	NodeSize          func(Node) float64
	MaxLevels         int
	MaxLocalPasses    int
	CPMMode           string // "unit" | "size-aware"
	Strict            bool   // EvaluateQuality only: fail on unmapped nodes instead of singleton fallback
}

// DefaultOptions returns the documented defaults (spec.md §6).
func DefaultOptions() Options {
	return Options{
		Quality:           "modularity",
		Resolution:        1.0,
		Directed:          false,
		RandomSeed:        42,
		CandidateStrategy: "neighbors",
		AllowNewCommunity: false,
		MaxCommunitySize:  math.Inf(1),
		Refine:            true,
		MaxLevels:         50,
		MaxLocalPasses:    20,
		CPMMode:           "unit",
	}
}

// Validate rejects unrecognized enum values, a NaN resolution, and a
// non-positive maxCommunitySize, maxLevels or maxLocalPasses before any
// graph work begins.
func (o Options) Validate() error {
	switch o.Quality {
	case "modularity", "cpm":
	default:
		return fmt.Errorf("%w: quality %q", apperrors.ErrInput, o.Quality)
	}
	switch o.CPMMode {
	case "unit", "size-aware":
	default:
		return fmt.Errorf("%w: cpmMode %q", apperrors.ErrInput, o.CPMMode)
	}
	if _, err := louvain.ParseCandidateStrategy(o.CandidateStrategy); err != nil {
		return fmt.Errorf("%w: candidateStrategy %q", apperrors.ErrInput, o.CandidateStrategy)
	}
	if math.IsNaN(o.Resolution) {
		return fmt.Errorf("%w: resolution is NaN", apperrors.ErrInput)
	}
	if o.MaxCommunitySize <= 0 {
		return fmt.Errorf("%w: maxCommunitySize must be positive", apperrors.ErrInput)
	}
	if o.MaxLevels <= 0 {
		return fmt.Errorf("%w: maxLevels must be positive", apperrors.ErrInput)
	}
	if o.MaxLocalPasses <= 0 {
		return fmt.Errorf("%w: maxLocalPasses must be positive", apperrors.ErrInput)
	}
	return nil
}

func (o Options) cpmSizeAware() bool { return o.CPMMode == "size-aware" }
