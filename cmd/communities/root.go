package main

import (
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/novagraph/communities/internal/logging"
	communities "github.com/novagraph/communities/pkg/communities"
)

var (
	flagIn             string
	flagOut            string
	flagOutFormat      string
	flagMembershipOnly bool
	flagLayers         string
	flagLayerWeights   string

	flagQuality           string
	flagResolution        float64
	flagDirected          bool
	flagSeed              int64
	flagCandidateStrategy string
	flagAllowNewCommunity bool
	flagMaxCommunitySize  float64
	flagNoRefine          bool
	flagFixedNodes        string
	flagPreserveLabels    bool
	flagMaxLevels         int
	flagMaxLocalPasses    int
	flagCPMMode           string
	flagStrict            bool

	flagLogLevel string
	flagLogJSON  bool
	flagQuiet    bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "communities",
	Short: "Detect and evaluate communities in weighted graphs",
	Long:  `communities runs multilevel modularity/CPM community detection (Louvain/Leiden style) over a weighted, optionally multilayer graph, or scores an externally supplied membership against one.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{Level: parseLogLevel(flagLogLevel), JSON: flagLogJSON, Quiet: flagQuiet})
	},
}

func parseLogLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagIn, "in", "", "input graph path (default: stdin)")
	rootCmd.PersistentFlags().StringVar(&flagOut, "out", "", "output path (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&flagOutFormat, "out-format", "json", "output format: json, csv, or dot")
	rootCmd.PersistentFlags().BoolVar(&flagMembershipOnly, "membership-only", false, "JSON output: emit only the membership map")
	rootCmd.PersistentFlags().StringVar(&flagLayers, "layers", "", "comma-separated paths to additional multilayer graphs")
	rootCmd.PersistentFlags().StringVar(&flagLayerWeights, "layer-weights", "", "comma-separated per-layer weights, aligned with --in plus --layers")

	rootCmd.PersistentFlags().StringVar(&flagQuality, "quality", "modularity", "quality metric: modularity or cpm")
	rootCmd.PersistentFlags().Float64Var(&flagResolution, "resolution", 1.0, "CPM resolution parameter gamma")
	rootCmd.PersistentFlags().BoolVar(&flagDirected, "directed", false, "treat the graph as directed (Leicht-Newman modularity)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 42, "PRNG seed for the node visit-order shuffle and random candidate sampling")
	rootCmd.PersistentFlags().StringVar(&flagCandidateStrategy, "candidate-strategy", "neighbors", "neighbors, all, random, or random-neighbor")
	rootCmd.PersistentFlags().BoolVar(&flagAllowNewCommunity, "allow-new-community", false, "allow a node to found a fresh singleton community")
	rootCmd.PersistentFlags().Float64Var(&flagMaxCommunitySize, "max-community-size", math.Inf(1), "cap on a community's total size")
	rootCmd.PersistentFlags().BoolVar(&flagNoRefine, "no-refine", false, "skip Leiden-style refinement after each level's local-move pass")
	rootCmd.PersistentFlags().StringVar(&flagFixedNodes, "fixed-nodes", "", "comma-separated node ids immobile at the finest level")
	rootCmd.PersistentFlags().BoolVar(&flagPreserveLabels, "preserve-labels", false, "keep the finest level's natural community order instead of sorting by size")
	rootCmd.PersistentFlags().IntVar(&flagMaxLevels, "max-levels", 50, "maximum coarsening levels")
	rootCmd.PersistentFlags().IntVar(&flagMaxLocalPasses, "max-local-passes", 20, "maximum local-move passes per level")
	rootCmd.PersistentFlags().StringVar(&flagCPMMode, "cpm-mode", "unit", "unit or size-aware")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "evaluate: fail instead of singleton-fallback on unmapped nodes")

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, or error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress log output")
}

func optionsFromFlags() communities.Options {
	opts := communities.DefaultOptions()
	opts.Quality = flagQuality
	opts.Resolution = flagResolution
	opts.Directed = flagDirected
	opts.RandomSeed = flagSeed
	opts.CandidateStrategy = flagCandidateStrategy
	opts.AllowNewCommunity = flagAllowNewCommunity
	opts.MaxCommunitySize = flagMaxCommunitySize
	opts.Refine = !flagNoRefine
	opts.FixedNodes = splitNonEmpty(flagFixedNodes)
	opts.PreserveLabels = communities.PreserveLabels{Keep: flagPreserveLabels}
	opts.MaxLevels = flagMaxLevels
	opts.MaxLocalPasses = flagMaxLocalPasses
	opts.CPMMode = flagCPMMode
	opts.Strict = flagStrict
	return opts
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
