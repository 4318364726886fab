package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	communities "github.com/novagraph/communities/pkg/communities"
)

var (
	flagVerbose bool
	flagStats   bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect communities in a graph",
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print a per-community summary (size, internal/external weight, connectivity) to stderr")
	detectCmd.Flags().BoolVar(&flagStats, "stats", false, "print per-level iteration counts and convergence status to stderr")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	content, err := readInput(flagIn)
	if err != nil {
		return fail(exitUnexpectedError, "reading input: %w", err)
	}
	format, err := detectInFormat(flagIn, content)
	if err != nil {
		return err
	}
	graph, err := parseGraph(format, content)
	if err != nil {
		return fail(exitUnexpectedError, "%w", err)
	}
	logger.Debug("parsed input graph", "format", format, "nodes", len(graph.Nodes), "links", len(graph.Links))

	input, err := buildInput(graph)
	if err != nil {
		return err
	}

	opts := optionsFromFlags()
	logger.Info("starting community detection", "quality", opts.Quality, "directed", opts.Directed, "seed", opts.RandomSeed)
	clusters, err := communities.DetectClusters(input, opts)
	if err != nil {
		return fail(exitUnexpectedError, "%w", err)
	}
	logger.Info("community detection finished", "levels", clusters.Levels(), "quality", clusters.Quality())

	if flagStats {
		for _, s := range clusters.LevelStats() {
			logger.Info("level stats", "level", s.Level, "communities", s.CommunityCount, "passes", s.Passes, "converged", s.Converged)
		}
	}
	if flagVerbose {
		fmt.Fprint(os.Stderr, clusters.String())
	}

	out := os.Stdout
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fail(exitUnexpectedError, "opening output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if flagOutFormat == "dot" && flagLayers != "" {
		return fail(exitDOTUnavailable, "DOT output cannot represent a multilayer aggregation")
	}
	if err := writeMembership(out, graph, clusters, flagOutFormat, flagMembershipOnly, opts.Directed); err != nil {
		return err
	}
	return nil
}

// buildInput assembles either a single-graph or multilayer Input from
// the primary graph (flagIn/stdin) plus any --layers paths.
func buildInput(graph communities.Graph) (communities.Input, error) {
	if flagLayers == "" {
		return communities.Input{Graph: &graph}, nil
	}

	weights := parseLayerWeights(flagLayerWeights, 1+len(strings.Split(flagLayers, ",")))
	layers := []communities.Layer{{Graph: graph, Weight: weights[0]}}

	for i, path := range strings.Split(flagLayers, ",") {
		content, err := readInput(strings.TrimSpace(path))
		if err != nil {
			return communities.Input{}, fail(exitUnexpectedError, "reading layer %q: %w", path, err)
		}
		format, err := detectInFormat(path, content)
		if err != nil {
			return communities.Input{}, err
		}
		g, err := parseGraph(format, content)
		if err != nil {
			return communities.Input{}, fail(exitUnexpectedError, "parsing layer %q: %w", path, err)
		}
		layers = append(layers, communities.Layer{Graph: g, Weight: weights[i+1]})
	}
	return communities.Input{Layers: layers}, nil
}

func parseLayerWeights(spec string, n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	if spec == "" {
		return weights
	}
	for i, s := range strings.Split(spec, ",") {
		if i >= n {
			break
		}
		if w, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			weights[i] = w
		}
	}
	return weights
}
