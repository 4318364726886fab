package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/novagraph/communities/internal/apperrors"
	communities "github.com/novagraph/communities/pkg/communities"
)

var flagMembership string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score an externally supplied membership against a graph",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&flagMembership, "membership", "", "path to a membership document (JSON or CSV, required)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
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

	if flagMembership == "" {
		return fail(exitMissingMembership, "evaluate requires --membership")
	}
	memContent, err := readInput(flagMembership)
	if err != nil {
		return fail(exitUnexpectedError, "reading membership: %w", err)
	}
	memFormat, err := detectInFormat(flagMembership, memContent)
	if err != nil {
		return err
	}
	membership, err := parseMembership(memFormat, memContent)
	if err != nil {
		return fail(exitUnexpectedError, "%w", err)
	}

	opts := optionsFromFlags()
	logger.Info("evaluating membership", "quality", opts.Quality, "nodes", len(graph.Nodes), "membership_entries", len(membership))
	q, err := communities.EvaluateQuality(graph, membership, opts)
	if err != nil {
		if apperrors.IsMissingMembership(err) {
			return fail(exitMissingMembership, "%w", err)
		}
		return fail(exitUnexpectedError, "%w", err)
	}

	out := os.Stdout
	if flagOut != "" {
		f, createErr := os.Create(flagOut)
		if createErr != nil {
			return fail(exitUnexpectedError, "opening output: %w", createErr)
		}
		defer f.Close()
		out = f
	}
	_, err = out.WriteString(formatQuality(q) + "\n")
	return err
}
