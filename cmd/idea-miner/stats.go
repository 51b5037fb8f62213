package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the generation log",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsSince time.Duration

func init() {
	statsCmd.Flags().DurationVar(&statsSince, "since", 24*time.Hour, "Look back window")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.app.Stats(ctx, time.Now().Add(-statsSince))
	if err != nil {
		return err
	}

	ideas, err := rt.app.IdeaCount(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ideas stored:      %d\n", ideas)
	fmt.Fprintf(w, "attempts:          %d\n", s.Attempts)
	fmt.Fprintf(w, "successes:         %d (%.1f%%)\n", s.Successes, s.SuccessRate()*100)
	fmt.Fprintf(w, "prompt tokens:     %d\n", s.PromptTokens)
	fmt.Fprintf(w, "completion tokens: %d\n", s.CompletionTokens)
	fmt.Fprintf(w, "cost (USD):        %.6f\n", s.CostUSD)

	return nil
}
