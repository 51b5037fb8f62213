package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lueurxax/idea-miner/internal/ingest"
)

var ingestRedditCmd = &cobra.Command{
	Use:   "ingest-reddit <subreddit>...",
	Short: "Queue recent posts from subreddit RSS feeds",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngestReddit,
}

var (
	redditFilter string
	redditLimit  int
)

func init() {
	ingestRedditCmd.Flags().StringVar(&redditFilter, "filter", "new", "Listing to read: "+strings.Join(ingest.RedditFilters, ", "))
	ingestRedditCmd.Flags().IntVar(&redditLimit, "limit", 25, "Maximum posts per subreddit")

	rootCmd.AddCommand(ingestRedditCmd)
}

func runIngestReddit(cmd *cobra.Command, args []string) error {
	if redditLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", redditLimit)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.app.IngestReddit(ctx, args, redditFilter, redditLimit)
	printStats(cmd.OutOrStdout(), stats)

	return err
}
