package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lueurxax/idea-miner/internal/ingest"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [file]",
	Short: "Queue complaints from a JSONL file or stdin",
	Long:  "Queue complaints read as JSON lines of the form {\"external_id\": \"...\", \"body\": \"...\"}. Reads stdin when no file is given or the file is \"-\".",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnqueue,
}

var enqueueSource string

func init() {
	enqueueCmd.Flags().StringVar(&enqueueSource, "source", "manual", "Source label stored with every queued row")

	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	var in io.Reader = cmd.InOrStdin()

	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		in = f
	}

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.app.Enqueue(ctx, in, enqueueSource)
	printStats(cmd.OutOrStdout(), stats)

	return err
}

func printStats(w io.Writer, s ingest.Stats) {
	fmt.Fprintf(w, "read=%d inserted=%d duplicates=%d invalid=%d\n", s.Read, s.Inserted, s.Duplicates, s.Invalid)
}
