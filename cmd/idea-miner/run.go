package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lueurxax/idea-miner/internal/core/domain"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch of unprocessed complaints",
	Long:  "Process one batch of unprocessed complaints and print the batch status. Exits non-zero when the status is \"error\".",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	status := rt.app.RunOnce(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), status)

	if status == domain.StatusError {
		return fmt.Errorf("batch finished with status %q", status)
	}

	return nil
}
