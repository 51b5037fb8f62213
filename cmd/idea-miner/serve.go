package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run batches on a poll interval and serve health, metrics and the HTTP trigger",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveSkipMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&serveSkipMigrate, "skip-migrate", false, "Do not apply migrations on startup")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !serveSkipMigrate {
		if err := rt.app.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := rt.app.RunServe(ctx); err != nil {
		return err
	}

	rt.logger.Info().Msg("application stopped")

	return nil
}
