package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/console"
	"github.com/conorfennell/flashdeck/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the cards due today in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := reconcile(ctx, db); err != nil {
		return err
	}

	session, err := review.New(ctx, db)
	if err != nil {
		return err
	}
	return console.Run(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
}
