package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/console"
	"github.com/conorfennell/flashdeck/internal/review"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics, or the review history of one card with --card",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("card", "", "ID of a card whose review history to show")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if id, _ := cmd.Flags().GetString("card"); id != "" {
		logs, err := db.Reviews(ctx, id)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Fprintf(out, "No reviews recorded for card %s\n", id)
			return nil
		}
		for _, l := range logs {
			fmt.Fprintf(out, "%s  %-7s interval %d day(s)  ease %.2f\n",
				l.Timestamp.Local().Format(time.DateTime), l.Quality, l.Interval, l.EaseFactor)
		}
		return nil
	}

	session, err := review.New(ctx, db)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Cards to review: %d\n", session.Remaining())
	console.PrintStats(out, session.Stats())
	return nil
}
