package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	decksync "github.com/conorfennell/flashdeck/internal/sync"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the configured deck, or a JSON export with --legacy",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	importCmd.Flags().String("legacy", "", "JSON export of the browser version to merge")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	reconciler := newReconciler(db)

	var report decksync.Report
	if legacy, _ := cmd.Flags().GetString("legacy"); legacy != "" {
		f, err := os.Open(legacy)
		if err != nil {
			return err
		}
		defer f.Close()
		if report, err = reconciler.ImportLegacy(ctx, f); err != nil {
			return err
		}
	} else {
		if !hasSource() {
			return fmt.Errorf("import: %w (set deck.path or deck.git_url)", decksync.ErrNoSource)
		}
		if report, err = reconciler.Run(ctx); err != nil {
			return err
		}
		if report.FellBack {
			fmt.Fprintln(out, "Deck could not be read, kept the stored cards.")
		}
	}

	fmt.Fprintf(out, "Imported %d cards (%d new, %d updated, %d skipped rows). %d cards stored.\n",
		report.Imported, report.Added, report.Matched, len(report.Skipped), report.Total)
	for _, row := range report.Skipped {
		fmt.Fprintf(out, "  skipped %v\n", row)
	}
	return nil
}
