package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/storage"
	decksync "github.com/conorfennell/flashdeck/internal/sync"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "flashdeck",
	Short:         "Spaced-repetition flashcard reviewer",
	Long:          "Flashdeck imports a CSV deck, schedules cards with SM-2 and reviews the ones due today in the terminal or the browser.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded
		slog.SetDefault(newLogger(cfg.Log))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func newLogger(c config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openStore opens the configured database.
func openStore(ctx context.Context) (*storage.DB, error) {
	db, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DB, err)
	}
	slog.Debug("Database opened", "path", cfg.DB)
	return db, nil
}

// hasSource reports whether a deck to import is configured.
func hasSource() bool {
	return cfg.Deck.Path != "" || cfg.Deck.GitURL != ""
}

func newReconciler(db *storage.DB) *decksync.Reconciler {
	return decksync.NewReconciler(db, decksync.Source{
		Path:     cfg.Deck.Path,
		GitURL:   cfg.Deck.GitURL,
		File:     cfg.Deck.File,
		ReposDir: cfg.Deck.ReposDir,
	})
}

// reconcile imports the configured deck, if any, before a session starts.
func reconcile(ctx context.Context, db *storage.DB) error {
	if !hasSource() {
		return nil
	}
	_, err := newReconciler(db).Run(ctx)
	return err
}
