package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/flashdeck/internal/gitsource"
	"github.com/conorfennell/flashdeck/internal/review"
	decksync "github.com/conorfennell/flashdeck/internal/sync"
	"github.com/conorfennell/flashdeck/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review page over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	var reconciler *decksync.Reconciler
	if hasSource() {
		reconciler = newReconciler(db)
	}
	srv, err := web.NewServer(session, reconciler)
	if err != nil {
		return err
	}

	if cfg.Deck.Watch && cfg.Deck.Path != "" && !gitsource.IsRemote(cfg.Deck.Path) {
		watcher, err := decksync.NewWatcher(cfg.Deck.Path, func() {
			slog.Info("Deck changed, re-importing", "path", cfg.Deck.Path)
			if _, err := srv.Resync(ctx); err != nil {
				slog.Error("Failed to re-import deck", "error", err)
			}
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("HTTP server shut down gracefully")
	return nil
}
