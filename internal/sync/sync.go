package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/gitsource"
	"github.com/conorfennell/flashdeck/internal/knol"
	"github.com/conorfennell/flashdeck/internal/parser"
	"github.com/conorfennell/flashdeck/internal/storage"
)

// ErrNoSource is returned when neither a deck path nor a git URL is configured.
var ErrNoSource = errors.New("sync: no deck source configured")

// DefaultDeckFile is the file read from a git checkout when none is configured.
const DefaultDeckFile = "cards.csv"

// Store is the persisted card collection.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Card, error)
	SaveAll(ctx context.Context, cards []domain.Card) error
}

// Source locates the deck to import.
type Source struct {
	Path     string // local CSV file
	GitURL   string // remote repository holding the deck
	File     string // deck file inside the repository
	ReposDir string // where repositories are checked out
}

// Report summarises one reconciliation run.
type Report struct {
	Path     string
	Imported int // cards read from the source
	Added    int
	Matched  int
	Skipped  []parser.RowError
	Total    int  // collection size after the run
	FellBack bool // the source was unusable and the stored collection was kept
}

// Reconciler merges a deck source into the card store.
type Reconciler struct {
	store  Store
	source Source
	newID  func() string
}

// NewReconciler returns a Reconciler importing from src into store.
func NewReconciler(store Store, src Source) *Reconciler {
	return &Reconciler{store: store, source: src, newID: knol.NewID}
}

// DeckPath resolves the local file to read, fetching the repository first
// when the source is remote. A Path that names a git remote is treated like
// GitURL.
func (r *Reconciler) DeckPath(ctx context.Context) (string, error) {
	remote := r.source.GitURL
	if remote == "" && gitsource.IsRemote(r.source.Path) {
		remote = r.source.Path
	}
	if remote != "" {
		file := r.source.File
		if file == "" {
			file = DefaultDeckFile
		}
		return gitsource.Checkout(ctx, remote, r.source.ReposDir, file)
	}
	if r.source.Path == "" {
		return "", ErrNoSource
	}
	return r.source.Path, nil
}

// Run imports the deck and saves the merged collection. An unreachable or
// unparsable source is not an error: the stored collection is kept as is
// and the report is marked FellBack. Only store failures are returned.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	path, err := r.DeckPath(ctx)
	if err != nil {
		slog.Warn("Deck source unavailable, using stored cards", "error", err)
		return r.fallback(ctx, path)
	}

	parsed, err := parser.ParseFile(path)
	if err != nil {
		slog.Warn("Failed to read deck, using stored cards", "path", path, "error", err)
		return r.fallback(ctx, path)
	}
	for _, skipped := range parsed.Skipped {
		slog.Warn("Skipping malformed row", "path", path, "line", skipped.Line,
			"expected", skipped.Expected, "got", skipped.Got, "error", skipped.Err)
	}

	report, err := r.merge(ctx, parsed.Cards)
	report.Path = path
	report.Skipped = parsed.Skipped
	if err != nil {
		return report, err
	}

	slog.Info("reconciliation complete",
		"path", path,
		"imported", report.Imported,
		"added", report.Added,
		"matched", report.Matched,
		"skipped", len(report.Skipped),
		"total", report.Total,
	)
	return report, nil
}

// ImportLegacy merges a JSON export of the browser version into the store.
func (r *Reconciler) ImportLegacy(ctx context.Context, in io.Reader) (Report, error) {
	cards, err := storage.ReadLegacyJSON(in)
	if err != nil {
		return Report{}, err
	}
	report, err := r.merge(ctx, cards)
	if err != nil {
		return report, err
	}
	slog.Info("legacy import complete", "imported", report.Imported, "added", report.Added, "total", report.Total)
	return report, nil
}

func (r *Reconciler) merge(ctx context.Context, imported []domain.Card) (Report, error) {
	stored, err := r.store.LoadAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("sync: load stored cards: %w", err)
	}

	merged := Merge(stored, imported, r.newID)
	if err := r.store.SaveAll(ctx, merged.Cards); err != nil {
		return Report{}, fmt.Errorf("sync: save merged cards: %w", err)
	}

	return Report{
		Imported: len(imported),
		Added:    merged.Added,
		Matched:  merged.Matched,
		Total:    len(merged.Cards),
	}, nil
}

func (r *Reconciler) fallback(ctx context.Context, path string) (Report, error) {
	stored, err := r.store.LoadAll(ctx)
	if err != nil {
		return Report{Path: path, FellBack: true}, fmt.Errorf("sync: load stored cards: %w", err)
	}
	if len(stored) == 0 {
		slog.Warn("No deck loaded and no stored cards; starting with an empty collection")
	}
	return Report{Path: path, FellBack: true, Total: len(stored)}, nil
}
