package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// testDB opens a temporary SQLite database and registers cleanup.
func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAllAndLoadAll(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	reviewed := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	cards := []domain.Card{
		domain.NewCard("b-id", "merci", "thanks"),
		{ID: "a-id", Front: "chat", Back: "cat", LastReviewed: &reviewed, Interval: 6, EaseFactor: 2.36, Repetitions: 2},
		domain.NewCard("c-id", "chien", "dog"),
	}

	if err := db.SaveAll(ctx, cards); err != nil {
		t.Fatalf("SaveAll() returned an unexpected error: %v", err)
	}

	loaded, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() returned an unexpected error: %v", err)
	}
	if len(loaded) != len(cards) {
		t.Fatalf("Expected %d cards, but got %d", len(cards), len(loaded))
	}

	for i, want := range cards {
		got := loaded[i]
		if got.ID != want.ID || got.Front != want.Front || got.Back != want.Back {
			t.Errorf("card %d: expected %s/%s/%s, got %s/%s/%s", i, want.ID, want.Front, want.Back, got.ID, got.Front, got.Back)
		}
		if got.Interval != want.Interval || got.EaseFactor != want.EaseFactor || got.Repetitions != want.Repetitions {
			t.Errorf("card %d: scheduling state mismatch, expected %+v, got %+v", i, want, got)
		}
		if (got.LastReviewed == nil) != (want.LastReviewed == nil) {
			t.Errorf("card %d: last reviewed presence mismatch", i)
		}
		if want.LastReviewed != nil && !got.LastReviewed.Equal(*want.LastReviewed) {
			t.Errorf("card %d: expected last reviewed %v, got %v", i, *want.LastReviewed, *got.LastReviewed)
		}
	}
}

func TestSaveAllReplacesCollection(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	if err := db.SaveAll(ctx, []domain.Card{
		domain.NewCard("1", "un", "one"),
		domain.NewCard("2", "deux", "two"),
	}); err != nil {
		t.Fatalf("first SaveAll: %v", err)
	}
	if err := db.SaveAll(ctx, []domain.Card{domain.NewCard("3", "trois", "three")}); err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}

	cards, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "3" {
		t.Errorf("Expected only card 3 after replacement, but got %+v", cards)
	}
}

func TestSaveAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	original := []domain.Card{domain.NewCard("1", "un", "one")}
	if err := db.SaveAll(ctx, original); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	// Duplicate primary keys make the second insert fail mid-transaction.
	broken := []domain.Card{
		domain.NewCard("x", "deux", "two"),
		domain.NewCard("x", "trois", "three"),
	}
	if err := db.SaveAll(ctx, broken); err == nil {
		t.Fatal("Expected SaveAll to fail on duplicate IDs")
	}

	loaded, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "1" {
		t.Errorf("Expected the previous collection to survive, got %+v", loaded)
	}
}

func TestLoadAllFillsDefaults(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	// A row written before scheduling columns were populated.
	if _, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (id, position, front, back, content_hash)
		VALUES (NULL, 0, 'bonjour', 'hello', 'h')
	`); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	cards, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("Expected 1 card, but got %d", len(cards))
	}
	c := cards[0]
	if c.ID == "" {
		t.Error("Expected a generated ID")
	}
	if c.Interval != 0 || c.EaseFactor != domain.DefaultEaseFactor || c.Repetitions != 0 || c.LastReviewed != nil {
		t.Errorf("Expected default scheduling state, got %+v", c)
	}
}

func TestLoadAllEmpty(t *testing.T) {
	cards, err := testDB(t).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("Expected no cards, got %d", len(cards))
	}
}

func TestAppendReviewAndReviews(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	first := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	logs := []domain.ReviewLog{
		{CardID: "c1", Timestamp: first, Quality: domain.Good, Interval: 1, EaseFactor: 2.5},
		{CardID: "c2", Timestamp: first, Quality: domain.Again, Interval: 1, EaseFactor: 2.5},
		{CardID: "c1", Timestamp: first.AddDate(0, 0, 1), Quality: domain.Easy, Interval: 6, EaseFactor: 2.6},
	}
	for _, l := range logs {
		if err := db.AppendReview(ctx, l); err != nil {
			t.Fatalf("AppendReview: %v", err)
		}
	}

	got, err := db.Reviews(ctx, "c1")
	if err != nil {
		t.Fatalf("Reviews: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 reviews for c1, got %d", len(got))
	}
	if got[0].Quality != domain.Good || got[1].Quality != domain.Easy {
		t.Errorf("Expected Good then Easy, got %v then %v", got[0].Quality, got[1].Quality)
	}
	if !got[1].Timestamp.Equal(first.AddDate(0, 0, 1)) || got[1].Interval != 6 {
		t.Errorf("Unexpected second review: %+v", got[1])
	}
}

func TestReadLegacyJSON(t *testing.T) {
	input := `[
		{"id": 1714000000000.123, "front": "chat", "back": "cat", "lastReviewed": 1714000000000, "interval": 6, "easeFactor": 2.36, "repetitions": 2},
		{"front": "chien", "back": "dog"},
		{"id": "keep-me", "front": "oiseau", "back": "bird", "lastReviewed": null}
	]`

	cards, err := ReadLegacyJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadLegacyJSON: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("Expected 3 cards, got %d", len(cards))
	}

	full := cards[0]
	if full.ID != "1714000000000.123" {
		t.Errorf("Expected numeric ID to be kept, got '%s'", full.ID)
	}
	if full.LastReviewed == nil || full.LastReviewed.UnixMilli() != 1714000000000 {
		t.Errorf("Unexpected last reviewed: %v", full.LastReviewed)
	}
	if full.Interval != 6 || full.EaseFactor != 2.36 || full.Repetitions != 2 {
		t.Errorf("Unexpected scheduling state: %+v", full)
	}

	sparse := cards[1]
	if sparse.ID == "" {
		t.Error("Expected an ID to be generated")
	}
	if sparse.Interval != 0 || sparse.EaseFactor != 2.5 || sparse.Repetitions != 0 || sparse.LastReviewed != nil {
		t.Errorf("Expected defaults, got %+v", sparse)
	}

	if cards[2].ID != "keep-me" || cards[2].LastReviewed != nil {
		t.Errorf("Unexpected third card: %+v", cards[2])
	}
}

func TestReadLegacyJSONInvalid(t *testing.T) {
	if _, err := ReadLegacyJSON(strings.NewReader(`{"not": "an array"}`)); err == nil {
		t.Error("Expected an error for a non-array document")
	}
}
