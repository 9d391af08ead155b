package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection keeps PRAGMAs and
	// in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadAll returns every stored card in collection order. Missing scheduling
// values and identities are filled with defaults.
func (db *DB) LoadAll(ctx context.Context) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, front, back, last_reviewed, interval_days, ease_factor, repetitions
		FROM cards ORDER BY position, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var (
			id           sql.NullString
			card         domain.Card
			lastReviewed sql.NullInt64
			interval     sql.NullInt64
			ease         sql.NullFloat64
			repetitions  sql.NullInt64
		)
		if err := rows.Scan(&id, &card.Front, &card.Back, &lastReviewed, &interval, &ease, &repetitions); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}

		card.ID = id.String
		if card.ID == "" {
			card.ID = knol.NewID()
		}
		if lastReviewed.Valid {
			t := time.UnixMilli(lastReviewed.Int64)
			card.LastReviewed = &t
		}
		card.Interval = int(interval.Int64)
		card.EaseFactor = domain.DefaultEaseFactor
		if ease.Valid {
			card.EaseFactor = ease.Float64
		}
		card.Repetitions = int(repetitions.Int64)

		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

// SaveAll replaces the whole stored collection with cards in one transaction,
// so a failed write leaves the previous collection intact.
func (db *DB) SaveAll(ctx context.Context, cards []domain.Card) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, position, front, back, content_hash, last_reviewed, interval_days, ease_factor, repetitions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer stmt.Close()

	for i, card := range cards {
		var lastReviewed sql.NullInt64
		if card.LastReviewed != nil {
			lastReviewed = sql.NullInt64{Int64: card.LastReviewed.UnixMilli(), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			card.ID,
			i,
			card.Front,
			card.Back,
			knol.Hash(card.Front, card.Back),
			lastReviewed,
			card.Interval,
			card.EaseFactor,
			card.Repetitions,
		); err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// AppendReview records a rating event.
func (db *DB) AppendReview(ctx context.Context, log domain.ReviewLog) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO review_log (card_id, reviewed_at, quality, interval_days, ease_factor)
		VALUES (?, ?, ?, ?, ?)
	`,
		log.CardID,
		log.Timestamp.UnixMilli(),
		int(log.Quality),
		log.Interval,
		log.EaseFactor,
	)
	if err != nil {
		return fmt.Errorf("failed to record review for card %s: %w", log.CardID, err)
	}
	return nil
}

// Reviews returns the rating history of a card, oldest first.
func (db *DB) Reviews(ctx context.Context, cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT card_id, reviewed_at, quality, interval_days, ease_factor
		FROM review_log WHERE card_id = ? ORDER BY reviewed_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			l  domain.ReviewLog
			ms int64
			q  int
		)
		if err := rows.Scan(&l.CardID, &ms, &q, &l.Interval, &l.EaseFactor); err != nil {
			return nil, fmt.Errorf("failed to scan review row for card %s: %w", cardID, err)
		}
		l.Timestamp = time.UnixMilli(ms)
		l.Quality = domain.Quality(q)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows for card %s: %w", cardID, err)
	}
	return logs, nil
}
