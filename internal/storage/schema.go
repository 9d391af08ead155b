package storage

// Scheduling columns are nullable so rows written by older versions load
// with default values instead of failing.
const schema = `
-- The 'cards' table stores every flashcard and its scheduling state.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    last_reviewed INTEGER, -- unix milliseconds, NULL until the first review
    interval_days INTEGER,
    ease_factor REAL,
    repetitions INTEGER
);

CREATE INDEX IF NOT EXISTS idx_cards_content_hash ON cards(content_hash);

-- The 'review_log' table keeps one row per rating event.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    reviewed_at INTEGER NOT NULL, -- unix milliseconds
    quality INTEGER NOT NULL,
    interval_days INTEGER NOT NULL,
    ease_factor REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_log_card ON review_log(card_id);
`
