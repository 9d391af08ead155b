package domain

import "time"

const (
	// DefaultEaseFactor is the ease factor every new card starts with.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor the scheduler never lets a card drop below.
	MinEaseFactor = 1.3
	// MatureInterval is the interval, in days, from which a card counts as mature.
	MatureInterval = 30
)

// Card is a single front/back flashcard together with its scheduling state.
type Card struct {
	ID           string
	Front        string
	Back         string
	LastReviewed *time.Time // nil until the first review
	Interval     int        // days until the next review, 0 for a pristine card
	EaseFactor   float64
	Repetitions  int // consecutive reviews rated Good or Easy
}

// NewCard returns a never-reviewed card with default scheduling state.
func NewCard(id, front, back string) Card {
	return Card{
		ID:         id,
		Front:      front,
		Back:       back,
		EaseFactor: DefaultEaseFactor,
	}
}

// Reviewed reports whether the card has been rated at least once.
func (c Card) Reviewed() bool {
	return c.LastReviewed != nil
}

// Clone returns a copy of the card that shares no pointers with c.
func (c Card) Clone() Card {
	out := c
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		out.LastReviewed = &t
	}
	return out
}

// ReviewLog records a single rating event for a card.
type ReviewLog struct {
	CardID     string
	Timestamp  time.Time
	Quality    Quality
	Interval   int
	EaseFactor float64
}
