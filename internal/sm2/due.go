package sm2

import (
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// NextDue returns the calendar day, in loc, on which the card becomes due
// again. The second result is false for a card that has never been reviewed.
func NextDue(card domain.Card, loc *time.Location) (time.Time, bool) {
	if !card.Reviewed() {
		return time.Time{}, false
	}
	next := card.LastReviewed.Add(time.Duration(card.Interval) * 24 * time.Hour)
	return StartOfDay(next.In(loc)), true
}

// IsDue reports whether the card should be reviewed on now's calendar day.
// Scheduling has day granularity: the time of the last review does not matter.
func IsDue(card domain.Card, now time.Time) bool {
	due, ok := NextDue(card, now.Location())
	if !ok {
		return true
	}
	return !due.After(StartOfDay(now))
}
