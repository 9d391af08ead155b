package sm2

import (
	"math"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Params holds the constants of the modified SM-2 algorithm.
type Params struct {
	MinEaseFactor  float64 // floor applied after every review
	FirstInterval  int     // days after the first qualifying review
	SecondInterval int     // days after the second qualifying review
	PartialFactor  float64 // interval multiplier for a Partial rating
	PartialPenalty float64 // ease factor decrease for a Partial rating
}

// DefaultParams returns the parameters the reviewer ships with.
func DefaultParams() *Params {
	return &Params{
		MinEaseFactor:  domain.MinEaseFactor,
		FirstInterval:  1,
		SecondInterval: 6,
		PartialFactor:  0.5,
		PartialPenalty: 0.15,
	}
}

var defaultParams = DefaultParams()

// Schedule applies a rating to a card using the default parameters.
func Schedule(card domain.Card, q domain.Quality, now time.Time) domain.Card {
	return defaultParams.Next(card, q, now)
}

// Next returns the card's scheduling state after it was rated q at now.
// The input card is not modified. Out-of-range ratings are clamped.
//
// Unlike classical SM-2, a Partial rating keeps the repetition count and
// halves the interval instead of restarting the card.
func (p *Params) Next(card domain.Card, q domain.Quality, now time.Time) domain.Card {
	next := card.Clone()
	q = q.Clamp()

	switch {
	case q >= domain.Good:
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.Interval = p.FirstInterval
		case 2:
			next.Interval = p.SecondInterval
		default:
			next.Interval = int(math.Round(float64(next.Interval) * next.EaseFactor))
		}
		d := float64(domain.Easy - q)
		next.EaseFactor += 0.1 - d*(0.08+d*0.02)
	case q <= domain.Hard:
		next.Repetitions = 0
		next.Interval = p.FirstInterval
	default:
		next.Interval = max(1, int(math.Round(float64(next.Interval)*p.PartialFactor)))
		next.EaseFactor -= p.PartialPenalty
	}

	if next.EaseFactor < p.MinEaseFactor {
		next.EaseFactor = p.MinEaseFactor
	}

	reviewed := now
	next.LastReviewed = &reviewed
	return next
}
