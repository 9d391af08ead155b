package sm2

import (
	"math"
	"testing"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
)

var reviewTime = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

func sampleCards() []domain.Card {
	last := reviewTime.AddDate(0, 0, -3)
	return []domain.Card{
		domain.NewCard("pristine", "un", "one"),
		{ID: "first", Interval: 1, EaseFactor: 2.5, Repetitions: 1, LastReviewed: &last},
		{ID: "second", Interval: 6, EaseFactor: 2.36, Repetitions: 2, LastReviewed: &last},
		{ID: "long", Interval: 40, EaseFactor: 2.7, Repetitions: 5, LastReviewed: &last},
		{ID: "floor", Interval: 3, EaseFactor: 1.3, Repetitions: 3, LastReviewed: &last},
		{ID: "odd", Interval: 7, EaseFactor: 1.35, Repetitions: 0, LastReviewed: &last},
	}
}

// easeDelta mirrors the ease adjustment for qualifying ratings.
func easeDelta(q domain.Quality) float64 {
	d := float64(4 - int(q))
	return 0.1 - d*(0.08+d*0.02)
}

func TestEaseFactorNeverBelowFloor(t *testing.T) {
	for _, card := range sampleCards() {
		for _, q := range domain.Qualities() {
			next := Schedule(card, q, reviewTime)
			if next.EaseFactor < domain.MinEaseFactor {
				t.Errorf("card %s rated %v: ease factor %.4f below floor", card.ID, q, next.EaseFactor)
			}
		}
	}
}

func TestQualifyingReviews(t *testing.T) {
	for _, card := range sampleCards() {
		for _, q := range []domain.Quality{domain.Good, domain.Easy} {
			next := Schedule(card, q, reviewTime)

			if next.Repetitions != card.Repetitions+1 {
				t.Errorf("card %s rated %v: expected repetitions %d, got %d", card.ID, q, card.Repetitions+1, next.Repetitions)
			}

			var wantInterval int
			switch card.Repetitions {
			case 0:
				wantInterval = 1
			case 1:
				wantInterval = 6
			default:
				wantInterval = int(math.Round(float64(card.Interval) * card.EaseFactor))
			}
			if next.Interval != wantInterval {
				t.Errorf("card %s rated %v: expected interval %d, got %d", card.ID, q, wantInterval, next.Interval)
			}

			wantEase := math.Max(domain.MinEaseFactor, card.EaseFactor+easeDelta(q))
			if math.Abs(next.EaseFactor-wantEase) > 1e-9 {
				t.Errorf("card %s rated %v: expected ease %.4f, got %.4f", card.ID, q, wantEase, next.EaseFactor)
			}
		}
	}
}

func TestFailedReviewsReset(t *testing.T) {
	for _, card := range sampleCards() {
		for _, q := range []domain.Quality{domain.Again, domain.Hard} {
			next := Schedule(card, q, reviewTime)
			if next.Repetitions != 0 || next.Interval != 1 {
				t.Errorf("card %s rated %v: expected repetitions 0 and interval 1, got %d and %d",
					card.ID, q, next.Repetitions, next.Interval)
			}
			if next.EaseFactor != card.EaseFactor {
				t.Errorf("card %s rated %v: expected ease to stay %.2f, got %.2f", card.ID, q, card.EaseFactor, next.EaseFactor)
			}
		}
	}
}

func TestPartialReview(t *testing.T) {
	for _, card := range sampleCards() {
		next := Schedule(card, domain.Partial, reviewTime)

		if next.Repetitions != card.Repetitions {
			t.Errorf("card %s: expected repetitions to stay %d, got %d", card.ID, card.Repetitions, next.Repetitions)
		}
		wantInterval := max(1, int(math.Round(float64(card.Interval)*0.5)))
		if next.Interval != wantInterval {
			t.Errorf("card %s: expected interval %d, got %d", card.ID, wantInterval, next.Interval)
		}
		wantEase := math.Max(1.3, card.EaseFactor-0.15)
		if next.EaseFactor != wantEase {
			t.Errorf("card %s: expected ease %.4f, got %.4f", card.ID, wantEase, next.EaseFactor)
		}
	}
}

func TestScheduleStampsReviewTime(t *testing.T) {
	for _, q := range domain.Qualities() {
		next := Schedule(domain.NewCard("c", "f", "b"), q, reviewTime)
		if next.LastReviewed == nil || !next.LastReviewed.Equal(reviewTime) {
			t.Errorf("rated %v: expected last reviewed %v, got %v", q, reviewTime, next.LastReviewed)
		}
		if next.Interval < 1 {
			t.Errorf("rated %v: expected interval >= 1 after a review, got %d", q, next.Interval)
		}
	}
}

func TestScheduleDoesNotMutateInput(t *testing.T) {
	last := reviewTime.AddDate(0, 0, -1)
	card := domain.Card{ID: "c", Interval: 6, EaseFactor: 2.5, Repetitions: 2, LastReviewed: &last}
	_ = Schedule(card, domain.Easy, reviewTime)

	if card.Interval != 6 || card.Repetitions != 2 || card.EaseFactor != 2.5 || !card.LastReviewed.Equal(last) {
		t.Errorf("Expected input card to be unchanged, got %+v", card)
	}
}

func TestQualityClamping(t *testing.T) {
	for _, card := range sampleCards() {
		if low, again := Schedule(card, -5, reviewTime), Schedule(card, domain.Again, reviewTime); !sameState(low, again) {
			t.Errorf("card %s: quality -5 gave %+v, Again gave %+v", card.ID, low, again)
		}
		if high, easy := Schedule(card, 99, reviewTime), Schedule(card, domain.Easy, reviewTime); !sameState(high, easy) {
			t.Errorf("card %s: quality 99 gave %+v, Easy gave %+v", card.ID, high, easy)
		}
	}
}

func sameState(a, b domain.Card) bool {
	return a.Interval == b.Interval &&
		a.EaseFactor == b.EaseFactor &&
		a.Repetitions == b.Repetitions &&
		a.LastReviewed.Equal(*b.LastReviewed)
}

func TestThreeGoodReviews(t *testing.T) {
	card := domain.NewCard("c", "chat", "cat")
	day := reviewTime
	wantEase := card.EaseFactor

	for i := range 3 {
		easeBefore, intervalBefore := card.EaseFactor, card.Interval
		card = Schedule(card, domain.Good, day)
		wantEase += easeDelta(domain.Good)

		wantInterval := []int{1, 6, int(math.Round(float64(intervalBefore) * easeBefore))}[i]
		if card.Interval != wantInterval {
			t.Errorf("review %d: expected interval %d, got %d", i+1, wantInterval, card.Interval)
		}
		if math.Abs(card.EaseFactor-wantEase) > 1e-9 {
			t.Errorf("review %d: expected ease %.4f, got %.4f", i+1, wantEase, card.EaseFactor)
		}
		day = day.AddDate(0, 0, card.Interval)
	}

	if card.Repetitions != 3 {
		t.Errorf("Expected 3 repetitions, got %d", card.Repetitions)
	}
	if card.Interval != 15 {
		t.Errorf("Expected third interval of 15 days, got %d", card.Interval)
	}
}

func TestAgainAfterLongStreak(t *testing.T) {
	last := reviewTime.AddDate(0, 0, -40)
	card := domain.Card{ID: "c", Interval: 40, EaseFactor: 2.6, Repetitions: 5, LastReviewed: &last}

	next := Schedule(card, domain.Again, reviewTime)
	if next.Repetitions != 0 || next.Interval != 1 {
		t.Errorf("Expected reset to repetitions 0 and interval 1, got %d and %d", next.Repetitions, next.Interval)
	}
}

func TestCustomParams(t *testing.T) {
	p := DefaultParams()
	p.SecondInterval = 3

	card := domain.Card{ID: "c", Interval: 1, EaseFactor: 2.5, Repetitions: 1}
	next := p.Next(card, domain.Good, reviewTime)
	if next.Interval != 3 {
		t.Errorf("Expected interval 3 with custom params, got %d", next.Interval)
	}
}
