package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
	"github.com/conorfennell/flashdeck/internal/sm2"
	"github.com/go-playground/validator/v10"
)

// Texts shown once the queue is empty.
const (
	DoneTitle = "All done for today!"
	DoneHint  = "Come back later for new cards or add more!"
)

var (
	ErrNoCurrentCard = errors.New("review: no card is being shown")
	ErrNotRevealed   = errors.New("review: the answer has not been shown yet")
	ErrDuplicateCard = errors.New("review: this card already exists")
	ErrInvalidCard   = errors.New("review: invalid card")
)

// Store is the persisted card collection a session reads and writes.
type Store interface {
	LoadAll(ctx context.Context) ([]domain.Card, error)
	SaveAll(ctx context.Context, cards []domain.Card) error
}

// Recorder is implemented by stores that keep a review history.
type Recorder interface {
	AppendReview(ctx context.Context, log domain.ReviewLog) error
}

type newCardInput struct {
	Front string `validate:"required,max=1000"`
	Back  string `validate:"required,max=1000"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Session drives one review sitting: it owns the in-memory collection, the
// queue of due cards and the card currently shown. It is not safe for
// concurrent use.
type Session struct {
	store  Store
	now    func() time.Time
	rng    *rand.Rand
	newID  func() string

	cards    []domain.Card
	queue    []string // card IDs, front is shown next
	current  string
	revealed bool
	reviewed int
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used for scheduling and due checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the random source used to shuffle the queue.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithIDs replaces the identity generator for new cards.
func WithIDs(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// New loads the collection from store and queues every due card.
func New(ctx context.Context, store Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:  store,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:  knol.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the collection and rebuilds the queue. The card being
// shown stays current if it still exists, and cards requeued earlier in the
// session stay queued even though they are no longer due.
func (s *Session) Reload(ctx context.Context) error {
	cards, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("review: load cards: %w", err)
	}
	pending := s.queue
	s.queue = nil
	s.cards = cards
	if s.current != "" && s.index(s.current) < 0 {
		s.current = ""
		s.revealed = false
	}
	s.buildQueue()

	queued := make(map[string]bool, len(s.queue))
	for _, id := range s.queue {
		queued[id] = true
	}
	for _, id := range pending {
		if !queued[id] && id != s.current && s.index(id) >= 0 {
			s.queue = append(s.queue, id)
			queued[id] = true
		}
	}
	return nil
}

// DueCards returns the cards due on now's calendar day, in collection order.
func DueCards(cards []domain.Card, now time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range cards {
		if sm2.IsDue(c, now) {
			due = append(due, c)
		}
	}
	return due
}

func (s *Session) buildQueue() {
	due := DueCards(s.cards, s.now())
	for _, c := range due {
		if c.ID != s.current {
			s.queue = append(s.queue, c.ID)
		}
	}
	s.rng.Shuffle(len(s.queue), func(i, j int) {
		s.queue[i], s.queue[j] = s.queue[j], s.queue[i]
	})
}

// Next takes the card at the front of the queue and makes it current.
// It returns false when the queue is empty and the session is done.
func (s *Session) Next() (domain.Card, bool) {
	s.revealed = false
	for len(s.queue) > 0 {
		id := s.queue[0]
		s.queue = s.queue[1:]
		if i := s.index(id); i >= 0 {
			s.current = id
			return s.cards[i].Clone(), true
		}
	}
	s.current = ""
	return domain.Card{}, false
}

// Current returns the card being shown, if any.
func (s *Session) Current() (domain.Card, bool) {
	if s.current == "" {
		return domain.Card{}, false
	}
	i := s.index(s.current)
	if i < 0 {
		return domain.Card{}, false
	}
	return s.cards[i].Clone(), true
}

// Reveal marks the answer of the current card as shown.
func (s *Session) Reveal() (domain.Card, error) {
	card, ok := s.Current()
	if !ok {
		return domain.Card{}, ErrNoCurrentCard
	}
	s.revealed = true
	return card, nil
}

// Revealed reports whether the current card's answer is showing.
func (s *Session) Revealed() bool {
	return s.current != "" && s.revealed
}

// Rate schedules the current card, persists the collection and, for a
// rating below Good, puts the card back at the end of the queue. The answer
// must have been revealed first. The current card is cleared; call Next to
// advance.
func (s *Session) Rate(ctx context.Context, q domain.Quality) (domain.Card, error) {
	card, ok := s.Current()
	if !ok {
		return domain.Card{}, ErrNoCurrentCard
	}
	if !s.revealed {
		return domain.Card{}, ErrNotRevealed
	}
	q = q.Clamp()
	now := s.now()
	updated := sm2.Schedule(card, q, now)

	cards := make([]domain.Card, len(s.cards))
	copy(cards, s.cards)
	cards[s.index(card.ID)] = updated

	if err := s.store.SaveAll(ctx, cards); err != nil {
		return domain.Card{}, fmt.Errorf("review: save rating: %w", err)
	}
	s.cards = cards

	if rec, ok := s.store.(Recorder); ok {
		err := rec.AppendReview(ctx, domain.ReviewLog{
			CardID:     updated.ID,
			Timestamp:  now,
			Quality:    q,
			Interval:   updated.Interval,
			EaseFactor: updated.EaseFactor,
		})
		if err != nil {
			slog.Warn("Failed to record review", "card", updated.ID, "error", err)
		}
	}

	if !q.Passed() {
		s.queue = append(s.queue, updated.ID)
	}
	s.current = ""
	s.revealed = false
	s.reviewed++

	slog.Debug("card rated", "card", updated.ID, "quality", q,
		"interval", updated.Interval, "ease", updated.EaseFactor, "repetitions", updated.Repetitions)
	return updated.Clone(), nil
}

// AddCard creates a new card from user input. Both sides are trimmed; a card
// whose trimmed text matches an existing card is rejected with
// ErrDuplicateCard. The new card is saved and queued.
func (s *Session) AddCard(ctx context.Context, front, back string) (domain.Card, error) {
	in := newCardInput{Front: strings.TrimSpace(front), Back: strings.TrimSpace(back)}
	if err := validate.Struct(in); err != nil {
		return domain.Card{}, fmt.Errorf("%w: %v", ErrInvalidCard, err)
	}

	key := knol.Key(in.Front, in.Back)
	for _, c := range s.cards {
		if knol.Key(c.Front, c.Back) == key {
			return domain.Card{}, ErrDuplicateCard
		}
	}

	card := domain.NewCard(s.newID(), in.Front, in.Back)
	cards := append(append([]domain.Card(nil), s.cards...), card)
	if err := s.store.SaveAll(ctx, cards); err != nil {
		return domain.Card{}, fmt.Errorf("review: save new card: %w", err)
	}
	s.cards = cards
	s.queue = append(s.queue, card.ID)
	return card, nil
}

// Remaining returns the number of cards waiting in the queue, not counting
// the one being shown.
func (s *Session) Remaining() int {
	return len(s.queue)
}

// Done reports whether nothing is shown and nothing is left to review.
func (s *Session) Done() bool {
	return s.current == "" && len(s.queue) == 0
}

// Stats summarises the collection and this session's progress.
func (s *Session) Stats() domain.Stats {
	return domain.ComputeStats(s.cards, s.reviewed)
}

func (s *Session) index(id string) int {
	for i, c := range s.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}
