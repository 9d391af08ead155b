package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/review"
	decksync "github.com/conorfennell/flashdeck/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server. Every handler holds
// the lock while it touches the session, so ratings are applied one at a time.
type Server struct {
	mu         sync.Mutex
	session    *review.Session
	reconciler *decksync.Reconciler
	router     *http.ServeMux
	templates  *template.Template
}

// NewServer creates and configures a new server. The reconciler may be nil
// when no deck source is configured.
func NewServer(session *review.Session, reconciler *decksync.Reconciler) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		session:    session,
		reconciler: reconciler,
		router:     http.NewServeMux(),
		templates:  tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("GET /{$}", fileServer)

	// HTMX-based routes
	s.router.HandleFunc("GET /deck", s.handleGetDeck())
	s.router.HandleFunc("GET /review/next", s.handleGetNextReview())
	s.router.HandleFunc("POST /review/answer", s.handleShowAnswer())
	s.router.HandleFunc("POST /review/rate", s.handlePostRating())
	s.router.HandleFunc("POST /cards", s.handlePostCard())
	s.router.HandleFunc("GET /stats", s.handleGetStats())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
	return nil
}

// Resync re-imports the deck and reloads the session.
func (s *Server) Resync(ctx context.Context) (decksync.Report, error) {
	if s.reconciler == nil {
		return decksync.Report{}, decksync.ErrNoSource
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		return report, err
	}
	return report, s.session.Reload(ctx)
}

type deckView struct {
	Remaining int
	Done      bool
	Stats     domain.Stats
}

type cardView struct {
	Card      domain.Card
	Remaining int
	Qualities []domain.Quality
}

type doneView struct {
	Title string
	Hint  string
	Stats domain.Stats
}

type noticeView struct {
	Message string
	Error   bool
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
	}
}

// handleGetDeck renders the deck view, showing the number of due cards.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.render(w, http.StatusOK, "deck", deckView{
			Remaining: s.session.Remaining(),
			Done:      s.session.Done(),
			Stats:     s.session.Stats(),
		})
	}
}

// handleGetNextReview renders the current card, taking the next one from the
// queue when nothing is shown. A revealed card is rendered with its answer.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.renderFront(w)
	}
}

func (s *Server) renderFront(w http.ResponseWriter) {
	card, ok := s.session.Current()
	if ok && s.session.Revealed() {
		s.render(w, http.StatusOK, "card_back", cardView{
			Card:      card,
			Remaining: s.session.Remaining(),
			Qualities: domain.Qualities(),
		})
		return
	}
	if !ok {
		card, ok = s.session.Next()
	}
	if !ok {
		s.render(w, http.StatusOK, "done", doneView{
			Title: review.DoneTitle,
			Hint:  review.DoneHint,
			Stats: s.session.Stats(),
		})
		return
	}
	s.render(w, http.StatusOK, "card_front", cardView{Card: card, Remaining: s.session.Remaining()})
}

// handleShowAnswer renders the back of the current card with the rating buttons.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		card, err := s.session.Reveal()
		if err != nil {
			s.render(w, http.StatusConflict, "notice", noticeView{Message: "No card is being shown.", Error: true})
			return
		}
		s.render(w, http.StatusOK, "card_back", cardView{
			Card:      card,
			Remaining: s.session.Remaining(),
			Qualities: domain.Qualities(),
		})
	}
}

// handlePostRating applies a rating to the current card and renders the next one.
func (s *Server) handlePostRating() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := domain.ParseQuality(r.PostFormValue("quality"))
		if err != nil {
			http.Error(w, "Invalid quality", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, err := s.session.Rate(r.Context(), q); err != nil {
			if errors.Is(err, review.ErrNoCurrentCard) {
				s.render(w, http.StatusConflict, "notice", noticeView{Message: "No card is being shown.", Error: true})
				return
			}
			if errors.Is(err, review.ErrNotRevealed) {
				s.render(w, http.StatusConflict, "notice", noticeView{Message: "Show the answer before rating.", Error: true})
				return
			}
			slog.Error("Failed to rate card", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		// After review, show the next card
		s.renderFront(w)
	}
}

// handlePostCard adds a new card.
func (s *Server) handlePostCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		card, err := s.session.AddCard(r.Context(), r.PostFormValue("front"), r.PostFormValue("back"))
		switch {
		case errors.Is(err, review.ErrDuplicateCard):
			s.render(w, http.StatusConflict, "notice", noticeView{Message: "This card already exists!", Error: true})
		case errors.Is(err, review.ErrInvalidCard):
			s.render(w, http.StatusBadRequest, "notice", noticeView{Message: "Both sides of the card are required.", Error: true})
		case err != nil:
			slog.Error("Failed to add card", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		default:
			s.render(w, http.StatusCreated, "notice", noticeView{Message: "Added \"" + card.Front + "\"."})
		}
	}
}

// handleGetStats renders the collection statistics.
func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.render(w, http.StatusOK, "stats", s.session.Stats())
	}
}

// handlePostSync triggers a manual re-import and re-renders the deck view.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.Resync(r.Context())
		if errors.Is(err, decksync.ErrNoSource) {
			s.render(w, http.StatusBadRequest, "notice", noticeView{Message: "No deck source is configured.", Error: true})
			return
		}
		if err != nil {
			slog.Error("Failed to sync deck", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.render(w, http.StatusOK, "sync_result", struct {
			Report    decksync.Report
			Remaining int
		}{report, s.session.Remaining()})
	}
}
