package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/review"
	"github.com/conorfennell/flashdeck/internal/sm2"
)

const ratingPrompt = "Rate: 0 Again, 1 Hard, 2 Partial, 3 Good, 4 Easy (q to quit): "

// Run reviews every due card of the session on a line-oriented terminal.
// It returns when the queue is empty, the user types q, input ends or ctx
// is cancelled.
func Run(ctx context.Context, s *review.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		card, ok := s.Next()
		if !ok {
			fmt.Fprintf(out, "\n%s\n%s\n", review.DoneTitle, review.DoneHint)
			PrintStats(out, s.Stats())
			return nil
		}

		fmt.Fprintf(out, "\nCards to review: %d\n", s.Remaining())
		fmt.Fprintf(out, "  %s\n", card.Front)
		fmt.Fprint(out, "Press Enter to show the answer (q to quit): ")
		line, ok := readLine()
		if !ok || line == "q" {
			return scanner.Err()
		}

		if _, err := s.Reveal(); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s\n", card.Back)

		for {
			fmt.Fprint(out, ratingPrompt)
			line, ok := readLine()
			if !ok || line == "q" {
				return scanner.Err()
			}
			q, err := domain.ParseQuality(line)
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			updated, err := s.Rate(ctx, q)
			if err != nil {
				return err
			}
			if due, ok := sm2.NextDue(updated, time.Local); ok && q.Passed() {
				fmt.Fprintf(out, "%s: next review in %d day(s), on %s\n", q, updated.Interval, due.Format("Mon 2 Jan 2006"))
			} else {
				fmt.Fprintf(out, "%s: you will see this card again shortly\n", q)
			}
			break
		}
	}
}

// PrintStats writes the collection statistics.
func PrintStats(out io.Writer, st domain.Stats) {
	fmt.Fprintf(out, "Reviewed this session: %d\n", st.SessionReviewed)
	fmt.Fprintf(out, "New: %d  Learning: %d  Mature: %d  Total: %d\n", st.New, st.Learning, st.Mature, st.Total)
}
