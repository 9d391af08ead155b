package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
)

// legacyCard is the JSON shape written by the browser version of the
// reviewer. Every scheduling field may be absent in older exports.
type legacyCard struct {
	ID           any      `json:"id"`
	Front        string   `json:"front"`
	Back         string   `json:"back"`
	LastReviewed *float64 `json:"lastReviewed"` // unix milliseconds
	Interval     *float64 `json:"interval"`
	EaseFactor   *float64 `json:"easeFactor"`
	Repetitions  *float64 `json:"repetitions"`
}

// ReadLegacyJSON decodes a JSON array of cards exported by the browser
// version. Absent fields get the defaults of a new card; numeric IDs are
// kept in their decimal form.
func ReadLegacyJSON(r io.Reader) ([]domain.Card, error) {
	var raw []legacyCard
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode legacy cards: %w", err)
	}

	cards := make([]domain.Card, 0, len(raw))
	for _, lc := range raw {
		card := domain.NewCard(legacyID(lc.ID), lc.Front, lc.Back)
		if lc.LastReviewed != nil {
			t := time.UnixMilli(int64(*lc.LastReviewed))
			card.LastReviewed = &t
		}
		if lc.Interval != nil {
			card.Interval = int(math.Round(*lc.Interval))
		}
		if lc.EaseFactor != nil {
			card.EaseFactor = *lc.EaseFactor
		}
		if lc.Repetitions != nil {
			card.Repetitions = int(math.Round(*lc.Repetitions))
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func legacyID(v any) string {
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return knol.NewID()
}
