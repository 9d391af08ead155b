package sync

import (
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/knol"
)

// MergeResult reports how an import changed the collection.
type MergeResult struct {
	Cards   []domain.Card
	Added   int
	Matched int
}

// Merge combines the stored collection with freshly imported cards.
//
// Cards are matched by their trimmed front and back text, not by identity.
// A matched card keeps its identity and scheduling history and takes the
// imported front/back text. Unmatched imported cards are appended. When the
// stored collection itself holds duplicates, the last one wins but keeps the
// position of the first. Every card in the result has a unique, non-empty
// ID: missing or clashing IDs are replaced with newID.
func Merge(stored, imported []domain.Card, newID func() string) MergeResult {
	var (
		res   MergeResult
		order []string
		byKey = make(map[string]domain.Card, len(stored)+len(imported))
	)

	for _, c := range stored {
		key := knol.Key(c.Front, c.Back)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = c.Clone()
	}

	for _, c := range imported {
		key := knol.Key(c.Front, c.Back)
		if existing, ok := byKey[key]; ok {
			existing.Front = c.Front
			existing.Back = c.Back
			byKey[key] = existing
			res.Matched++
			continue
		}
		order = append(order, key)
		byKey[key] = c.Clone()
		res.Added++
	}

	// Stored cards come first in order, so on an ID clash the stored card
	// keeps its ID and the imported one gets a fresh one.
	taken := make(map[string]bool, len(order))
	res.Cards = make([]domain.Card, 0, len(order))
	for _, key := range order {
		card := byKey[key]
		for card.ID == "" || taken[card.ID] {
			card.ID = newID()
		}
		taken[card.ID] = true
		res.Cards = append(res.Cards, card)
	}
	return res
}
