package domain

// Stats summarises a card collection and the progress of the current session.
type Stats struct {
	SessionReviewed int
	New             int
	Learning        int
	Mature          int
	Total           int
}

// ComputeStats buckets cards into new, learning and mature.
// A card with a long interval but no repetitions counts as both new and mature.
func ComputeStats(cards []Card, sessionReviewed int) Stats {
	st := Stats{SessionReviewed: sessionReviewed, Total: len(cards)}
	for _, c := range cards {
		if c.Repetitions == 0 {
			st.New++
		}
		if c.Repetitions > 0 && c.Interval < MatureInterval {
			st.Learning++
		}
		if c.Interval >= MatureInterval {
			st.Mature++
		}
	}
	return st
}
