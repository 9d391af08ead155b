package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality is the user's rating of how well a card was recalled.
type Quality int

const (
	Again   Quality = iota // Not recalled at all.
	Hard                   // Recalled wrongly or barely.
	Partial                // Partly recalled.
	Good                   // Recalled with some effort.
	Easy                   // Recalled effortlessly.
)

var qualityNames = [...]string{
	Again:   "Again",
	Hard:    "Hard",
	Partial: "Partial",
	Good:    "Good",
	Easy:    "Easy",
}

// Clamp maps any value onto the valid Again..Easy range.
func (q Quality) Clamp() Quality {
	if q < Again {
		return Again
	}
	if q > Easy {
		return Easy
	}
	return q
}

// Passed reports whether q counts as a qualifying recall.
func (q Quality) Passed() bool {
	return q.Clamp() >= Good
}

func (q Quality) String() string {
	if q >= Again && q <= Easy {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality accepts either a number ("0".."4", out-of-range values are
// clamped) or a rating name such as "good", ignoring case.
func ParseQuality(s string) (Quality, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Quality(n).Clamp(), nil
	}
	for q, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return Quality(q), nil
		}
	}
	return Again, fmt.Errorf("unknown quality %q", s)
}

// Qualities returns all ratings from Again to Easy.
func Qualities() []Quality {
	return []Quality{Again, Hard, Partial, Good, Easy}
}
