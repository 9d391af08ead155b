package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// keySeparator joins the two sides of a card in its content key.
const keySeparator = "||"

// NewID returns a fresh random card identity.
func NewID() string {
	return uuid.NewString()
}

// Key returns the content key used to match cards across imports.
// Both sides are trimmed of surrounding whitespace and otherwise compared
// exactly, so case and inner spacing are significant.
func Key(front, back string) string {
	return strings.TrimSpace(front) + keySeparator + strings.TrimSpace(back)
}

// Hash returns the SHA-256 of a card's content key as a hex string.
func Hash(front, back string) string {
	sum := sha256.Sum256([]byte(Key(front, back)))
	return fmt.Sprintf("%x", sum)
}
