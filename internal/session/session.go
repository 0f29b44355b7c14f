// Package session issues questionnaire session identifiers: random 9-digit
// integers that tie a form load to its submissions.
package session

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Bounds of a valid session identifier.
const (
	MinID int64 = 100_000_000
	MaxID int64 = 999_999_999
)

// NewID returns a random 9-digit session identifier.
func NewID() int64 {
	return MinID + rand.Int64N(MaxID-MinID+1)
}

// Valid reports whether id has exactly nine digits.
func Valid(id int64) bool {
	return id >= MinID && id <= MaxID
}

// ParseID parses and validates a decimal session identifier.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	if !Valid(id) {
		return 0, fmt.Errorf("session id %d is not a 9-digit number", id)
	}
	return id, nil
}
