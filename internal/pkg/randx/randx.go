/*
Package randx generates identifiers for stored records.

Ids are opaque strings; uniqueness is assumed from UUIDv4 randomness and is not
checked against existing records.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// ID returns a new random record identifier.
func ID() string {
	return uuid.New().String()
}

// OriginID returns an identifier for one running instance of the application,
// used to recognise its own broadcast events.
func OriginID() string {
	return "origin_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// IsValidID reports whether s looks like an id produced by ID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
