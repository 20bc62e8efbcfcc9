// Package idgen generates the identifiers used across the service: record ids
// (nanoid), time-ordered names for uploads and connections (ULID), and
// client-side tokens (UUID).
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"

	"github.com/alfredjeanlab/campus/internal/model"
)

// Alphabet defines the character set used for the random portion of record IDs.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// TempPrefix marks identifiers minted on the client for optimistic entries.
const TempPrefix = "tmp-"

// RecordID returns a new identifier for a record in collection c.
func RecordID(c model.Collection) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return c.IDPrefix() + id, nil
}

// ULID returns a lexically sortable unique identifier.
func ULID() string {
	return ulid.Make().String()
}

// Filename returns a unique lowercase filename with the given extension
// (including the leading dot).
func Filename(ext string) string {
	return strings.ToLower(ULID()) + ext
}

// Token returns a random client idempotency token.
func Token() string {
	return uuid.NewString()
}

// TempID returns an identifier for an optimistic client entry.
func TempID() string {
	return TempPrefix + uuid.NewString()
}
