// Package docstore is a small schema-flexible document store abstraction.
// Documents are addressed by collection and id, replaced wholesale on write,
// and may come back with field types that differ from what was written.
package docstore

import (
	"context"
	"errors"
)

var ErrInvalidField = errors.New("invalid field name")

// Document is a decoded document body.
type Document map[string]any

// Snapshot is one document read from a listing. Err is set when the stored
// body could not be decoded; Data is nil in that case.
type Snapshot struct {
	ID   string
	Data Document
	Err  error
}

type Store interface {
	// Get returns the document, or ok == false when it does not exist.
	Get(ctx context.Context, collection, id string) (doc Document, ok bool, err error)

	// Set writes the whole document in a single write, replacing any
	// existing body.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// List returns every document of the collection in the store's natural order.
	List(ctx context.Context, collection string) ([]Snapshot, error)

	// WhereEqual returns documents whose top-level string field equals value,
	// in the store's natural order.
	WhereEqual(ctx context.Context, collection, field, value string) ([]Snapshot, error)

	// NewKey returns a fresh store-generated document key.
	NewKey(ctx context.Context, collection string) string

	Close() error
}

// ValidField reports whether name is usable as a top-level field in a filter.
func ValidField(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
