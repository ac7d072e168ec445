// Package store persists layout documents for the HTTP server.
//
// Layouts are content addressed: [graph.Layout.AssignID] derives the id from
// the document itself, so storing the same layout twice keeps one copy and
// a Put never conflicts with a different document.
//
// Two backends are provided:
//
//   - [MemoryStore]: process-local, used by default and in tests
//   - [MongoStore]: a MongoDB collection keyed by layout id
package store

import (
	"context"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
)

// Store saves and retrieves layout documents by id.
type Store interface {
	// Put stores l under l.ID. An empty id returns INVALID_INPUT.
	Put(ctx context.Context, l graph.Layout) error

	// Get returns the layout with the given id, or NOT_FOUND.
	Get(ctx context.Context, id string) (graph.Layout, error)

	// Delete removes a layout. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit stored ids in ascending order. A limit of
	// zero or less returns every id.
	List(ctx context.Context, limit int) ([]string, error)

	Close() error
}

func checkID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeInvalidInput, "layout has no id")
	}
	return nil
}
