package store

import (
	"context"
	"errors"
	"time"
)

// Collection names used by the service. The document store only knows
// collections by convention.
const (
	CollectionKitchenInventory = "kitchen inventory"
	CollectionChats            = "chats"
)

// IngestedAtField is stamped with the store's own write time on every
// committed upsert, whether or not the document existed before.
const IngestedAtField = "_ingestedAt"

// ErrNotFound is returned by Get for an unknown document id.
var ErrNotFound = errors.New("document not found")

// Write is one merge-upsert inside an atomic batch. An empty ID asks the
// store to assign an identity, in which case re-submitting the same document
// creates a duplicate instead of updating.
type Write struct {
	ID  string
	Doc map[string]interface{}
}

// Store is the keyed document store the ingestion pipeline and the purge job
// run against. CommitBatch is all-or-nothing: either every write in the slice
// is applied or none is. Merge semantics: fields present in Doc overwrite,
// fields absent are preserved, and IngestedAtField is set to the store's
// current time on every write.
type Store interface {
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)

	CommitBatch(ctx context.Context, collection string, writes []Write) error

	// FindInRange returns the ids of documents whose time-valued field falls
	// in the half-open window [start, end).
	FindInRange(ctx context.Context, collection, field string, start, end time.Time) ([]string, error)

	Delete(ctx context.Context, collection, id string) error
}
