// Package store persists finalized layouts for serve mode.
//
// A Store keeps one layout record per snapshot hash so clients can re-fetch
// a layout without re-running the pipeline. Backends:
//   - memory: process-local, for tests and single-instance serving
//   - mongo: durable, for multi-instance deployments
package store

import (
	"context"
	"time"

	"github.com/michaelzixizhou/codag/pkg/graph"
)

// Record is one stored layout, keyed by the snapshot hash it was computed
// from.
type Record struct {
	Hash      string        `json:"hash" bson:"hash"`
	Layout    *graph.Layout `json:"layout" bson:"layout"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// Store is the interface for layout persistence backends.
type Store interface {
	// Save upserts a record by snapshot hash.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves the record for a snapshot hash.
	// Returns a LAYOUT_NOT_FOUND error when no record exists.
	Get(ctx context.Context, hash string) (*Record, error)

	// Latest retrieves the most recently saved record.
	// Returns a LAYOUT_NOT_FOUND error when the store is empty.
	Latest(ctx context.Context) (*Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
