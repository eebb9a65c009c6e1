// Package storage persists the tracker's documents.
//
// State is kept as two independent JSON documents under well-known keys,
// each rewritten wholesale after every mutation.
package storage

import (
	"context"
	"errors"
)

// Well-known document keys.
const (
	GoalsKey  = "goals"
	LedgerKey = "activityData"
)

// ErrNotFound is returned by Load when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// Store is a key/value document store with whole-document writes.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
