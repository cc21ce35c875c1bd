package store

import (
	"context"
	"time"

	"bevbrain/internal/model"
)

// SnapshotStore persists the last successful aggregation result.
// Save replaces the previous snapshot atomically; Load returns the
// most recent snapshot, or an empty one when nothing was ever saved.
// Single writer (the aggregator), any number of readers.
type SnapshotStore interface {
	Save(ctx context.Context, snap model.Snapshot) error
	Load(ctx context.Context) (model.Snapshot, error)
	IsStale(ctx context.Context, maxAge time.Duration) bool
}
