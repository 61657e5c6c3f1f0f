package repo

import (
	"context"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

// SnapshotRepository defines how state snapshots are stored
type SnapshotRepository interface {
	Save(ctx context.Context, s model.Snapshot) (model.Snapshot, error)
	Latest(ctx context.Context) (model.Snapshot, error)
	Get(ctx context.Context, id string) (model.Snapshot, error)
	Prune(ctx context.Context, keep int) (int64, error)
}
