package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/store"
)

// Snapshot captures tasks, users and assignment lists. Histories and
// notifications are not part of it.
func (s *TaskService) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.Snapshot{
		Users:       s.users.Names(),
		Assignments: make(map[string][]int64, s.users.Len()),
		NextID:      s.index.LastID() + 1,
		TakenAt:     s.now().UTC(),
	}
	for _, t := range s.index.All() {
		snap.Tasks = append(snap.Tasks, *t)
	}
	for _, u := range s.users.Users() {
		snap.Assignments[u.Name] = u.Tasks.IDs()
	}
	return snap
}

// Restore replaces the whole state with snap. Histories start empty and the
// notification log is cleared. A malformed snapshot leaves state untouched.
func (s *TaskService) Restore(snap model.Snapshot) error {
	if err := s.checkSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Reset(snap.NextID)
	for _, t := range snap.Tasks {
		task := t
		s.index.Insert(&task)
	}

	s.users.Reset()
	for _, name := range snap.Users {
		u, err := s.users.GetOrCreate(name)
		if err != nil {
			// checkSnapshot bounds the user count, so this is unreachable.
			return err
		}
		for _, id := range snap.Assignments[name] {
			u.Tasks.Assign(id)
		}
	}

	s.notes.Clear()
	if snap.ID != "" {
		s.notes.Enqueue(fmt.Sprintf("State restored from snapshot %s", snap.ID))
	}

	s.logger.Info("state restored",
		zap.String("snapshot_id", snap.ID),
		zap.Int("tasks", len(snap.Tasks)),
		zap.Int("users", len(snap.Users)),
	)
	return nil
}

func (s *TaskService) checkSnapshot(snap model.Snapshot) error {
	if s.maxTasks > 0 && len(snap.Tasks) > s.maxTasks {
		return fmt.Errorf("snapshot holds %d tasks: %w", len(snap.Tasks), store.ErrCapacityExceeded)
	}

	ids := make(map[int64]struct{}, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if t.ID < 1 {
			return fmt.Errorf("%w: snapshot task id %d", ErrValidation, t.ID)
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("%w: snapshot repeats task id %d", ErrValidation, t.ID)
		}
		ids[t.ID] = struct{}{}
	}

	users := make(map[string]struct{}, len(snap.Users))
	for _, name := range snap.Users {
		trimmed, err := s.validateUsername(name)
		if err != nil {
			return err
		}
		if trimmed != name {
			return fmt.Errorf("%w: snapshot user %q has surrounding whitespace", ErrValidation, name)
		}
		if _, dup := users[name]; dup {
			return fmt.Errorf("%w: snapshot repeats user %q", ErrValidation, name)
		}
		users[name] = struct{}{}
	}
	if len(users) > s.users.Max() {
		return fmt.Errorf("snapshot holds %d users: %w", len(users), store.ErrCapacityExceeded)
	}

	for name, assigned := range snap.Assignments {
		if _, ok := users[name]; !ok {
			return fmt.Errorf("%w: assignments for unknown user %q", ErrValidation, name)
		}
		for _, id := range assigned {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("%w: %s is assigned missing task #%d", ErrValidation, name, id)
			}
		}
	}
	return nil
}

// Save stores the current state through the snapshot repository.
func (s *TaskService) Save(ctx context.Context) (model.Snapshot, error) {
	if s.repo == nil {
		return model.Snapshot{}, ErrPersistenceDisabled
	}

	saved, err := s.repo.Save(ctx, s.Snapshot())
	if err != nil {
		s.logger.Error("snapshot save failed", zap.Error(err))
		return model.Snapshot{}, err
	}

	s.logger.Info("snapshot saved", zap.String("snapshot_id", saved.ID), zap.Int("tasks", len(saved.Tasks)))

	if s.retain > 0 {
		pruned, err := s.repo.Prune(ctx, s.retain)
		if err != nil {
			// the snapshot itself is stored, pruning is retried on the next save
			s.logger.Warn("snapshot prune failed", zap.Error(err))
		} else if pruned > 0 {
			s.logger.Debug("old snapshots pruned", zap.Int64("count", pruned))
		}
	}
	return saved, nil
}

// Load restores the most recent stored snapshot.
func (s *TaskService) Load(ctx context.Context) (model.Snapshot, error) {
	if s.repo == nil {
		return model.Snapshot{}, ErrPersistenceDisabled
	}

	snap, err := s.repo.Latest(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return s.restoreStored(snap)
}

// LoadByID restores one particular stored snapshot.
func (s *TaskService) LoadByID(ctx context.Context, id string) (model.Snapshot, error) {
	if s.repo == nil {
		return model.Snapshot{}, ErrPersistenceDisabled
	}

	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	return s.restoreStored(snap)
}

func (s *TaskService) restoreStored(snap model.Snapshot) (model.Snapshot, error) {
	if err := s.Restore(snap); err != nil {
		s.logger.Error("snapshot restore failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		return model.Snapshot{}, err
	}
	return snap, nil
}
