package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/repo"
	"github.com/BuzzLyutic/task-tracker/internal/store"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrPersistenceDisabled = errors.New("persistence disabled")
)

const (
	defaultStatus = "Pending"
	minPriority   = 1
	maxPriority   = 10
)

type Config struct {
	MaxUsers             int
	MaxTasks             int
	HistoryCapacity      int
	NotificationCapacity int
	// SnapshotRetention is how many stored snapshots Save keeps; 0 keeps all.
	SnapshotRetention int
}

// TaskService is the single entry point for every read and write. One mutex
// covers the index, the registry and the notification log, so each call is
// atomic to observers: a task is never seen assigned without its history entry.
//
// Notifications go to one log shared by all users.
type TaskService struct {
	mu       sync.Mutex
	index    *store.Index
	users    *store.Registry
	notes    *store.Notifications
	repo     repo.SnapshotRepository
	logger   *zap.Logger
	now      func() time.Time
	maxTasks int
	retain   int
}

// NewTaskService builds an empty tracker. snapshots may be nil, in which
// case Save and Load report ErrPersistenceDisabled.
func NewTaskService(cfg Config, snapshots repo.SnapshotRepository, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		index:    store.NewIndex(cfg.MaxTasks),
		users:    store.NewRegistry(cfg.MaxUsers, cfg.HistoryCapacity),
		notes:    store.NewNotifications(cfg.NotificationCapacity),
		repo:     snapshots,
		logger:   logger,
		now:      time.Now,
		maxTasks: cfg.MaxTasks,
		retain:   cfg.SnapshotRetention,
	}
}

// Login materialises the user on first use. There is no password check.
func (s *TaskService) Login(username string) error {
	username, err := s.validateUsername(username)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.users.GetOrCreate(username); err != nil {
		s.logger.Warn("login refused", zap.String("user", username), zap.Error(err))
		return err
	}
	return nil
}

// CreateTask adds a task to the pool and assigns it to its creator.
func (s *TaskService) CreateTask(username string, nt model.NewTask) (model.Task, error) {
	username, err := s.validateUsername(username)
	if err != nil {
		return model.Task{}, err
	}
	nt.Title = strings.TrimSpace(nt.Title)
	if err := s.validate(nt.Title, nt.Priority); err != nil {
		return model.Task{}, err
	}
	if strings.TrimSpace(nt.Status) == "" {
		nt.Status = defaultStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a refused create must not leave a freshly registered user behind
	if s.index.Full() {
		err := fmt.Errorf("task index holds %d tasks: %w", s.index.Len(), store.ErrCapacityExceeded)
		s.logger.Warn("create refused", zap.String("user", username), zap.Error(err))
		return model.Task{}, err
	}
	u, err := s.users.GetOrCreate(username)
	if err != nil {
		s.logger.Warn("create refused", zap.String("user", username), zap.Error(err))
		return model.Task{}, err
	}
	t, err := s.index.Create(nt, s.now())
	if err != nil {
		s.logger.Warn("create refused", zap.String("user", username), zap.Error(err))
		return model.Task{}, err
	}

	u.Tasks.Assign(t.ID)
	u.History.Record(model.HistoryEntry{TaskID: t.ID, Op: model.OpAssign})
	s.notes.Enqueue(fmt.Sprintf("Task #%d created by %s: %s", t.ID, username, t.Title))

	s.logger.Debug("task created", zap.Int64("task_id", t.ID), zap.String("user", username))
	return *t, nil
}

// EditTask changes task fields in place. Edits are not recorded in history.
func (s *TaskService) EditTask(username string, id int64, upd model.TaskUpdate) (model.Task, error) {
	if upd.Empty() {
		return model.Task{}, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return model.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		upd.Title = &title
	}
	if upd.Priority != nil && (*upd.Priority < minPriority || *upd.Priority > maxPriority) {
		return model.Task{}, fmt.Errorf("%w: priority must be within %d..%d", ErrValidation, minPriority, maxPriority)
	}
	editor := strings.TrimSpace(username)
	if editor == "" {
		editor = "unknown"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.index.Edit(id, upd, s.now())
	if err != nil {
		return model.Task{}, err
	}
	s.notes.Enqueue(fmt.Sprintf("Task #%d edited by %s", id, editor))

	s.logger.Debug("task edited", zap.Int64("task_id", id), zap.String("user", editor))
	return *t, nil
}

// AssignTask puts task id on toUser's list. It reports false, with no
// history entry and no notification, when the task was already there.
func (s *TaskService) AssignTask(fromUser, toUser string, id int64) (bool, error) {
	toUser, err := s.validateUsername(toUser)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Find(id); !ok {
		return false, fmt.Errorf("task #%d: %w", id, store.ErrTaskNotFound)
	}
	u, err := s.users.GetOrCreate(toUser)
	if err != nil {
		s.logger.Warn("assign refused", zap.String("user", toUser), zap.Error(err))
		return false, err
	}
	if !u.Tasks.Assign(id) {
		return false, nil
	}

	u.History.Record(model.HistoryEntry{TaskID: id, Op: model.OpAssign})
	s.notes.Enqueue(fmt.Sprintf("Task #%d assigned to %s by %s", id, toUser, strings.TrimSpace(fromUser)))

	s.logger.Debug("task assigned",
		zap.Int64("task_id", id),
		zap.String("from", fromUser),
		zap.String("to", toUser),
	)
	return true, nil
}

// UnassignTask removes task id from the user's list. The task stays in the pool.
func (s *TaskService) UnassignTask(username string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.Find(strings.TrimSpace(username))
	if !ok {
		return fmt.Errorf("%q: %w", username, store.ErrUserNotFound)
	}
	pos := u.Tasks.IndexOf(id)
	if !u.Tasks.Unassign(id) {
		return fmt.Errorf("task #%d for %s: %w", id, u.Name, store.ErrNotAssigned)
	}

	u.History.Record(model.HistoryEntry{TaskID: id, Op: model.OpUnassign, Position: pos})
	s.notes.Enqueue(fmt.Sprintf("Task #%d removed by %s", id, u.Name))

	s.logger.Debug("task unassigned", zap.Int64("task_id", id), zap.String("user", u.Name))
	return nil
}

// Undo reverts the user's most recent assign or unassign and returns the
// entry that was reverted.
func (s *TaskService) Undo(username string) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.Find(strings.TrimSpace(username))
	if !ok {
		return model.HistoryEntry{}, fmt.Errorf("%q: %w", username, store.ErrUserNotFound)
	}
	e, ok := u.History.PopUndo()
	if !ok {
		return model.HistoryEntry{}, store.ErrNothingToUndo
	}

	if err := s.apply(u, e, e.Op.Inverse()); err != nil {
		s.notes.Enqueue(fmt.Sprintf("Undo skipped: task #%d no longer exists", e.TaskID))
		s.logger.Warn("undo skipped", zap.String("user", u.Name), zap.Int64("task_id", e.TaskID), zap.Error(err))
		return e, err
	}
	u.History.PushRedo(e)

	if e.Op == model.OpAssign {
		s.notes.Enqueue(fmt.Sprintf("Undo: task #%d unassigned from %s", e.TaskID, u.Name))
	} else {
		s.notes.Enqueue(fmt.Sprintf("Undo: task #%d re-assigned to %s", e.TaskID, u.Name))
	}

	s.logger.Debug("undo", zap.String("user", u.Name), zap.Int64("task_id", e.TaskID), zap.Stringer("op", e.Op))
	return e, nil
}

// Redo replays the entry most recently reverted by Undo.
func (s *TaskService) Redo(username string) (model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.Find(strings.TrimSpace(username))
	if !ok {
		return model.HistoryEntry{}, fmt.Errorf("%q: %w", username, store.ErrUserNotFound)
	}
	e, ok := u.History.PopRedo()
	if !ok {
		return model.HistoryEntry{}, store.ErrNothingToRedo
	}

	if err := s.apply(u, e, e.Op); err != nil {
		s.notes.Enqueue(fmt.Sprintf("Redo skipped: task #%d no longer exists", e.TaskID))
		s.logger.Warn("redo skipped", zap.String("user", u.Name), zap.Int64("task_id", e.TaskID), zap.Error(err))
		return e, err
	}
	u.History.PushUndo(e)

	if e.Op == model.OpAssign {
		s.notes.Enqueue(fmt.Sprintf("Redo: task #%d assigned to %s", e.TaskID, u.Name))
	} else {
		s.notes.Enqueue(fmt.Sprintf("Redo: task #%d unassigned from %s", e.TaskID, u.Name))
	}

	s.logger.Debug("redo", zap.String("user", u.Name), zap.Int64("task_id", e.TaskID), zap.Stringer("op", e.Op))
	return e, nil
}

// apply performs op for the entry's task on the user's list. Reverting an
// unassign puts the task back where it was. The task must still be in the
// index; otherwise nothing changes.
func (s *TaskService) apply(u *store.User, e model.HistoryEntry, op model.Operation) error {
	if _, ok := s.index.Find(e.TaskID); !ok {
		return fmt.Errorf("task #%d: %w", e.TaskID, store.ErrConsistencyViolation)
	}
	switch {
	case op == model.OpAssign && e.Op == model.OpUnassign:
		u.Tasks.InsertAt(e.TaskID, e.Position)
	case op == model.OpAssign:
		u.Tasks.Assign(e.TaskID)
	case op == model.OpUnassign:
		u.Tasks.Unassign(e.TaskID)
	default:
		return fmt.Errorf("unknown %s: %w", op, store.ErrConsistencyViolation)
	}
	return nil
}

func (s *TaskService) GetTask(id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.index.Find(id)
	if !ok {
		return model.Task{}, fmt.Errorf("task #%d: %w", id, store.ErrTaskNotFound)
	}
	return *t, nil
}

// ListAllTasks returns the whole pool. sortBy "" or "id" keeps index order;
// "priority" is a derived view, most urgent first, ties by id.
func (s *TaskService) ListAllTasks(sortBy string) ([]model.Task, error) {
	if sortBy != "" && sortBy != "id" && sortBy != "priority" {
		return nil, fmt.Errorf("%w: unknown sort %q", ErrValidation, sortBy)
	}

	s.mu.Lock()
	all := s.index.All()
	tasks := make([]model.Task, 0, len(all))
	for _, t := range all {
		tasks = append(tasks, *t)
	}
	s.mu.Unlock()

	if sortBy == "priority" {
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].Priority < tasks[j].Priority
		})
	}
	return tasks, nil
}

// ListUserTasks returns the user's tasks in assignment order. Unknown users
// have no tasks; they are not created.
func (s *TaskService) ListUserTasks(username string) []model.Task {
	return s.userTasks(username, func(model.Task) bool { return true })
}

// SearchByTitle is a case-sensitive substring match over the user's tasks.
func (s *TaskService) SearchByTitle(username, query string) []model.Task {
	return s.userTasks(username, func(t model.Task) bool {
		return strings.Contains(t.Title, query)
	})
}

func (s *TaskService) FilterTasks(username string, filter model.TaskFilter) []model.Task {
	return s.userTasks(username, filter.Match)
}

func (s *TaskService) userTasks(username string, keep func(model.Task) bool) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := []model.Task{}
	u, ok := s.users.Find(strings.TrimSpace(username))
	if !ok {
		return tasks
	}
	for _, id := range u.Tasks.IDs() {
		t, ok := s.index.Find(id)
		if !ok {
			s.logger.Warn("assignment points outside the index", zap.String("user", u.Name), zap.Int64("task_id", id))
			continue
		}
		if keep(*t) {
			tasks = append(tasks, *t)
		}
	}
	return tasks
}

func (s *TaskService) ListUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users.Names()
}

// Notifications peeks at the log, oldest first.
func (s *TaskService) Notifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.All()
}

func (s *TaskService) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes.Clear()
}

func (s *TaskService) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.Stats{
		Users:      s.users.Len(),
		TotalTasks: s.index.Len(),
		ByStatus:   make(map[string]int),
		LastID:     s.index.LastID(),
	}
	for _, t := range s.index.All() {
		stats.ByStatus[t.Status]++
	}
	for _, u := range s.users.Users() {
		stats.AssignedLinks += u.Tasks.Len()
	}
	return stats
}

func (s *TaskService) validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", ErrValidation)
	}
	return username, nil
}

func (s *TaskService) validate(title string, priority int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if priority < minPriority || priority > maxPriority {
		return fmt.Errorf("%w: priority must be within %d..%d", ErrValidation, minPriority, maxPriority)
	}
	return nil
}
