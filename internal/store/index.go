// Package store holds the in-memory containers behind the task tracker:
// the task index, the user registry, per-user assignment lists and
// undo/redo histories, and the notification log.
//
// None of the containers lock. The service serialises access to all of
// them under a single mutex so a compound operation is observed atomically.
package store

import (
	"fmt"
	"time"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

type node struct {
	task        *model.Task
	left, right *node
}

// Index owns every task, keyed by identifier in a plain binary search tree.
// Identifiers are minted by the index itself and never reused. Tasks are
// never removed.
//
// Ids arrive in ascending order so the tree degenerates toward a list;
// all walks are iterative to keep stack depth flat.
type Index struct {
	root   *node
	size   int
	nextID int64
	max    int
}

// NewIndex creates an empty index. max <= 0 means unbounded.
func NewIndex(max int) *Index {
	return &Index{nextID: 1, max: max}
}

// Full reports whether Create would refuse the next task.
func (i *Index) Full() bool {
	return i.max > 0 && i.size >= i.max
}

// Create mints the next identifier and inserts a task built from nt.
func (i *Index) Create(nt model.NewTask, now time.Time) (*model.Task, error) {
	if i.Full() {
		return nil, fmt.Errorf("task index holds %d tasks: %w", i.size, ErrCapacityExceeded)
	}
	t := &model.Task{
		ID:        i.nextID,
		Title:     nt.Title,
		Priority:  nt.Priority,
		DueDate:   nt.DueDate,
		Status:    nt.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	i.Insert(t)
	return t, nil
}

// Insert places t under its own identifier and advances the counter past it.
// A duplicate identifier is a programming error and panics.
func (i *Index) Insert(t *model.Task) {
	link := &i.root
	for *link != nil {
		cur := (*link).task
		switch {
		case t.ID < cur.ID:
			link = &(*link).left
		case t.ID > cur.ID:
			link = &(*link).right
		default:
			panic(fmt.Sprintf("store: duplicate task id %d", t.ID))
		}
	}
	*link = &node{task: t}
	i.size++
	if t.ID >= i.nextID {
		i.nextID = t.ID + 1
	}
}

func (i *Index) Find(id int64) (*model.Task, bool) {
	cur := i.root
	for cur != nil {
		switch {
		case id < cur.task.ID:
			cur = cur.left
		case id > cur.task.ID:
			cur = cur.right
		default:
			return cur.task, true
		}
	}
	return nil, false
}

// Edit applies the non-nil fields of upd in place and bumps UpdatedAt.
func (i *Index) Edit(id int64, upd model.TaskUpdate, now time.Time) (*model.Task, error) {
	t, ok := i.Find(id)
	if !ok {
		return nil, fmt.Errorf("task #%d: %w", id, ErrTaskNotFound)
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.DueDate != nil {
		t.DueDate = *upd.DueDate
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	t.UpdatedAt = now
	return t, nil
}

// All returns the tasks in ascending identifier order.
func (i *Index) All() []*model.Task {
	out := make([]*model.Task, 0, i.size)
	var stack []*node
	cur := i.root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur.task)
		cur = cur.right
	}
	return out
}

func (i *Index) Len() int { return i.size }

// LastID is the most recently minted identifier, 0 when none.
func (i *Index) LastID() int64 { return i.nextID - 1 }

// Reset drops every task and restarts the counter at next (at least 1).
func (i *Index) Reset(next int64) {
	if next < 1 {
		next = 1
	}
	i.root = nil
	i.size = 0
	i.nextID = next
}
