package model

import "time"

// Task lives in the store index; everything handed out of the service is a copy.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Priority  int       `json:"priority"`
	DueDate   string    `json:"due"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewTask struct {
	Title    string
	Priority int
	DueDate  string
	Status   string
}

// TaskUpdate carries the fields to change; nil fields stay untouched.
type TaskUpdate struct {
	Title    *string `json:"title,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	DueDate  *string `json:"due,omitempty"`
	Status   *string `json:"status,omitempty"`
}

func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Priority == nil && u.DueDate == nil && u.Status == nil
}

type TaskFilter struct {
	Status   *string
	Priority *int
}

func (f TaskFilter) Match(t Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	return true
}

type Stats struct {
	Users         int            `json:"users"`
	TotalTasks    int            `json:"total_tasks"`
	AssignedLinks int            `json:"assigned_links"`
	ByStatus      map[string]int `json:"by_status"`
	LastID        int64          `json:"last_id"`
}
