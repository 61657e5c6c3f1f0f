package model

import "time"

// Snapshot is the persisted shape of the shared pool. Histories and
// notifications are not part of it.
type Snapshot struct {
	ID          string             `json:"id,omitempty"`
	Tasks       []Task             `json:"tasks"`
	Users       []string           `json:"users"`
	Assignments map[string][]int64 `json:"assignments"`
	NextID      int64              `json:"next_id"`
	TakenAt     time.Time          `json:"taken_at"`
}
