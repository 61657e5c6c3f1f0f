package store

// Assignments is one user's ordered view of the tasks assigned to them.
// It stores identifiers only; the index stays the sole owner of tasks.
// An identifier appears at most once.
type Assignments struct {
	ids []int64
}

func NewAssignments() *Assignments {
	return &Assignments{}
}

// Assign appends id unless already present and reports whether it did.
func (a *Assignments) Assign(id int64) bool {
	if a.Contains(id) {
		return false
	}
	a.ids = append(a.ids, id)
	return true
}

// InsertAt places id at pos (clamped to the list bounds) unless already present.
func (a *Assignments) InsertAt(id int64, pos int) bool {
	if a.Contains(id) {
		return false
	}
	if pos < 0 || pos > len(a.ids) {
		pos = len(a.ids)
	}
	a.ids = append(a.ids, 0)
	copy(a.ids[pos+1:], a.ids[pos:])
	a.ids[pos] = id
	return true
}

// Unassign removes id and reports whether it was there.
func (a *Assignments) Unassign(id int64) bool {
	for k, v := range a.ids {
		if v == id {
			a.ids = append(a.ids[:k], a.ids[k+1:]...)
			return true
		}
	}
	return false
}

func (a *Assignments) Contains(id int64) bool {
	return a.IndexOf(id) >= 0
}

// IndexOf returns the position of id, or -1.
func (a *Assignments) IndexOf(id int64) int {
	for k, v := range a.ids {
		if v == id {
			return k
		}
	}
	return -1
}

// IDs returns a copy in insertion order.
func (a *Assignments) IDs() []int64 {
	out := make([]int64, len(a.ids))
	copy(out, a.ids)
	return out
}

func (a *Assignments) Len() int { return len(a.ids) }
