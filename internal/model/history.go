package model

import "fmt"

type Operation int

const (
	OpAssign Operation = iota + 1
	OpUnassign
)

func (o Operation) String() string {
	switch o {
	case OpAssign:
		return "assign"
	case OpUnassign:
		return "unassign"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Operation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "assign":
		*o = OpAssign
	case "unassign":
		*o = OpUnassign
	default:
		return fmt.Errorf("unknown operation %q", b)
	}
	return nil
}

// Inverse returns the operation that reverts o.
func (o Operation) Inverse() Operation {
	if o == OpAssign {
		return OpUnassign
	}
	return OpAssign
}

// HistoryEntry records what was done, not what undoing it requires.
// Position is where an unassigned task sat in the list.
type HistoryEntry struct {
	TaskID   int64     `json:"task_id"`
	Op       Operation `json:"op"`
	Position int       `json:"position,omitempty"`
}
