package store

import "github.com/BuzzLyutic/task-tracker/internal/model"

const DefaultHistoryCapacity = 128

// boundedStack is a LIFO over a fixed ring. Pushing onto a full stack
// overwrites the bottom entry.
type boundedStack struct {
	buf   []model.HistoryEntry
	start int
	size  int
}

func newBoundedStack(capacity int) *boundedStack {
	return &boundedStack{buf: make([]model.HistoryEntry, capacity)}
}

func (s *boundedStack) push(e model.HistoryEntry) {
	if s.size == len(s.buf) {
		s.buf[s.start] = e
		s.start = (s.start + 1) % len(s.buf)
		return
	}
	s.buf[(s.start+s.size)%len(s.buf)] = e
	s.size++
}

func (s *boundedStack) pop() (model.HistoryEntry, bool) {
	if s.size == 0 {
		return model.HistoryEntry{}, false
	}
	top := (s.start + s.size - 1) % len(s.buf)
	e := s.buf[top]
	s.buf[top] = model.HistoryEntry{}
	s.size--
	return e, true
}

func (s *boundedStack) clear() {
	for k := range s.buf {
		s.buf[k] = model.HistoryEntry{}
	}
	s.start, s.size = 0, 0
}

// History is a user's pair of undo and redo stacks.
type History struct {
	undo *boundedStack
	redo *boundedStack
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		undo: newBoundedStack(capacity),
		redo: newBoundedStack(capacity),
	}
}

// Record logs a fresh user action. Redo history is invalidated.
func (h *History) Record(e model.HistoryEntry) {
	h.undo.push(e)
	h.redo.clear()
}

func (h *History) PopUndo() (model.HistoryEntry, bool) { return h.undo.pop() }

func (h *History) PopRedo() (model.HistoryEntry, bool) { return h.redo.pop() }

// PushUndo is used when a redo replays an entry; it keeps the redo stack.
func (h *History) PushUndo(e model.HistoryEntry) { h.undo.push(e) }

func (h *History) PushRedo(e model.HistoryEntry) { h.redo.push(e) }

func (h *History) UndoLen() int { return h.undo.size }

func (h *History) RedoLen() int { return h.redo.size }

func (h *History) Capacity() int { return len(h.undo.buf) }
