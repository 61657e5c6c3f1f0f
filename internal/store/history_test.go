package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-tracker/internal/model"
)

func entry(id int64, op model.Operation) model.HistoryEntry {
	return model.HistoryEntry{TaskID: id, Op: op}
}

func TestHistory_LIFO(t *testing.T) {
	h := NewHistory(4)
	h.Record(entry(1, model.OpAssign))
	h.Record(entry(2, model.OpUnassign))
	h.Record(entry(3, model.OpAssign))

	for _, want := range []model.HistoryEntry{entry(3, model.OpAssign), entry(2, model.OpUnassign), entry(1, model.OpAssign)} {
		got, ok := h.PopUndo()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := h.PopUndo()
	assert.False(t, ok)
}

func TestHistory_OverflowDropsOldest(t *testing.T) {
	h := NewHistory(3)
	for id := int64(1); id <= 5; id++ {
		h.Record(entry(id, model.OpAssign))
	}
	assert.Equal(t, 3, h.UndoLen())

	var ids []int64
	for {
		e, ok := h.PopUndo()
		if !ok {
			break
		}
		ids = append(ids, e.TaskID)
	}
	assert.Equal(t, []int64{5, 4, 3}, ids)
}

func TestHistory_RecordClearsRedo(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryCapacity, h.Capacity())

	h.Record(entry(1, model.OpAssign))
	e, ok := h.PopUndo()
	require.True(t, ok)
	h.PushRedo(e)
	assert.Equal(t, 1, h.RedoLen())

	h.PushUndo(entry(2, model.OpAssign))
	assert.Equal(t, 1, h.RedoLen(), "replays keep redo history")

	h.Record(entry(3, model.OpUnassign))
	assert.Equal(t, 0, h.RedoLen(), "fresh actions drop redo history")
	_, ok = h.PopRedo()
	assert.False(t, ok)
}

func TestHistory_ReuseAfterWrap(t *testing.T) {
	h := NewHistory(2)
	h.Record(entry(1, model.OpAssign))
	h.Record(entry(2, model.OpAssign))
	h.Record(entry(3, model.OpAssign))

	_, _ = h.PopUndo()
	h.PushUndo(entry(4, model.OpUnassign))

	e, ok := h.PopUndo()
	require.True(t, ok)
	assert.Equal(t, entry(4, model.OpUnassign), e)
	e, ok = h.PopUndo()
	require.True(t, ok)
	assert.Equal(t, entry(2, model.OpAssign), e)
	assert.Equal(t, 0, h.UndoLen())
}
