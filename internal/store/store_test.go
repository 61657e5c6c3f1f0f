package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignments(t *testing.T) {
	a := NewAssignments()

	assert.True(t, a.Assign(3))
	assert.True(t, a.Assign(1))
	assert.False(t, a.Assign(3), "second assign is a no-op")
	assert.Equal(t, []int64{3, 1}, a.IDs())

	assert.True(t, a.Contains(1))
	assert.False(t, a.Contains(2))

	assert.False(t, a.Unassign(2))
	assert.True(t, a.Unassign(3))
	assert.Equal(t, []int64{1}, a.IDs())
	assert.Equal(t, 1, a.Len())

	ids := a.IDs()
	ids[0] = 99
	assert.Equal(t, []int64{1}, a.IDs(), "IDs hands out a copy")

	assert.True(t, a.InsertAt(5, 0))
	assert.True(t, a.InsertAt(6, 1))
	assert.True(t, a.InsertAt(7, 42), "out of range appends")
	assert.False(t, a.InsertAt(1, 0))
	assert.Equal(t, []int64{5, 6, 1, 7}, a.IDs())
	assert.Equal(t, 2, a.IndexOf(1))
	assert.Equal(t, -1, a.IndexOf(3))
}

func TestNotifications(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     int
		want     []string
	}{
		{name: "under capacity", capacity: 3, push: 2, want: []string{"m1", "m2"}},
		{name: "exactly full", capacity: 3, push: 3, want: []string{"m1", "m2", "m3"}},
		{name: "one over", capacity: 3, push: 4, want: []string{"m2", "m3", "m4"}},
		{name: "wrapped twice", capacity: 2, push: 5, want: []string{"m4", "m5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifications(tt.capacity)
			for i := 1; i <= tt.push; i++ {
				n.Enqueue(fmt.Sprintf("m%d", i))
			}
			assert.Equal(t, tt.want, n.All())
			assert.Equal(t, tt.want, n.All(), "reading does not consume")
			assert.LessOrEqual(t, n.Len(), n.Capacity())
		})
	}

	t.Run("clear", func(t *testing.T) {
		n := NewNotifications(0)
		assert.Equal(t, DefaultNotificationCapacity, n.Capacity())
		n.Enqueue("a")
		n.Clear()
		assert.Empty(t, n.All())
		n.Enqueue("b")
		assert.Equal(t, []string{"b"}, n.All())
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(2, 5)

	alice, err := r.GetOrCreate("alice")
	require.NoError(t, err)
	again, err := r.GetOrCreate("alice")
	require.NoError(t, err)
	assert.Same(t, alice, again)
	assert.Equal(t, 5, alice.History.Capacity())

	_, ok := r.Find("bob")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len(), "Find never creates")

	_, err = r.GetOrCreate("bob")
	require.NoError(t, err)
	_, err = r.GetOrCreate("carol")
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	assert.Equal(t, []string{"alice", "bob"}, r.Names())
	assert.Len(t, r.Users(), 2)

	r.Reset()
	assert.Equal(t, 0, r.Len())
}
