package store

const DefaultNotificationCapacity = 200

// Notifications is a ring of event messages. When full, the oldest message
// is dropped to admit a new one. There is one log for all users.
type Notifications struct {
	buf   []string
	start int
	size  int
}

func NewNotifications(capacity int) *Notifications {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	return &Notifications{buf: make([]string, capacity)}
}

func (n *Notifications) Enqueue(msg string) {
	if n.size == len(n.buf) {
		n.buf[n.start] = msg
		n.start = (n.start + 1) % len(n.buf)
		return
	}
	n.buf[(n.start+n.size)%len(n.buf)] = msg
	n.size++
}

// All returns the messages oldest first without consuming them.
func (n *Notifications) All() []string {
	out := make([]string, 0, n.size)
	for k := 0; k < n.size; k++ {
		out = append(out, n.buf[(n.start+k)%len(n.buf)])
	}
	return out
}

func (n *Notifications) Clear() {
	for k := range n.buf {
		n.buf[k] = ""
	}
	n.start, n.size = 0, 0
}

func (n *Notifications) Len() int { return n.size }

func (n *Notifications) Capacity() int { return len(n.buf) }
