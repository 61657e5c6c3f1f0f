package store

import "fmt"

const DefaultMaxUsers = 20

// User is created on first reference and lives for the rest of the run.
type User struct {
	Name    string
	Tasks   *Assignments
	History *History
}

// Registry maps usernames to users and remembers the order they appeared in.
type Registry struct {
	users      map[string]*User
	order      []string
	max        int
	historyCap int
}

// NewRegistry creates a registry bounded to max users (<= 0 picks the
// default). Each new user gets histories of historyCap entries.
func NewRegistry(max, historyCap int) *Registry {
	if max <= 0 {
		max = DefaultMaxUsers
	}
	return &Registry{
		users:      make(map[string]*User),
		max:        max,
		historyCap: historyCap,
	}
}

func (r *Registry) GetOrCreate(name string) (*User, error) {
	if u, ok := r.users[name]; ok {
		return u, nil
	}
	if len(r.order) >= r.max {
		return nil, fmt.Errorf("registry holds %d users: %w", len(r.order), ErrCapacityExceeded)
	}
	u := &User{
		Name:    name,
		Tasks:   NewAssignments(),
		History: NewHistory(r.historyCap),
	}
	r.users[name] = u
	r.order = append(r.order, name)
	return u, nil
}

// Find looks a user up without creating it.
func (r *Registry) Find(name string) (*User, bool) {
	u, ok := r.users[name]
	return u, ok
}

// Users returns every user in creation order.
func (r *Registry) Users() []*User {
	out := make([]*User, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.users[name])
	}
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) Max() int { return r.max }

func (r *Registry) Reset() {
	r.users = make(map[string]*User)
	r.order = nil
}
