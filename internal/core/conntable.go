package core

import (
	"sync"

	"github.com/campuskit/beacon/internal/domain"
)

// ConnTable is the process-wide index of live connections. It is an
// explicitly constructed state object: the hub owns one instance and
// hands it to every component that needs lookups, so tests can spin up
// independent tables.
type ConnTable struct {
	mu    sync.RWMutex
	conns map[ConnID]*Conn
}

func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[ConnID]*Conn)}
}

func (t *ConnTable) Add(c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[c.ID] = c
}

func (t *ConnTable) Remove(id ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, id)
}

func (t *ConnTable) Get(id ConnID) (*Conn, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[id]
	return c, ok
}

func (t *ConnTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

// Snapshot returns every live connection. Callers fan out over the
// returned slice without holding the table lock.
func (t *ConnTable) Snapshot() []*Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Conn, 0, len(t.conns))
	for _, c := range t.conns {
		out = append(out, c)
	}
	return out
}

// ByRole returns the connections whose identity holds the given role.
// Role channels have no explicit roster; membership is derived here.
func (t *ConnTable) ByRole(role domain.Role) []*Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Conn
	for _, c := range t.conns {
		if c.Identity.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// ExceptUser returns every connection not owned by the given user.
func (t *ConnTable) ExceptUser(u domain.UserID) []*Conn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Conn
	for _, c := range t.conns {
		if c.Identity.UserID != u {
			out = append(out, c)
		}
	}
	return out
}
