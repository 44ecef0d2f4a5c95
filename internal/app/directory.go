package app

import (
	"context"
	"sync"

	"github.com/campuskit/beacon/internal/domain"
)

// MemoryDirectory is an in-process IdentityDirectory for the demo
// binary and tests. Production wires the platform's user store instead.
type MemoryDirectory struct {
	mu      sync.RWMutex
	entries map[domain.UserID]DirectoryEntry
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{entries: make(map[domain.UserID]DirectoryEntry)}
}

func (d *MemoryDirectory) Put(ident domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[ident.UserID] = DirectoryEntry{Identity: ident, Active: true}
}

// Deactivate marks the account inactive; the next handshake is refused.
func (d *MemoryDirectory) Deactivate(id domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[id]; ok {
		e.Active = false
		d.entries[id] = e
	}
}

func (d *MemoryDirectory) Lookup(_ context.Context, id domain.UserID) (DirectoryEntry, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	return e, ok, nil
}
