package core

import (
	"sync"

	"github.com/campuskit/beacon/internal/domain"
)

// ChannelTable is a threadsafe in-memory roster store: channel name ->
// set of member connections, plus a reverse index so LeaveAll touches
// only the channels a connection actually joined. It never closes
// adapter-owned resources and knows nothing about transports.
type ChannelTable struct {
	mu       sync.RWMutex
	channels map[domain.ChannelName]map[ConnID]struct{}
	byConn   map[ConnID]map[domain.ChannelName]struct{}
}

// ChannelInfo is a read-only view for APIs.
type ChannelInfo struct {
	Name    domain.ChannelName `json:"name"`
	Members int                `json:"members"`
}

func NewChannelTable() *ChannelTable {
	return &ChannelTable{
		channels: make(map[domain.ChannelName]map[ConnID]struct{}),
		byConn:   make(map[ConnID]map[domain.ChannelName]struct{}),
	}
}

// Join adds the connection to the channel. Idempotent; reports whether
// the roster actually changed.
func (t *ChannelTable) Join(id ConnID, name domain.ChannelName) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.channels[name]
	if !ok {
		set = make(map[ConnID]struct{})
		t.channels[name] = set
	}
	if _, member := set[id]; member {
		return false
	}
	set[id] = struct{}{}
	rev, ok := t.byConn[id]
	if !ok {
		rev = make(map[domain.ChannelName]struct{})
		t.byConn[id] = rev
	}
	rev[name] = struct{}{}
	return true
}

// Leave removes the connection from the channel. Idempotent; reports
// whether the roster actually changed. Empty channels are dropped so
// the table never leaks names.
func (t *ChannelTable) Leave(id ConnID, name domain.ChannelName) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(id, name)
}

func (t *ChannelTable) leaveLocked(id ConnID, name domain.ChannelName) bool {
	set, ok := t.channels[name]
	if !ok {
		return false
	}
	if _, member := set[id]; !member {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(t.channels, name)
	}
	if rev, ok := t.byConn[id]; ok {
		delete(rev, name)
		if len(rev) == 0 {
			delete(t.byConn, id)
		}
	}
	return true
}

// LeaveAll removes the connection from every channel it belongs to and
// returns the channels whose membership changed. Used only by cleanup.
func (t *ChannelTable) LeaveAll(id ConnID) []domain.ChannelName {
	t.mu.Lock()
	defer t.mu.Unlock()
	rev := t.byConn[id]
	affected := make([]domain.ChannelName, 0, len(rev))
	for name := range rev {
		affected = append(affected, name)
	}
	for _, name := range affected {
		t.leaveLocked(id, name)
	}
	return affected
}

// MembersOf returns the current roster of the channel, without
// duplicates. A missing channel has an empty roster.
func (t *ChannelTable) MembersOf(name domain.ChannelName) []ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.channels[name]
	out := make([]ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Count returns the live member count of the channel.
func (t *ChannelTable) Count(name domain.ChannelName) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.channels[name])
}

// ChannelsOf returns the channels the connection currently belongs to.
func (t *ChannelTable) ChannelsOf(id ConnID) []domain.ChannelName {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rev := t.byConn[id]
	out := make([]domain.ChannelName, 0, len(rev))
	for name := range rev {
		out = append(out, name)
	}
	return out
}

// List returns every channel of the given kind with its member count.
func (t *ChannelTable) List(kind domain.ChannelKind) []ChannelInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []ChannelInfo
	for name, set := range t.channels {
		if name.Kind() != kind {
			continue
		}
		out = append(out, ChannelInfo{Name: name, Members: len(set)})
	}
	return out
}
