package core

import (
	"hash/fnv"
	"sync"

	"github.com/campuskit/beacon/internal/domain"
)

const sessionShards = 16

type sessionShard struct {
	mu     sync.Mutex
	byUser map[domain.UserID]map[ConnID]struct{}
}

// SessionRegistry maps an identity to its set of live connections and
// derives online/offline transitions from set emptiness. State is
// sharded by identity hash: operations on unrelated identities never
// contend, while same-identity mutations serialize on one shard mutex,
// so exactly one first-session and one last-session edge fires per
// online/offline cycle regardless of interleaving.
type SessionRegistry struct {
	shards [sessionShards]*sessionShard
}

func NewSessionRegistry() *SessionRegistry {
	r := &SessionRegistry{}
	for i := range r.shards {
		r.shards[i] = &sessionShard{byUser: make(map[domain.UserID]map[ConnID]struct{})}
	}
	return r
}

func (r *SessionRegistry) shard(u domain.UserID) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(u))
	return r.shards[h.Sum32()%sessionShards]
}

// Register adds a connection to the identity's session set and reports
// whether it was the first one (the offline -> online edge).
func (r *SessionRegistry) Register(u domain.UserID, id ConnID) (first bool) {
	s := r.shard(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byUser[u]
	if !ok {
		set = make(map[ConnID]struct{})
		s.byUser[u] = set
	}
	first = len(set) == 0
	set[id] = struct{}{}
	return first
}

// Unregister removes a connection and reports whether it was the last
// one (the online -> offline edge). Removing a connection that was
// never registered reports false.
func (r *SessionRegistry) Unregister(u domain.UserID, id ConnID) (last bool) {
	s := r.shard(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byUser[u]
	if !ok {
		return false
	}
	if _, member := set[id]; !member {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.byUser, u)
		return true
	}
	return false
}

// IsOnline reports whether the identity has at least one live session.
func (r *SessionRegistry) IsOnline(u domain.UserID) bool {
	s := r.shard(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser[u]) > 0
}

// SessionsOf returns the identity's live connection IDs.
func (r *SessionRegistry) SessionsOf(u domain.UserID) []ConnID {
	s := r.shard(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConnID, 0, len(s.byUser[u]))
	for id := range s.byUser[u] {
		out = append(out, id)
	}
	return out
}

// OnlineCount returns how many identities currently hold sessions.
func (r *SessionRegistry) OnlineCount() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.byUser)
		s.mu.Unlock()
	}
	return n
}
