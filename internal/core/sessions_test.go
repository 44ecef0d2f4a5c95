package core

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/beacon/internal/domain"
)

func TestSessionRegistry_FirstAndLastEdges(t *testing.T) {
	req := require.New(t)
	reg := NewSessionRegistry()
	u := domain.UserID("u1")

	// Given an offline identity
	req.False(reg.IsOnline(u))
	req.Zero(reg.OnlineCount())

	// When it opens two sessions
	first := reg.Register(u, "c1")
	second := reg.Register(u, "c2")

	// Then only the first one is the online edge
	req.True(first)
	req.False(second)
	req.True(reg.IsOnline(u))
	req.Equal(1, reg.OnlineCount())
	req.Len(reg.SessionsOf(u), 2)

	// When both close
	last1 := reg.Unregister(u, "c1")
	last2 := reg.Unregister(u, "c2")

	// Then only the second close is the offline edge
	req.False(last1)
	req.True(last2)
	req.False(reg.IsOnline(u))
	req.Zero(reg.OnlineCount())
}

func TestSessionRegistry_UnknownUnregister(t *testing.T) {
	req := require.New(t)
	reg := NewSessionRegistry()

	req.False(reg.Unregister("ghost", "c1"))

	reg.Register("u1", "c1")
	req.False(reg.Unregister("u1", "other-conn"))
	req.True(reg.IsOnline("u1"))
}

func TestSessionRegistry_ConcurrentSameIdentity(t *testing.T) {
	req := require.New(t)
	reg := NewSessionRegistry()
	u := domain.UserID("u1")
	const n = 64

	var firsts, lasts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if reg.Register(u, ConnID(fmt.Sprintf("c%d", i))) {
				firsts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	// Exactly one empty -> non-empty edge regardless of interleaving.
	req.EqualValues(1, firsts.Load())
	req.True(reg.IsOnline(u))
	req.Len(reg.SessionsOf(u), n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if reg.Unregister(u, ConnID(fmt.Sprintf("c%d", i))) {
				lasts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	req.EqualValues(1, lasts.Load())
	req.False(reg.IsOnline(u))
}

func TestSessionRegistry_ConcurrentDistinctIdentities(t *testing.T) {
	req := require.New(t)
	reg := NewSessionRegistry()
	const users = 40

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := domain.UserID(fmt.Sprintf("u%d", i))
			reg.Register(u, ConnID(fmt.Sprintf("c%d-a", i)))
			reg.Register(u, ConnID(fmt.Sprintf("c%d-b", i)))
			reg.Unregister(u, ConnID(fmt.Sprintf("c%d-a", i)))
		}(i)
	}
	wg.Wait()

	req.Equal(users, reg.OnlineCount())
	for i := 0; i < users; i++ {
		req.True(reg.IsOnline(domain.UserID(fmt.Sprintf("u%d", i))))
	}
}
