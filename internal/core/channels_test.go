package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campuskit/beacon/internal/domain"
)

func TestChannelTable_JoinLeaveIdempotent(t *testing.T) {
	req := require.New(t)
	tbl := NewChannelTable()
	course := domain.CourseChannel("42")

	// When the same connection joins twice
	req.True(tbl.Join("c1", course))
	req.False(tbl.Join("c1", course))

	// Then the roster holds it once
	req.Equal([]ConnID{"c1"}, tbl.MembersOf(course))
	req.Equal(1, tbl.Count(course))

	// And leaving twice changes membership once
	req.True(tbl.Leave("c1", course))
	req.False(tbl.Leave("c1", course))
	req.Empty(tbl.MembersOf(course))
	req.Zero(tbl.Count(course))
}

func TestChannelTable_LeaveAll(t *testing.T) {
	req := require.New(t)
	tbl := NewChannelTable()
	c42 := domain.CourseChannel("42")
	c43 := domain.CourseChannel("43")

	// Given c1 in two channels and c2 in one of them
	tbl.Join("c1", c42)
	tbl.Join("c1", c43)
	tbl.Join("c1", domain.NotifyChannel("u1"))
	tbl.Join("c2", c42)

	// When c1 leaves everything
	affected := tbl.LeaveAll("c1")

	// Then every channel it belonged to is reported
	req.ElementsMatch([]domain.ChannelName{c42, c43, domain.NotifyChannel("u1")}, affected)
	req.Empty(tbl.ChannelsOf("c1"))

	// And other members' rosters are untouched
	req.Equal([]ConnID{"c2"}, tbl.MembersOf(c42))
	req.Zero(tbl.Count(c43))
}

func TestChannelTable_LeaveAllUnknownConn(t *testing.T) {
	req := require.New(t)
	tbl := NewChannelTable()

	req.Empty(tbl.LeaveAll("ghost"))
}

func TestChannelTable_ConcurrentJoinLeaveLeaveAll(t *testing.T) {
	req := require.New(t)
	tbl := NewChannelTable()
	shared := domain.CourseChannel("shared")
	const n = 64

	// Connections race join/leave on one shared roster while touching a
	// private channel of their own; the odd ones finish with LeaveAll.
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ConnID(fmt.Sprintf("c%d", i))
			own := domain.CourseChannel(fmt.Sprintf("own-%d", i))
			tbl.Join(id, shared)
			tbl.Join(id, own)
			tbl.Join(id, shared)
			tbl.Leave(id, own)
			if i%2 == 1 {
				tbl.LeaveAll(id)
			}
		}(i)
	}
	wg.Wait()

	// No update may be lost: exactly the even connections remain, once each.
	members := tbl.MembersOf(shared)
	seen := make(map[ConnID]struct{}, len(members))
	for _, id := range members {
		_, dup := seen[id]
		req.False(dup, "duplicate member %s", id)
		seen[id] = struct{}{}
	}
	want := make([]ConnID, 0, n/2)
	for i := 0; i < n; i += 2 {
		want = append(want, ConnID(fmt.Sprintf("c%d", i)))
	}
	req.ElementsMatch(want, members)
	req.Equal(n/2, tbl.Count(shared))

	for i := 0; i < n; i++ {
		id := ConnID(fmt.Sprintf("c%d", i))
		if i%2 == 1 {
			req.Empty(tbl.ChannelsOf(id))
		} else {
			req.Equal([]domain.ChannelName{shared}, tbl.ChannelsOf(id))
		}
	}
}

func TestChannelTable_ListByKind(t *testing.T) {
	req := require.New(t)
	tbl := NewChannelTable()

	tbl.Join("c1", domain.CourseChannel("42"))
	tbl.Join("c2", domain.CourseChannel("42"))
	tbl.Join("c1", domain.NotifyChannel("u1"))

	infos := tbl.List(domain.ChannelCourse)
	req.Len(infos, 1)
	req.Equal(domain.CourseChannel("42"), infos[0].Name)
	req.Equal(2, infos[0].Members)
}
