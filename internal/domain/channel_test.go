package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelName_Kinds(t *testing.T) {
	req := require.New(t)

	req.Equal(ChannelNotify, NotifyChannel("u1").Kind())
	req.Equal(ChannelInbox, InboxChannel("u1").Kind())
	req.Equal(ChannelCourse, CourseChannel("42").Kind())
	req.Equal(ChannelRole, RoleChannel(RoleInstructor).Kind())
	req.Equal(ChannelAll, ChannelNameAll.Kind())
	req.Equal(ChannelUnknown, ChannelName("whatever").Kind())
}

func TestChannelName_Validate(t *testing.T) {
	req := require.New(t)

	req.NoError(CourseChannel("42").Validate())
	req.ErrorIs(ChannelName("").Validate(), ErrBadChannelName)
	long := ChannelName("course:" + strings.Repeat("x", MaxChannelNameLen))
	req.ErrorIs(long.Validate(), ErrBadChannelName)
}

func TestParseRole(t *testing.T) {
	req := require.New(t)

	for _, s := range []string{"student", "instructor", "admin"} {
		r, err := ParseRole(s)
		req.NoError(err)
		req.Equal(Role(s), r)
	}
	_, err := ParseRole("janitor")
	req.ErrorIs(err, ErrUnknownRole)

	req.True(RoleInstructor.Privileged())
	req.True(RoleAdmin.Privileged())
	req.False(RoleStudent.Privileged())
}
