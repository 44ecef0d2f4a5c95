package domain

import (
	"errors"
	"strings"
)

const MaxChannelNameLen = 72

var ErrBadChannelName = errors.New("bad channel name")

// ChannelName is the full namespaced name of a fan-out group,
// e.g. "notify:u17", "inbox:u17", "course:cs101", "role:instructor", "all".
type ChannelName string

// ChannelKind classifies a channel by its name prefix.
type ChannelKind int

const (
	// ChannelUnknown is any name outside the reserved namespaces.
	ChannelUnknown ChannelKind = iota
	// ChannelNotify is the personal notification channel of one user.
	ChannelNotify
	// ChannelInbox is the personal mailbox used as a direct-message address.
	ChannelInbox
	// ChannelCourse is a class broadcast group with explicit join/leave.
	ChannelCourse
	// ChannelRole has implicit membership derived from the identity role.
	ChannelRole
	// ChannelAll is the implicit global announcement group.
	ChannelAll
)

const (
	prefixNotify = "notify:"
	prefixInbox  = "inbox:"
	prefixCourse = "course:"
	prefixRole   = "role:"

	ChannelNameAll ChannelName = "all"
)

func NotifyChannel(u UserID) ChannelName { return ChannelName(prefixNotify + string(u)) }
func InboxChannel(u UserID) ChannelName  { return ChannelName(prefixInbox + string(u)) }
func CourseChannel(id string) ChannelName {
	return ChannelName(prefixCourse + id)
}
func RoleChannel(r Role) ChannelName { return ChannelName(prefixRole + string(r)) }

func (n ChannelName) Kind() ChannelKind {
	s := string(n)
	switch {
	case n == ChannelNameAll:
		return ChannelAll
	case strings.HasPrefix(s, prefixNotify):
		return ChannelNotify
	case strings.HasPrefix(s, prefixInbox):
		return ChannelInbox
	case strings.HasPrefix(s, prefixCourse):
		return ChannelCourse
	case strings.HasPrefix(s, prefixRole):
		return ChannelRole
	}
	return ChannelUnknown
}

// Validate rejects names a client may not address at all.
func (n ChannelName) Validate() error {
	if len(n) == 0 || len(n) > MaxChannelNameLen {
		return ErrBadChannelName
	}
	return nil
}
