package model

import "strconv"

// IconState is the presentation state of the toolbar icon. It is derived from
// href store transitions and never written by the resolver.
type IconState struct {
	State       IconStatus
	UnreadCount int
}

// DefaultIconState is used when nothing (or garbage) is persisted.
func DefaultIconState() IconState {
	return IconState{State: IconStatusOff}
}

// BadgeText returns "+N" for a positive unread count and "" otherwise.
func (s IconState) BadgeText() string {
	if s.UnreadCount <= 0 {
		return ""
	}
	return "+" + strconv.Itoa(s.UnreadCount)
}
