package user

import "github.com/jabolina/go-social/pkg/social/types"

// Message payloads Inbox forwards to its User, and Dispatch's unit of
// delivery (spec.md §4.8 "send m to target's Inbox").

type NewPostIn struct {
	Id       types.PostId
	Author   types.UserId
	Mentions map[types.UserId]struct{}
}

type FollowRequest struct {
	From types.UserId
}

type FollowRequestAccepted struct {
	From types.UserId
}

type FollowRequestDenied struct {
	From types.UserId
}

// Blocked(by) tells self that by has blocked self.
type Blocked struct {
	By types.UserId
}
