package user

import (
	"testing"
	"time"

	"github.com/jabolina/go-social/pkg/social/definition"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	u := New(types.NewUserId(0, 1), definition.NewDefaultLogger(), types.DefaultInvoker{})
	t.Cleanup(u.Stop)
	return u
}

func TestNewPostInClassifiesByAuthor(t *testing.T) {
	u := newTestUser(t)
	self := u.ID()
	other := types.NewUserId(0, 2)

	ownPost := types.NewPostId(0, 1, 1)
	u.NewPostIn(ownPost, self, nil)

	unsolicited := types.NewPostId(0, 2, 2)
	u.NewPostIn(unsolicited, other, nil)

	require.Eventually(t, func() bool {
		ids, err := u.GetUserPostIds()
		return err == nil && len(ids) == 1 && ids[0] == ownPost
	}, time.Second, 5*time.Millisecond)

	ids, err := u.GetPostIds()
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, ownPost, ids[0])
}

func TestNewPostInAcceptsFollowedAuthor(t *testing.T) {
	u := newTestUser(t)
	other := types.NewUserId(0, 2)
	u.FollowRequestAccepted(other) // not the real flow, just seeds `following` for this unit test

	id := types.NewPostId(0, 9, 1)
	u.NewPostIn(id, other, nil)

	require.Eventually(t, func() bool {
		ids, err := u.GetPostIds()
		return err == nil && len(ids) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestNewPostInAcceptsMentionUnlessLocallyBlocked(t *testing.T) {
	u := newTestUser(t)
	other := types.NewUserId(0, 2)
	mentions := map[types.UserId]struct{}{u.ID(): {}}

	id := types.NewPostId(0, 1, 1)
	u.NewPostIn(id, other, mentions)
	require.Eventually(t, func() bool {
		ids, _ := u.GetPostIds()
		return len(ids) == 1
	}, time.Second, 5*time.Millisecond)

	u.BlockUser(other)
	id2 := types.NewPostId(0, 2, 2)
	u.NewPostIn(id2, other, mentions)

	time.Sleep(20 * time.Millisecond)
	ids, err := u.GetPostIds()
	require.NoError(t, err)
	require.Len(t, ids, 1, "post from a locally-blocked mentioner must not be accepted")
}

func TestDeletePostIsIdempotentAndRemovesFromBothSets(t *testing.T) {
	u := newTestUser(t)
	self := u.ID()
	other := types.NewUserId(0, 2)
	u.FollowRequestAccepted(other) // seeds `following` so other's post lands in the feed

	id := types.NewPostId(0, 1, 1)
	u.NewPostIn(id, self, nil)
	feedID := types.NewPostId(0, 2, 2)
	u.NewPostIn(feedID, other, nil)

	require.Eventually(t, func() bool {
		n, _ := u.GetPostIds()
		return len(n) == 2
	}, time.Second, 5*time.Millisecond)

	u.DeletePost(id)
	u.DeletePost(id)
	u.DeletePost(feedID)

	ids, err := u.GetUserPostIds()
	require.NoError(t, err)
	require.Empty(t, ids)

	feed, err := u.GetPostIds()
	require.NoError(t, err)
	require.Empty(t, feed)
}

func TestFollowRequestStateMachine(t *testing.T) {
	u := newTestUser(t)
	requester := types.NewUserId(0, 2)

	// incoming: none -> incoming -> follower
	u.FollowRequest(requester)
	u.AcceptFollowRequest(requester)

	require.Eventually(t, func() bool {
		followers, err := u.GetFollowers()
		_, ok := followers[requester]
		return err == nil && ok
	}, time.Second, 5*time.Millisecond)
}

func TestDenyFollowRequestIsIdempotent(t *testing.T) {
	u := newTestUser(t)
	requester := types.NewUserId(0, 2)

	u.DenyFollowRequest(requester) // no prior FollowRequest: no-op
	u.FollowRequest(requester)
	u.DenyFollowRequest(requester)
	u.DenyFollowRequest(requester)

	require.Eventually(t, func() bool {
		followers, err := u.GetFollowers()
		return err == nil && len(followers) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRequestFollowAcceptedMovesToFollowing(t *testing.T) {
	u := newTestUser(t)
	target := types.NewUserId(0, 2)

	u.RequestFollow(target)
	u.FollowRequestAccepted(target)

	require.Eventually(t, func() bool {
		u.tell(func() {})
		return true
	}, time.Second, 5*time.Millisecond)

	id := types.NewPostId(0, 1, 1)
	u.NewPostIn(id, target, nil)
	require.Eventually(t, func() bool {
		ids, _ := u.GetPostIds()
		return len(ids) == 1
	}, time.Second, 5*time.Millisecond)
}
