package test

import (
	"testing"
	"time"

	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/dispatch"
	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/go-social/pkg/social/users"
	"github.com/stretchr/testify/require"
)

// node bundles one replica of every shard plus the Dispatch coordinator that
// sits in front of it, enough to drive the full Outbox → Dispatch → Inbox
// path end to end.
type node struct {
	posts      *posts.Shard
	users      *users.Shard
	blocklists *blocklist.Shard
	dispatch   *dispatch.Dispatch
}

func newNode(t *testing.T, shardID types.ShardId, invoker types.Invoker) *node {
	log := NewLogger()
	postsShard := posts.NewShard(shardID, nil, log, invoker)
	blocklistsShard := blocklist.NewShard(nil, log, invoker)
	usersShard := users.NewShard(shardID, postsShard, blocklistsShard, nil, log, invoker)
	d := dispatch.New(usersShard, blocklistsShard, log)
	require.NoError(t, usersShard.SetDispatch(d))
	return &node{posts: postsShard, users: usersShard, blocklists: blocklistsShard, dispatch: d}
}

func (n *node) newUser(t *testing.T) types.UserId {
	id, err := n.users.NewUser()
	require.NoError(t, err)
	return id
}

const propagationDelay = 150 * time.Millisecond

// Scenario 1: peering & size.
func TestPeeringAndSize(t *testing.T) {
	invoker := NewInvoker()
	log := NewLogger()

	shard0 := posts.NewShard(0, nil, log, invoker)
	shard1 := posts.NewShard(1, []peered.PeerLink{shard0}, log, invoker)
	shard2 := posts.NewShard(2, []peered.PeerLink{shard1}, log, invoker)

	time.Sleep(time.Second)

	require.Equal(t, 2, shard0.PeerSize())
	require.Equal(t, 2, shard1.PeerSize())
	require.Equal(t, 2, shard2.PeerSize())

	shard0.Stop()
	shard1.Stop()
	shard2.Stop()
}

// Scenario 2: no follow, no fan-out.
func TestNoFollowNoFanOut(t *testing.T) {
	invoker := NewInvoker()
	n := newNode(t, 0, invoker)

	u0 := n.newUser(t)
	u1 := n.newUser(t)
	u2 := n.newUser(t)

	h1, err := n.users.Lookup(u1)
	require.NoError(t, err)
	h0, err := n.users.Lookup(u0)
	require.NoError(t, err)

	h0.Outbox.RequestFollow(u1)
	time.Sleep(propagationDelay)
	h1.Outbox.DenyFollowRequest(u0)
	time.Sleep(propagationDelay)
	h1.Outbox.NewPostOut(nil)
	time.Sleep(propagationDelay)

	userPostIds, err := h1.User.GetUserPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, userPostIds)

	feed0, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.Empty(t, feed0)

	h2, err := n.users.Lookup(u2)
	require.NoError(t, err)
	feed2, err := h2.User.GetPostIds()
	require.NoError(t, err)
	require.Empty(t, feed2)
}

// Scenario 3: follow fans a post out to every accepted follower.
func TestFollowFansOut(t *testing.T) {
	invoker := NewInvoker()
	n := newNode(t, 0, invoker)

	u0 := n.newUser(t)
	u1 := n.newUser(t)
	u2 := n.newUser(t)

	h0, _ := n.users.Lookup(u0)
	h1, _ := n.users.Lookup(u1)
	h2, _ := n.users.Lookup(u2)

	h0.Outbox.RequestFollow(u1)
	h2.Outbox.RequestFollow(u1)
	time.Sleep(propagationDelay)

	h1.Outbox.AcceptFollowRequest(u0)
	h1.Outbox.AcceptFollowRequest(u2)
	time.Sleep(propagationDelay)

	h1.Outbox.NewPostOut(nil)
	time.Sleep(propagationDelay)

	ownPosts, err := h1.User.GetUserPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, ownPosts)

	feed0, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, feed0)

	feed2, err := h2.User.GetPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, feed2)

	own0, err := h0.User.GetUserPostIds()
	require.NoError(t, err)
	require.Empty(t, own0)

	own2, err := h2.User.GetUserPostIds()
	require.NoError(t, err)
	require.Empty(t, own2)
}

// Scenario 4: blocking cascades a deletion of the blocker's past posts.
func TestBlockCascadesDeletion(t *testing.T) {
	invoker := NewInvoker()
	n := newNode(t, 0, invoker)

	u0 := n.newUser(t)
	u1 := n.newUser(t)

	h0, _ := n.users.Lookup(u0)
	h1, _ := n.users.Lookup(u1)

	h0.Outbox.RequestFollow(u1)
	time.Sleep(propagationDelay)
	h1.Outbox.AcceptFollowRequest(u0)
	time.Sleep(propagationDelay)

	h1.Outbox.NewPostOut(nil)
	time.Sleep(propagationDelay)

	feed0, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, feed0)

	canSpeak, err := n.blocklists.CanSpeak(u0, u1)
	require.NoError(t, err)
	require.True(t, canSpeak)

	h1.Outbox.BlockUser(u0)
	time.Sleep(propagationDelay)

	h1.Outbox.NewPostOut(nil)
	time.Sleep(propagationDelay)

	ownPosts, err := h1.User.GetUserPostIds()
	require.NoError(t, err)
	require.Len(t, ownPosts, 2)

	feed0After, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.Empty(t, feed0After)

	canSpeakAfter, err := n.blocklists.CanSpeak(u0, u1)
	require.NoError(t, err)
	require.False(t, canSpeakAfter)
}

// Scenario 5: a mention bypasses following, but a subsequent block still
// stops delivery of new posts.
func TestMentionsBypassFollowing(t *testing.T) {
	invoker := NewInvoker()
	n := newNode(t, 0, invoker)

	u0 := n.newUser(t)
	u1 := n.newUser(t)

	h0, _ := n.users.Lookup(u0)
	h1, _ := n.users.Lookup(u1)

	mentions := map[types.UserId]struct{}{u0: {}}
	h1.Outbox.NewPostOut(mentions)
	time.Sleep(propagationDelay)

	feed0, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.NotEmpty(t, feed0)

	h0.Outbox.BlockUser(u1)
	time.Sleep(propagationDelay)

	h1.Outbox.NewPostOut(mentions)
	time.Sleep(propagationDelay)

	feed0After, err := h0.User.GetPostIds()
	require.NoError(t, err)
	require.Len(t, feed0After, 1)
}

// Scenario 6: a fresh peer backfills to the same UserSize and can Lookup any
// id afterward.
func TestBackfillConvergence(t *testing.T) {
	invoker := NewInvoker()
	log := NewLogger()

	postsShard := posts.NewShard(0, nil, log, invoker)
	blocklistsShard := blocklist.NewShard(nil, log, invoker)
	primary := users.NewShard(0, postsShard, blocklistsShard, nil, log, invoker)
	d := dispatch.New(primary, blocklistsShard, log)
	require.NoError(t, primary.SetDispatch(d))

	var last types.UserId
	for i := 0; i < 250; i++ {
		id, err := primary.NewUser()
		require.NoError(t, err)
		last = id
	}

	peer := users.NewShard(1, postsShard, blocklistsShard, []peered.PeerLink{primary}, log, invoker)

	require.Eventually(t, func() bool {
		size, err := peer.UserSize()
		return err == nil && size == 250
	}, 5*time.Second, 20*time.Millisecond)

	_, err := peer.Lookup(last)
	require.NoError(t, err)
}

// Self-follow and self-block are rejected at the Outbox boundary rather
// than silently accepted or dropped (spec.md §9 Open Question).
func TestSelfFollowAndSelfBlockAreRejected(t *testing.T) {
	invoker := NewInvoker()
	n := newNode(t, 0, invoker)

	u0 := n.newUser(t)
	h0, err := n.users.Lookup(u0)
	require.NoError(t, err)

	require.ErrorIs(t, h0.Outbox.RequestFollow(u0), types.ErrSelfReference)
	require.ErrorIs(t, h0.Outbox.BlockUser(u0), types.ErrSelfReference)
}
