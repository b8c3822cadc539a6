// Package user implements the per-user actor triad of spec.md §4.5-4.7:
// User holds private social-graph state, Inbox delivers incoming events to
// it (with the block cascade), and Outbox orchestrates the side effects of
// user-initiated commands. Grounded on the teacher's core.Peer
// (pkg/mcast/core/peer.go) for the "single mailbox goroutine, command
// closures sent over a channel, context-based shutdown" shape, and on
// original_source/src/actors/user/mod.rs for the exact state-machine
// semantics (my_posts/feed_posts/followers/following/... sets and their
// transitions).
package user

import (
	"context"

	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/pkg/errors"
)

// User is the private state of one user: owned posts, received posts, and
// the follow/block relation sets described in spec.md §3.
type User struct {
	id types.UserId

	myPosts   *types.PostSet
	feedPosts *types.PostSet

	followers              map[types.UserId]struct{}
	following              map[types.UserId]struct{}
	incomingFollowRequests map[types.UserId]struct{}
	pendingFollows         map[types.UserId]struct{}
	localBlocklist         map[types.UserId]struct{}

	log types.Logger

	cmdCh  chan func()
	ctx    context.Context
	cancel context.CancelFunc
}

func New(id types.UserId, log types.Logger, invoker types.Invoker) *User {
	ctx, cancel := context.WithCancel(context.Background())
	u := &User{
		id:                     id,
		myPosts:                types.NewPostSet(),
		feedPosts:              types.NewPostSet(),
		followers:              make(map[types.UserId]struct{}),
		following:              make(map[types.UserId]struct{}),
		incomingFollowRequests: make(map[types.UserId]struct{}),
		pendingFollows:         make(map[types.UserId]struct{}),
		localBlocklist:         make(map[types.UserId]struct{}),
		log:                    log,
		cmdCh:                  make(chan func(), 64),
		ctx:                    ctx,
		cancel:                 cancel,
	}
	invoker.Spawn(u.run)
	return u
}

func (u *User) ID() types.UserId {
	return u.id
}

func (u *User) Stop() {
	u.cancel()
}

func (u *User) run() {
	defer u.log.Debugf("user %s shutting down", u.id)
	for {
		select {
		case <-u.ctx.Done():
			return
		case cmd := <-u.cmdCh:
			cmd()
		}
	}
}

// tell queues fn to run on the mailbox goroutine and returns immediately
// (Tell, per spec.md §5: "fire-and-forget sends never suspend").
func (u *User) tell(fn func()) {
	select {
	case u.cmdCh <- fn:
	case <-u.ctx.Done():
	}
}

// ask queues fn and blocks for its result (Ask, per spec.md §5: "any
// cross-actor request-reply suspends the caller's continuation").
func (u *User) ask(fn func() interface{}) (interface{}, error) {
	reply := make(chan interface{}, 1)
	cmd := func() { reply <- fn() }
	select {
	case u.cmdCh <- cmd:
	case <-u.ctx.Done():
		return nil, errors.Wrap(types.ErrTransportFailure, "user closed")
	}
	select {
	case v := <-reply:
		return v, nil
	case <-u.ctx.Done():
		return nil, errors.Wrap(types.ErrTransportFailure, "user closed")
	}
}

// NewPostIn applies spec.md §4.5's NewPostIn transition.
func (u *User) NewPostIn(id types.PostId, author types.UserId, mentions map[types.UserId]struct{}) {
	u.tell(func() {
		_, mentioned := mentions[u.id]
		_, blockedLocally := u.localBlocklist[author]
		_, followed := u.following[author]

		switch {
		case author == u.id:
			u.myPosts.Insert(id)
		case followed || (mentioned && !blockedLocally):
			u.feedPosts.Insert(id)
		default:
			u.log.Errorf("user %s dropping unsolicited post %s from %s", u.id, id, author)
		}
	})
}

// DeletePost removes a post from both owned and feed sets; idempotent.
func (u *User) DeletePost(id types.PostId) {
	u.tell(func() {
		u.myPosts.Remove(id.PostKey)
		u.feedPosts.Remove(id.PostKey)
	})
}

// GetPostIds returns the merged top-10 of my_posts ∪ feed_posts, ordered by
// descending timestamp (spec.md §4.5).
func (u *User) GetPostIds() ([]types.PostId, error) {
	resp, err := u.ask(func() interface{} {
		return types.MergeTopN(u.myPosts, u.feedPosts, 10)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]types.PostId), nil
}

// GetUserPostIds returns the top-10 of my_posts only.
func (u *User) GetUserPostIds() ([]types.PostId, error) {
	resp, err := u.ask(func() interface{} {
		return u.myPosts.TopN(10)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]types.PostId), nil
}

func (u *User) GetFollowers() (map[types.UserId]struct{}, error) {
	resp, err := u.ask(func() interface{} {
		return copySet(u.followers)
	})
	if err != nil {
		return nil, err
	}
	return resp.(map[types.UserId]struct{}), nil
}

func (u *User) GetBlocklist() (map[types.UserId]struct{}, error) {
	resp, err := u.ask(func() interface{} {
		return copySet(u.localBlocklist)
	})
	if err != nil {
		return nil, err
	}
	return resp.(map[types.UserId]struct{}), nil
}

func (u *User) FollowRequest(from types.UserId) {
	u.tell(func() { u.incomingFollowRequests[from] = struct{}{} })
}

func (u *User) AcceptFollowRequest(requester types.UserId) {
	u.tell(func() {
		if _, ok := u.incomingFollowRequests[requester]; !ok {
			return
		}
		delete(u.incomingFollowRequests, requester)
		u.followers[requester] = struct{}{}
	})
}

func (u *User) DenyFollowRequest(requester types.UserId) {
	u.tell(func() { delete(u.incomingFollowRequests, requester) })
}

func (u *User) RequestFollow(target types.UserId) {
	u.tell(func() { u.pendingFollows[target] = struct{}{} })
}

func (u *User) FollowRequestAccepted(target types.UserId) {
	u.tell(func() {
		delete(u.pendingFollows, target)
		u.following[target] = struct{}{}
	})
}

func (u *User) FollowRequestDenied(target types.UserId) {
	u.tell(func() { delete(u.pendingFollows, target) })
}

func (u *User) BlockUser(other types.UserId) {
	u.tell(func() { u.localBlocklist[other] = struct{}{} })
}

// Blocked records that other has blocked self, so self stops accepting
// their posts locally; the cascade deletion of already-received posts from
// other is Inbox's responsibility (spec.md §4.6).
func (u *User) Blocked(by types.UserId) {
	u.tell(func() { u.localBlocklist[by] = struct{}{} })
}

func copySet(set map[types.UserId]struct{}) map[types.UserId]struct{} {
	out := make(map[types.UserId]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
