package user

import (
	"context"

	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
)

// Dispatcher is the subset of Dispatch's contract (spec.md §4.8) Outbox
// needs. Declared here, rather than importing the dispatch package
// directly, because dispatch imports users, which imports this package to
// spawn the triad — importing dispatch here would cycle. Any type
// satisfying this signature works; package dispatch's Dispatch does.
type Dispatcher interface {
	DispatchMessage(source, target types.UserId, msg interface{})
	DispatchAnnounce(source types.UserId, recipients map[types.UserId]struct{}, msg interface{})
}

// Outbox accepts user-initiated commands and orchestrates their side
// effects against Posts, Blocklists, and Dispatch. Grounded on
// original_source/src/actors/user/outbox.rs for the shape (one handler per
// command, chaining an Ask into the owning Posts/User actors before telling
// Dispatch to fan out); unlike the reference, NewPostOut here does thread
// mentions through to NewPost, matching spec.md §4.7 exactly.
type Outbox struct {
	id         types.UserId
	self       *User
	posts      *posts.Shard
	blocklists *blocklist.Shard
	dispatch   Dispatcher
	log        types.Logger

	cmdCh  chan func()
	ctx    context.Context
	cancel context.CancelFunc
}

func NewOutbox(
	id types.UserId,
	self *User,
	postsShard *posts.Shard,
	blocklistsShard *blocklist.Shard,
	dispatch Dispatcher,
	log types.Logger,
	invoker types.Invoker,
) *Outbox {
	ctx, cancel := context.WithCancel(context.Background())
	ob := &Outbox{
		id:         id,
		self:       self,
		posts:      postsShard,
		blocklists: blocklistsShard,
		dispatch:   dispatch,
		log:        log,
		cmdCh:      make(chan func(), 64),
		ctx:        ctx,
		cancel:     cancel,
	}
	invoker.Spawn(ob.run)
	return ob
}

func (ob *Outbox) Stop() {
	ob.cancel()
}

func (ob *Outbox) run() {
	defer ob.log.Debugf("outbox for %s shutting down", ob.id)
	for {
		select {
		case <-ob.ctx.Done():
			return
		case cmd := <-ob.cmdCh:
			cmd()
		}
	}
}

func (ob *Outbox) tell(fn func()) {
	select {
	case ob.cmdCh <- fn:
	case <-ob.ctx.Done():
	}
}

// NewPostOut asks Posts for a new id and then its own User for the current
// follower set, one after the other (the two requests are not issued in
// parallel), then delivers the post to itself and fans it out to
// followers ∪ mentions via Dispatch.
func (ob *Outbox) NewPostOut(mentions map[types.UserId]struct{}) {
	ob.tell(func() {
		postID, err := ob.posts.NewPost(ob.id, mentions)
		if err != nil {
			ob.log.Errorf("outbox for %s failed creating post: %v", ob.id, err)
			return
		}
		followers, err := ob.self.GetFollowers()
		if err != nil {
			ob.log.Errorf("outbox for %s failed reading followers: %v", ob.id, err)
			return
		}

		ob.self.NewPostIn(postID, ob.id, mentions)

		recipients := make(map[types.UserId]struct{}, len(followers)+len(mentions))
		for u := range followers {
			recipients[u] = struct{}{}
		}
		for u := range mentions {
			recipients[u] = struct{}{}
		}
		ob.dispatch.DispatchAnnounce(ob.id, recipients, NewPostIn{Id: postID, Author: ob.id, Mentions: mentions})
	})
}

func (ob *Outbox) DeletePost(id types.PostId) {
	ob.tell(func() {
		ob.self.DeletePost(id)
		if err := ob.posts.DeletePost(id); err != nil {
			ob.log.Errorf("outbox for %s failed deleting post %s: %v", ob.id, id, err)
		}
	})
}

// RequestFollow rejects a self-targeted follow request with
// ErrSelfReference instead of queuing it; spec.md §9 leaves self-follow
// undefined upstream, so this port makes the rejection visible to the
// caller rather than silently no-op'ing or accepting it.
func (ob *Outbox) RequestFollow(target types.UserId) error {
	if target == ob.id {
		return types.ErrSelfReference
	}
	ob.tell(func() {
		ob.self.RequestFollow(target)
		ob.dispatch.DispatchMessage(ob.id, target, FollowRequest{From: ob.id})
	})
	return nil
}

func (ob *Outbox) AcceptFollowRequest(requester types.UserId) {
	ob.tell(func() {
		ob.self.AcceptFollowRequest(requester)
		ob.dispatch.DispatchMessage(ob.id, requester, FollowRequestAccepted{From: ob.id})
	})
}

func (ob *Outbox) DenyFollowRequest(requester types.UserId) {
	ob.tell(func() {
		ob.self.DenyFollowRequest(requester)
		ob.dispatch.DispatchMessage(ob.id, requester, FollowRequestDenied{From: ob.id})
	})
}

// BlockUser tells the target's Inbox it has been blocked and records the
// block on the authoritative Blocklists shard (spec.md §4.7). Like
// RequestFollow, a self-targeted block is rejected with ErrSelfReference
// rather than queued.
func (ob *Outbox) BlockUser(other types.UserId) error {
	if other == ob.id {
		return types.ErrSelfReference
	}
	ob.tell(func() {
		ob.dispatch.DispatchMessage(ob.id, other, Blocked{By: ob.id})
		if err := ob.blocklists.Block(ob.id, other); err != nil {
			ob.log.Errorf("outbox for %s failed recording block of %s: %v", ob.id, other, err)
		}
	})
	return nil
}
