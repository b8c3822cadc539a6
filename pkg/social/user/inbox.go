package user

import (
	"context"

	"github.com/jabolina/go-social/pkg/social/types"
)

// Inbox forwards social events to its User verbatim, and on Blocked
// additionally cascades a deletion: it looks up the blocker, asks that
// user's User for its owned post ids (one page — GetUserPostIds already
// caps at 10, matching spec.md §4.6's "first page"), and deletes each from
// its own User. Grounded on original_source/src/actors/user/inbox.rs for the
// forwarding shape; the cascade itself is spec.md §4.6's addition over what
// that file does.
type Inbox struct {
	self *User

	// lookupOwner resolves another user's User actor so the cascade can read
	// their owned posts. Supplied by the Users shard that owns both triads,
	// rather than importing the users package here (which would import user
	// back, a cycle).
	lookupOwner func(types.UserId) (*User, error)

	log types.Logger

	cmdCh  chan func()
	ctx    context.Context
	cancel context.CancelFunc
}

func NewInbox(self *User, lookupOwner func(types.UserId) (*User, error), log types.Logger, invoker types.Invoker) *Inbox {
	ctx, cancel := context.WithCancel(context.Background())
	ib := &Inbox{
		self:        self,
		lookupOwner: lookupOwner,
		log:         log,
		cmdCh:       make(chan func(), 64),
		ctx:         ctx,
		cancel:      cancel,
	}
	invoker.Spawn(ib.run)
	return ib
}

func (ib *Inbox) Stop() {
	ib.cancel()
}

func (ib *Inbox) run() {
	defer ib.log.Debugf("inbox for %s shutting down", ib.self.ID())
	for {
		select {
		case <-ib.ctx.Done():
			return
		case cmd := <-ib.cmdCh:
			cmd()
		}
	}
}

// Deliver is Tell: it never suspends the sender, matching Dispatch's
// fire-and-forget fan-out.
func (ib *Inbox) Deliver(msg interface{}) {
	select {
	case ib.cmdCh <- func() { ib.apply(msg) }:
	case <-ib.ctx.Done():
	}
}

func (ib *Inbox) apply(msg interface{}) {
	switch m := msg.(type) {
	case NewPostIn:
		ib.self.NewPostIn(m.Id, m.Author, m.Mentions)
	case FollowRequest:
		ib.self.FollowRequest(m.From)
	case FollowRequestAccepted:
		ib.self.FollowRequestAccepted(m.From)
	case FollowRequestDenied:
		ib.self.FollowRequestDenied(m.From)
	case Blocked:
		ib.self.Blocked(m.By)
		ib.cascadeDelete(m.By)
	default:
		ib.log.Warnf("inbox for %s dropping message of unknown type %T", ib.self.ID(), msg)
	}
}

func (ib *Inbox) cascadeDelete(blocker types.UserId) {
	owner, err := ib.lookupOwner(blocker)
	if err != nil {
		ib.log.Warnf("inbox for %s cannot cascade-delete posts from %s: %v", ib.self.ID(), blocker, err)
		return
	}
	ids, err := owner.GetUserPostIds()
	if err != nil {
		ib.log.Warnf("inbox for %s cannot read %s's owned posts: %v", ib.self.ID(), blocker, err)
		return
	}
	for _, id := range ids {
		ib.self.DeletePost(id)
	}
}
