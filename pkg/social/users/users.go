// Package users implements the Users shard inner (spec.md §4.3): it assigns
// UserIds, stores UserId → UserHandle, and spawns the User/Inbox/Outbox
// triad when a new user is created locally. Grounded on
// original_source/src/actors/users/mod.rs for the map/counter shape and
// original_source/src/actors/users/user_address.rs for UserHandle bundling
// the triad's three addresses.
package users

import (
	"sort"

	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/go-social/pkg/social/user"
)

const pageSize = 100

// Dispatcher mirrors user.Dispatcher; declared separately so this package
// doesn't need to import package dispatch (which imports this package to
// resolve recipients, and would cycle).
type Dispatcher interface {
	DispatchMessage(source, target types.UserId, msg interface{})
	DispatchAnnounce(source types.UserId, recipients map[types.UserId]struct{}, msg interface{})
}

// UserHandle bundles the addresses of one user's triad. Handles are
// non-owning: only the Users shard that spawned the triad keeps it alive.
//
// Unlike posts and blocklist, this package has no peered.AnnounceCodec: a
// NewUserFull broadcast carries live *user.User/*user.Inbox/*user.Outbox
// pointers that only mean something inside the process that spawned them.
// Crossing a netpeer wire would need the receiving replica to spawn its own
// triad for the same UserId instead of decoding one, which is a different
// operation (effectively a second HandleAnnounce path) than what
// peered.AnnounceCodec is shaped for. In-process peers never hit this since
// Go interface values carrying real pointers pass through Announce
// untouched; only netpeer's JSON envelope would need the codec, and a
// single-process deployment of this module never requires it.
type UserHandle struct {
	User   *user.User
	Inbox  *user.Inbox
	Outbox *user.Outbox
}

// Entry pairs a UserId with its handle for backfill transfer.
type Entry struct {
	Id     types.UserId
	Handle UserHandle
}

// NewUserFull is broadcast after a local NewUser so peer Users shards can
// service Lookup without a round trip to the owning replica (spec.md §4.3).
type NewUserFull struct {
	Id     types.UserId
	Handle UserHandle
}

type DeleteUser struct {
	Id types.UserId
}

type Page struct {
	Offset  int
	Entries []Entry
}

// Users is the inner state of one Users shard replica.
type Users struct {
	shard      types.ShardId
	currentID  uint64
	byID       map[types.UserId]UserHandle
	posts      *posts.Shard
	blocklists *blocklist.Shard
	dispatch   Dispatcher
	log        types.Logger
	invoker    types.Invoker
}

func New(shard types.ShardId, postsShard *posts.Shard, blocklistsShard *blocklist.Shard, log types.Logger, invoker types.Invoker) *Users {
	return &Users{
		shard:      shard,
		byID:       make(map[types.UserId]UserHandle),
		posts:      postsShard,
		blocklists: blocklistsShard,
		log:        log,
		invoker:    invoker,
	}
}

// SetDispatch wires the Dispatch coordinator in after construction: Dispatch
// itself needs a reference to this shard, so the two can't be built in a
// single step. Must be called, through the owning Shard's Ask, before the
// first NewUser.
func (u *Users) SetDispatch(d Dispatcher) {
	u.dispatch = d
}

func (u *Users) Lookup(id types.UserId) (UserHandle, error) {
	handle, ok := u.byID[id]
	if !ok {
		return UserHandle{}, types.ErrNotFound
	}
	return handle, nil
}

func (u *Users) LookupMany(ids []types.UserId) (found []UserHandle, missing []types.UserId) {
	for _, id := range ids {
		if handle, ok := u.byID[id]; ok {
			found = append(found, handle)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// NewUser generates a UserId, spawns its User/Inbox/Outbox triad, and
// returns both the id and the NewUserFull broadcast payload.
func (u *Users) NewUser() (types.UserId, NewUserFull) {
	local := types.Id(u.currentID)
	u.currentID++
	id := types.NewUserId(u.shard, local)

	self := user.New(id, u.log, u.invoker)
	inbox := user.NewInbox(self, u.lookupOwnerUser, u.log, u.invoker)
	outbox := user.NewOutbox(id, self, u.posts, u.blocklists, u.dispatch, u.log, u.invoker)

	handle := UserHandle{User: self, Inbox: inbox, Outbox: outbox}
	u.byID[id] = handle
	return id, NewUserFull{Id: id, Handle: handle}
}

func (u *Users) lookupOwnerUser(id types.UserId) (*user.User, error) {
	handle, ok := u.byID[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return handle.User, nil
}

func (u *Users) DeleteUser(id types.UserId) {
	if handle, ok := u.byID[id]; ok {
		handle.User.Stop()
		handle.Inbox.Stop()
		handle.Outbox.Stop()
		delete(u.byID, id)
	}
}

func (u *Users) UserSize() int {
	return len(u.byID)
}

func (u *Users) BackfillInit() int {
	return 0
}

// Backfill pages the forward map in a stable order so a paging session walks
// a consistent sequence across calls, same reasoning as posts.Posts.Backfill.
func (u *Users) Backfill(offset int) Page {
	ids := make([]types.UserId, 0, len(u.byID))
	for id := range u.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	end := offset + pageSize
	if end > len(ids) {
		end = len(ids)
	}
	entries := make([]Entry, 0, end-offset)
	for i := offset; i < end; i++ {
		entries = append(entries, Entry{Id: ids[i], Handle: u.byID[ids[i]]})
	}
	return Page{Offset: offset, Entries: entries}
}

func (u *Users) HandleBackfill(page Page) (int, bool) {
	for _, e := range page.Entries {
		u.byID[e.Id] = e.Handle
	}
	if len(page.Entries) == pageSize {
		return page.Offset + pageSize, true
	}
	return 0, false
}

// HandleAnnounce applies a broadcast NewUserFull or DeleteUser. A remote
// NewUserFull installs the peer's own triad handle directly: spec.md §4.3
// notes this is valid because handles are lightweight references whose
// delivery reaches the single owning actor regardless of which replica
// received the original request.
func (u *Users) HandleAnnounce(payload interface{}) error {
	switch msg := payload.(type) {
	case NewUserFull:
		u.byID[msg.Id] = msg.Handle
	case DeleteUser:
		u.DeleteUser(msg.Id)
	default:
		return types.ErrUnsupportedProtocol
	}
	return nil
}
