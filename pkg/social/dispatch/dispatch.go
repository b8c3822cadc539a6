// Package dispatch implements the stateless fan-out coordinator of
// spec.md §4.8: DispatchMessage for single-target delivery and
// DispatchAnnounce for block-filtered fan-out to a recipient set. Grounded
// on the teacher's Unity.processGMCast (pkg/mcast/protocol.go), which also
// issues several asks in parallel and collects results, generalized here
// from "collect quorum votes" to "tell every resolved Inbox".
package dispatch

import (
	"github.com/jabolina/go-social/pkg/social/blocklist"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/go-social/pkg/social/users"
)

// Dispatch holds no mutable state of its own; every call reads straight
// through to the Users and Blocklists shards, so concurrent invocations are
// safe (spec.md §4.8).
type Dispatch struct {
	users      *users.Shard
	blocklists *blocklist.Shard
	log        types.Logger
}

func New(usersShard *users.Shard, blocklistsShard *blocklist.Shard, log types.Logger) *Dispatch {
	return &Dispatch{users: usersShard, blocklists: blocklistsShard, log: log}
}

// DispatchMessage looks target up, checks CanSpeak(source, target), and on
// success delivers msg to target's Inbox. Any failure is logged and
// swallowed (spec.md §7).
func (d *Dispatch) DispatchMessage(source, target types.UserId, msg interface{}) {
	handle, err := d.users.Lookup(target)
	if err != nil {
		d.log.Warnf("dispatch: target %s not found for message from %s: %v", target, source, err)
		return
	}
	canSpeak, err := d.blocklists.CanSpeak(source, target)
	if err != nil {
		d.log.Warnf("dispatch: CanSpeak(%s, %s) failed: %v", source, target, err)
		return
	}
	if !canSpeak {
		return
	}
	handle.Inbox.Deliver(msg)
}

// DispatchAnnounce removes every recipient blocked by, or blocking, source,
// resolves the rest on the Users shard, and delivers msg to each resolved
// Inbox.
func (d *Dispatch) DispatchAnnounce(source types.UserId, recipients map[types.UserId]struct{}, msg interface{}) {
	blockedUsers, err := d.blocklists.GetBlocklist(source)
	if err != nil {
		d.log.Warnf("dispatch: GetBlocklist(%s) failed: %v", source, err)
		return
	}
	blockedBy, err := d.blocklists.GetBlockedBy(source)
	if err != nil {
		d.log.Warnf("dispatch: GetBlockedBy(%s) failed: %v", source, err)
		return
	}

	final := make([]types.UserId, 0, len(recipients))
	for r := range recipients {
		if _, blocked := blockedUsers[r]; blocked {
			continue
		}
		if _, blocked := blockedBy[r]; blocked {
			continue
		}
		final = append(final, r)
	}

	handles, _, err := d.users.LookupMany(final)
	if err != nil {
		d.log.Warnf("dispatch: LookupMany failed for announce from %s: %v", source, err)
		return
	}

	for _, handle := range handles {
		handle.Inbox.Deliver(msg)
	}
}
