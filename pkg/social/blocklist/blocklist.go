// Package blocklist implements the Blocklists shard inner (spec.md §4.4):
// it stores the bidirectional block relation `lists`/`inverses` and answers
// CanSpeak queries. Grounded on
// original_source/src/actors/blocklist/mod.rs for the map shape, with the
// unblock path corrected to actually remove the acting user from the
// unblocked user's inverse set (the reference's `unblock_user` references an
// undeclared `blocked_user` binding where it should use its own
// `unblocked_user` parameter).
package blocklist

import (
	"sort"

	"github.com/jabolina/go-social/pkg/social/types"
)

const pageSize = 100

// Block(a, b) and Unblock(a, b) double as both the Ask payload and the
// broadcast payload — applying either twice is a no-op.
type Block struct {
	Actor, Blocked types.UserId
}

type Unblock struct {
	Actor, Unblocked types.UserId
}

// Page is the backfill chunk: a slice of (actor, blocked-set) entries from
// the forward `lists` map. handle_backfill reconstructs inverses from it.
type Page struct {
	Offset  int
	Entries []ListEntry
}

type ListEntry struct {
	Actor   types.UserId
	Blocked map[types.UserId]struct{}
}

// Blocklists is the inner state of one Blocklists shard replica.
type Blocklists struct {
	lists    map[types.UserId]map[types.UserId]struct{}
	inverses map[types.UserId]map[types.UserId]struct{}
}

func New() *Blocklists {
	return &Blocklists{
		lists:    make(map[types.UserId]map[types.UserId]struct{}),
		inverses: make(map[types.UserId]map[types.UserId]struct{}),
	}
}

func (b *Blocklists) Block(actor, blocked types.UserId) {
	insertInto(b.lists, actor, blocked)
	insertInto(b.inverses, blocked, actor)
}

func (b *Blocklists) Unblock(actor, unblocked types.UserId) {
	removeFrom(b.lists, actor, unblocked)
	removeFrom(b.inverses, unblocked, actor)
}

func (b *Blocklists) GetBlocklist(actor types.UserId) map[types.UserId]struct{} {
	return copySet(b.lists[actor])
}

func (b *Blocklists) GetBlockedBy(actor types.UserId) map[types.UserId]struct{} {
	return copySet(b.inverses[actor])
}

// CanSpeak(a, b) = ¬(b ∈ lists[a] ∨ a ∈ lists[b]).
func (b *Blocklists) CanSpeak(a, other types.UserId) bool {
	if _, blocked := b.lists[a][other]; blocked {
		return false
	}
	if _, blocked := b.lists[other][a]; blocked {
		return false
	}
	return true
}

func (b *Blocklists) BackfillInit() int {
	return 0
}

func (b *Blocklists) Backfill(offset int) Page {
	actors := make([]types.UserId, 0, len(b.lists))
	for actor := range b.lists {
		actors = append(actors, actor)
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i].Less(actors[j]) })

	end := offset + pageSize
	if end > len(actors) {
		end = len(actors)
	}
	entries := make([]ListEntry, 0, end-offset)
	for i := offset; i < end; i++ {
		entries = append(entries, ListEntry{Actor: actors[i], Blocked: copySet(b.lists[actors[i]])})
	}
	return Page{Offset: offset, Entries: entries}
}

func (b *Blocklists) HandleBackfill(page Page) (int, bool) {
	for _, entry := range page.Entries {
		for blocked := range entry.Blocked {
			b.Block(entry.Actor, blocked)
		}
	}
	if len(page.Entries) == pageSize {
		return page.Offset + pageSize, true
	}
	return 0, false
}

func (b *Blocklists) HandleAnnounce(payload interface{}) error {
	switch msg := payload.(type) {
	case Block:
		b.Block(msg.Actor, msg.Blocked)
	case Unblock:
		b.Unblock(msg.Actor, msg.Unblocked)
	default:
		return types.ErrUnsupportedProtocol
	}
	return nil
}

func insertInto(m map[types.UserId]map[types.UserId]struct{}, key, value types.UserId) {
	if m[key] == nil {
		m[key] = make(map[types.UserId]struct{})
	}
	m[key][value] = struct{}{}
}

// removeFrom drops value from m[key], and drops key from m entirely once its
// set empties — spec.md §3's "empty sets are not stored" invariant.
func removeFrom(m map[types.UserId]map[types.UserId]struct{}, key, value types.UserId) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, value)
	if len(set) == 0 {
		delete(m, key)
	}
}

func copySet(set map[types.UserId]struct{}) map[types.UserId]struct{} {
	out := make(map[types.UserId]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
