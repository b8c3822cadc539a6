// Package posts implements the Posts shard inner (spec.md §4.2): it assigns
// PostIds within its own shard and stores PostId → Post. Grounded on
// original_source/src/actors/posts/mod.rs (the `Posts` struct and its
// `new_post`/`delete_post`/`get_posts` helpers) for exact semantics, and on
// the teacher's StateMachine/Storage split (pkg/mcast/types/state_machine.go,
// storage.go) for the shape: a plain struct holding the map, with the
// replication concerns handled entirely by the generic peered.PeeredShard.
package posts

import (
	"sort"

	"github.com/jabolina/go-social/pkg/social/types"
)

// Entry pairs a PostId with its Post for backfill transfer.
type Entry struct {
	Id   types.PostId
	Post types.Post
}

// Page is the backfill chunk type: the offset the page started at, and the
// entries found there. Mirrors original_source's `(usize, Vec<(PostId,
// Post)>)` tuple.
type Page struct {
	Offset  int
	Entries []Entry
}

// NewPostFull is broadcast after a local NewPost so peers insert the exact
// same Post rather than re-deriving one (timestamps would differ).
type NewPostFull struct {
	Id   types.PostId
	Post types.Post
}

// DeletePost is both the Ask payload and the broadcast payload: applying it
// twice is a no-op, so it's safe to replay.
type DeletePost struct {
	Id types.PostId
}

const pageSize = 100

// Posts is the inner state of one Posts shard replica.
type Posts struct {
	shard     types.ShardId
	currentID uint64
	byKey     map[types.PostKey]types.Post
}

func New(shard types.ShardId) *Posts {
	return &Posts{shard: shard, byKey: make(map[types.PostKey]types.Post)}
}

// NewPost assigns a PostId in this shard, stores the Post, and returns both
// the id and the NewPostFull payload the caller should broadcast.
func (p *Posts) NewPost(author types.UserId, mentions map[types.UserId]struct{}, now int64) (types.PostId, NewPostFull) {
	local := types.Id(p.currentID)
	p.currentID++
	id := types.NewPostId(p.shard, local, now)
	post := types.Post{PostId: id, Author: author, Mentions: mentions}
	p.byKey[id.PostKey] = post
	return id, NewPostFull{Id: id, Post: post}
}

// DeletePost removes a post locally; idempotent, matches
// original_source's `delete_post`.
func (p *Posts) DeletePost(id types.PostId) {
	delete(p.byKey, id.PostKey)
}

// GetPostsByIds returns the posts found, in the order their ids were given,
// plus the ids that weren't found (spec.md §4.2).
func (p *Posts) GetPostsByIds(ids []types.PostId) (found []types.Post, missing []types.PostId) {
	for _, id := range ids {
		if post, ok := p.byKey[id.PostKey]; ok {
			found = append(found, post)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// PostSize is a pure read of the replica's local post count.
func (p *Posts) PostSize() int {
	return len(p.byKey)
}

// BackfillInit starts a joining replica at offset 0.
func (p *Posts) BackfillInit() int {
	return 0
}

// Backfill returns up to pageSize entries starting at the given offset. Map
// iteration order in Go is randomized per-call, so paging by a plain skip
// count over a fresh range would hand out a different slice each time;
// sortedKeys gives every call in a paging session the same total order to
// walk.
func (p *Posts) Backfill(offset int) Page {
	keys := p.sortedKeys()
	end := offset + pageSize
	if end > len(keys) {
		end = len(keys)
	}
	entries := make([]Entry, 0, end-offset)
	for i := offset; i < end; i++ {
		post := p.byKey[keys[i]]
		entries = append(entries, Entry{Id: post.PostId, Post: post})
	}
	return Page{Offset: offset, Entries: entries}
}

func (p *Posts) sortedKeys() []types.PostKey {
	keys := make([]types.PostKey, 0, len(p.byKey))
	for key := range p.byKey {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Shard != keys[j].Shard {
			return keys[i].Shard < keys[j].Shard
		}
		return keys[i].Local < keys[j].Local
	})
	return keys
}

// HandleBackfill installs every entry in the page and requests the next page
// iff this one was full, matching original_source's `handle_backfill`.
func (p *Posts) HandleBackfill(page Page) (int, bool) {
	for _, e := range page.Entries {
		p.byKey[e.Id.PostKey] = e.Post
	}
	if len(page.Entries) == pageSize {
		return page.Offset + pageSize, true
	}
	return 0, false
}

// HandleAnnounce applies a broadcast NewPostFull or DeletePost idempotently.
func (p *Posts) HandleAnnounce(payload interface{}) error {
	switch msg := payload.(type) {
	case NewPostFull:
		p.byKey[msg.Id.PostKey] = msg.Post
	case DeletePost:
		p.DeletePost(msg.Id)
	default:
		return types.ErrUnsupportedProtocol
	}
	return nil
}
