package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Id is an opaque 64-bit identifier assigned by the shard that owns it.
type Id uint64

// ShardId names one replica group for a given entity kind (Posts, Users,
// Blocklists). The same ShardId value is shared by every replica of that
// shard.
type ShardId = Id

// UserId identifies a user by the shard that created it plus the shard-local
// counter value. UserId orders lexicographically: shard first, then local id.
type UserId struct {
	Shard ShardId
	Local Id
}

func NewUserId(shard ShardId, local Id) UserId {
	return UserId{Shard: shard, Local: local}
}

func (u UserId) String() string {
	return fmt.Sprintf("UserId(Id(%d), Id(%d))", u.Shard, u.Local)
}

// Less gives the lexicographic order required by spec: shard first, then
// local id.
func (u UserId) Less(o UserId) bool {
	if u.Shard != o.Shard {
		return u.Shard < o.Shard
	}
	return u.Local < o.Local
}

// MarshalText/UnmarshalText let UserId serve as a JSON object key, which
// encoding/json requires for any map[UserId]... value (Post.Mentions) to
// cross the wire through netpeer.
func (u UserId) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d:%d", u.Shard, u.Local)), nil
}

func (u *UserId) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("types: malformed UserId text %q", text)
	}
	shard, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("types: malformed UserId shard %q: %w", text, err)
	}
	local, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("types: malformed UserId local %q: %w", text, err)
	}
	u.Shard, u.Local = ShardId(shard), Id(local)
	return nil
}

// PostKey is the identity portion of a PostId: the part that participates in
// equality and hashing. The wall-clock Timestamp on PostId is ordering-only
// and deliberately excluded here so two copies of the same post compare
// equal regardless of which replica stamped them.
type PostKey struct {
	Shard ShardId
	Local Id
}

// PostId is a PostKey plus a wall-clock timestamp (UnixNano, stamped by the
// authoring Posts shard) used only to order posts.
// Equality and hashing must ignore Timestamp, so PostId embeds PostKey and
// every map keyed on posts uses PostKey, never PostId, as the key type.
type PostId struct {
	PostKey
	Timestamp int64
}

func NewPostId(shard ShardId, local Id, timestamp int64) PostId {
	return PostId{PostKey: PostKey{Shard: shard, Local: local}, Timestamp: timestamp}
}

func (p PostId) String() string {
	return fmt.Sprintf("PostId(Id(%d), Id(%d), %d)", p.Shard, p.Local, p.Timestamp)
}

// Less orders PostId by timestamp first (the field the spec calls out as
// "used only for ordering"), breaking ties lexicographically by PostKey so
// that the order is still total when two posts share a timestamp.
func (p PostId) Less(o PostId) bool {
	if p.Timestamp != o.Timestamp {
		return p.Timestamp < o.Timestamp
	}
	if p.Shard != o.Shard {
		return p.Shard < o.Shard
	}
	return p.Local < o.Local
}

// Post is immutable after creation.
type Post struct {
	PostId   PostId
	Author   UserId
	Mentions map[UserId]struct{}
}

func (p Post) Mentioned(u UserId) bool {
	_, ok := p.Mentions[u]
	return ok
}
