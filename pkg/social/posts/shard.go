package posts

import (
	"encoding/json"
	"time"

	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/types"
)

// Shard is the client-facing handle to a Posts replica: peered.PeeredShard
// generalized to this inner's Req/Page types, plus typed wrappers around Ask
// so callers never build an AskFunc by hand.
type Shard struct {
	*peered.PeeredShard[*Posts, int, Page]
}

func NewShard(shardID types.ShardId, initialPeers []peered.PeerLink, log types.Logger, invoker types.Invoker) *Shard {
	inner := New(shardID)
	s := &Shard{PeeredShard: peered.New[*Posts, int, Page]("posts", inner, initialPeers, log, invoker)}
	s.Start(s)
	return s
}

func (s *Shard) NewPost(author types.UserId, mentions map[types.UserId]struct{}) (types.PostId, error) {
	now := time.Now().UnixNano()
	resp, err := s.Ask(func(inner **Posts) (interface{}, interface{}, error) {
		id, broadcast := (*inner).NewPost(author, mentions, now)
		return id, broadcast, nil
	})
	if err != nil {
		return types.PostId{}, err
	}
	return resp.(types.PostId), nil
}

func (s *Shard) DeletePost(id types.PostId) error {
	_, err := s.Ask(func(inner **Posts) (interface{}, interface{}, error) {
		(*inner).DeletePost(id)
		return nil, DeletePost{Id: id}, nil
	})
	return err
}

type foundMissing struct {
	found   []types.Post
	missing []types.PostId
}

func (s *Shard) GetPostsByIds(ids []types.PostId) ([]types.Post, []types.PostId, error) {
	resp, err := s.Ask(func(inner **Posts) (interface{}, interface{}, error) {
		found, missing := (*inner).GetPostsByIds(ids)
		return foundMissing{found: found, missing: missing}, nil, nil
	})
	if err != nil {
		return nil, nil, err
	}
	fm := resp.(foundMissing)
	return fm.found, fm.missing, nil
}

func (s *Shard) PostSize() (int, error) {
	resp, err := s.Ask(func(inner **Posts) (interface{}, interface{}, error) {
		return (*inner).PostSize(), nil, nil
	})
	if err != nil {
		return 0, err
	}
	return resp.(int), nil
}

// AnnounceCodec implements peered.AnnounceCodec for netpeer, so the
// NewPostFull/DeletePost broadcast union can cross process boundaries.
type AnnounceCodec struct{}

const (
	tagNewPostFull = "posts.new_post_full"
	tagDeletePost  = "posts.delete_post"
)

func (AnnounceCodec) EncodeAnnounce(payload interface{}) (string, []byte, error) {
	switch msg := payload.(type) {
	case NewPostFull:
		data, err := json.Marshal(msg)
		return tagNewPostFull, data, err
	case DeletePost:
		data, err := json.Marshal(msg)
		return tagDeletePost, data, err
	default:
		return "", nil, types.ErrUnsupportedProtocol
	}
}

func (AnnounceCodec) DecodeAnnounce(tag string, data []byte) (interface{}, error) {
	switch tag {
	case tagNewPostFull:
		var msg NewPostFull
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case tagDeletePost:
		var msg DeletePost
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, types.ErrUnsupportedProtocol
	}
}
