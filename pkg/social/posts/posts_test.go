package posts

import (
	"testing"

	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/stretchr/testify/require"
)

func TestNewPostAssignsShardLocalId(t *testing.T) {
	p := New(7)
	author := types.NewUserId(7, 1)

	id, broadcast := p.NewPost(author, nil, 100)

	require.EqualValues(t, 7, id.Shard)
	require.EqualValues(t, 0, id.Local)
	require.Equal(t, id, broadcast.Id)
	require.Equal(t, author, broadcast.Post.Author)
}

func TestDeletePostIsIdempotent(t *testing.T) {
	p := New(1)
	id, _ := p.NewPost(types.NewUserId(1, 1), nil, 1)

	p.DeletePost(id)
	p.DeletePost(id)

	require.Equal(t, 0, p.PostSize())
}

func TestGetPostsByIdsPreservesInputOrderAndReportsMissing(t *testing.T) {
	p := New(1)
	author := types.NewUserId(1, 1)
	first, _ := p.NewPost(author, nil, 1)
	second, _ := p.NewPost(author, nil, 2)
	missingId := types.NewPostId(1, 99, 99)

	found, missing := p.GetPostsByIds([]types.PostId{second, missingId, first})

	require.Len(t, found, 2)
	require.Equal(t, second, found[0].PostId)
	require.Equal(t, first, found[1].PostId)
	require.Equal(t, []types.PostId{missingId}, missing)
}

func TestBackfillRoundTripsAllEntries(t *testing.T) {
	src := New(1)
	author := types.NewUserId(1, 1)
	for i := 0; i < 250; i++ {
		src.NewPost(author, nil, int64(i))
	}

	dst := New(1)
	cursor := dst.BackfillInit()
	for {
		page := src.Backfill(cursor)
		next, more := dst.HandleBackfill(page)
		if !more {
			break
		}
		cursor = next
	}

	require.Equal(t, src.PostSize(), dst.PostSize())
}

func TestHandleAnnounceAppliesNewPostAndDelete(t *testing.T) {
	p := New(1)
	id := types.NewPostId(1, 1, 1)
	post := types.Post{PostId: id, Author: types.NewUserId(1, 1)}

	require.NoError(t, p.HandleAnnounce(NewPostFull{Id: id, Post: post}))
	require.Equal(t, 1, p.PostSize())

	require.NoError(t, p.HandleAnnounce(DeletePost{Id: id}))
	require.Equal(t, 0, p.PostSize())

	require.NoError(t, p.HandleAnnounce(DeletePost{Id: id}))
}

func TestAnnounceCodecRoundTrips(t *testing.T) {
	var codec AnnounceCodec
	id := types.NewPostId(2, 5, 9)
	post := types.Post{PostId: id, Author: types.NewUserId(2, 1), Mentions: map[types.UserId]struct{}{types.NewUserId(2, 2): {}}}

	tag, data, err := codec.EncodeAnnounce(NewPostFull{Id: id, Post: post})
	require.NoError(t, err)

	decoded, err := codec.DecodeAnnounce(tag, data)
	require.NoError(t, err)
	require.Equal(t, NewPostFull{Id: id, Post: post}, decoded)
}
