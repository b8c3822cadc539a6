package blocklist

import (
	"testing"

	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/stretchr/testify/require"
)

func TestBlockIsBidirectional(t *testing.T) {
	b := New()
	a, other := types.NewUserId(0, 1), types.NewUserId(0, 2)

	b.Block(a, other)

	require.Contains(t, b.GetBlocklist(a), other)
	require.Contains(t, b.GetBlockedBy(other), a)
}

func TestUnblockRemovesBothSidesAndDropsEmptySets(t *testing.T) {
	b := New()
	a, other := types.NewUserId(0, 1), types.NewUserId(0, 2)
	b.Block(a, other)

	b.Unblock(a, other)

	require.Empty(t, b.GetBlocklist(a))
	require.Empty(t, b.GetBlockedBy(other))
	require.NotContains(t, b.lists, a)
	require.NotContains(t, b.inverses, other)
}

func TestUnblockIsIdempotent(t *testing.T) {
	b := New()
	a, other := types.NewUserId(0, 1), types.NewUserId(0, 2)

	b.Unblock(a, other)
	b.Unblock(a, other)

	require.Empty(t, b.GetBlocklist(a))
}

func TestCanSpeakIsFalseInEitherDirection(t *testing.T) {
	b := New()
	a, other := types.NewUserId(0, 1), types.NewUserId(0, 2)
	require.True(t, b.CanSpeak(a, other))

	b.Block(a, other)
	require.False(t, b.CanSpeak(a, other))
	require.False(t, b.CanSpeak(other, a))

	b.Unblock(a, other)
	b.Block(other, a)
	require.False(t, b.CanSpeak(a, other))
}

func TestBackfillReconstructsInverses(t *testing.T) {
	src := New()
	for i := 0; i < 25; i++ {
		src.Block(types.NewUserId(0, types.Id(i)), types.NewUserId(0, 100))
	}

	dst := New()
	cursor := dst.BackfillInit()
	for {
		page := src.Backfill(cursor)
		next, more := dst.HandleBackfill(page)
		if !more {
			break
		}
		cursor = next
	}

	require.Len(t, dst.GetBlockedBy(types.NewUserId(0, 100)), 25)
}
