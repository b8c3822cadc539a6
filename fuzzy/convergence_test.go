// Package fuzzy hammers a peered Posts cluster with concurrent writes from
// multiple goroutines and checks every replica converges, mirroring the
// teacher's fuzzy/commit_test.go shape (spawn load, sleep past propagation,
// assert identical state, verify no leaked goroutines on shutdown).
package fuzzy

import (
	"sync"
	"testing"
	"time"

	"github.com/jabolina/go-social/pkg/social/peered"
	"github.com/jabolina/go-social/pkg/social/posts"
	"github.com/jabolina/go-social/pkg/social/types"
	"github.com/jabolina/go-social/test"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestConcurrentPostsConverge(t *testing.T) {
	invoker := test.NewInvoker()
	log := test.NewLogger()

	shard0 := posts.NewShard(0, nil, log, invoker)
	shard1 := posts.NewShard(1, []peered.PeerLink{shard0}, log, invoker)
	shard2 := posts.NewShard(2, []peered.PeerLink{shard1}, log, invoker)

	time.Sleep(200 * time.Millisecond)

	author := types.NewUserId(0, 1)
	const perShard = 40

	var wg sync.WaitGroup
	for _, shard := range []*posts.Shard{shard0, shard1, shard2} {
		shard := shard
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perShard; i++ {
				_, err := shard.NewPost(author, nil)
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		n0, err0 := shard0.PostSize()
		n1, err1 := shard1.PostSize()
		n2, err2 := shard2.PostSize()
		return err0 == nil && err1 == nil && err2 == nil &&
			n0 == 3*perShard && n0 == n1 && n1 == n2
	}, 5*time.Second, 50*time.Millisecond)

	defer func() {
		if !test.WaitThisOrTimeout(func() {
			shard0.Stop()
			shard1.Stop()
			shard2.Stop()
			invoker.Wait()
		}, 10*time.Second) {
			t.Error("failed shutting down cluster")
		}
		goleak.VerifyNone(t)
	}()
}
