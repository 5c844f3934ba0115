package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMentorMatchesBatchesUserLoads(t *testing.T) {
	store := newFakeStore()
	store.add(menteeProfile(1), studentUser(1))
	for id := 2; id <= 6; id++ {
		store.add(mentorProfile(id), alumniUser(id))
	}

	var mu sync.Mutex
	var batches [][]int
	batchFn := func(ctx context.Context, keys []int) []*dataloader.Result[*UserSummary] {
		mu.Lock()
		batches = append(batches, keys)
		mu.Unlock()

		results := make([]*dataloader.Result[*UserSummary], len(keys))
		for i, key := range keys {
			u, err := store.GetUser(ctx, key)
			results[i] = &dataloader.Result[*UserSummary]{Data: u, Error: err}
		}
		return results
	}
	loaders := &DataLoaders{
		Users: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait[int, *UserSummary](4*time.Millisecond)),
	}
	ctx := withLoaders(context.Background(), loaders)

	engine := newMatchEngine(store, nil, defaultPoolCap)
	matches, err := engine.FindMentorMatches(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for _, m := range matches {
		assert.NotNil(t, m.Profile.User)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1, "all surfaced candidates must share one users batch")
	assert.Len(t, batches[0], 5)
}
