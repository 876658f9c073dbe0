package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type cachedReport struct {
	StudentID string  `json:"student_id"`
	Average   float64 `json:"average"`
}

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "results:report:a", cachedReport{StudentID: "s1", Average: 71.5}, time.Minute))
	assert.True(t, mr.Exists("results:report:a"))
	assert.Equal(t, time.Minute, mr.TTL("results:report:a"))

	var got cachedReport
	require.NoError(t, repo.Get(ctx, "results:report:a", &got))
	assert.Equal(t, cachedReport{StudentID: "s1", Average: 71.5}, got)

	err := repo.Get(ctx, "results:report:missing", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
}

func TestCacheRepositoryDropsCorruptEntries(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set("results:report:bad", "{not json"))

	var got cachedReport
	err := repo.Get(context.Background(), "results:report:bad", &got)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.False(t, mr.Exists("results:report:bad"))
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	for _, key := range []string{"results:report:sch:1", "results:report:sch:2", "results:report:other:1"} {
		require.NoError(t, repo.Set(ctx, key, cachedReport{}, 0))
	}

	require.NoError(t, repo.DeleteByPattern(ctx, "results:report:sch:*"))
	assert.False(t, mr.Exists("results:report:sch:1"))
	assert.False(t, mr.Exists("results:report:sch:2"))
	assert.True(t, mr.Exists("results:report:other:1"))
	require.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var got cachedReport
	assert.True(t, errors.Is(repo.Get(ctx, "k", &got), appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "k", got, time.Second))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Close())
}
