package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/adapters/kv"
	"github.com/aretw0/tastewalk/pkg/core"
)

func setupRepo(t *testing.T) *kv.Repository {
	t.Helper()
	repo := kv.NewRepository(kv.Config{InMemory: true})
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func at(sec int) time.Time {
	return time.Date(2023, 11, 22, 14, 44, sec, 0, time.UTC)
}

func TestRepository_ListAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)

	_, ok, err := repo.Latest(ctx, core.KindWalk)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, sec := range []int{30, 10, 20} {
		require.NoError(t, repo.Write(ctx, core.NewHandle(core.KindWalk, at(sec)), []byte("[]")))
	}
	require.NoError(t, repo.Write(ctx, core.NewHandle("tag", at(59)), []byte("[]")))
	require.NoError(t, repo.Write(ctx, core.NewHandle(core.KindTags, at(5)), []byte("[]")))

	hs, err := repo.List(ctx, core.KindWalk)
	require.NoError(t, err)
	require.Len(t, hs, 3)
	assert.Equal(t, core.NewHandle(core.KindWalk, at(10)), hs[0])

	latest, ok, err := repo.Latest(ctx, core.KindWalk)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, core.NewHandle(core.KindWalk, at(30)), latest)

	tagsLatest, ok, err := repo.Latest(ctx, "tag")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tag", tagsLatest.Kind, "kinds sharing a prefix stay apart")
}

func TestRepository_ReadWrite(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	h := core.NewHandle(core.KindWalk, at(0))

	_, err := repo.Read(ctx, h)
	assert.True(t, errors.Is(err, core.ErrSnapshotNotFound))

	require.NoError(t, repo.Write(ctx, h, []byte(`[{"name":"a"}]`)))
	require.NoError(t, repo.Write(ctx, h, []byte(`[{"name":"a"},{"name":"b"}]`)))

	data, err := repo.Read(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a"},{"name":"b"}]`, string(data))

	assert.Error(t, repo.Write(ctx, core.Handle{Kind: "Bad", Stamp: "x"}, nil))

	state, ok := repo.State().(kv.RepositoryState)
	require.True(t, ok)
	assert.Equal(t, 2, state.Writes)
	assert.True(t, state.Open)
	assert.Equal(t, "badger-repository", repo.ComponentType())
}

func TestRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := setupRepo(t)
	h := core.NewHandle(core.KindWalk, at(0))
	require.NoError(t, repo.Write(ctx, h, []byte("original")))
	require.NoError(t, repo.Write(ctx, core.NewHandle(core.KindWalk, at(1)), []byte("taken")))

	dup, err := repo.Duplicate(ctx, h, at(1))
	require.NoError(t, err)
	assert.Equal(t, core.NewHandle(core.KindWalk, at(2)), dup)

	data, err := repo.Read(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	_, err = repo.Duplicate(ctx, core.NewHandle(core.KindWalk, at(40)), at(41))
	assert.True(t, errors.Is(err, core.ErrSnapshotNotFound))
}

func TestRepository_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := setupRepo(t)
	h := core.NewHandle(core.KindWalk, at(0))

	events, err := repo.Watch(ctx, h)
	require.NoError(t, err)

	// The subscription starts asynchronously; keep writing until it reports.
	var got core.Event
	require.Eventually(t, func() bool {
		_ = repo.Write(ctx, core.NewHandle(core.KindWalk, at(9)), []byte("other"))
		_ = repo.Write(ctx, h, []byte("[]"))
		select {
		case got = <-events:
			return true
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, h, got.Handle)
	assert.Equal(t, core.EventModify, got.Type)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRepository_RequiresInitialize(t *testing.T) {
	repo := kv.NewRepository(kv.Config{InMemory: true})
	_, err := repo.List(context.Background(), core.KindWalk)
	assert.Error(t, err)
	assert.NoError(t, repo.Close())
}
