package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk"
	"github.com/aretw0/tastewalk/pkg/core"
)

func TestCollectStatus(t *testing.T) {
	ctx := context.Background()
	conf := tastewalk.DefaultConfig()
	conf.DataDir = t.TempDir()

	app, err := tastewalk.Open(ctx, conf)
	require.NoError(t, err)
	defer app.Close()

	t.Run("Empty Data Directory", func(t *testing.T) {
		s, err := collectStatus(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, "fs", s.Backend)
		assert.Equal(t, "fs-repository", s.Component)
		assert.Zero(t, s.Walks)
		assert.Nil(t, s.Latest)
	})

	t.Run("Latest Walk And Tag Progress", func(t *testing.T) {
		at := time.Date(2023, 11, 22, 14, 44, 34, 0, time.Local)
		older := app.Walks.NewHandle(at.Add(-time.Hour))
		latest := app.Walks.NewHandle(at)
		require.NoError(t, app.Walks.Save(ctx, older, core.Walk{{Name: "Can"}}))
		require.NoError(t, app.Walks.Save(ctx, latest, core.Walk{{Name: "Can"}, {Name: "Faust"}, {Name: "Neu!"}}))
		require.NoError(t, app.Tags.Save(ctx, latest.WithKind(core.KindTags), core.TagCollection{
			{Artist: core.Artist{Name: "Can"}, Tags: []core.Tag{{Name: "krautrock", Weight: 100}}},
		}))

		s, err := collectStatus(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, 2, s.Walks)
		require.NotNil(t, s.Latest)
		assert.Equal(t, "mdwalker23-11-22--14-44-34", s.Latest.Snapshot)
		assert.Equal(t, 3, s.Latest.Length)
		require.NotNil(t, s.Tags)
		assert.Equal(t, "tag_data23-11-22--14-44-34", s.Tags.Snapshot)
		assert.Equal(t, 1, s.Tags.Tagged)
		assert.Equal(t, 2, s.Tags.Remaining)
	})
}

func TestMatchHandles(t *testing.T) {
	at := time.Date(2023, 11, 22, 14, 44, 34, 0, time.Local)
	handles := []core.Handle{
		core.NewHandle("mdwalker", at),
		core.NewHandle("mdwalker", at.AddDate(1, 0, 0)),
	}

	got, err := matchHandles(handles, "mdwalker23-*")
	require.NoError(t, err)
	assert.Equal(t, handles[:1], got)

	got, err = matchHandles(handles, "")
	require.NoError(t, err)
	assert.Equal(t, handles, got)

	_, err = matchHandles(handles, "[")
	assert.Error(t, err)
}
