package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tastewalk/pkg/core"
)

func TestHandle_Naming(t *testing.T) {
	at := time.Date(2024, 3, 9, 17, 4, 5, 0, time.Local)
	h := core.NewHandle(core.KindWalk, at)

	assert.Equal(t, "mdwalker24-03-09--17-04-05", h.Name())
	assert.Equal(t, "tag_data24-03-09--17-04-05", h.WithKind(core.KindTags).Name())

	got, err := h.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestParseName(t *testing.T) {
	t.Run("Strips Directory and Extension", func(t *testing.T) {
		h, err := core.ParseName("data/mdwalker24-03-09--17-04-05.json")
		require.NoError(t, err)
		assert.Equal(t, core.Handle{Kind: "mdwalker", Stamp: "24-03-09--17-04-05"}, h)
	})

	t.Run("Kind With Underscore", func(t *testing.T) {
		h, err := core.ParseName("tag_data24-03-09--17-04-05.yaml")
		require.NoError(t, err)
		assert.Equal(t, core.KindTags, h.Kind)
	})

	t.Run("Rejects Garbage", func(t *testing.T) {
		for _, name := range []string{"", "mdwalker", "mdwalker24-99-09--17-04-05", "MD24-03-09--17-04-05", "24-03-09--17-04-05"} {
			_, err := core.ParseName(name)
			assert.True(t, errors.Is(err, core.ErrInvalidHandle), "name %q", name)
		}
	})
}

func TestLatestOf_FollowsChronology(t *testing.T) {
	base := time.Date(2019, 12, 31, 23, 59, 59, 0, time.Local)
	var hs []core.Handle
	for _, d := range []time.Duration{0, time.Second, 24 * time.Hour, 400 * 24 * time.Hour} {
		hs = append(hs, core.NewHandle(core.KindWalk, base.Add(d)))
	}
	// Shuffle the order; the latest must still be the chronologically last one.
	shuffled := []core.Handle{hs[2], hs[0], hs[3], hs[1]}

	latest, ok := core.LatestOf(shuffled)
	require.True(t, ok)
	assert.Equal(t, hs[3], latest)

	core.SortHandles(shuffled)
	assert.Equal(t, hs, shuffled)

	_, ok = core.LatestOf(nil)
	assert.False(t, ok)
}

func TestFreeHandle(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	taken := map[string]bool{
		core.NewHandle("mdwalker", at).Name():                  true,
		core.NewHandle("mdwalker", at.Add(time.Second)).Name(): true,
	}

	h, err := core.FreeHandle("mdwalker", at, func(h core.Handle) (bool, error) {
		return taken[h.Name()], nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.NewHandle("mdwalker", at.Add(2*time.Second)), h)
}

func TestWalk_FromTail(t *testing.T) {
	w := core.Walk{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	tail, ok := w.Tail()
	require.True(t, ok)
	assert.Equal(t, "C", tail.Name)

	prev, ok := w.FromTail(2)
	require.True(t, ok)
	assert.Equal(t, "B", prev.Name)

	_, ok = w.FromTail(4)
	assert.False(t, ok)
	_, ok = core.Walk(nil).Tail()
	assert.False(t, ok)

	assert.True(t, core.Artist{Name: "John Coltrane"}.Same(core.Artist{Name: " john coltrane"}))
}
