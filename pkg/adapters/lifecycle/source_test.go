package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	source "github.com/aretw0/tastewalk/pkg/adapters/lifecycle"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

func TestSource_ForwardsWalkEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan walk.Event, 2)
	src := source.NewSource[walk.Event](events)
	require.NoError(t, src.Start(ctx))

	events <- walk.Event{Index: 1, Outcome: walk.Outcome{
		Artist:     core.Artist{Name: "Henry Cow"},
		Base:       core.Artist{Name: "Cardiacs"},
		Move:       walk.MoveAdvance,
		Choice:     walk.ChoiceWeighted,
		Candidates: 7,
	}}
	close(events)

	select {
	case e := <-src.Events():
		assert.Equal(t, "#1 Henry Cow (advance from Cardiacs, weighted of 7 candidates)", e.String())
	case <-time.After(time.Second):
		t.Fatal("no event forwarded")
	}

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output closes with the input")
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestSource_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := source.NewSource[core.Event](make(chan core.Event))
	require.NoError(t, src.Start(ctx))
	cancel()

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed after cancellation")
	}
}
