package tastewalk_test

import (
	"context"
	"fmt"

	"github.com/aretw0/tastewalk"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// lineAPI links every artist to a single successor.
type lineAPI struct{}

func (lineAPI) Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error) {
	return []core.Artist{{Name: a.Name + "'"}}, nil
}

func (lineAPI) TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error) {
	return []core.Tag{{Name: "rock", Weight: 100}}, nil
}

func (lineAPI) SearchArtist(ctx context.Context, name string, limit int) ([]core.Artist, error) {
	return []core.Artist{{Name: name}}, nil
}

func Example() {
	ctx := context.Background()

	cfg := tastewalk.DefaultConfig()
	cfg.Backend = "memory"
	cfg.Seed = "Can"
	cfg.Walk.MaxDegree = 1
	cfg.Walk.BackProb = 0

	app, err := tastewalk.Open(ctx, cfg, tastewalk.WithSource(lineAPI{}))
	if err != nil {
		panic(err)
	}
	defer app.Close()

	w, err := app.NewWalker(walk.WithConfirmer(walk.AlwaysConfirm(true)))
	if err != nil {
		panic(err)
	}
	if err := w.Load(ctx, walk.LoadOptions{}); err != nil {
		panic(err)
	}
	if _, err := w.Run(ctx, walk.RunOptions{MaxSteps: 2}); err != nil {
		panic(err)
	}

	for _, a := range w.Walk() {
		fmt.Println(a.Name)
	}
	// Output:
	// Can
	// Can'
	// Can''
}
