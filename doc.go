// Package tastewalk is the composition root of the tastewalk tool.
//
// tastewalk explores the Last.fm artist similarity graph with a random walk
// and stores every step as a timestamped snapshot, so a walk can be stopped
// at any point and resumed later. The tags of the visited artists are
// gathered afterwards, resuming from where a previous run stopped.
//
// Packages:
//
//   - pkg/core: artists, walks, tag documents, snapshot handles and the storage port.
//   - pkg/walk: the random-walk engine and the resumable walker.
//   - pkg/tags: the fail-stop tag gatherer and the retrying batch collector.
//   - pkg/adapters: filesystem, Badger, SQLite and in-memory repositories, and the Last.fm client.
//
// Usage:
//
//	cfg, err := tastewalk.LoadConfig("tastewalk.yaml", nil)
//	app, err := tastewalk.Open(ctx, cfg, tastewalk.WithLogger(logger))
//	defer app.Close()
//
//	w, err := app.NewWalker(walk.WithConfirmer(walk.AlwaysConfirm(true)))
//	err = w.Load(ctx, walk.LoadOptions{})
//	report, err := w.Run(ctx, walk.RunOptions{MaxSteps: 10})
package tastewalk
