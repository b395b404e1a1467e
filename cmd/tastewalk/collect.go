package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/tags"
)

var (
	collectMatch    string
	collectAttempts int
)

var collectCmd = &cobra.Command{
	Use:   "collect [snapshot...]",
	Short: "Collect the tags of several walks into one document snapshot",
	Long: `Collect the top tags of every artist of the named walks, or of the walks
whose names match --match. Failed fetches are retried after a delay and the
artist is skipped once the attempts run out. The result is saved once, as a
document snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		handles, err := selectWalks(cmd, args, app.Walks.List)
		if err != nil {
			return fmt.Errorf("failed to select walks: %w", err)
		}
		if len(handles) == 0 {
			return fmt.Errorf("no walk selected: %w", core.ErrSnapshotNotFound)
		}

		lists := make([][]core.Artist, 0, len(handles))
		for _, h := range handles {
			w, err := app.Walks.Load(ctx, h)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", h, err)
			}
			lists = append(lists, w)
		}

		opts := []tags.BatchOption{tags.WithBatchLogger(slog.Default().With("component", "collector"))}
		if cmd.Flags().Changed("attempts") {
			opts = append(opts, tags.WithAttempts(collectAttempts))
		}
		c, err := app.NewBatchCollector(opts...)
		if err != nil {
			return fmt.Errorf("failed to build the collector: %w", err)
		}

		batch, report, err := c.Collect(ctx, lists...)
		if err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %s: %d documents from %d walks, %d artists skipped\n",
			report.Handle, len(batch.Documents), len(lists), len(report.Skipped))
		return nil
	},
}

// selectWalks returns the handles named in args, or the listed ones whose
// name matches the --match pattern.
func selectWalks(cmd *cobra.Command, args []string, list func(ctx context.Context) ([]core.Handle, error)) ([]core.Handle, error) {
	if len(args) > 0 {
		handles := make([]core.Handle, 0, len(args))
		for _, name := range args {
			h, err := core.ParseName(name)
			if err != nil {
				return nil, err
			}
			handles = append(handles, h)
		}
		return handles, nil
	}

	all, err := list(cmd.Context())
	if err != nil {
		return nil, err
	}
	return matchHandles(all, collectMatch)
}

// matchHandles filters handles by a doublestar pattern on their names.
func matchHandles(handles []core.Handle, pattern string) ([]core.Handle, error) {
	if pattern == "" {
		return handles, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	var out []core.Handle
	for _, h := range handles {
		if ok, _ := doublestar.Match(pattern, h.Name()); ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringVar(&collectMatch, "match", "", "Glob selecting walk snapshots by name, e.g. 'mdwalker23-*'")
	collectCmd.Flags().IntVar(&collectAttempts, "attempts", tags.DefaultAttempts, "Attempts per artist before skipping it")
}
