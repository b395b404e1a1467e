package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/tags"
)

var (
	gatherFollow bool
	gatherShow   bool
	gatherLimit  int
)

var gatherCmd = &cobra.Command{
	Use:   "gather [snapshot]",
	Short: "Gather the tags of every artist of a walk",
	Long: `Gather the top tags of the artists of the latest walk (or the named one).
A previous run is resumed where it stopped. The run stops at the first
artist whose tags cannot be fetched; run it again to resume.
With --follow the walk is watched and new artists are gathered as they appear.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		h, err := resolveWalk(ctx, app, args)
		if err != nil {
			return err
		}

		opts := []tags.Option{tags.WithLogger(slog.Default().With("component", "gatherer"))}
		if cmd.Flags().Changed("show") {
			opts = append(opts, tags.WithShow(gatherShow))
		}
		if cmd.Flags().Changed("limit") {
			opts = append(opts, tags.WithLimit(gatherLimit))
		}
		g, err := app.NewGatherer(opts...)
		if err != nil {
			return fmt.Errorf("failed to build the gatherer: %w", err)
		}

		var report tags.GatherReport
		if gatherFollow {
			fmt.Fprintf(os.Stderr, "Following %s, press Ctrl+C to stop\n", h)
			report, err = g.Follow(ctx, app.Walks, h)
		} else {
			var w core.Walk
			if w, err = app.Walks.Load(ctx, h); err != nil {
				return fmt.Errorf("failed to load the walk: %w", err)
			}
			report, err = g.Gather(ctx, h, w)
		}

		printGatherReport(report)
		if err != nil {
			return fmt.Errorf("gathering stopped: %w", err)
		}
		return nil
	},
}

// resolveWalk returns the named walk snapshot, or the latest one.
func resolveWalk(ctx context.Context, app *tastewalk.App, args []string) (core.Handle, error) {
	if len(args) == 1 {
		h, err := core.ParseName(args[0])
		if err != nil {
			return core.Handle{}, fmt.Errorf("invalid snapshot name: %w", err)
		}
		return h, nil
	}
	h, ok, err := app.Walks.Latest(ctx)
	if err != nil {
		return core.Handle{}, fmt.Errorf("failed to find the latest walk: %w", err)
	}
	if !ok {
		return core.Handle{}, fmt.Errorf("%w: no %s snapshot in %s", core.ErrSnapshotNotFound, app.Walks.Kind(), app.Config.DataDir)
	}
	return h, nil
}

func printGatherReport(r tags.GatherReport) {
	if r.Target.IsZero() {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d artists tagged (%d resumed, %d gathered)", r.Target, r.Done, r.Total, r.Resumed, r.Gathered)
	if r.Failed != nil {
		fmt.Fprintf(&b, ", stopped at %q", r.Failed.Name)
	}
	fmt.Fprintln(os.Stderr, b.String())
}

func init() {
	rootCmd.AddCommand(gatherCmd)
	gatherCmd.Flags().BoolVarP(&gatherFollow, "follow", "f", false, "Keep gathering as the walk grows")
	gatherCmd.Flags().BoolVar(&gatherShow, "show", false, "Log every gathered artist with its first tags")
	gatherCmd.Flags().IntVar(&gatherLimit, "limit", tags.DefaultLimit, "Maximum number of tags kept per artist")
}
