package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lcsource "github.com/aretw0/tastewalk/pkg/adapters/lifecycle"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

var (
	walkDuplicate bool
	walkMaxSteps  int
	walkYes       bool
	walkQuiet     bool
)

var walkCmd = &cobra.Command{
	Use:   "walk [snapshot]",
	Short: "Resume the latest walk (or the named one) and keep walking",
	Long: `Resume a walk and extend it until interrupted (Ctrl+C) or --max-steps is reached.
When no walk exists, or the snapshot is damaged, a new walk seeded with the
configured seed artist is created after confirmation. Every step is saved.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var h core.Handle
		if len(args) == 1 {
			var err error
			if h, err = core.ParseName(args[0]); err != nil {
				return fmt.Errorf("invalid snapshot name: %w", err)
			}
		}

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		confirmer := promptConfirmer(os.Stdin, os.Stderr)
		if walkYes {
			confirmer = walk.AlwaysConfirm(true)
		}

		events := make(chan walk.Event)
		w, err := app.NewWalker(
			walk.WithConfirmer(confirmer),
			walk.WithEvents(events),
		)
		if err != nil {
			return fmt.Errorf("failed to build the walker: %w", err)
		}

		if err := w.Load(ctx, walk.LoadOptions{Handle: h, Duplicate: walkDuplicate}); err != nil {
			if promptStopped(err) {
				fmt.Fprintln(os.Stderr, "No walk created.")
				return nil
			}
			return fmt.Errorf("failed to load the walk: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Walking %s (%d artists)\n", w.Handle(), w.Len())

		printed := printEvents(ctx, events)

		maxSteps := cfg.Walk.MaxSteps
		if cmd.Flags().Changed("max-steps") {
			maxSteps = walkMaxSteps
		}
		report, err := w.Run(ctx, walk.RunOptions{MaxSteps: maxSteps})
		close(events)
		<-printed

		fmt.Fprintf(os.Stderr, "Saved %s: %d steps, %d artists\n", report.Handle, report.Steps, report.Length)
		if err != nil {
			return fmt.Errorf("walk stopped: %w", err)
		}
		return nil
	},
}

// promptStopped reports whether Load ended because the user declined or
// cancelled the creation of a new walk. Both are a clean exit.
func promptStopped(err error) bool {
	return errors.Is(err, core.ErrCancelled) || errors.Is(err, walk.ErrDeclined)
}

// printEvents prints walk progress through a lifecycle source until events
// is closed. The returned channel closes when printing is done.
func printEvents(ctx context.Context, events <-chan walk.Event) <-chan struct{} {
	done := make(chan struct{})
	src := lcsource.NewSource[walk.Event](events)

	// The source stops on its own when events closes; ctx only guards a stuck reader.
	srcCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := src.Start(srcCtx); err != nil {
		cancel()
		close(done)
		return done
	}
	go func() {
		defer close(done)
		defer cancel()
		for e := range src.Events() {
			if !walkQuiet {
				fmt.Println(e.String())
			}
		}
	}()
	return done
}

func init() {
	rootCmd.AddCommand(walkCmd)
	walkCmd.Flags().BoolVar(&walkDuplicate, "duplicate", false, "Continue on a timestamped copy, leaving the snapshot intact")
	walkCmd.Flags().IntVarP(&walkMaxSteps, "max-steps", "n", 0, "Stop after that many steps (0 walks until interrupted)")
	walkCmd.Flags().BoolVarP(&walkYes, "yes", "y", false, "Create a new walk without asking")
	walkCmd.Flags().BoolVarP(&walkQuiet, "quiet", "q", false, "Do not print the visited artists")
}
