package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var duplicateCmd = &cobra.Command{
	Use:   "duplicate [snapshot]",
	Short: "Copy a walk under a new timestamped name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		h, err := resolveWalk(ctx, app, args)
		if err != nil {
			return err
		}
		dup, err := app.Walks.Duplicate(ctx, h, time.Now())
		if err != nil {
			return fmt.Errorf("failed to duplicate %s: %w", h, err)
		}
		fmt.Println(dup.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
}
