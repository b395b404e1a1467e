package main

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk/pkg/core"
)

var (
	listJSON  bool
	listKind  string
	listMatch string
)

type listEntry struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	Time time.Time `json:"time"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored snapshots, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		kinds := []string{listKind}
		if listKind == "" {
			kinds = []string{app.Walks.Kind(), core.KindTags, core.KindDocument}
		}

		var entries []listEntry
		for _, kind := range kinds {
			handles, err := app.Repository.List(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to list %s snapshots: %w", kind, err)
			}
			if handles, err = matchHandles(handles, listMatch); err != nil {
				return err
			}
			for _, h := range handles {
				at, _ := h.Time()
				entries = append(entries, listEntry{Name: h.Name(), Kind: h.Kind, Time: at})
			}
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(entries)
		}

		for _, e := range entries {
			fmt.Println(e.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Only list snapshots of this kind (default: walks, tags and documents)")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Glob filtering snapshot names, e.g. '*23-11-*'")
}
