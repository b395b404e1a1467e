package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk"
	"github.com/aretw0/tastewalk/pkg/core"
)

type walkStatus struct {
	Snapshot string `json:"snapshot"`
	Length   int    `json:"length"`
	Damaged  bool   `json:"damaged,omitempty"`
}

type tagStatus struct {
	Snapshot  string `json:"snapshot"`
	Tagged    int    `json:"tagged"`
	Remaining int    `json:"remaining"`
	Damaged   bool   `json:"damaged,omitempty"`
}

type status struct {
	Backend    string      `json:"backend"`
	DataDir    string      `json:"data_dir"`
	Component  string      `json:"component,omitempty"`
	Repository any         `json:"repository,omitempty"`
	Walks      int         `json:"walks"`
	Latest     *walkStatus `json:"latest,omitempty"`
	Tags       *tagStatus  `json:"tags,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the storage state and the progress of the latest walk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		s, err := collectStatus(ctx, app)
		if err != nil {
			return fmt.Errorf("failed to read status: %w", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	},
}

func collectStatus(ctx context.Context, app *tastewalk.App) (status, error) {
	s := status{Backend: app.Config.Backend, DataDir: app.Config.DataDir}
	if c, ok := app.Repository.(introspection.Component); ok {
		s.Component = c.ComponentType()
	}
	if intro, ok := app.Repository.(introspection.Introspectable); ok {
		s.Repository = intro.State()
	}

	walks, err := app.Walks.List(ctx)
	if err != nil {
		return s, err
	}
	s.Walks = len(walks)
	h, ok := core.LatestOf(walks)
	if !ok {
		return s, nil
	}

	w, err := app.Walks.Load(ctx, h)
	switch {
	case errors.Is(err, core.ErrCorruptSnapshot):
		s.Latest = &walkStatus{Snapshot: h.Name(), Damaged: true}
		return s, nil
	case err != nil:
		return s, err
	}
	s.Latest = &walkStatus{Snapshot: h.Name(), Length: len(w)}

	th, ok, err := app.Tags.Latest(ctx)
	if err != nil {
		return s, err
	}
	if !ok {
		s.Tags = &tagStatus{Snapshot: h.WithKind(core.KindTags).Name(), Remaining: len(w)}
		return s, nil
	}
	collection, err := app.Tags.Load(ctx, th)
	switch {
	case errors.Is(err, core.ErrSnapshotNotFound):
		s.Tags = &tagStatus{Snapshot: th.Name(), Remaining: len(w)}
	case errors.Is(err, core.ErrCorruptSnapshot):
		s.Tags = &tagStatus{Snapshot: th.Name(), Damaged: true}
	case err != nil:
		return s, err
	default:
		s.Tags = &tagStatus{Snapshot: th.Name(), Tagged: len(collection), Remaining: max(len(w)-len(collection), 0)}
	}
	return s, nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
