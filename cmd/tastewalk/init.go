package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk/internal/platform"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a tastewalk.yaml with the current settings",
	Long: `Write the effective configuration (defaults, environment and flags) to
tastewalk.yaml in the current directory, and create the data directory.
The Last.fm API key is left out; set TASTEWALK_LASTFM__API_KEY instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := platform.ConfigNames[0]
		if _, err := os.Stat(path); err == nil && !initForce {
			fatal("Refusing to overwrite "+path, fs.ErrExist)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fatal("Failed to check "+path, err)
		}

		out := *cfg
		out.LastFM.APIKey = ""
		data, err := platform.MarshalConfig(&out)
		if err != nil {
			fatal("Failed to render configuration", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fatal("Failed to write "+path, err)
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			fatal("Failed to create the data directory", err)
		}

		fmt.Println("Initialized tastewalk in", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing tastewalk.yaml")
}
