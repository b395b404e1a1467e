package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tastewalk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tastewalk version %s\n", tastewalk.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
