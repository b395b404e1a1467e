package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/tastewalk"
	"github.com/aretw0/tastewalk/internal/platform"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	dataDir   string
	backend   string
	format    string

	cfg *tastewalk.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tastewalk",
	Short: "Random walks over the Last.fm artist similarity graph",
	Long: `tastewalk explores musical taste by walking the Last.fm similarity graph.
Every step is saved as a timestamped snapshot, so walks can be stopped and
resumed at any time. The tags of the visited artists are gathered afterwards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		overrides := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("data-dir") {
			overrides["data_dir"] = dataDir
		}
		if flags.Changed("backend") {
			overrides["backend"] = backend
		}
		if flags.Changed("format") {
			overrides["format"] = format
		}
		if flags.Changed("log-format") {
			overrides["log.format"] = logFormat
		}
		if verbose {
			overrides["log.level"] = "debug"
		}

		var err error
		cfg, err = tastewalk.LoadConfig(cfgFile, overrides)
		if err != nil {
			fatal("Failed to load configuration", err)
		}

		slog.SetDefault(platform.NewLogger(cfg.Log, os.Stderr))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: tastewalk.yaml found upwards from the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the snapshots")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: fs, badger, sqlite or memory")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Snapshot format: json or yaml")
}

// signalContext is cancelled by Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openApp wires the application from the loaded configuration.
// Callers defer closeApp, so commands opening it return errors instead of
// calling fatal.
func openApp(ctx context.Context) (*tastewalk.App, error) {
	app, err := tastewalk.Open(ctx, cfg, tastewalk.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open the data directory: %w", err)
	}
	return app, nil
}

func closeApp(app *tastewalk.App) {
	if err := app.Close(); err != nil {
		slog.Error("failed to close", "error", err)
	}
}
