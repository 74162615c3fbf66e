package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/stitch/internal/build"
	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Build, then rebuild on every source change",
	Long: `Build the site once, then watch the sources and rebuild on change.

With --dev (or development: true) a change rebuilds only the view it
affects: a changed view rebuilds itself, a file inside a directory named
after a view rebuilds that view, and anything else rebuilds every view.
Without it every change rebuilds every view. Stylesheet changes re-run the
stylesheet pass. Removed files are ignored.

Examples:
  stitch watch                    # Rebuild everything on change
  stitch watch --dev              # Rebuild only affected views`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("dev", false, "Rebuild only the views a change affects")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 100*time.Millisecond, "Delay used to group rapid changes")
	_ = viper.BindPFlag("development", watchCmd.Flags().Lookup("dev"))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())

	source := configSource()
	cfg, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	fsys := afero.NewOsFs()
	built, err := buildSite(ctx, cfg, fsys, logger, false, out)
	if err != nil {
		return err
	}
	if !built {
		return nil
	}

	fw, err := newSiteWatcher(cfg, viper.ConfigFileUsed(), logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	session := build.NewSession(source, fsys, logger)
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		printChanges(out, events)
		return session.HandleEvents(ctx, events)
	})

	if err := fw.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	mode := "full rebuilds"
	if cfg.Development {
		mode = "selective rebuilds"
	}
	fmt.Fprintf(out, "Watching %s for changes with %s (Press Ctrl+C to stop)\n", cfg.Paths().BaseDir, mode)

	<-ctx.Done()
	fmt.Fprintln(out, "Stopping file watcher")
	return nil
}

// newSiteWatcher watches the base directory recursively. Files pass when
// they match a watch glob or are the configuration file; VCS directories,
// node_modules and the distribution tree are skipped.
func newSiteWatcher(cfg *config.Config, configFile string, logger logging.Logger) (*watcher.FileWatcher, error) {
	paths := cfg.Paths()

	fw, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if configFile != "" {
		if abs, err := filepath.Abs(configFile); err == nil {
			configFile = abs
		}
	}

	ignore := watcher.IgnoreFilter(paths.BaseDir, watcher.DefaultIgnoredDirs, paths.DistRoot)
	globs := watcher.GlobFilter(paths.BaseDir, paths.WatchGlobs)

	fw.AddDirFilter(ignore)
	fw.AddFilter(ignore)
	fw.AddFilter(func(path string) bool {
		return path == configFile || globs(path)
	})

	if err := fw.AddRecursive(paths.BaseDir); err != nil {
		_ = fw.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", paths.BaseDir, err)
	}

	return fw, nil
}

func printChanges(out io.Writer, events []watcher.ChangeEvent) {
	for _, event := range events {
		fmt.Fprintf(out, "%s: %s\n", event.Type, event.Path)
	}
}
