package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/stitch/internal/build"
	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/css"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build every view into the distribution directory",
	Long: `Compile every view under the views directory, write the pages to the
distribution directory, run the stylesheet pass and, when enabled, audit the
written pages.

A view that fails to compile or write is reported and skipped; the other
views are still built. A missing views directory is reported and is not an
error.

Examples:
  stitch build                    # Build all views
  stitch build --clean            # Remove the distribution directory first`,
	RunE: runBuild,
}

var buildClean bool

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove the distribution directory before building")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr())
	_, err = buildSite(commandContext(cmd), cfg, afero.NewOsFs(), logger, buildClean, cmd.OutOrStdout())
	return err
}

// buildSite runs a full build followed by the stylesheet pass. built is
// false when there was nothing to build because the views directory is
// missing.
func buildSite(
	ctx context.Context,
	cfg *config.Config,
	fsys afero.Fs,
	logger logging.Logger,
	clean bool,
	out io.Writer,
) (built bool, err error) {
	b := build.NewBuilder(cfg, fsys, logger)

	if clean {
		if err := b.Clean(ctx); err != nil {
			return false, fmt.Errorf("failed to clean: %w", err)
		}
	}

	if err := b.Build(ctx); err != nil {
		if stitcherrors.IsKind(err, stitcherrors.KindConfigurationMissing) {
			logger.Warn(ctx, err, "Views directory missing, nothing to build")
			fmt.Fprintf(out, "No views directory at %s, nothing to build\n", b.Paths().ViewsRoot)
			return false, nil
		}
		return false, err
	}

	stylesheet, err := css.NewPipeline(cfg, fsys, logger).Run(ctx)
	if err != nil {
		logger.Error(ctx, err, "Stylesheet pass failed")
	}

	s := b.Metrics()
	fmt.Fprintf(out, "Built %d of %d views into %s (%.1f%%, %s)\n",
		s.Compiled, s.Pages, b.Paths().DistRoot, s.SuccessRate(), s.TotalDuration.Round(time.Millisecond))
	if stylesheet != "" {
		fmt.Fprintf(out, "Wrote stylesheet %s\n", stylesheet)
	}
	printFailures(out, b.Failures())

	return true, nil
}

// printFailures lists failures grouped by kind under the summary line.
func printFailures(out io.Writer, failures *stitcherrors.Collector) {
	if !failures.HasErrors() {
		return
	}

	fmt.Fprintln(out, failures.Summary())
	for _, kind := range failures.Kinds() {
		fmt.Fprintf(out, "  %s:\n", stitcherrors.KindName(kind))
		for _, f := range failures.ByKind(kind) {
			fmt.Fprintf(out, "    %s\n", f.Error())
		}
	}
}
