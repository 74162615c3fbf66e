package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/stitch/internal/css"
)

var cssCmd = &cobra.Command{
	Use:   "css",
	Short: "Run only the stylesheet pass",
	Long: `Compile the entry stylesheet (with the sass binary for .scss and .sass),
minify it when enabled and write it under the distribution directory.

Examples:
  stitch css                      # Build the stylesheet bundle
  STITCH_CSS_MINIFY=false stitch css`,
	RunE: runCSS,
}

func init() {
	rootCmd.AddCommand(cssCmd)
}

func runCSS(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cfg.CSS.Enabled {
		fmt.Fprintln(out, "Stylesheet pass is disabled (set css.enabled in .stitch.yml)")
		return nil
	}

	logger := newLogger(cmd.ErrOrStderr())
	written, err := css.NewPipeline(cfg, afero.NewOsFs(), logger).Run(commandContext(cmd))
	if err != nil {
		return err
	}

	if written == "" {
		fmt.Fprintln(out, "No entry stylesheet found, nothing written")
		return nil
	}
	fmt.Fprintf(out, "Wrote stylesheet %s\n", written)
	return nil
}
