package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stitch/internal/build"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

var viewsCmd = &cobra.Command{
	Use:     "views",
	Aliases: []string{"l", "list"},
	Short:   "List the top-level views",
	Long: `List the views directly inside the views directory with the page each
one is written to.

Examples:
  stitch views                    # Table output
  stitch views -o json            # JSON output
  stitch views -o yaml            # YAML output`,
	RunE: runViews,
}

var viewsFormat = newChoiceFlag("table", "table", "json", "yaml")

func init() {
	rootCmd.AddCommand(viewsCmd)

	viewsCmd.Flags().VarP(viewsFormat, "output", "o", "Output format (table, json, yaml)")
}

// viewEntry is a view as printed by the views command.
type viewEntry struct {
	Title string `json:"title" yaml:"title"`
	build.View `yaml:",inline"`
}

func runViews(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	views, err := build.ListViews(afero.NewOsFs(), cfg.Paths())
	if err != nil {
		if stitcherrors.IsKind(err, stitcherrors.KindConfigurationMissing) {
			fmt.Fprintf(cmd.OutOrStdout(), "No views directory at %s\n", cfg.Paths().ViewsRoot)
			return nil
		}
		return err
	}

	return printViews(cmd.OutOrStdout(), viewsFormat.String(), views)
}

func printViews(out io.Writer, format string, views []build.View) error {
	entries := make([]viewEntry, len(views))
	for i, v := range views {
		entries[i] = viewEntry{Title: viewTitle(v.Name), View: v}
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(entries)
	case "table":
		if len(entries) == 0 {
			fmt.Fprintln(out, "No views found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tFILE\tOUTPUT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Title, e.File, e.Output)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", format)
	}
}

var titleCaser = cases.Title(language.English)

// viewTitle turns a view name such as "blog-post" into "Blog Post".
func viewTitle(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	return titleCaser.String(strings.Join(words, " "))
}
