package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/fsutil"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stitch configuration",
	Long: `Manage the .stitch.yml configuration file.

Examples:
  stitch config init              # Write a default .stitch.yml
  stitch config init --dev --css  # Enable watch-mode selective rebuilds and the stylesheet pass
  stitch config validate          # Check the current configuration
  stitch config show              # Print the effective configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE:  runConfigShow,
}

var (
	initOutput   string
	initForce    bool
	initDev      bool
	initCSS      bool
	initAudit    bool
	initBeautify bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd, configShowCmd)

	configInitCmd.Flags().StringVarP(&initOutput, "output", "o", ConfigFileName, "File to write")
	configInitCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	configInitCmd.Flags().BoolVar(&initDev, "dev", false, "Enable selective rebuilds in watch mode")
	configInitCmd.Flags().BoolVar(&initCSS, "css", false, "Enable the stylesheet pass")
	configInitCmd.Flags().BoolVar(&initAudit, "audit", false, "Enable accessibility auditing")
	configInitCmd.Flags().BoolVar(&initBeautify, "beautify", false, "Enable HTML beautification")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(initOutput); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
	}

	builder := config.NewConfigBuilder().WithDevelopment(initDev)
	if initCSS {
		d := config.Defaults()
		builder.WithCSS(d.CSS.Entry, d.CSS.Output)
	}
	if initAudit {
		builder.WithAudit(config.Defaults().Audit.Level)
	}
	if initBeautify {
		builder.WithBeautify(config.DefaultIndentSize, " ")
	}

	cfg, err := builder.Build()
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := fsutil.WriteFile(afero.NewOsFs(), initOutput, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", initOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration is valid")

	p := cfg.Paths()
	if info, err := os.Stat(p.ViewsRoot); err != nil || !info.IsDir() {
		fmt.Fprintf(out, "Warning: views directory %s does not exist\n", p.ViewsRoot)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
