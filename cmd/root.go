// Package cmd provides the stitch command-line interface.
//
// Configuration comes from, highest priority first:
//  1. Command-line flags (--config, --log-level, --dev, ...)
//  2. STITCH_CONFIG_FILE: path to the configuration file
//  3. STITCH_* environment variables, e.g. STITCH_DIST or STITCH_CSS_ENABLED
//  4. .stitch.yml in the current directory
//
// Configuration is re-read by every build and by every change handled in
// watch mode.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/logging"
)

// ConfigFileName is the configuration file looked up in the working directory.
const ConfigFileName = ".stitch.yml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Compile a tree of templates and markdown into a static site",
	Long: `Stitch compiles html/template views, markdown and HTML fragments into a
static site, and can watch the sources to rebuild only what a change affects.

Quick Start:
  stitch config init              Write a default .stitch.yml
  stitch build                    Build every view into dist/
  stitch watch --dev              Build, then rebuild affected views on change
  stitch views                    List the top-level views`,
	SilenceUsage: true,
}

// Execute runs the root command. Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .stitch.yml, can also use STITCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Var(newChoiceFlag("text", "text", "json"), "log-format", "log format (text, json)")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig points viper at the configuration file and environment. The
// file itself is read by config.ViperSource on every load.
func initConfig() {
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv("STITCH_CONFIG_FILE") != "":
		viper.SetConfigFile(os.Getenv("STITCH_CONFIG_FILE"))
	default:
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(ConfigFileName, ".yml"))
	}

	viper.SetEnvPrefix("STITCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// configSource returns the per-operation configuration source.
func configSource() config.Source {
	return config.NewViperSource(viper.GetViper())
}

func loadConfig() (*config.Config, error) {
	cfg, err := configSource().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the CLI logger from the log flags. Unknown levels fall
// back to info.
func newLogger(out io.Writer) logging.Logger {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = logging.LevelInfo
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: viper.GetString("log_format"),
		Output: out,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
