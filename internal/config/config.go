// Package config provides configuration management for stitch using Viper
// for loading from files, environment variables, and command-line flags.
//
// Configuration is never cached: every top-level operation (a build, a
// single watch event) calls Source.Load and works on the snapshot it gets
// back, so edits to .stitch.yml take effect while a watch session is running.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/viper"
)

// Default values applied when the configuration file leaves a key unset.
const (
	DefaultSourceDir  = "src"
	DefaultViewsDir   = "views"
	DefaultDistDir    = "dist"
	DefaultExtension  = ".tmpl"
	DefaultCodeClass  = "code-block"
	DefaultIndentSize = 2
	DefaultSassBinary = "sass"
)

type Config struct {
	BaseDir     string         `mapstructure:"base_dir" yaml:"base_dir"`
	Source      string         `mapstructure:"source" yaml:"source"`
	Views       string         `mapstructure:"views" yaml:"views"`
	Dist        string         `mapstructure:"dist" yaml:"dist"`
	Extension   string         `mapstructure:"extension" yaml:"extension"`
	Development bool           `mapstructure:"development" yaml:"development"`
	Watch       []string       `mapstructure:"watch" yaml:"watch,omitempty"`
	Beautify    BeautifyConfig `mapstructure:"beautify" yaml:"beautify"`
	Markdown    MarkdownConfig `mapstructure:"markdown" yaml:"markdown"`
	CSS         CSSConfig      `mapstructure:"css" yaml:"css"`
	Audit       AuditConfig    `mapstructure:"audit" yaml:"audit"`

	// Settings is the full configuration tree. Templates receive it as
	// their default locals and markdown resolves {{ this.* }} against it.
	Settings map[string]interface{} `mapstructure:"-" yaml:"-"`
}

type BeautifyConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	IndentSize int    `mapstructure:"indent_size" yaml:"indent_size"`
	IndentChar string `mapstructure:"indent_char" yaml:"indent_char"`
}

type MarkdownConfig struct {
	CodeClass       string `mapstructure:"code_class" yaml:"code_class"`
	HardWraps       bool   `mapstructure:"hard_wraps" yaml:"hard_wraps"`
	Smartypants     bool   `mapstructure:"smartypants" yaml:"smartypants"`
	HeadingIDs      bool   `mapstructure:"heading_ids" yaml:"heading_ids"`
	HrefTargetBlank bool   `mapstructure:"href_target_blank" yaml:"href_target_blank"`
}

type CSSConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Entry      string `mapstructure:"entry" yaml:"entry"`
	Output     string `mapstructure:"output" yaml:"output"`
	Minify     bool   `mapstructure:"minify" yaml:"minify"`
	SassBinary string `mapstructure:"sass_binary" yaml:"sass_binary"`
}

type AuditConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Level   string   `mapstructure:"level" yaml:"level"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

// Source yields a fresh configuration snapshot on every call.
type Source interface {
	Load() (*Config, error)
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", ".")
	v.SetDefault("source", DefaultSourceDir)
	v.SetDefault("views", DefaultViewsDir)
	v.SetDefault("dist", DefaultDistDir)
	v.SetDefault("extension", DefaultExtension)
	v.SetDefault("development", false)

	v.SetDefault("beautify.enabled", false)
	v.SetDefault("beautify.indent_size", DefaultIndentSize)
	v.SetDefault("beautify.indent_char", " ")

	v.SetDefault("markdown.code_class", DefaultCodeClass)
	v.SetDefault("markdown.hard_wraps", false)
	v.SetDefault("markdown.smartypants", false)
	v.SetDefault("markdown.heading_ids", true)
	v.SetDefault("markdown.href_target_blank", false)

	v.SetDefault("css.enabled", false)
	v.SetDefault("css.entry", "styles/main.scss")
	v.SetDefault("css.output", "css/main.css")
	v.SetDefault("css.minify", true)
	v.SetDefault("css.sass_binary", DefaultSassBinary)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.level", "AA")
}

// ViperSource loads configuration from a viper instance, re-reading the
// backing config file on every Load.
type ViperSource struct {
	v *viper.Viper
}

// NewViperSource wraps v and registers defaults on it.
func NewViperSource(v *viper.Viper) *ViperSource {
	SetDefaults(v)
	return &ViperSource{v: v}
}

// Load re-reads the config file (a missing file is not an error), decodes
// it and validates the result.
func (s *ViperSource) Load() (*Config, error) {
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Settings = s.v.AllSettings()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load reads configuration from the global viper instance.
func Load() (*Config, error) {
	return NewViperSource(viper.GetViper()).Load()
}

// StaticSource always returns the same configuration. Tests and embedders
// that do not need reloading use it.
type StaticSource struct {
	Config *Config
}

// Load returns a shallow copy so callers cannot mutate the shared snapshot.
func (s StaticSource) Load() (*Config, error) {
	if s.Config == nil {
		return nil, errors.New("static source has no configuration")
	}
	cfg := *s.Config
	return &cfg, nil
}
