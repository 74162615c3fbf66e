package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ValidatorFunc is an extra check run by ConfigBuilder.Build.
type ValidatorFunc func(*Config) error

// ConfigBuilder assembles a configuration in code, starting from the
// defaults. `stitch config init` and tests use it.
//
//	cfg, err := NewConfigBuilder().
//	    WithDevelopment(true).
//	    WithCSS("styles/main.scss", "css/main.css").
//	    Build()
type ConfigBuilder struct {
	config     *Config
	validators []ValidatorFunc
}

// Defaults returns a configuration holding every default value.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	// Decoding plain defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	cfg.Settings = v.AllSettings()
	return &cfg
}

// NewConfigBuilder creates a builder seeded with the defaults.
func NewConfigBuilder() *ConfigBuilder {
	cfg := Defaults()
	cfg.Settings = make(map[string]interface{})
	return &ConfigBuilder{config: cfg}
}

// WithBaseDir sets the directory every other path is relative to.
func (cb *ConfigBuilder) WithBaseDir(dir string) *ConfigBuilder {
	cb.config.BaseDir = dir
	return cb
}

// WithPaths sets the source, views and distribution sub-paths.
func (cb *ConfigBuilder) WithPaths(source, views, dist string) *ConfigBuilder {
	cb.config.Source = source
	cb.config.Views = views
	cb.config.Dist = dist
	return cb
}

// WithExtension sets the view extension.
func (cb *ConfigBuilder) WithExtension(ext string) *ConfigBuilder {
	cb.config.Extension = NormalizeExt(ext)
	return cb
}

// WithDevelopment toggles selective rebuilds in watch mode.
func (cb *ConfigBuilder) WithDevelopment(enabled bool) *ConfigBuilder {
	cb.config.Development = enabled
	return cb
}

// WithWatch replaces the derived watch globs.
func (cb *ConfigBuilder) WithWatch(globs ...string) *ConfigBuilder {
	cb.config.Watch = append([]string(nil), globs...)
	return cb
}

// WithBeautify enables beautification with the given indent.
func (cb *ConfigBuilder) WithBeautify(size int, char string) *ConfigBuilder {
	cb.config.Beautify = BeautifyConfig{Enabled: true, IndentSize: size, IndentChar: char}
	return cb
}

// WithCSS enables the stylesheet pass.
func (cb *ConfigBuilder) WithCSS(entry, output string) *ConfigBuilder {
	cb.config.CSS.Enabled = true
	cb.config.CSS.Entry = entry
	cb.config.CSS.Output = output
	return cb
}

// WithAudit enables accessibility auditing at level.
func (cb *ConfigBuilder) WithAudit(level string, exclude ...string) *ConfigBuilder {
	cb.config.Audit = AuditConfig{Enabled: true, Level: level, Exclude: exclude}
	return cb
}

// WithSetting adds a free-form value that templates and markdown can read.
func (cb *ConfigBuilder) WithSetting(key string, value interface{}) *ConfigBuilder {
	cb.config.Settings[key] = value
	return cb
}

// AddValidator adds a check run after the built-in validation.
func (cb *ConfigBuilder) AddValidator(validator ValidatorFunc) *ConfigBuilder {
	cb.validators = append(cb.validators, validator)
	return cb
}

// Build validates and returns the configuration. Settings holds the known
// keys merged with the free-form ones, as a loaded configuration would.
func (cb *ConfigBuilder) Build() (*Config, error) {
	if err := Validate(cb.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	for _, validator := range cb.validators {
		if err := validator(cb.config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	cfg := *cb.config
	settings, err := toMap(&cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range cb.config.Settings {
		if _, known := settings[k]; !known {
			settings[k] = v
		}
	}
	cfg.Settings = settings

	return &cfg, nil
}

// Marshal renders cfg as a .stitch.yml document. Free-form settings are
// written alongside the known keys.
func Marshal(cfg *Config) ([]byte, error) {
	doc, err := toMap(cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range cfg.Settings {
		if _, known := doc[k]; !known {
			doc[k] = v
		}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	return out, nil
}

func toMap(cfg *Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}

	doc := make(map[string]interface{})
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return doc, nil
}
