package config

import (
	"fmt"
	"path/filepath"
	"strings"

	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

var validAuditLevels = map[string]bool{"A": true, "AA": true, "AAA": true}

// Validate checks configuration values for correctness.
func Validate(cfg *Config) error {
	if NormalizeExt(cfg.Extension) == "" {
		return stitcherrors.NewConfigError("extension must not be empty")
	}
	if NormalizeExt(cfg.Extension) == ".html" {
		return stitcherrors.NewConfigError("extension must differ from the .html output extension")
	}

	for field, value := range map[string]string{
		"source": cfg.Source,
		"views":  cfg.Views,
		"dist":   cfg.Dist,
	} {
		if err := validateSubPath(value); err != nil {
			return stitcherrors.NewConfigError(fmt.Sprintf("%s: %v", field, err))
		}
	}
	if cfg.Dist == "" {
		return stitcherrors.NewConfigError("dist must not be empty")
	}

	if cfg.Beautify.IndentSize < 0 {
		return stitcherrors.NewConfigError(
			fmt.Sprintf("beautify.indent_size %d must not be negative", cfg.Beautify.IndentSize))
	}

	if cfg.Audit.Level != "" && !validAuditLevels[strings.ToUpper(cfg.Audit.Level)] {
		return stitcherrors.NewConfigError(
			fmt.Sprintf("audit.level %q is not one of A, AA, AAA", cfg.Audit.Level))
	}

	if cfg.CSS.Enabled {
		if err := validateSubPath(cfg.CSS.Entry); err != nil || cfg.CSS.Entry == "" {
			return stitcherrors.NewConfigError(fmt.Sprintf("css.entry %q is not a valid path", cfg.CSS.Entry))
		}
		if err := validateSubPath(cfg.CSS.Output); err != nil || cfg.CSS.Output == "" {
			return stitcherrors.NewConfigError(fmt.Sprintf("css.output %q is not a valid path", cfg.CSS.Output))
		}
	}

	return nil
}

// validateSubPath rejects absolute paths and traversal out of the base
// directory. An empty sub-path is allowed and means the parent itself.
func validateSubPath(path string) error {
	if path == "" {
		return nil
	}

	cleanPath := filepath.Clean(path)
	if filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path should be relative: %s", path)
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	return nil
}
