package config

import (
	"path/filepath"
	"strings"
)

// Paths holds the filesystem locations derived from a Config.
type Paths struct {
	BaseDir     string
	SourceRoot  string
	ViewsRoot   string
	DistRoot    string
	IncludeBase string
	// Extension is the default template extension, always with a leading dot.
	Extension  string
	WatchGlobs []string
}

// Paths resolves the configured sub-paths against the base directory. It
// does no I/O besides resolving a relative base against the working
// directory, so it is safe to call at the top of every operation.
func (c *Config) Paths() Paths {
	base := c.BaseDir
	if base == "" {
		base = "."
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}

	source := filepath.Join(base, c.Source)
	ext := NormalizeExt(c.Extension)

	return Paths{
		BaseDir:     base,
		SourceRoot:  source,
		ViewsRoot:   filepath.Join(source, c.Views),
		DistRoot:    filepath.Join(base, c.Dist),
		IncludeBase: source,
		Extension:   ext,
		WatchGlobs:  c.watchGlobs(ext),
	}
}

func (c *Config) watchGlobs(ext string) []string {
	if len(c.Watch) > 0 {
		globs := make([]string, len(c.Watch))
		copy(globs, c.Watch)
		return globs
	}

	src := filepath.ToSlash(filepath.Clean(c.Source))
	prefix := src + "/"
	if src == "." {
		prefix = ""
	}

	return []string{
		prefix + "**/*" + ext,
		prefix + "**/*.md",
		prefix + "**/*.html",
		prefix + "**/*.{css,scss,sass}",
	}
}

// NormalizeExt returns ext with exactly one leading dot, or "" for "".
func NormalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	return "." + strings.TrimLeft(ext, ".")
}
