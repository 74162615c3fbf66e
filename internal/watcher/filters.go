package watcher

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoredDirs are never watched.
var DefaultIgnoredDirs = []string{".git", ".hg", ".svn", "node_modules"}

// GlobFilter accepts paths that match at least one of globs, evaluated
// relative to base with forward slashes. Paths outside base never match.
func GlobFilter(base string, globs []string) FileFilter {
	patterns := make([]string, 0, len(globs))
	for _, g := range globs {
		if doublestar.ValidatePattern(filepath.ToSlash(g)) {
			patterns = append(patterns, filepath.ToSlash(g))
		}
	}

	return func(path string) bool {
		rel, ok := relative(base, path)
		if !ok {
			return false
		}
		for _, p := range patterns {
			if matched, _ := doublestar.Match(p, rel); matched {
				return true
			}
		}
		return false
	}
}

// IgnoreFilter rejects paths that have an ignored directory name as one of
// their components below base, or that lie inside one of the excluded
// absolute directories.
func IgnoreFilter(base string, names []string, excluded ...string) FileFilter {
	return func(path string) bool {
		for _, dir := range excluded {
			if dir == "" {
				continue
			}
			if rel, ok := relative(dir, path); ok || rel == "." {
				return false
			}
		}

		rel, ok := relative(base, path)
		if !ok {
			return true
		}
		for _, part := range strings.Split(rel, "/") {
			if slices.Contains(names, part) {
				return false
			}
		}
		return true
	}
}

// relative returns path relative to base in slash form. ok is false when
// path is base itself or lies outside it.
func relative(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return rel, false
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
