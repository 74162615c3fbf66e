// Package build turns a views tree into the distribution tree: the Builder
// walks views and writes compiled pages, and the Session routes file changes
// from the watcher to the smallest rebuild that covers them.
package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/accessibility"
	"github.com/conneroisu/stitch/internal/compiler"
	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

// Builder compiles views and writes them under the distribution root. It is
// bound to one configuration snapshot.
type Builder struct {
	cfg      *config.Config
	paths    config.Paths
	fs       afero.Fs
	engine   *compiler.Engine
	writer   *Writer
	metrics  *Metrics
	failures *stitcherrors.Collector
	logger   logging.Logger
}

// NewBuilder wires the compiler, writer and, when auditing is enabled, the
// accessibility auditor for cfg.
func NewBuilder(cfg *config.Config, fsys afero.Fs, logger logging.Logger) *Builder {
	var auditor Auditor
	if cfg.Audit.Enabled {
		level, err := accessibility.ParseLevel(cfg.Audit.Level)
		if err != nil {
			level = accessibility.WCAGLevelAA
		}
		auditor = accessibility.NewAuditor(fsys, level, cfg.Audit.Exclude, logger)
	}

	return &Builder{
		cfg:      cfg,
		paths:    cfg.Paths(),
		fs:       fsys,
		engine:   compiler.NewEngine(cfg, fsys, logger),
		writer:   NewWriter(cfg, fsys, auditor, logger),
		metrics:  NewMetrics(),
		failures: stitcherrors.NewCollector(),
		logger:   logger.WithComponent("build"),
	}
}

// Paths returns the resolved locations for the builder's configuration.
func (b *Builder) Paths() config.Paths { return b.paths }

// Metrics returns a snapshot of the page counters.
func (b *Builder) Metrics() MetricsSnapshot { return b.metrics.Snapshot() }

// Failures returns the per-page failures recorded so far.
func (b *Builder) Failures() *stitcherrors.Collector { return b.failures }

// Build walks the whole views tree. A missing views directory is a
// ConfigurationMissing error; per-page failures are logged and collected,
// never returned.
func (b *Builder) Build(ctx context.Context) error {
	info, err := b.fs.Stat(b.paths.ViewsRoot)
	if err != nil || !info.IsDir() {
		return stitcherrors.NewConfigurationMissingError(b.paths.ViewsRoot)
	}

	perf := logging.StartOperation(b.logger, "build")
	if err := b.Walk(ctx, b.paths.ViewsRoot); err != nil {
		perf.EndWithError(ctx, err)
		return err
	}

	s := b.metrics.Snapshot()
	perf.End(ctx, "pages", s.Pages, "compiled", s.Compiled, "failed", s.Failed)
	return nil
}

// Walk compiles entry if it is a view, or every view beneath it if it is a
// directory. Children are visited depth-first in reverse listing order.
// Only context cancellation stops a walk.
func (b *Builder) Walk(ctx context.Context, entry string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := b.fs.Stat(entry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Debug(ctx, "Skipping missing entry", "path", entry)
		} else {
			b.logger.Warn(ctx, err, "Skipping unreadable entry", "path", entry)
		}
		return nil
	}

	if !info.IsDir() {
		if b.isView(entry) {
			b.CompileView(ctx, entry)
		} else {
			b.logger.Debug(ctx, "Skipping non-view file", "path", entry)
		}
		return nil
	}

	entries, err := afero.ReadDir(b.fs, entry)
	if err != nil {
		b.logger.Warn(ctx, err, "Skipping unreadable directory", "path", entry)
		return nil
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if err := b.Walk(ctx, filepath.Join(entry, entries[i].Name())); err != nil {
			return err
		}
	}

	return nil
}

// CompileView compiles and writes one view and returns the result. Failures
// are logged and recorded, and the result carries the error.
func (b *Builder) CompileView(ctx context.Context, source string) PageResult {
	start := time.Now()
	result := PageResult{Source: source}

	html, err := b.engine.CompileFile(ctx, source, nil)
	if err == nil {
		result.Destination, err = b.writer.Write(ctx, source, html)
	}

	result.Duration = time.Since(start)
	result.Error = err
	b.metrics.RecordPage(result)

	if err != nil {
		b.failures.Add(source, err)
		b.logger.Error(ctx, err, "Failed to build view",
			"file", source, "kind", string(stitcherrors.KindOf(err)))
	}

	return result
}

// Clean removes the distribution tree. It refuses to remove a tree that is
// the base directory or that contains the sources.
func (b *Builder) Clean(ctx context.Context) error {
	dist := b.paths.DistRoot
	if dist == b.paths.BaseDir || within(dist, b.paths.SourceRoot) {
		return stitcherrors.NewConfigError(
			fmt.Sprintf("refusing to clean %s: it contains the site sources", dist))
	}

	if err := b.fs.RemoveAll(dist); err != nil {
		return stitcherrors.NewWriteError(stitcherrors.ErrCodeWriteFile, dist,
			fmt.Errorf("removing distribution tree: %w", err))
	}
	b.logger.Info(ctx, "Cleaned distribution tree", "path", dist)
	return nil
}

func (b *Builder) isView(path string) bool {
	return filepath.Ext(path) == b.paths.Extension
}

// within reports whether path is dir or lies beneath it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
