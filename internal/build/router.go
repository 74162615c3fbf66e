package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/css"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/watcher"
)

// TargetKind says how much of the views tree a change rebuilds.
type TargetKind int

const (
	// TargetFullWalk rebuilds every view.
	TargetFullWalk TargetKind = iota
	// TargetSingleView rebuilds the changed view itself.
	TargetSingleView
	// TargetInferredView rebuilds the view that owns the changed fragment.
	TargetInferredView
)

// String returns the string representation of the target kind.
func (k TargetKind) String() string {
	switch k {
	case TargetFullWalk:
		return "full_walk"
	case TargetSingleView:
		return "single_view"
	case TargetInferredView:
		return "inferred_view"
	default:
		return "unknown"
	}
}

// Target is where a walk for a change starts.
type Target struct {
	Kind TargetKind
	Path string
}

// Classify maps a changed file to the walk that rebuilds it. views are the
// file names of the top-level views. A view owns a file whose parent
// directory is named like the view and is not the views directory itself;
// an owned file rebuilds its view, a file under the views directory
// rebuilds itself, and anything else rebuilds everything.
func Classify(changed string, views []string, viewsDir string) Target {
	changed = filepath.Clean(changed)
	viewsDir = filepath.Clean(viewsDir)
	dir := filepath.Dir(changed)

	if dir != viewsDir {
		parent := filepath.Base(dir)
		for _, view := range views {
			if strings.TrimSuffix(view, filepath.Ext(view)) == parent {
				return Target{Kind: TargetInferredView, Path: filepath.Join(viewsDir, view)}
			}
		}
	}

	if within(viewsDir, changed) && changed != viewsDir {
		return Target{Kind: TargetSingleView, Path: changed}
	}

	return Target{Kind: TargetFullWalk, Path: viewsDir}
}

// Session handles change events for a watch loop. Every change re-reads the
// configuration, so edits to the config file apply to the next change.
type Session struct {
	Source config.Source
	FS     afero.Fs
	Logger logging.Logger
}

// NewSession creates a session over source and fsys.
func NewSession(source config.Source, fsys afero.Fs, logger logging.Logger) *Session {
	return &Session{
		Source: source,
		FS:     fsys,
		Logger: logger,
	}
}

// HandleEvents handles a batch of watcher events in order. Removals are
// logged and ignored. Errors from individual changes are joined, each
// prefixed with the changed path.
func (s *Session) HandleEvents(ctx context.Context, events []watcher.ChangeEvent) error {
	logger := s.Logger.WithComponent("router")

	failures := stitcherrors.NewCollector()
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !event.Routable() {
			logger.Info(ctx, "Ignoring removed file", "path", event.Path, "event", event.Type.String())
			continue
		}
		if err := s.HandleChange(ctx, event.Path); err != nil {
			logger.Error(ctx, err, "Failed to handle change", "path", event.Path)
			failures.Add(event.Path, err)
		}
	}

	if n := failures.Len(); n > 0 {
		logger.Warn(ctx, nil, "Some changes failed", "failed", n, "events", len(events))
	}
	return failures.Err()
}

// HandleChange rebuilds whatever path affects. Stylesheets re-run the CSS
// pass. Outside development mode every other change rebuilds all views.
func (s *Session) HandleChange(ctx context.Context, path string) error {
	logger := s.Logger.WithComponent("router")

	cfg, err := s.Source.Load()
	if err != nil {
		return fmt.Errorf("reloading configuration: %w", err)
	}

	if css.IsStylesheet(path) {
		logger.Info(ctx, "Stylesheet changed", "path", path)
		if _, err := css.NewPipeline(cfg, s.FS, s.Logger).Run(ctx); err != nil {
			logger.Error(ctx, err, "Stylesheet pass failed", "path", path)
		}
		return nil
	}

	b := NewBuilder(cfg, s.FS, s.Logger)
	paths := b.Paths()

	target := Target{Kind: TargetFullWalk, Path: paths.ViewsRoot}
	if cfg.Development {
		views, err := ListViews(s.FS, paths)
		if err != nil {
			return s.viewsMissing(ctx, logger, err)
		}
		target = Classify(path, ViewFiles(views), paths.ViewsRoot)
	}

	logger.Info(ctx, "Routing change",
		"path", path, "target", target.Path, "kind", target.Kind.String())

	if target.Kind == TargetFullWalk {
		return s.viewsMissing(ctx, logger, b.Build(ctx))
	}
	return b.Walk(ctx, target.Path)
}

// viewsMissing logs a missing views directory and swallows it so the watch
// loop keeps running; other errors pass through.
func (s *Session) viewsMissing(ctx context.Context, logger logging.Logger, err error) error {
	if stitcherrors.IsKind(err, stitcherrors.KindConfigurationMissing) {
		logger.Warn(ctx, err, "Views directory missing, nothing to build")
		return nil
	}
	return err
}
