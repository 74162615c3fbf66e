// Package compiler turns source files into HTML. It owns the Include Engine,
// which resolves a reference found inside a template to an absolute source
// path and dispatches it to the dialect registered for its extension:
// templates (html/template), markdown, or raw passthrough.
//
// Dialects call back into the Engine to resolve their own includes, which is
// what lets a template include markdown and markdown include a template.
// Nothing guards against include cycles; a file that includes itself
// recurses until the goroutine stack is exhausted.
package compiler

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

// Locals are the variables visible to a template body.
type Locals map[string]interface{}

// Dialect compiles one kind of source file.
type Dialect interface {
	// Compile returns the HTML for the file at absPath. A missing file
	// compiles to the empty string without error.
	Compile(ctx context.Context, absPath string, locals Locals) (string, error)
}

// Engine is the Include Engine: an extension-keyed dialect registry bound to
// one configuration snapshot.
type Engine struct {
	cfg      *config.Config
	paths    config.Paths
	fs       afero.Fs
	logger   logging.Logger
	dialects map[string]Dialect
	raw      Dialect
}

// NewEngine builds an engine with the template dialect registered for the
// configured extension, markdown for md/markdown and raw passthrough for
// html.
func NewEngine(cfg *config.Config, fsys afero.Fs, logger logging.Logger) *Engine {
	e := &Engine{
		cfg:      cfg,
		paths:    cfg.Paths(),
		fs:       fsys,
		logger:   logger.WithComponent("compiler"),
		dialects: make(map[string]Dialect),
	}
	e.raw = &RawDialect{fs: fsys}

	e.Register(e.paths.Extension, NewTemplateDialect(e))
	markdown := NewMarkdownDialect(e)
	e.Register("md", markdown)
	e.Register("markdown", markdown)
	e.Register("html", e.raw)

	return e
}

// Register binds ext (with or without its leading dot) to d.
func (e *Engine) Register(ext string, d Dialect) {
	e.dialects[strings.TrimPrefix(config.NormalizeExt(ext), ".")] = d
}

// Config returns the configuration snapshot the engine was built from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Paths returns the resolved paths of the engine's configuration.
func (e *Engine) Paths() config.Paths {
	return e.paths
}

// ResolvePath turns a template reference into an absolute source path. A
// reference without an extension gets the default template extension.
func (e *Engine) ResolvePath(reference string) string {
	if filepath.Ext(reference) == "" {
		reference += e.paths.Extension
	}
	return filepath.Join(e.paths.IncludeBase, filepath.FromSlash(reference))
}

// Resolve compiles the file a template reference points at.
func (e *Engine) Resolve(ctx context.Context, reference string, locals Locals) (string, error) {
	return e.CompileFile(ctx, e.ResolvePath(reference), locals)
}

// CompileFile compiles absPath with the dialect registered for its
// extension. Unregistered extensions fall back to raw passthrough with a
// logged notice.
func (e *Engine) CompileFile(ctx context.Context, absPath string, locals Locals) (string, error) {
	return e.dialectFor(ctx, absPath).Compile(ctx, absPath, locals)
}

func (e *Engine) dialectFor(ctx context.Context, absPath string) Dialect {
	ext := strings.TrimPrefix(filepath.Ext(absPath), ".")
	if d, ok := e.dialects[ext]; ok {
		return d
	}

	e.logger.Warn(ctx, stitcherrors.NewDialectError(ext, absPath), "Falling back to raw passthrough")
	return e.raw
}

// RawDialect returns file contents unchanged.
type RawDialect struct {
	fs afero.Fs
}

// Compile reads absPath verbatim.
func (r *RawDialect) Compile(_ context.Context, absPath string, _ Locals) (string, error) {
	content, found, err := readSource(r.fs, absPath)
	if err != nil || !found {
		return "", err
	}
	return content, nil
}

// readSource reads a source file. A missing file reports found=false and no
// error; other failures are compile errors.
func readSource(fsys afero.Fs, absPath string) (string, bool, error) {
	data, err := afero.ReadFile(fsys, absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, stitcherrors.NewCompileError(stitcherrors.ErrCodeReadSource, absPath, err)
	}
	return string(data), true, nil
}

// mergeLocals copies locals and layers settings on top, so configuration
// wins over same-named locals. The caller's map is never modified.
func mergeLocals(locals Locals, settings map[string]interface{}) Locals {
	merged := make(Locals, len(locals)+len(settings)+1)
	for k, v := range locals {
		merged[k] = v
	}
	for k, v := range settings {
		merged[k] = v
	}
	return merged
}
