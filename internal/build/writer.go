package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/conneroisu/stitch/internal/beautify"
	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/fsutil"
	"github.com/conneroisu/stitch/internal/logging"
)

// OutputExt is the extension of every written page.
const OutputExt = ".html"

// Auditor checks a written page. Findings are the auditor's to report; an
// error means the page could not be checked at all.
type Auditor interface {
	AuditFile(ctx context.Context, path string) error
}

// Writer maps views onto the distribution tree and writes compiled pages.
type Writer struct {
	paths    config.Paths
	fs       afero.Fs
	beautify *beautify.Options
	auditor  Auditor
	logger   logging.Logger
}

// NewWriter creates a writer for cfg. auditor may be nil.
func NewWriter(cfg *config.Config, fsys afero.Fs, auditor Auditor, logger logging.Logger) *Writer {
	w := &Writer{
		paths:   cfg.Paths(),
		fs:      fsys,
		auditor: auditor,
		logger:  logger.WithComponent("writer"),
	}
	if cfg.Beautify.Enabled {
		w.beautify = &beautify.Options{
			IndentSize: cfg.Beautify.IndentSize,
			IndentChar: cfg.Beautify.IndentChar,
		}
	}
	return w
}

// Destination returns the output path for a view: the views root is
// replaced by the distribution root and the extension by .html.
func (w *Writer) Destination(source string) (string, error) {
	rel, err := filepath.Rel(w.paths.ViewsRoot, filepath.Clean(source))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", stitcherrors.NewWriteError(stitcherrors.ErrCodeOutsideViews, source,
			fmt.Errorf("not under %s", w.paths.ViewsRoot))
	}

	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + OutputExt
	return filepath.Join(w.paths.DistRoot, rel), nil
}

// Write writes html as the page for source and returns where it went.
// Existing files are overwritten. An audit that cannot run is logged and
// does not fail the write.
func (w *Writer) Write(ctx context.Context, source, html string) (string, error) {
	dest, err := w.Destination(source)
	if err != nil {
		return "", err
	}

	if err := w.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", stitcherrors.NewWriteError(stitcherrors.ErrCodeMkdir, dest, err)
	}

	if w.beautify != nil {
		formatted, err := beautify.Format(html, *w.beautify)
		if err != nil {
			w.logger.Warn(ctx, err, "Beautify failed, writing page as compiled", "file", dest)
		} else {
			html = formatted
		}
	}

	if err := fsutil.WriteFile(w.fs, dest, []byte(html)); err != nil {
		return "", stitcherrors.NewWriteError(stitcherrors.ErrCodeWriteFile, dest, err)
	}
	w.logger.Info(ctx, "Wrote page", "source", source, "file", dest, "bytes", len(html))

	if w.auditor != nil {
		if err := w.auditor.AuditFile(ctx, dest); err != nil {
			w.logger.Warn(ctx, err, "Accessibility audit failed", "file", dest)
		}
	}

	return dest, nil
}
