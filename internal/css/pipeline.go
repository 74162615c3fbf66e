// Package css runs the stylesheet pass: the configured entry stylesheet is
// compiled with the external sass binary when it is Sass, run through the
// processor chain, and written to the distribution tree.
package css

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"

	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/fsutil"
	"github.com/conneroisu/stitch/internal/logging"
)

// Processor transforms compiled CSS.
type Processor interface {
	Name() string
	Process(ctx context.Context, css []byte) ([]byte, error)
}

// Minifier minifies CSS with tdewolff/minify.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a CSS minifier.
func NewMinifier() *Minifier {
	m := minify.New()
	m.AddFunc("text/css", mincss.Minify)
	return &Minifier{m: m}
}

// Name returns the processor name.
func (p *Minifier) Name() string { return "minify" }

// Process minifies css.
func (p *Minifier) Process(_ context.Context, css []byte) ([]byte, error) {
	out, err := p.m.Bytes("text/css", css)
	if err != nil {
		return nil, fmt.Errorf("minifying css: %w", err)
	}
	return out, nil
}

// SassCompiler shells out to a Dart Sass compatible binary.
type SassCompiler struct {
	Binary string
}

// Compile compiles the stylesheet at path, resolving imports relative to
// its directory, and returns the CSS written to stdout.
func (s SassCompiler) Compile(ctx context.Context, path string) ([]byte, error) {
	binary := s.Binary
	if binary == "" {
		binary = config.DefaultSassBinary
	}

	args := []string{"--no-source-map", "--load-path", filepath.Dir(path)}
	if filepath.Ext(path) == ".sass" {
		args = append(args, "--indented")
	}
	args = append(args, path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", binary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", binary, err)
	}

	return stdout.Bytes(), nil
}

// IsStylesheet reports whether path has a stylesheet extension.
func IsStylesheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css", ".scss", ".sass":
		return true
	default:
		return false
	}
}

func isSass(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".scss" || ext == ".sass"
}

// Pipeline is one run of the stylesheet pass for a configuration snapshot.
type Pipeline struct {
	cfg        *config.Config
	paths      config.Paths
	fs         afero.Fs
	sass       SassCompiler
	processors []Processor
	logger     logging.Logger
}

// NewPipeline builds the pass from cfg. Minification is added to the
// processor chain when enabled.
func NewPipeline(cfg *config.Config, fsys afero.Fs, logger logging.Logger) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		paths:  cfg.Paths(),
		fs:     fsys,
		sass:   SassCompiler{Binary: cfg.CSS.SassBinary},
		logger: logger.WithComponent("css"),
	}
	if cfg.CSS.Minify {
		p.Use(NewMinifier())
	}
	return p
}

// Use appends a processor to the chain.
func (p *Pipeline) Use(proc Processor) {
	p.processors = append(p.processors, proc)
}

// EntryPath returns the absolute path of the entry stylesheet.
func (p *Pipeline) EntryPath() string {
	return filepath.Join(p.paths.SourceRoot, filepath.FromSlash(p.cfg.CSS.Entry))
}

// OutputPath returns the absolute path the bundle is written to.
func (p *Pipeline) OutputPath() string {
	return filepath.Join(p.paths.DistRoot, filepath.FromSlash(p.cfg.CSS.Output))
}

// Run compiles, processes and writes the bundle and returns the output
// path. It does nothing when the pass is disabled or the entry stylesheet
// does not exist.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	if !p.cfg.CSS.Enabled {
		p.logger.Debug(ctx, "Stylesheet pass disabled")
		return "", nil
	}

	entry := p.EntryPath()
	if _, err := p.fs.Stat(entry); err != nil {
		p.logger.Warn(ctx, err, "Entry stylesheet not found, skipping", "entry", entry)
		return "", nil
	}

	perf := logging.StartOperation(p.logger, "css")

	css, err := p.compile(ctx, entry)
	if err != nil {
		return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeStylesheet, entry, err)
	}

	for _, proc := range p.processors {
		css, err = proc.Process(ctx, css)
		if err != nil {
			return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeStylesheet, entry,
				fmt.Errorf("%s: %w", proc.Name(), err))
		}
	}

	out := p.OutputPath()
	if err := fsutil.WriteFile(p.fs, out, css); err != nil {
		return "", stitcherrors.NewWriteError(stitcherrors.ErrCodeWriteFile, out, err)
	}

	perf.End(ctx, "entry", entry, "output", out, "bytes", len(css))
	return out, nil
}

func (p *Pipeline) compile(ctx context.Context, entry string) ([]byte, error) {
	if !isSass(entry) {
		return afero.ReadFile(p.fs, entry)
	}
	if !fsutil.IsOS(p.fs) {
		return nil, errors.New("sass compilation needs sources on the OS filesystem")
	}
	return p.sass.Compile(ctx, entry)
}
