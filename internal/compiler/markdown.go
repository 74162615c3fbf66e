package compiler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/conneroisu/stitch/internal/config"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

// MarkdownDialect renders markdown and then resolves the two micro-syntaxes
// left in the HTML: include{{ path }} and {{ this.dotted.path }}.
type MarkdownDialect struct {
	engine *Engine
}

// NewMarkdownDialect creates the markdown dialect bound to e.
func NewMarkdownDialect(e *Engine) *MarkdownDialect {
	return &MarkdownDialect{engine: e}
}

// Compile renders the markdown file at absPath. Locals are not visible to
// markdown; variables resolve against configuration only.
func (d *MarkdownDialect) Compile(ctx context.Context, absPath string, _ Locals) (string, error) {
	src, found, err := readSource(d.engine.fs, absPath)
	if err != nil || !found {
		return "", err
	}

	rendered := Render([]byte(src), d.engine.cfg.Markdown)

	withIncludes := d.resolveIncludes(ctx, absPath, rendered)

	out, err := d.resolveVariables(withIncludes)
	if err != nil {
		return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeUnknownVariable, absPath, err)
	}
	return out, nil
}

// resolveIncludes substitutes every include token with the compiled
// fragment it references. Each occurrence is compiled on its own. A failing
// fragment is logged and substituted with nothing.
func (d *MarkdownDialect) resolveIncludes(ctx context.Context, from, rendered string) string {
	var b strings.Builder
	b.Grow(len(rendered))

	for tok := range Tokens(rendered) {
		if tok.Kind != TokenInclude {
			b.WriteString(tok.Raw)
			continue
		}

		fragment, err := d.engine.Resolve(ctx, tok.Value, nil)
		if err != nil {
			d.engine.logger.Error(ctx, err, "Include failed",
				"reference", tok.Value,
				"included_from", from)
			continue
		}
		b.WriteString(fragment)
	}

	return b.String()
}

// resolveVariables replaces {{ this.* }} tokens with configuration values.
// Variable tokens without the prefix belong to other dialects and are kept.
func (d *MarkdownDialect) resolveVariables(html string) (string, error) {
	var b strings.Builder
	b.Grow(len(html))

	for tok := range Tokens(html) {
		if tok.Kind != TokenVariable || !strings.HasPrefix(tok.Value, thisPrefix) {
			b.WriteString(tok.Raw)
			continue
		}

		v, err := Lookup(d.engine.cfg.Settings, strings.TrimPrefix(tok.Value, thisPrefix))
		if err != nil {
			return "", err
		}
		b.WriteString(stringify(v))
	}

	return b.String(), nil
}

// Render converts markdown to HTML with the renderer options in opts. Code
// blocks are escaped and wrapped in a container carrying opts.CodeClass.
func Render(src []byte, opts config.MarkdownConfig) string {
	// Parsers keep per-document state and must not be reused.
	p := parser.NewWithExtensions(parserExtensions(opts))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          rendererFlags(opts),
		RenderNodeHook: codeBlockHook(opts.CodeClass),
	})

	return string(markdown.ToHTML(src, p, renderer))
}

func parserExtensions(opts config.MarkdownConfig) parser.Extensions {
	// MathJax would swallow $...$ spans that templates use literally.
	exts := parser.CommonExtensions &^ parser.MathJax

	if opts.HeadingIDs {
		exts |= parser.AutoHeadingIDs
	} else {
		exts &^= parser.HeadingIDs
	}
	if opts.HardWraps {
		exts |= parser.HardLineBreak
	}
	return exts
}

func rendererFlags(opts config.MarkdownConfig) mdhtml.Flags {
	flags := mdhtml.FlagsNone
	if opts.Smartypants {
		flags |= mdhtml.CommonFlags
	}
	if opts.HrefTargetBlank {
		flags |= mdhtml.HrefTargetBlank
	}
	return flags
}

func codeBlockHook(class string) mdhtml.RenderNodeFunc {
	if class == "" {
		class = config.DefaultCodeClass
	}

	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		block, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return ast.GoToNext, false
		}

		_, _ = io.WriteString(w, `<div class="`)
		mdhtml.EscapeHTML(w, []byte(class))
		_, _ = io.WriteString(w, `"><pre><code`)
		if lang := codeLanguage(block.Info); lang != "" {
			_, _ = fmt.Fprintf(w, ` class="language-%s"`, lang)
		}
		_, _ = io.WriteString(w, `>`)
		mdhtml.EscapeHTML(w, block.Literal)
		_, _ = io.WriteString(w, "</code></pre></div>\n")

		return ast.GoToNext, true
	}
}

// codeLanguage returns the first word of a fence info string, restricted to
// characters that are safe inside a class attribute.
func codeLanguage(info []byte) string {
	fields := strings.Fields(string(info))
	if len(fields) == 0 {
		return ""
	}

	lang := fields[0]
	for i := 0; i < len(lang); i++ {
		c := lang[i]
		if !isWordChar(c) && c != '-' && c != '+' && c != '#' && c != '.' {
			return ""
		}
	}
	return lang
}
