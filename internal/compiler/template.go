package compiler

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	"github.com/conneroisu/stitch/internal/beautify"
	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

// TemplateDialect compiles html/template files. Every compile re-reads and
// re-parses the source, so edits made during a watch session are always
// picked up.
type TemplateDialect struct {
	engine *Engine
}

// NewTemplateDialect creates the template dialect bound to e.
func NewTemplateDialect(e *Engine) *TemplateDialect {
	return &TemplateDialect{engine: e}
}

// IncludeFunc is the include capability handed to template bodies. Extra
// maps are layered over the including template's locals.
type IncludeFunc func(reference string, extra ...map[string]interface{}) (template.HTML, error)

// Compile renders the template at absPath. Configuration settings are layered
// over locals, so configuration wins on a key collision. {{ this.path }}
// reads the configuration value at path, as it does in markdown.
func (d *TemplateDialect) Compile(ctx context.Context, absPath string, locals Locals) (string, error) {
	src, found, err := readSource(d.engine.fs, absPath)
	if err != nil || !found {
		return "", err
	}

	cfg := d.engine.cfg
	merged := mergeLocals(locals, cfg.Settings)
	include := d.includeFunc(ctx, absPath, merged)
	merged["include"] = include

	tmpl, err := template.New(filepath.Base(absPath)).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"include": include,
			"dict":    dict,
			"this":    d.setting,
		}).
		Parse(configVars(src))
	if err != nil {
		return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeTemplateParse, absPath, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, merged); err != nil {
		return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeTemplateExec, absPath, err)
	}

	out := buf.String()
	if cfg.Beautify.Enabled {
		out, err = beautify.Format(out, beautify.Options{
			IndentSize: cfg.Beautify.IndentSize,
			IndentChar: cfg.Beautify.IndentChar,
		})
		if err != nil {
			return "", stitcherrors.NewCompileError(stitcherrors.ErrCodeTemplateExec, absPath, err)
		}
	}

	return out, nil
}

// setting returns the configuration value at the dotted path as text.
func (d *TemplateDialect) setting(path string) (string, error) {
	v, err := Lookup(d.engine.cfg.Settings, path)
	if err != nil {
		return "", err
	}
	return stringify(v), nil
}

// configVars rewrites {{ this.a.b }} into {{ this "a.b" }}, which html/template
// can parse. Other actions are left as written.
func configVars(src string) string {
	if !strings.Contains(src, thisPrefix) {
		return src
	}

	var b strings.Builder
	b.Grow(len(src))
	for tok := range Tokens(src) {
		if tok.Kind == TokenVariable && strings.HasPrefix(tok.Value, thisPrefix) {
			fmt.Fprintf(&b, "{{ this %q }}", strings.TrimPrefix(tok.Value, thisPrefix))
			continue
		}
		b.WriteString(tok.Raw)
	}
	return b.String()
}

// includeFunc binds the include capability to one compile. A fragment that
// fails to compile is logged and rendered as empty text so the including
// file still produces output.
func (d *TemplateDialect) includeFunc(ctx context.Context, from string, locals Locals) IncludeFunc {
	return func(reference string, extra ...map[string]interface{}) (template.HTML, error) {
		scope := make(Locals, len(locals))
		for k, v := range locals {
			if k != "include" {
				scope[k] = v
			}
		}
		for _, m := range extra {
			for k, v := range m {
				scope[k] = v
			}
		}

		out, err := d.engine.Resolve(ctx, reference, scope)
		if err != nil {
			d.engine.logger.Error(ctx, err, "Include failed",
				"reference", reference,
				"included_from", from)
			return "", nil
		}

		return template.HTML(out), nil //nolint:gosec // fragments are site sources
	}
}

// dict builds a map from alternating keys and values, for passing extra
// locals to include: {{ include "card" (dict "title" "Hi") }}.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict requires an even number of arguments, got %d", len(pairs))
	}

	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not string", i/2, pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
