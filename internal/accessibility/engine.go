// Package accessibility audits written HTML pages against a small set of
// WCAG rules. Audits are advisory: violations are logged and never fail a
// build.
package accessibility

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/net/html"

	"github.com/conneroisu/stitch/internal/logging"
)

// Auditor checks pages at a fixed WCAG level.
type Auditor struct {
	fs     afero.Fs
	level  WCAGLevel
	rules  []Rule
	logger logging.Logger
}

// NewAuditor creates an auditor reading pages from fsys. Rules whose ID is
// listed in exclude are never run.
func NewAuditor(fsys afero.Fs, level WCAGLevel, exclude []string, logger logging.Logger) *Auditor {
	rules := make([]Rule, 0, len(defaultRules))
	for _, rule := range defaultRules {
		if slices.Contains(exclude, rule.ID) || !level.Includes(rule.Level) {
			continue
		}
		rules = append(rules, rule)
	}

	return &Auditor{
		fs:     fsys,
		level:  level,
		rules:  rules,
		logger: logger.WithComponent("accessibility"),
	}
}

// Rules returns the rules the auditor runs.
func (a *Auditor) Rules() []Rule {
	return slices.Clone(a.rules)
}

// AuditFile audits the page at path and logs each violation. The returned
// error only reports failure to read or parse the page.
func (a *Auditor) AuditFile(ctx context.Context, path string) error {
	report, err := a.Audit(ctx, path)
	if err != nil {
		return err
	}

	for _, v := range report.Violations {
		a.logger.Warn(ctx, nil, v.Message,
			"path", path,
			"rule", v.Rule,
			"wcag", v.Criteria,
			"impact", string(v.Impact),
			"element", v.Element)
	}
	if report.Passed() {
		a.logger.Debug(ctx, "Page passed accessibility audit", "path", path)
	}

	return nil
}

// Audit reads and analyzes the page at path.
func (a *Auditor) Audit(ctx context.Context, path string) (*Report, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	report, err := a.Analyze(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("auditing %s: %w", path, err)
	}
	report.Path = path

	return report, nil
}

// Analyze runs every rule against the given HTML.
func (a *Auditor) Analyze(ctx context.Context, page []byte) (*Report, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	doc := newDocument(root, bytes.Contains(bytes.ToLower(page), []byte("<html")))
	report := &Report{Level: a.level, Violations: []Violation{}}

	for _, rule := range a.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rule.DocumentOnly && !doc.complete {
			continue
		}
		for _, f := range rule.check(doc) {
			report.Violations = append(report.Violations, Violation{
				Rule:     rule.ID,
				Level:    rule.Level,
				Criteria: rule.Criteria,
				Impact:   rule.Impact,
				Element:  f.element,
				Message:  f.message,
			})
		}
	}

	return report, nil
}

// document is a parsed page flattened into document order.
type document struct {
	elements []*html.Node
	complete bool
}

func newDocument(root *html.Node, complete bool) *document {
	doc := &document{complete: complete}

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			doc.elements = append(doc.elements, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)

	return doc
}

func (d *document) byTag(tags ...string) []*html.Node {
	var out []*html.Node
	for _, n := range d.elements {
		if slices.Contains(tags, n.Data) {
			out = append(out, n)
		}
	}
	return out
}

var defaultRules = []Rule{
	{
		ID:          "image-alt",
		Description: "Images must have alternative text",
		Level:       WCAGLevelA,
		Criteria:    "1.1.1",
		Impact:      ImpactCritical,
		check:       checkImageAlt,
	},
	{
		ID:           "html-has-lang",
		Description:  "HTML element must have a lang attribute",
		Level:        WCAGLevelA,
		Criteria:     "3.1.1",
		Impact:       ImpactSerious,
		DocumentOnly: true,
		check:        checkHTMLLang,
	},
	{
		ID:           "document-title",
		Description:  "Documents must contain a non-empty title element",
		Level:        WCAGLevelA,
		Criteria:     "2.4.2",
		Impact:       ImpactSerious,
		DocumentOnly: true,
		check:        checkDocumentTitle,
	},
	{
		ID:          "button-name",
		Description: "Buttons must have accessible names",
		Level:       WCAGLevelA,
		Criteria:    "4.1.2",
		Impact:      ImpactCritical,
		check:       checkButtonName,
	},
	{
		ID:          "label",
		Description: "Form elements must have labels",
		Level:       WCAGLevelA,
		Criteria:    "3.3.2",
		Impact:      ImpactCritical,
		check:       checkFormLabels,
	},
	{
		ID:          "duplicate-id",
		Description: "IDs must be unique",
		Level:       WCAGLevelA,
		Criteria:    "4.1.1",
		Impact:      ImpactSerious,
		check:       checkDuplicateIDs,
	},
	{
		ID:          "heading-order",
		Description: "Heading levels should only increase by one",
		Level:       WCAGLevelAA,
		Criteria:    "2.4.6",
		Impact:      ImpactModerate,
		check:       checkHeadingOrder,
	},
}

func checkImageAlt(doc *document) []finding {
	var out []finding
	for _, n := range doc.byTag("img") {
		if _, ok := attr(n, "alt"); ok {
			continue
		}
		if role, _ := attr(n, "role"); role == "presentation" || role == "none" {
			continue
		}
		out = append(out, finding{describe(n), "Image missing alt attribute"})
	}
	return out
}

func checkHTMLLang(doc *document) []finding {
	for _, n := range doc.byTag("html") {
		if lang, ok := attr(n, "lang"); !ok || strings.TrimSpace(lang) == "" {
			return []finding{{describe(n), "HTML element missing lang attribute"}}
		}
	}
	return nil
}

func checkDocumentTitle(doc *document) []finding {
	for _, n := range doc.byTag("title") {
		if strings.TrimSpace(textContent(n)) != "" {
			return nil
		}
	}
	return []finding{{"title", "Document has no title"}}
}

func checkButtonName(doc *document) []finding {
	var out []finding
	for _, n := range doc.byTag("button") {
		if !hasAccessibleName(n) {
			out = append(out, finding{describe(n), "Button missing accessible name"})
		}
	}
	return out
}

func checkFormLabels(doc *document) []finding {
	labelled := make(map[string]bool)
	for _, n := range doc.byTag("label") {
		if id, ok := attr(n, "for"); ok {
			labelled[id] = true
		}
	}

	var out []finding
	for _, n := range doc.byTag("input", "select", "textarea") {
		if n.Data == "input" {
			switch t, _ := attr(n, "type"); strings.ToLower(t) {
			case "hidden", "submit", "reset", "button", "image":
				continue
			}
		}
		if _, ok := attr(n, "aria-label"); ok {
			continue
		}
		if _, ok := attr(n, "aria-labelledby"); ok {
			continue
		}
		if id, ok := attr(n, "id"); ok && labelled[id] {
			continue
		}
		if insideLabel(n) {
			continue
		}
		out = append(out, finding{describe(n), "Form control missing associated label"})
	}
	return out
}

func checkDuplicateIDs(doc *document) []finding {
	seen := make(map[string]int)
	var order []string
	for _, n := range doc.elements {
		id, ok := attr(n, "id")
		if !ok || id == "" {
			continue
		}
		if seen[id] == 0 {
			order = append(order, id)
		}
		seen[id]++
	}

	var out []finding
	for _, id := range order {
		if seen[id] > 1 {
			out = append(out, finding{"#" + id, fmt.Sprintf("Duplicate ID %q used %d times", id, seen[id])})
		}
	}
	return out
}

func checkHeadingOrder(doc *document) []finding {
	var out []finding
	prev := 0
	for _, n := range doc.byTag("h1", "h2", "h3", "h4", "h5", "h6") {
		level := int(n.Data[1] - '0')
		if prev > 0 && level > prev+1 {
			out = append(out, finding{describe(n),
				fmt.Sprintf("Heading level jumps from h%d to h%d", prev, level)})
		}
		prev = level
	}
	return out
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			if alt, ok := attr(n, "alt"); ok {
				b.WriteString(alt)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasAccessibleName(n *html.Node) bool {
	if strings.TrimSpace(textContent(n)) != "" {
		return true
	}
	if v, ok := attr(n, "aria-label"); ok && strings.TrimSpace(v) != "" {
		return true
	}
	_, ok := attr(n, "aria-labelledby")
	return ok
}

func insideLabel(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "label" {
			return true
		}
	}
	return false
}

// describe renders a short selector-like description of n.
func describe(n *html.Node) string {
	s := n.Data
	if id, ok := attr(n, "id"); ok && id != "" {
		s += "#" + id
	}
	if src, ok := attr(n, "src"); ok && src != "" {
		s += fmt.Sprintf("[src=%q]", src)
	}
	if name, ok := attr(n, "name"); ok && name != "" {
		s += fmt.Sprintf("[name=%q]", name)
	}
	return s
}
