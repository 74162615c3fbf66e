// Package beautify re-indents compiled HTML. Block elements go on their own
// line, inline elements and text stay on the line of their parent, and the
// bodies of whitespace-sensitive elements are copied through untouched.
package beautify

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Options control indentation.
type Options struct {
	IndentSize int
	IndentChar string
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

var inlineElements = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"cite": true, "code": true, "data": true, "dfn": true, "em": true,
	"i": true, "img": true, "input": true, "kbd": true, "label": true,
	"mark": true, "q": true, "s": true, "samp": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true,
	"u": true, "var": true, "wbr": true,
}

// preserved elements keep their body byte for byte.
var preserved = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true, "title": true,
}

type formatter struct {
	buf        bytes.Buffer
	indent     string
	depth      int
	inlineOpen bool
	rawTag     string
}

// Format returns src re-indented according to opts. Malformed markup is
// formatted as well as the tokenizer allows; only reader failures are errors.
func Format(src string, opts Options) (string, error) {
	char := opts.IndentChar
	if char == "" {
		char = " "
	}
	size := opts.IndentSize
	if size < 0 {
		size = 0
	}

	f := &formatter{indent: strings.Repeat(char, size)}
	z := html.NewTokenizer(strings.NewReader(src))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			break
		}

		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			f.startTag(string(name), raw, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			name, _ := z.TagName()
			f.endTag(string(name), raw)
		case html.TextToken:
			f.text(raw)
		case html.CommentToken, html.DoctypeToken:
			if f.rawTag != "" {
				f.buf.WriteString(raw)
				continue
			}
			f.newline()
			f.buf.WriteString(raw)
			f.inlineOpen = false
		}
	}

	out := strings.TrimRight(f.buf.String(), " \t\n")
	if out == "" {
		return "", nil
	}
	return out + "\n", nil
}

func (f *formatter) newline() {
	trimmed := bytes.TrimRight(f.buf.Bytes(), " \t")
	f.buf.Truncate(len(trimmed))
	if f.buf.Len() > 0 {
		f.buf.WriteByte('\n')
	}
	for i := 0; i < f.depth; i++ {
		f.buf.WriteString(f.indent)
	}
}

func (f *formatter) startTag(name, raw string, selfClosing bool) {
	if f.rawTag != "" {
		f.buf.WriteString(raw)
		return
	}

	if inlineElements[name] {
		if !f.inlineOpen {
			f.newline()
		}
		f.buf.WriteString(raw)
		f.inlineOpen = true
		return
	}

	f.newline()
	f.buf.WriteString(raw)
	f.inlineOpen = false
	if selfClosing || voidElements[name] {
		return
	}
	f.depth++
	if preserved[name] {
		f.rawTag = name
	}
}

func (f *formatter) endTag(name, raw string) {
	if f.rawTag != "" {
		f.buf.WriteString(raw)
		if name == f.rawTag {
			f.rawTag = ""
			f.depth--
			f.inlineOpen = false
		}
		return
	}

	if inlineElements[name] {
		f.buf.WriteString(raw)
		f.inlineOpen = true
		return
	}

	if f.depth > 0 {
		f.depth--
	}
	f.newline()
	f.buf.WriteString(raw)
	f.inlineOpen = false
}

func (f *formatter) text(raw string) {
	if f.rawTag != "" {
		f.buf.WriteString(raw)
		return
	}

	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		if f.inlineOpen && raw != "" {
			f.buf.WriteByte(' ')
		}
		return
	}

	if !f.inlineOpen {
		f.newline()
	} else if startsWithSpace(raw) {
		f.buf.WriteByte(' ')
	}
	f.buf.WriteString(collapsed)
	if endsWithSpace(raw) {
		f.buf.WriteByte(' ')
	}
	f.inlineOpen = true
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}
