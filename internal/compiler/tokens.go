package compiler

import (
	"iter"
	"strings"
)

// TokenKind distinguishes the pieces of rendered markdown output.
type TokenKind int

const (
	// TokenLiteral is text copied through unchanged.
	TokenLiteral TokenKind = iota
	// TokenInclude is `include{{ path }}`.
	TokenInclude
	// TokenVariable is `{{ dotted.path }}`.
	TokenVariable
)

// String returns the name of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenLiteral:
		return "literal"
	case TokenInclude:
		return "include"
	case TokenVariable:
		return "variable"
	default:
		return "unknown"
	}
}

const (
	includeKeyword = "include"
	openDelim      = "{{"
	closeDelim     = "}}"
	thisPrefix     = "this."
)

// Token is one piece of a scanned document. Raw is the exact source text, so
// concatenating Raw of every token reproduces the input. Value is the
// trimmed path for include and variable tokens.
type Token struct {
	Kind  TokenKind
	Raw   string
	Value string
}

// Tokens scans src left to right in a single pass. Include and variable
// directives are recognised where the delimiters enclose a well-formed path;
// anything else, including unbalanced braces, is literal text.
func Tokens(src string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		literalStart := 0
		pos := 0

		for pos < len(src) {
			idx := strings.Index(src[pos:], openDelim)
			if idx < 0 {
				break
			}
			open := pos + idx

			value, end, ok := scanDirective(src, open)
			if !ok {
				pos = open + 1
				continue
			}

			kind := TokenVariable
			start := open
			if strings.HasSuffix(src[literalStart:open], includeKeyword) && isIncludePath(value) {
				kind = TokenInclude
				start = open - len(includeKeyword)
			} else if !isVariablePath(value) {
				pos = open + 1
				continue
			}

			if start > literalStart {
				if !yield(Token{Kind: TokenLiteral, Raw: src[literalStart:start]}) {
					return
				}
			}
			if !yield(Token{Kind: kind, Raw: src[start:end], Value: value}) {
				return
			}

			literalStart = end
			pos = end
		}

		if literalStart < len(src) {
			yield(Token{Kind: TokenLiteral, Raw: src[literalStart:]})
		}
	}
}

// scanDirective reads `{{ path }}` starting at open. It returns the path,
// the offset just past the closing delimiter, and whether a directive was
// found. The path must be a single run of path characters.
func scanDirective(src string, open int) (string, int, bool) {
	i := open + len(openDelim)
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	start := i
	for i < len(src) && isPathChar(src[i]) {
		i++
	}
	if i == start {
		return "", 0, false
	}
	value := src[start:i]
	for i < len(src) && isSpace(src[i]) {
		i++
	}
	if !strings.HasPrefix(src[i:], closeDelim) {
		return "", 0, false
	}

	return value, i + len(closeDelim), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isWordChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// isPathChar accepts the include charset, a superset of the variable one.
func isPathChar(c byte) bool {
	return isWordChar(c) || c == '.' || c == '-' || c == '@' || c == '/'
}

func isIncludePath(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isPathChar(s[i]) {
			return false
		}
	}
	return s != ""
}

// isVariablePath accepts dot-separated runs of word characters. Empty
// segments are rejected so template actions like {{ .Title }} stay literal.
func isVariablePath(s string) bool {
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			if !isWordChar(seg[i]) {
				return false
			}
		}
	}
	return true
}
