package compiler

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "plain text",
			input:    "<p>hello</p>",
			expected: []Token{{Kind: TokenLiteral, Raw: "<p>hello</p>"}},
		},
		{
			name:  "include directive",
			input: "<p>include{{ partials/nav-bar@v2.tmpl }}</p>",
			expected: []Token{
				{Kind: TokenLiteral, Raw: "<p>"},
				{Kind: TokenInclude, Raw: "include{{ partials/nav-bar@v2.tmpl }}", Value: "partials/nav-bar@v2.tmpl"},
				{Kind: TokenLiteral, Raw: "</p>"},
			},
		},
		{
			name:  "variable directive without spaces",
			input: "a{{this.site.name}}b",
			expected: []Token{
				{Kind: TokenLiteral, Raw: "a"},
				{Kind: TokenVariable, Raw: "{{this.site.name}}", Value: "this.site.name"},
				{Kind: TokenLiteral, Raw: "b"},
			},
		},
		{
			name:  "adjacent directives",
			input: "include{{ a }}{{ b }}",
			expected: []Token{
				{Kind: TokenInclude, Raw: "include{{ a }}", Value: "a"},
				{Kind: TokenVariable, Raw: "{{ b }}", Value: "b"},
			},
		},
		{
			name:  "slash path without include keyword is literal",
			input: "{{ a/b }}",
			expected: []Token{
				{Kind: TokenLiteral, Raw: "{{ a/b }}"},
			},
		},
		{
			name:  "template action is literal",
			input: `{{ .Title }} {{ if x }}`,
			expected: []Token{
				{Kind: TokenLiteral, Raw: `{{ .Title }} {{ if x }}`},
			},
		},
		{
			name:  "unbalanced braces",
			input: "{{ a {{ b }}",
			expected: []Token{
				{Kind: TokenLiteral, Raw: "{{ a "},
				{Kind: TokenVariable, Raw: "{{ b }}", Value: "b"},
			},
		},
		{
			name:  "triple braces",
			input: "{{{ a }}}",
			expected: []Token{
				{Kind: TokenLiteral, Raw: "{"},
				{Kind: TokenVariable, Raw: "{{ a }}", Value: "a"},
				{Kind: TokenLiteral, Raw: "}"},
			},
		},
		{
			name:     "unterminated",
			input:    "include{{ a",
			expected: []Token{{Kind: TokenLiteral, Raw: "include{{ a"}},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Tokens(tt.input))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTokensStopEarly(t *testing.T) {
	var seen []Token
	for tok := range Tokens("a{{ b }}c{{ d }}e") {
		seen = append(seen, tok)
		if tok.Kind == TokenVariable {
			break
		}
	}

	assert.Len(t, seen, 2)
	assert.Equal(t, "b", seen[1].Value)
}

func TestTokensReproduceInput(t *testing.T) {
	inputs := []string{
		"<p>include{{ x }} and {{ this.y }}</p>",
		"{{{{}}}}",
		"include{{",
		"}}{{",
		"include include{{ a.md }}include",
	}

	for _, in := range inputs {
		var b strings.Builder
		for tok := range Tokens(in) {
			b.WriteString(tok.Raw)
		}
		assert.Equal(t, in, b.String())
	}
}

func TestTokenKindString(t *testing.T) {
	assert.Equal(t, "literal", TokenLiteral.String())
	assert.Equal(t, "include", TokenInclude.String())
	assert.Equal(t, "variable", TokenVariable.String())
	assert.Equal(t, "unknown", TokenKind(42).String())
}
