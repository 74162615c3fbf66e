package beautify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     Options
		expected string
	}{
		{
			name:     "nested blocks with inline content",
			input:    "<div><p>Hello <b>world</b></p></div>",
			opts:     Options{IndentSize: 2, IndentChar: " "},
			expected: "<div>\n  <p>\n    Hello <b>world</b>\n  </p>\n</div>\n",
		},
		{
			name:     "preformatted body is untouched",
			input:    "<div><pre>  a\n   b</pre></div>",
			opts:     Options{IndentSize: 2},
			expected: "<div>\n  <pre>  a\n   b</pre>\n</div>\n",
		},
		{
			name: "document with void elements and tab indent",
			input: `<!DOCTYPE html><html><head><meta charset="utf-8"></head>` +
				`<body><img src="a.png" alt="a"><br></body></html>`,
			opts: Options{IndentSize: 1, IndentChar: "\t"},
			expected: "<!DOCTYPE html>\n<html>\n\t<head>\n\t\t<meta charset=\"utf-8\">\n\t</head>\n" +
				"\t<body>\n\t\t<img src=\"a.png\" alt=\"a\"><br>\n\t</body>\n</html>\n",
		},
		{
			name:     "zero indent keeps line structure",
			input:    "<ul><li>one</li><li>two</li></ul>",
			opts:     Options{IndentSize: 0},
			expected: "<ul>\n<li>\none\n</li>\n<li>\ntwo\n</li>\n</ul>\n",
		},
		{
			name:     "entities stay escaped",
			input:    "<p>a &amp; b &lt;c&gt;</p>",
			opts:     Options{IndentSize: 2},
			expected: "<p>\n  a &amp; b &lt;c&gt;\n</p>\n",
		},
		{
			name:     "empty input",
			input:    "",
			opts:     Options{IndentSize: 2},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFormatIsStable(t *testing.T) {
	opts := Options{IndentSize: 2, IndentChar: " "}

	once, err := Format("<div><p>Hello <b>world</b></p></div>", opts)
	require.NoError(t, err)
	twice, err := Format(once, opts)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestFormatScriptBody(t *testing.T) {
	got, err := Format("<body><script>if (a < b) {\n  go();\n}</script></body>", Options{IndentSize: 2})
	require.NoError(t, err)

	assert.Equal(t, "<body>\n  <script>if (a < b) {\n  go();\n}</script>\n</body>\n", got)
}
