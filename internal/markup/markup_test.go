package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text",
			in:   "Hello there",
			want: "Hello there",
		},
		{
			name: "bullet list",
			in:   "- one\n- two",
			want: "<ul><li>one</li><li>two</li></ul>",
		},
		{
			name: "star bullets with surrounding text",
			in:   "Intro\n* a\n* b\nEnd",
			want: "Intro\n<ul><li>a</li><li>b</li></ul>\nEnd",
		},
		{
			name: "numbered list keeps numbers",
			in:   "1. First\n2. Second",
			want: `<ol><li value="1">First</li><li value="2">Second</li></ol>`,
		},
		{
			name: "bold and italic",
			in:   "**CIME** is *great*",
			want: "<strong>CIME</strong> is <em>great</em>",
		},
		{
			name: "headings",
			in:   "# Title\n## Section\n### Detail",
			want: "<h2>Title</h2>\n<h3>Section</h3>\n<h4>Detail</h4>",
		},
		{
			name: "link",
			in:   "[CIME](https://cime.ac.in)",
			want: `<a href="https://cime.ac.in" target="_blank" rel="noopener noreferrer">CIME</a>`,
		},
		{
			name: "unsafe link keeps label only",
			in:   "[click](javascript:alert(1))",
			want: "click)",
		},
		{
			name: "fenced code",
			in:   "```go test ./...```",
			want: "<pre><code>go test ./...</code></pre>",
		},
		{
			name: "inline code",
			in:   "run `make build` first",
			want: "run <code>make build</code> first",
		},
		{
			name: "line breaks between text",
			in:   "a\nb\nc",
			want: "a<br />b<br />c",
		},
		{
			name: "blank line kept",
			in:   "para one\n\npara two",
			want: "para one\n\npara two",
		},
		{
			name: "html is escaped",
			in:   "<script>alert('x')</script>",
			want: "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;",
		},
		{
			name: "windows newlines",
			in:   "a\r\nb",
			want: "a<br />b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestRender_NewlinesInsideFencedCodeAreKept(t *testing.T) {
	got := Render("```line1\nline2```")
	assert.Equal(t, "<pre><code>line1\nline2</code></pre>", got)
}

// Only single newlines become <br />; a blank line between paragraphs is left
// as two raw newlines.
func TestRender_BlankLinesAreNotLineBreaks(t *testing.T) {
	assert.Equal(t, "a\n\nb", Render("a\n\nb"))
	assert.Equal(t, "a<br />b\n\nc", Render("a\nb\n\nc"))
	assert.NotContains(t, Render("a\n\nb"), "<br />")
}

func TestRules_Order(t *testing.T) {
	assert.Equal(t, []string{
		"bullet-items",
		"bullet-lists",
		"numbered-items",
		"numbered-lists",
		"collapse-containers",
		"bold",
		"italic",
		"headings",
		"links",
		"fenced-code",
		"inline-code",
		"line-breaks",
	}, Rules())
}
