// Package markup renders the lightweight Markdown subset used in chat answers.
//
// Rendering is a fixed, order-sensitive list of substitutions over HTML-escaped
// text. It is not a Markdown parser. Known limitations: nested lists, lists
// mixing bullets and numbers, and backslash-escaped characters are not handled.
package markup

import (
	"html"
	"regexp"
	"strings"
)

// Rule is one named substitution step
type Rule struct {
	Name  string
	Apply func(string) string
}

var (
	bulletItemRe   = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+(.+)$`)
	bulletRunRe    = regexp.MustCompile(`(?:<li>.*?</li>)+`)
	numberedItemRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+(.+)$`)
	numberedRunRe  = regexp.MustCompile(`(?:<li value="\d+">.*?</li>)+`)
	boldRe         = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe       = regexp.MustCompile(`\*(.+?)\*`)
	h4Re           = regexp.MustCompile(`(?m)^### (.*?)$`)
	h3Re           = regexp.MustCompile(`(?m)^## (.*?)$`)
	h2Re           = regexp.MustCompile(`(?m)^# (.*?)$`)
	linkRe         = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	fencedCodeRe   = regexp.MustCompile("```([^`]+)```")
	inlineCodeRe   = regexp.MustCompile("`([^`]+)`")
)

var rules = []Rule{
	{"bullet-items", func(s string) string {
		return bulletItemRe.ReplaceAllString(s, "<li>$1</li>")
	}},
	{"bullet-lists", func(s string) string {
		s = strings.ReplaceAll(s, "</li>\n<li>", "</li><li>")
		return bulletRunRe.ReplaceAllString(s, "<ul>$0</ul>")
	}},
	{"numbered-items", func(s string) string {
		return numberedItemRe.ReplaceAllString(s, `<li value="$1">$2</li>`)
	}},
	{"numbered-lists", func(s string) string {
		s = strings.ReplaceAll(s, "</li>\n<li value=", "</li><li value=")
		return numberedRunRe.ReplaceAllString(s, "<ol>$0</ol>")
	}},
	{"collapse-containers", func(s string) string {
		return strings.NewReplacer(
			"<ul><ul>", "<ul>",
			"</ul></ul>", "</ul>",
			"<ol><ol>", "<ol>",
			"</ol></ol>", "</ol>",
		).Replace(s)
	}},
	{"bold", func(s string) string {
		return boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	}},
	{"italic", func(s string) string {
		return italicRe.ReplaceAllString(s, "<em>$1</em>")
	}},
	{"headings", func(s string) string {
		s = h4Re.ReplaceAllString(s, "<h4>$1</h4>")
		s = h3Re.ReplaceAllString(s, "<h3>$1</h3>")
		return h2Re.ReplaceAllString(s, "<h2>$1</h2>")
	}},
	{"links", renderLinks},
	{"fenced-code", func(s string) string {
		return fencedCodeRe.ReplaceAllString(s, "<pre><code>$1</code></pre>")
	}},
	{"inline-code", func(s string) string {
		return inlineCodeRe.ReplaceAllString(s, "<code>$1</code>")
	}},
	{"line-breaks", lineBreaks},
}

// Rules returns the names of the substitution steps in the order they run
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

// Render converts text to HTML
func Render(text string) string {
	s := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	for _, r := range rules {
		s = r.Apply(s)
	}
	return s
}

// renderLinks turns [label](url) into anchors. Only web and mail links become
// anchors; anything else keeps just its label.
func renderLinks(s string) string {
	return linkRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		label, href := sub[1], strings.TrimSpace(sub[2])
		if !safeHref(href) {
			return label
		}
		return `<a href="` + href + `" target="_blank" rel="noopener noreferrer">` + label + `</a>`
	})
}

func safeHref(href string) bool {
	lower := strings.ToLower(html.UnescapeString(href))
	for _, prefix := range []string{"http://", "https://", "mailto:", "/"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// lineBreaks replaces each newline that sits between two text characters with
// <br />. Newlines next to a tag and inside <pre> blocks are kept.
func lineBreaks(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inPre := false
	for i := 0; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "<pre>"):
			inPre = true
		case strings.HasPrefix(s[i:], "</pre>"):
			inPre = false
		}

		if s[i] != '\n' || inPre || i == 0 || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		if s[i-1] == '>' || s[i-1] == '\n' || s[i+1] == '<' || s[i+1] == '\n' {
			b.WriteByte(s[i])
			continue
		}
		b.WriteString("<br />")
	}
	return b.String()
}
