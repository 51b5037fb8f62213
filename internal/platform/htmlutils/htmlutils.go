// Package htmlutils converts HTML fragments from feeds into plain text.
package htmlutils

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements start a new line in the text output.
var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Br:         true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Tr:         true,
	atom.Table:      true,
}

// skippedElements have no readable text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
}

// ToText returns the readable text of an HTML fragment. Entities are decoded, block
// elements become line breaks, and runs of spaces inside a line collapse to one.
func ToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return normalizeSpace(fragment)
	}

	var (
		sb   strings.Builder
		skip int
	)

	z := html.NewTokenizer(strings.NewReader(fragment))

	for {
		tt := z.Next()

		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail: either way return what was read
			return normalizeSpace(sb.String())
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)

			if skippedElements[a] && tt == html.StartTagToken {
				skip++
			}

			if blockElements[a] {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)

			if skippedElements[a] && skip > 0 {
				skip--
			}

			if blockElements[a] {
				sb.WriteByte('\n')
			}
		}
	}
}

// normalizeSpace collapses spaces within each line and drops empty lines.
func normalizeSpace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}
