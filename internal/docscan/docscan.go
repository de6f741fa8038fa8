// Package docscan extracts annotation tags from raw method doc comments.
//
// A tag line is "@name content" where name is one of the annotation
// vocabulary entries, matched case-insensitively. Lines following a tag that
// are indented by at least four columns past the comment body continue its
// content. A single blank line before such a line does not end the
// continuation, so the code block gofmt produces keeps working:
//
//	// @then the widget should have
//	//
//	//	a name and
//	//	a color
//
// The first plain line containing no "@" becomes the description of every
// tag found below it in the same comment.
package docscan

import (
	"strings"

	"github.com/olehluchkiv/stepdefs/internal/annotation"
)

const (
	// continuationIndent is the minimum indentation, in columns past the
	// comment body, of a line that continues the previous tag.
	continuationIndent = 4
	// tabWidth is the column stop a tab advances to.
	tabWidth = 4
)

// Occurrence is a single tag found in a comment.
type Occurrence struct {
	Tag         string // lower-case vocabulary name
	Content     string // joined, trimmed content; may be empty
	Description string // description captured before this tag, if any
	Line        int    // 0-based line of the tag within the raw comment
}

// Scan returns the tags of raw in order of appearance. An empty comment
// yields no occurrences.
func Scan(raw string) []Occurrence {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	lines := split(raw)
	base := baseline(lines)
	continues := func(l line) bool {
		return !l.skip && !l.blank() && indent(l.body)-base >= continuationIndent
	}

	var (
		out         []Occurrence
		description string
	)
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if ln.skip {
			continue
		}

		text := strings.TrimSpace(ln.body)
		tag, rest, ok := matchTag(text)
		if !ok {
			if description == "" && text != "" && !strings.Contains(text, "@") {
				description = text
			}
			continue
		}

		parts := []string{rest}
		for i+1 < len(lines) {
			next := lines[i+1]
			if next.blank() && !next.skip && i+2 < len(lines) && continues(lines[i+2]) {
				i++
				continue
			}
			if !continues(next) {
				break
			}
			parts = append(parts, strings.TrimSpace(next.body))
			i++
		}

		out = append(out, Occurrence{
			Tag:         tag,
			Content:     strings.TrimSpace(strings.Join(parts, " ")),
			Description: description,
			Line:        ln.index,
		})
	}
	return out
}

type line struct {
	body  string // text after the comment marker, leading indentation kept
	index int
	skip  bool // compiler directive
}

func (l line) blank() bool {
	return strings.TrimSpace(l.body) == ""
}

func split(raw string) []line {
	rawLines := strings.Split(raw, "\n")
	out := make([]line, len(rawLines))
	for i, s := range rawLines {
		body, directive := stripMarkers(s)
		out[i] = line{body: body, index: i, skip: directive}
	}
	return out
}

// stripMarkers removes the comment delimiters of one line: "//", "/*" and
// "/**" openers, the "*" gutter of block comments and a closing "*/". One
// space following "//" or the gutter belongs to the marker.
func stripMarkers(s string) (body string, directive bool) {
	s = strings.TrimRight(s, " \t\r")
	if strings.HasSuffix(s, "*/") {
		s = strings.TrimRight(s[:len(s)-2], " \t")
	}

	t := strings.TrimLeft(s, " \t")
	switch {
	case strings.HasPrefix(t, "//"):
		rest := t[2:]
		return strings.TrimPrefix(rest, " "), isDirective(rest)
	case strings.HasPrefix(t, "/*"):
		return strings.TrimLeft(t[2:], "*"), false
	case strings.HasPrefix(t, "*"):
		return strings.TrimPrefix(t[1:], " "), false
	default:
		return s, false
	}
}

// isDirective mirrors the go/ast rule for "//line", "//export", "//extern"
// and "//tool:name" comments.
func isDirective(rest string) bool {
	if strings.HasPrefix(rest, "line ") || strings.HasPrefix(rest, "extern ") || strings.HasPrefix(rest, "export ") {
		return true
	}
	colon := strings.Index(rest, ":")
	if colon <= 0 || colon+1 >= len(rest) {
		return false
	}
	for i := 0; i <= colon+1; i++ {
		if i == colon {
			continue
		}
		c := rest[i]
		if !('a' <= c && c <= 'z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

func matchTag(text string) (tag, rest string, ok bool) {
	if !strings.HasPrefix(text, "@") {
		return "", "", false
	}
	end := 1
	for end < len(text) && isLetter(text[end]) {
		end++
	}
	if end == 1 {
		return "", "", false
	}
	kind, found := annotation.Lookup(text[1:end])
	if !found {
		return "", "", false
	}
	return kind.String(), strings.TrimSpace(text[end:]), true
}

// baseline returns the smallest indentation of the non-blank lines, the
// column the comment body starts at.
func baseline(lines []line) int {
	base := -1
	for _, l := range lines {
		if l.skip || l.blank() {
			continue
		}
		if n := indent(l.body); base < 0 || n < base {
			base = n
		}
	}
	return max(base, 0)
}

// indent returns the width of the leading whitespace of s in columns.
func indent(s string) int {
	col := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ':
			col++
		case '\t':
			col += tabWidth - col%tabWidth
		default:
			return col
		}
	}
	// Blank lines never continue a tag.
	return 0
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
