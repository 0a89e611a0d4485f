// internal/browser/boxtree/text.go
package boxtree

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// isCollapsibleSpace reports the characters white-space processing treats as spaces.
func isCollapsibleSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

// IsWhitespace reports whether s holds only collapsible whitespace.
func IsWhitespace(s string) bool {
	for _, r := range s {
		if !isCollapsibleSpace(r) {
			return false
		}
	}
	return true
}

// PreservesSpaces reports white-space values that keep runs of spaces.
func PreservesSpaces(whiteSpace string) bool {
	return whiteSpace == "pre" || whiteSpace == "pre-wrap"
}

// PreservesNewlines reports white-space values that turn newlines into forced breaks.
func PreservesNewlines(whiteSpace string) bool {
	return whiteSpace == "pre" || whiteSpace == "pre-wrap" || whiteSpace == "pre-line"
}

// Wraps reports white-space values that allow soft wrapping.
func Wraps(whiteSpace string) bool {
	return whiteSpace != "pre" && whiteSpace != "nowrap"
}

// collapseWhitespace applies the white-space processing model to a text run.
func collapseWhitespace(text, whiteSpace string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if PreservesSpaces(whiteSpace) {
		return strings.ReplaceAll(text, "\r", "\n")
	}

	keepNewlines := PreservesNewlines(whiteSpace)
	var sb strings.Builder
	sb.Grow(len(text))
	pendingSpace := false
	for _, r := range text {
		switch {
		case keepNewlines && (r == '\n' || r == '\r'):
			// Spaces around a preserved newline are removed.
			pendingSpace = false
			sb.WriteByte('\n')
		case isCollapsibleSpace(r):
			pendingSpace = true
		default:
			if pendingSpace {
				s := sb.String()
				if len(s) == 0 || s[len(s)-1] != '\n' {
					sb.WriteByte(' ')
				}
				pendingSpace = false
			}
			sb.WriteRune(r)
		}
	}
	if pendingSpace {
		s := sb.String()
		if len(s) == 0 || s[len(s)-1] != '\n' {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// transformText applies text-transform with the case rules of lang.
func transformText(text, transform, lang string) string {
	tag := language.Und
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			tag = t
		}
	}
	switch transform {
	case "uppercase":
		return cases.Upper(tag).String(text)
	case "lowercase":
		return cases.Lower(tag).String(text)
	case "capitalize":
		return cases.Title(tag, cases.NoLower).String(text)
	}
	return text
}
