// Package html provides small, allocation-conscious helpers for cleaning
// HTML-ish text found in question exports. Hints, explanations and option
// bodies copied out of course platforms routinely carry markup fragments
// and odd whitespace; these primitives normalize them without attempting
// full HTML parsing:
//
//   - StripHTML: remove <...> tag sequences from a string.
//   - CollapseWhitespace: reduce runs of whitespace to a single space.
//
// They operate on strings and return strings, making them easy to compose
// in parser and transformer stages.
package html

import (
	"strings"
	"unicode"
)

// StripHTML removes simplistic HTML/markup tags of the form <...> from s.
// It scans runes and treats any characters between '<' and the next '>' as
// a tag to be dropped. The delimiters themselves are also removed.
//
// This is a lightweight heuristic, not a full HTML parser. It is good for
// cleaning up HTML-ish snippets where tags do not contain '<' or '>' in
// attribute values and where malformed markup is rare.
func StripHTML(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s)) // heuristic: upper bound

	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			// End of a tag; resume writing on next rune.
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// CollapseWhitespace replaces consecutive whitespace characters with a single
// ASCII space (' ') and trims leading and trailing whitespace.
//
// Whitespace here is unicode.IsSpace, which covers the non-breaking spaces
// that spreadsheet exports scatter through pasted text.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
			continue
		}
		b.WriteRune(r)
		seenSpace = false
	}

	return strings.TrimSpace(b.String())
}

// NormalizeText strips HTML-like tags from s and then collapses whitespace.
// It is the standard "clean this snippet" operation for hint and
// explanation fields.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	return CollapseWhitespace(StripHTML(s))
}
