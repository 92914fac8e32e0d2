// Package answers parses free-text option blobs and correct-answer
// encodings. Options arrive as a single cell like "A) Yes; B) No" or
// "Apples; Oranges"; correct answers as letter lists whose grammar depends
// on the resolved question type. Letters live in the A–J space, matching
// option positions 1–10.
package answers

import (
	"regexp"
	"strings"
)

// Resolved question types.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeMultipleAnswer = "multiple_answer"
	TypeTrueFalse      = "true_false"
	TypeTextInput      = "text_input"
	TypeShortAnswer    = "short_answer"
	TypeImageBased     = "image_based"
)

var (
	// markerRe detects an enumerated option marker such as "A)" or "c)".
	markerRe = regexp.MustCompile(`\b[A-Ja-j]\)`)
	// sepRe splits unmarked option lists on ";" or "|".
	sepRe = regexp.MustCompile(`\s*[;|]\s*`)
	// leadMarkerRe strips a fragment's own leading marker.
	leadMarkerRe = regexp.MustCompile(`^[A-Ja-j]\)\s*`)

	firstMarkerRe = regexp.MustCompile(`^([A-Ja-j])\)`)
	listMarkerRe  = regexp.MustCompile(`(?:^|;\s*)([A-Ja-j])\)`)
	looseLetterRe = regexp.MustCompile(`\b([A-Ja-j])\b`)
)

// SplitOptions splits an option blob into its ordered option texts.
//
// When the blob carries letter markers, separators only count when the text
// after them begins the next marker, so option bodies may themselves contain
// ";" or "|". Each fragment then loses its marker and trailing semicolons.
// Blobs without markers split on every separator. Blank input yields nil.
func SplitOptions(text string) []string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	if markerRe.MatchString(s) {
		parts := splitBeforeMarkers(s)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			c := leadMarkerRe.ReplaceAllString(p, "")
			c = strings.Trim(strings.TrimSpace(c), ";")
			if c != "" {
				out = append(out, c)
			}
		}
		return out
	}
	parts := sepRe.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBeforeMarkers splits s on ";" or "|" separators whose following
// non-space text begins another letter marker. This is the lookahead split
// `\s*[;|]\s*(?=[A-Ja-j]\))`, which RE2 cannot express directly.
func splitBeforeMarkers(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); {
		if s[i] != ';' && s[i] != '|' {
			i++
			continue
		}
		left := i
		for left > start && isSpace(s[left-1]) {
			left--
		}
		right := i + 1
		for right < len(s) && isSpace(s[right]) {
			right++
		}
		if right+1 < len(s) && isOptionLetter(s[right]) && s[right+1] == ')' {
			parts = append(parts, s[start:left])
			start = right
			i = right
			continue
		}
		i++
	}
	return append(parts, s[start:])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isOptionLetter(b byte) bool {
	return (b >= 'A' && b <= 'J') || (b >= 'a' && b <= 'j')
}

// declaredTypes maps recognized declared type strings (lower-trimmed) onto
// their resolved form. "multiple answer" is a spreadsheet-ism for
// multiple_answer.
var declaredTypes = map[string]string{
	"multiple_choice": TypeMultipleChoice,
	"multiple answer": TypeMultipleAnswer,
	"multiple_answer": TypeMultipleAnswer,
	"true_false":      TypeTrueFalse,
	"text_input":      TypeTextInput,
	"short_answer":    TypeShortAnswer,
	"image_based":     TypeImageBased,
}

// DetermineType resolves a question's type from its declared type and its
// parsed options. Recognized declared types win; otherwise exactly two
// true/false/yes/no options mean true_false, any options mean
// multiple_choice, and none mean text_input.
func DetermineType(declared string, options []string) string {
	q := strings.ToLower(strings.TrimSpace(declared))
	if t, ok := declaredTypes[q]; ok {
		return t
	}
	if len(options) == 2 && isBooleanPair(options) {
		return TypeTrueFalse
	}
	if len(options) > 0 {
		return TypeMultipleChoice
	}
	return TypeTextInput
}

func isBooleanPair(options []string) bool {
	for _, o := range options {
		switch strings.ToLower(o) {
		case "true", "false", "yes", "no":
		default:
			return false
		}
	}
	return true
}

// CorrectLetters extracts the set of correct option letters from the
// correct-answer cell, uppercased. The grammar depends on the resolved type:
//
//   - multiple_choice: a single letter, only from a marker at the very start
//     ("B) Something" → B; a marker later in the text does not count);
//   - multiple_answer: every marker at the start or after "; "
//     ("A); C); E)" → A, C, E);
//   - anything else: every standalone A–J letter token, wherever it appears.
//
// Blank or unparseable text yields an empty set; the caller treats that as
// "no correct answer" rather than an error.
func CorrectLetters(text, questionType string) map[string]bool {
	out := make(map[string]bool)
	s := strings.TrimSpace(text)
	if s == "" {
		return out
	}
	switch questionType {
	case TypeMultipleChoice:
		if m := firstMarkerRe.FindStringSubmatch(s); m != nil {
			out[strings.ToUpper(m[1])] = true
		}
	case TypeMultipleAnswer:
		for _, m := range listMarkerRe.FindAllStringSubmatch(s, -1) {
			out[strings.ToUpper(m[1])] = true
		}
	default:
		for _, m := range looseLetterRe.FindAllStringSubmatch(text, -1) {
			out[strings.ToUpper(m[1])] = true
		}
	}
	return out
}

// PositionLetter maps a 1-based option position to its letter: 1→A, 2→B.
func PositionLetter(ordinal int) string {
	return string(rune('A' + ordinal - 1))
}
