// Package keys derives the stable, human-legible identifiers that link the
// five output tables. Keys are pure functions of display names and ordinals;
// no randomness, no wall clock, so reruns over the same input produce
// byte-identical keys.
package keys

import (
	"fmt"
	"regexp"
	"strings"
)

// Key prefixes per entity. A blank quiz title keys as QUIZ-BATCH.
const (
	PrefixCategory   = "CAT"
	PrefixCollection = "COL"
	PrefixQuiz       = "QUIZ"

	blankQuizBase = "BATCH"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Slugify collapses non-alphanumeric runs to single spaces, then uppercases
// the remaining tokens and joins them with "-".
//
//	Slugify("Azure AD & Governance") == "AZURE-AD-GOVERNANCE"
func Slugify(text string) string {
	tokens := strings.Fields(nonAlnum.ReplaceAllString(text, " "))
	for i, t := range tokens {
		tokens[i] = strings.ToUpper(t)
	}
	return strings.Join(tokens, "-")
}

// Make builds "<prefix>-<slug>" from a display name, or the bare prefix when
// the name is blank.
func Make(prefix, base string) string {
	if strings.TrimSpace(base) == "" {
		return prefix
	}
	return prefix + "-" + Slugify(base)
}

// Category keys a category display name.
func Category(name string) string { return Make(PrefixCategory, name) }

// Collection keys a collection display name.
func Collection(name string) string { return Make(PrefixCollection, name) }

// Quiz keys a quiz title. Blank titles fall back to the literal BATCH base,
// so ungrouped rows still share one well-formed quiz key.
func Quiz(title string) string {
	if strings.TrimSpace(title) == "" {
		title = blankQuizBase
	}
	return Make(PrefixQuiz, title)
}

// Question builds the per-quiz composite question key. Ordinals are 1-based
// in input row order.
func Question(quizKey string, ordinal int) string {
	return fmt.Sprintf("Q-%s-%03d", quizKey, ordinal)
}

// Option builds the per-question composite option key. Ordinals are 1-based
// and contiguous.
func Option(questionKey string, ordinal int) string {
	return fmt.Sprintf("OPT-%s-%02d", questionKey, ordinal)
}
