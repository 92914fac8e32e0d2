// Package schema fixes the shapes the pipeline converts between: the
// canonical 14-column question row produced by the column reconciler, and
// the five destination sheets (Categories, Collections, Quizzes, Questions,
// Options) emitted by the assembler.
//
// Header matching is intentionally forgiving: "Question Type", "question_type"
// and "QuestionType" all resolve to Question_Type. Matching first folds
// accents, lowercases and strips every non-alphanumeric rune, then tries the
// canonical names and a fixed alias table, in that order.
package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical column names of a normalized question row.
const (
	FieldQuestion       = "Question"
	FieldOptions        = "Options"
	FieldQuestionType   = "Question_Type"
	FieldHasImage       = "has_image"
	FieldCorrectOptions = "Correct Options"
	FieldExplanation    = "Explanation"
	FieldHints          = "Hints"
	FieldCategory       = "Category"
	FieldCollection     = "Collection"
	FieldQuiz           = "Quiz"
	FieldTag            = "Tag"
	FieldDifficulty     = "difficulty"
	FieldIsPublic       = "isPublic"
	FieldStatus         = "Status"
)

// canonicalColumns is the full input schema in output order.
var canonicalColumns = []string{
	FieldQuestion,
	FieldOptions,
	FieldQuestionType,
	FieldHasImage,
	FieldCorrectOptions,
	FieldExplanation,
	FieldHints,
	FieldCategory,
	FieldCollection,
	FieldQuiz,
	FieldTag,
	FieldDifficulty,
	FieldIsPublic,
	FieldStatus,
}

// CanonicalColumns returns the 14 canonical column names in order. The
// returned slice is a copy; callers may reorder it.
func CanonicalColumns() []string {
	out := make([]string, len(canonicalColumns))
	copy(out, canonicalColumns)
	return out
}

// alias maps one normalized header key onto a canonical column. Aliases are
// consulted only after the canonical names themselves; order matters when
// several aliases target the same column.
type alias struct {
	Key    string
	Target string
}

var headerAliases = []alias{
	{"questiontype", FieldQuestionType},
	{"hasimage", FieldHasImage},
	{"correctoptions", FieldCorrectOptions},
	{"correctoption", FieldCorrectOptions},
	{"correctanswer", FieldCorrectOptions},
	{"answers", FieldCorrectOptions},
	{"tags", FieldTag},
	{"ispublic", FieldIsPublic},
}

// foldAccents decomposes, strips nonspacing marks and recomposes, so
// "Catégorie" keys the same as "Categorie".
var foldAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FieldKey reduces arbitrary header text to its matching key: accent-folded,
// lowercased, every non-[a-z0-9] rune removed.
func FieldKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	ascii, _, _ := transform.String(foldAccents, s)

	var b strings.Builder
	b.Grow(len(ascii))
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalByKey indexes the canonical columns by their FieldKey form.
var canonicalByKey = func() map[string]string {
	m := make(map[string]string, len(canonicalColumns))
	for _, c := range canonicalColumns {
		m[FieldKey(c)] = c
	}
	return m
}()

// CanonicalColumn reports whether header names a canonical column directly
// (by its FieldKey form), without consulting the alias table. The reconciler
// uses it to let direct names claim a column before any alias can.
func CanonicalColumn(header string) (string, bool) {
	c, ok := canonicalByKey[FieldKey(header)]
	return c, ok
}

// ResolveHeader maps one input header onto its canonical column. Canonical
// names win over aliases; unknown headers resolve to ("", false) and are
// dropped by the reconciler.
func ResolveHeader(header string) (string, bool) {
	key := FieldKey(header)
	if key == "" {
		return "", false
	}
	if c, ok := canonicalByKey[key]; ok {
		return c, true
	}
	for _, a := range headerAliases {
		if a.Key == key {
			return a.Target, true
		}
	}
	return "", false
}

// Destination sheet names, in workbook order.
const (
	SheetCategories  = "Categories"
	SheetCollections = "Collections"
	SheetQuizzes     = "Quizzes"
	SheetQuestions   = "Questions"
	SheetOptions     = "Options"
)

// SheetOrder returns the five destination sheet names in emission order.
func SheetOrder() []string {
	return []string{SheetCategories, SheetCollections, SheetQuizzes, SheetQuestions, SheetOptions}
}

// Columns the assembler populates per sheet. The destination template may
// request more (filled with nil) or fewer (pruned); these are the names the
// builders write.
var (
	CategoryColumns   = []string{"CategoryKey", "Name", "Description"}
	CollectionColumns = []string{"CollectionKey", "Name", "Description", "LearningOutcome", "IsPublic", "CategoryKey", "CoverImage"}
	QuizColumns       = []string{"QuizKey", "CollectionKey", "Title", "Description", "PassMark", "Difficulty", "isPublic", "Status", "Tags"}
	QuestionColumns   = []string{"QuestionKey", "QuizKey", "Type", "Text", "Points", "Explanation", "Hints", "MediaURL", "OrderIndex", "ThresholdKeywords"}
	OptionColumns     = []string{"OptionKey", "QuestionKey", "Text", "IsCorrect", "OrderIndex", "CorrectOrder", "Meta"}
)

// BuiltinColumns returns the assembler's column list for a sheet, or nil for
// an unknown sheet name.
func BuiltinColumns(sheet string) []string {
	var src []string
	switch sheet {
	case SheetCategories:
		src = CategoryColumns
	case SheetCollections:
		src = CollectionColumns
	case SheetQuizzes:
		src = QuizColumns
	case SheetQuestions:
		src = QuestionColumns
	case SheetOptions:
		src = OptionColumns
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
