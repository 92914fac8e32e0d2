// Package assemble turns the normalized question rows into the five linked
// output tables: Categories, Collections, Quizzes, Questions and Options.
//
// Entities are derived once per run from the full row set, in input order,
// with no randomness and no wall clock, so identical input always produces
// byte-identical keys and tags. Every table is coerced to the destination
// template's column order before it leaves this package; a run fingerprint
// over the aligned tables makes reruns comparable at a glance.
package assemble

import (
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"qbank/internal/answers"
	"qbank/internal/keys"
	"qbank/internal/lookup"
	"qbank/internal/schema"
	"qbank/internal/tags"
	"qbank/internal/template"
	"qbank/internal/transformer/builtin"
	"qbank/pkg/records"
)

// Defaults baked into the destination platform's import format.
const (
	DefaultPassMark = 70
	DefaultPoints   = 1
)

// HasImageSentinel is the MediaURL value for a question flagged has_image
// whose text resolved to no URL: "known to have an image, URL pending".
const HasImageSentinel = "1"

// Result holds the five assembled tables, column-aligned to the template.
type Result struct {
	Categories  []records.Record
	Collections []records.Record
	Quizzes     []records.Record
	Questions   []records.Record
	Options     []records.Record

	// Fingerprint is an xxh3 digest of every aligned cell, stable across
	// reruns on identical input.
	Fingerprint uint64
}

// Table returns the assembled records for a destination sheet name, nil for
// an unknown sheet.
func (r Result) Table(sheet string) []records.Record {
	switch sheet {
	case schema.SheetCategories:
		return r.Categories
	case schema.SheetCollections:
		return r.Collections
	case schema.SheetQuizzes:
		return r.Quizzes
	case schema.SheetQuestions:
		return r.Questions
	case schema.SheetOptions:
		return r.Options
	}
	return nil
}

// Counts returns per-sheet row counts for logging and metrics.
func (r Result) Counts() map[string]int {
	return map[string]int{
		schema.SheetCategories:  len(r.Categories),
		schema.SheetCollections: len(r.Collections),
		schema.SheetQuizzes:     len(r.Quizzes),
		schema.SheetQuestions:   len(r.Questions),
		schema.SheetOptions:     len(r.Options),
	}
}

// titleCaser renders "MICROSOFT" as "Microsoft" for category descriptions.
var titleCaser = cases.Title(language.English)

// learningOutcome is the fixed collection-name -> outcome table. Exact names
// first; any other non-blank collection gets the generic sentence.
type learningOutcome struct {
	Name    string
	Outcome string
}

var learningOutcomes = []learningOutcome{
	{"Microsoft Azure", "Develop administrator-level skills in Azure identity, governance, storage, compute, networking, and monitoring aligned to AZ-104 objectives."},
	{"Microsoft 365", "Build proficiency in Microsoft 365 services, security, compliance, and identity to manage modern workplace scenarios."},
	{"Azure Data", "Strengthen data engineering and analytics skills on Azure services including storage, compute, security, and monitoring."},
}

func learningOutcomeFor(collectionName string) string {
	name := strings.TrimSpace(collectionName)
	for _, lo := range learningOutcomes {
		if lo.Name == name {
			return lo.Outcome
		}
	}
	if name == "" {
		return ""
	}
	return "Build proficiency in " + name + " aligned to relevant certification objectives."
}

// quizAgg accumulates per-quiz state while scanning rows in input order.
type quizAgg struct {
	title          string // first-seen raw title
	collectionName string // from the quiz's first row
	diffCounts     map[string]int
	rowTexts       []string // question + explanation per row, for tag scoring
}

// Build derives the five entity tables from the normalized rows.
//
// Foreign keys resolve per entity's own rows: a Collection points at the
// category of its first row, a Quiz at the collection of its first row, so
// multi-category inputs link correctly instead of everything referencing the
// run's first-discovered parent.
func Build(rows []records.Record, urls lookup.Map, tpl *template.Schema) Result {
	if tpl == nil {
		tpl = template.Default()
	}
	if urls == nil {
		urls = lookup.Map{}
	}

	var res Result

	// Pass 1: discover distinct categories, collections and quizzes in
	// first-occurrence order, and accumulate per-quiz difficulty and text.
	var (
		catOrder  []string
		catSeen   = map[string]bool{}
		colOrder  []string
		colOfCat  = map[string]string{} // collection name -> its first row's category
		quizOrder []string
		quizzes   = map[string]*quizAgg{}
	)
	for _, r := range rows {
		cat := strings.TrimSpace(r.String(schema.FieldCategory))
		if !catSeen[cat] {
			catSeen[cat] = true
			catOrder = append(catOrder, cat)
		}

		col := strings.TrimSpace(r.String(schema.FieldCollection))
		if _, ok := colOfCat[col]; !ok {
			colOfCat[col] = cat
			colOrder = append(colOrder, col)
		}

		title := strings.TrimSpace(r.String(schema.FieldQuiz))
		agg, ok := quizzes[title]
		if !ok {
			agg = &quizAgg{
				title:          r.String(schema.FieldQuiz),
				collectionName: col,
				diffCounts:     map[string]int{},
			}
			quizzes[title] = agg
			quizOrder = append(quizOrder, title)
		}
		if d := strings.TrimSpace(r.String(schema.FieldDifficulty)); d != "" {
			agg.diffCounts[d]++
		}
		agg.rowTexts = append(agg.rowTexts,
			r.String(schema.FieldQuestion)+" "+r.String(schema.FieldExplanation))
	}

	for _, name := range catOrder {
		res.Categories = append(res.Categories, records.Record{
			"CategoryKey": keys.Category(name),
			"Name":        name,
			"Description": titleCaser.String(strings.ToLower(name)) + " certification",
		})
	}

	for _, name := range colOrder {
		res.Collections = append(res.Collections, records.Record{
			"CollectionKey":   keys.Collection(name),
			"Name":            name,
			"Description":     name + ".",
			"LearningOutcome": learningOutcomeFor(name),
			"IsPublic":        true,
			"CategoryKey":     keys.Category(colOfCat[name]),
			"CoverImage":      "",
		})
	}

	for _, title := range quizOrder {
		agg := quizzes[title]
		res.Quizzes = append(res.Quizzes, records.Record{
			"QuizKey":       keys.Quiz(title),
			"CollectionKey": keys.Collection(agg.collectionName),
			"Title":         agg.title,
			"Description":   agg.collectionName,
			"PassMark":      DefaultPassMark,
			"Difficulty":    modalDifficulty(agg.diffCounts),
			"isPublic":      true,
			"Status":        "draft",
			"Tags":          tags.Infer(agg.collectionName, agg.title, agg.rowTexts, tags.DefaultMax),
		})
	}

	// Pass 2: questions and options, ordinals counted per quiz in row order.
	counters := map[string]int{}
	for _, r := range rows {
		quizKey := keys.Quiz(strings.TrimSpace(r.String(schema.FieldQuiz)))
		counters[quizKey]++
		ordinal := counters[quizKey]
		qKey := keys.Question(quizKey, ordinal)

		qText := r.String(schema.FieldQuestion)
		opts := answers.SplitOptions(r.String(schema.FieldOptions))
		qType := answers.DetermineType(r.String(schema.FieldQuestionType), opts)
		correct := answers.CorrectLetters(r.String(schema.FieldCorrectOptions), qType)

		res.Questions = append(res.Questions, records.Record{
			"QuestionKey":       qKey,
			"QuizKey":           quizKey,
			"Type":              qType,
			"Text":              qText,
			"Points":            DefaultPoints,
			"Explanation":       r.String(schema.FieldExplanation),
			"Hints":             builtin.CleanHint(r[schema.FieldHints]),
			"MediaURL":          mediaURL(qText, r[schema.FieldHasImage], urls),
			"OrderIndex":        ordinal,
			"ThresholdKeywords": "",
		})

		if len(opts) == 0 && qType == answers.TypeTrueFalse {
			// Synthetic pair so a bare true/false row still imports.
			opts = []string{"True", "False"}
		}
		for i, opt := range opts {
			letter := answers.PositionLetter(i + 1)
			res.Options = append(res.Options, records.Record{
				"OptionKey":    keys.Option(qKey, i+1),
				"QuestionKey":  qKey,
				"Text":         opt,
				"IsCorrect":    correct[letter],
				"OrderIndex":   i + 1,
				"CorrectOrder": "",
				"Meta":         "",
			})
		}
	}

	res.Categories = alignTo(res.Categories, tpl.ColumnsFor(schema.SheetCategories))
	res.Collections = alignTo(res.Collections, tpl.ColumnsFor(schema.SheetCollections))
	res.Quizzes = alignTo(res.Quizzes, tpl.ColumnsFor(schema.SheetQuizzes))
	res.Questions = alignTo(res.Questions, tpl.ColumnsFor(schema.SheetQuestions))
	res.Options = alignTo(res.Options, tpl.ColumnsFor(schema.SheetOptions))

	res.Fingerprint = fingerprint(res, tpl)
	return res
}

// modalDifficulty picks the single most frequent difficulty; a tie for the
// top count, or no counts at all, resolves to "medium".
func modalDifficulty(counts map[string]int) string {
	best, bestN, ties := "", 0, 0
	for d, n := range counts {
		switch {
		case n > bestN:
			best, bestN, ties = d, n, 1
		case n == bestN:
			ties++
		}
	}
	if bestN == 0 || ties > 1 {
		return "medium"
	}
	return best
}

// mediaURL resolves a question's media reference: an exact lookup hit wins
// regardless of the has_image flag; a flagged miss yields the sentinel.
func mediaURL(questionText string, hasImage any, urls lookup.Map) string {
	if u, ok := urls[questionText]; ok {
		return u
	}
	if flagged(hasImage) {
		return HasImageSentinel
	}
	return ""
}

// flagged accepts the normalizer's bool as well as raw truthy strings, for
// callers assembling rows that skipped the fields stage.
func flagged(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1"
	}
	return false
}

// alignTo coerces every record to exactly the given columns: extras are
// pruned, missing columns get nil.
func alignTo(recs []records.Record, cols []string) []records.Record {
	if cols == nil {
		return recs
	}
	for i, r := range recs {
		out := make(records.Record, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				out[c] = v
			} else {
				out[c] = nil
			}
		}
		recs[i] = out
	}
	return recs
}

// fingerprint hashes every aligned cell in sheet, row and column order.
// Unit/record separators keep ("ab","c") distinct from ("a","bc").
func fingerprint(res Result, tpl *template.Schema) uint64 {
	h := xxh3.New()
	for _, sheet := range schema.SheetOrder() {
		cols := tpl.ColumnsFor(sheet)
		if cols == nil {
			cols = schema.BuiltinColumns(sheet)
		}
		_, _ = h.WriteString(sheet)
		_, _ = h.Write([]byte{0x1e})
		for _, rec := range res.Table(sheet) {
			for _, c := range cols {
				_, _ = h.WriteString(records.Stringify(rec[c]))
				_, _ = h.Write([]byte{0x1f})
			}
			_, _ = h.Write([]byte{0x1e})
		}
	}
	return h.Sum64()
}
