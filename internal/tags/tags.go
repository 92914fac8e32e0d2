// Package tags derives a ranked, de-duplicated tag list per quiz from three
// sources, in priority order: the collection name's tokens, hints mined from
// the quiz title, and domain keywords counted across the quiz's question and
// explanation text.
//
// Both heuristic tables are ordered slices rather than maps: first-match and
// tie-ranking semantics depend on a fixed iteration order.
package tags

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMax caps a quiz's tag list.
const DefaultMax = 8

// roleHints are whole-word quiz-title hints, checked in declaration order.
var roleHints = []string{
	"administrator", "admin", "developer", "security", "architect",
	"engineer", "data", "ai", "devops", "fundamentals", "associate", "expert",
}

var roleHintRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(roleHints))
	for i, w := range roleHints {
		res[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return res
}()

// keywordRule maps a content pattern onto one tag.
type keywordRule struct {
	re  *regexp.Regexp
	tag string
}

var keywordRules = []keywordRule{
	{regexp.MustCompile(`\b(azure\s*ad|entra)\b`), "identity"},
	{regexp.MustCompile(`\bconditional access\b`), "conditional-access"},
	{regexp.MustCompile(`\bmfa\b|\bmultifactor\b`), "mfa"},
	{regexp.MustCompile(`\brbac\b`), "rbac"},
	{regexp.MustCompile(`\bkey vault\b`), "key-vault"},
	{regexp.MustCompile(`\bmanaged identity\b`), "managed-identity"},
	{regexp.MustCompile(`\bpolicy\b`), "policy"},
	{regexp.MustCompile(`\bblueprint[s]?\b`), "blueprints"},
	{regexp.MustCompile(`\bblob\b|\bstorage account\b`), "storage"},
	{regexp.MustCompile(`\bcosmos db\b`), "cosmosdb"},
	{regexp.MustCompile(`\bsql (managed instance|database)\b`), "sql"},
	{regexp.MustCompile(`\bvirtual machine\b|\bvm\b|\bscale set\b`), "compute"},
	{regexp.MustCompile(`\baks\b|\bkubernetes\b`), "containers"},
	{regexp.MustCompile(`\bapp service\b`), "app-service"},
	{regexp.MustCompile(`\bvnet\b|\bvirtual network\b|\bsubnet\b|\bnsg\b|\bpeering\b`), "networking"},
	{regexp.MustCompile(`\bapplication gateway\b|\bappgw\b`), "application-gateway"},
	{regexp.MustCompile(`\bbastion\b`), "bastion"},
	{regexp.MustCompile(`\bdefender for cloud\b|\bsecurity center\b`), "defender"},
	{regexp.MustCompile(`\bmonitor\b|\blog analytics\b`), "monitoring"},
	{regexp.MustCompile(`\bsentinel\b`), "sentinel"},
	{regexp.MustCompile(`\bbackup\b|\brecovery services vault\b|\basr\b`), "backup"},
	{regexp.MustCompile(`\bfunctions?\b`), "functions"},
	{regexp.MustCompile(`\bevent hub[s]?\b`), "event-hubs"},
	{regexp.MustCompile(`\bservice bus\b`), "service-bus"},
}

var (
	examCodeRe   = regexp.MustCompile(`\b([a-z]{1,3}-\d{2,4})\b`)
	tokenSplitRe = regexp.MustCompile(`[^a-z0-9]+`)
	tagCleanRe   = regexp.MustCompile(`[^a-z0-9-]+`)
)

// fromCollection tokenizes a collection name into lowercase words.
func fromCollection(name string) []string {
	if name == "" {
		return nil
	}
	var out []string
	for _, t := range tokenSplitRe.Split(strings.ToLower(name), -1) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// fromQuizTitle mines a quiz title: exam code first ("az-104"), then role
// hints as whole words, then the literal tokens azure/microsoft.
func fromQuizTitle(title string) []string {
	if title == "" {
		return nil
	}
	s := strings.ToLower(title)
	var out []string
	if m := examCodeRe.FindStringSubmatch(s); m != nil {
		out = append(out, m[1])
	}
	for i, re := range roleHintRes {
		if re.MatchString(s) {
			out = append(out, roleHints[i])
		}
	}
	for _, t := range tokenSplitRe.Split(s, -1) {
		if t == "azure" || t == "microsoft" {
			out = append(out, t)
		}
	}
	return dedupFirst(out)
}

func dedupFirst(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Infer builds the tag string for one quiz. rowTexts carries one entry per
// question: its text and explanation concatenated. Keyword hits are counted
// once per row per rule, ranked by count descending then tag ascending.
// Every candidate is normalized to lowercase-hyphenated form, de-duplicated
// by first occurrence and capped at maxTags (DefaultMax when <= 0); the
// result joins with ", ".
func Infer(collectionName, quizTitle string, rowTexts []string, maxTags int) string {
	if maxTags <= 0 {
		maxTags = DefaultMax
	}

	var list []string
	list = append(list, fromCollection(collectionName)...)
	list = append(list, fromQuizTitle(quizTitle)...)

	counts := make(map[string]int)
	for _, txt := range rowTexts {
		s := strings.ToLower(txt)
		for _, r := range keywordRules {
			if r.re.MatchString(s) {
				counts[r.tag]++
			}
		}
	}
	type scored struct {
		tag string
		n   int
	}
	ranked := make([]scored, 0, len(counts))
	for tag, n := range counts {
		ranked = append(ranked, scored{tag, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].tag < ranked[j].tag
	})
	for _, s := range ranked {
		list = append(list, s.tag)
	}

	seen := make(map[string]bool, maxTags)
	norm := make([]string, 0, maxTags)
	for _, t := range list {
		t = strings.Trim(tagCleanRe.ReplaceAllString(strings.ToLower(t), ""), "-")
		if t != "" && !seen[t] {
			seen[t] = true
			norm = append(norm, t)
		}
		if len(norm) >= maxTags {
			break
		}
	}
	return strings.Join(norm, ", ")
}
