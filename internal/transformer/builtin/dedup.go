package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"qbank/pkg/records"
)

// DeDup collapses duplicate rows by a configured key and keeps one winner
// per key. Exports stitched together from several dumps routinely carry the
// same question twice; collapsing before assembly keeps option and question
// ordinals stable.
//
// Policies:
//
//	"keep-first"   : keep the earliest occurrence in the table (default)
//	"keep-last"    : keep the latest occurrence
//	"most-complete": keep the row with the most non-empty fields;
//	                 ties break by keep-last
//
// A row's key is the xxh3 hash of its key fields joined in order (nil maps
// to a reserved byte), so long question texts do not blow up the winner
// map. Rows missing one of the key fields entirely are outside the de-dup
// domain and pass through after the winners.
type DeDup struct {
	// Keys are the field names that form the identity, e.g. ["Question"].
	Keys []string

	// Policy selects the winner among duplicates; empty means "keep-first".
	Policy string

	// PreferFields weigh extra in "most-complete" selection: a non-empty
	// value in one of these adds a bonus on top of the field count.
	PreferFields []string
}

// Apply returns a new slice containing the winning record for each key in
// ascending input position, then any non-keyed pass-through records.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		rec   records.Record
		index int // original position in input
		score int // completeness score, most-complete only
	}

	winners := make(map[uint64]slot, len(in))

	prefer := make(map[string]struct{}, len(d.PreferFields))
	for _, f := range d.PreferFields {
		prefer[f] = struct{}{}
	}

	keyOf := func(r records.Record) (uint64, bool) {
		var b strings.Builder
		for _, k := range d.Keys {
			v, ok := r[k]
			if !ok {
				// Missing key field: outside the de-dup domain.
				return 0, false
			}
			if b.Len() > 0 {
				b.WriteByte('\x1f')
			}
			switch t := v.(type) {
			case nil:
				b.WriteByte('\x00')
			case string:
				b.WriteString(t)
			default:
				b.WriteString(fmt.Sprint(t))
			}
		}
		return xxh3.HashString(b.String()), true
	}

	scoreOf := func(r records.Record) int {
		// Non-empty values count; nil and "" don't.
		score := 0
		bonus := 0
		for k, v := range r {
			if v == nil || v == "" {
				continue
			}
			score++
			if _, ok := prefer[k]; ok {
				bonus++
			}
		}
		return score*10 + bonus
	}

	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		switch policy {
		case "keep-last":
			winners[key] = slot{rec: r, index: i}
		case "most-complete":
			s := slot{rec: r, index: i, score: scoreOf(r)}
			prev, exists := winners[key]
			if !exists || s.score > prev.score || (s.score == prev.score && s.index > prev.index) {
				winners[key] = s
			}
		default: // keep-first
			if _, exists := winners[key]; !exists {
				winners[key] = slot{rec: r, index: i}
			}
		}
	}

	// Winners come out in ascending input position; for keep-first that is
	// exactly the original relative order.
	indexes := make([]int, 0, len(winners))
	byIndex := make(map[int]records.Record, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		byIndex[s.index] = s.rec
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(winners))
	for _, idx := range indexes {
		out = append(out, byIndex[idx])
	}
	for _, r := range in {
		if _, ok := keyOf(r); !ok {
			out = append(out, r)
		}
	}
	return out
}
