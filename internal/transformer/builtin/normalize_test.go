package builtin

import (
	"reflect"
	"testing"

	"qbank/pkg/records"
)

const nbspace = " "

/*
TestNormalizeApply_TableDriven verifies the opt-in whitespace cleanup:

  - U+00A0 NO-BREAK SPACE becomes an ASCII space,
  - leading/trailing ASCII whitespace is trimmed when present,
  - non-string values are unchanged,
  - changes land in place (record maps mutated, slice reused).
*/
func TestNormalizeApply_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		in   []records.Record
		want []records.Record
	}{
		{
			name: "no_strings_no_change",
			in: []records.Record{
				{"a": 1, "b": true, "c": nil},
			},
			want: []records.Record{
				{"a": 1, "b": true, "c": nil},
			},
		},
		{
			name: "simple_trim",
			in: []records.Record{
				{"Question": " What is a VNet? ", "Hints": "\tpeering\n"},
			},
			want: []records.Record{
				{"Question": "What is a VNet?", "Hints": "peering"},
			},
		},
		{
			name: "nbsp_replaced_and_trimmed",
			in: []records.Record{
				{"Question": " " + nbspace + "What is Azure AD?" + nbspace + " "},
			},
			want: []records.Record{
				{"Question": "What is Azure AD?"},
			},
		},
		{
			name: "nbsp_internal_only_not_trimmed",
			in: []records.Record{
				{"Options": "A) Yes" + nbspace + "B) No"},
			},
			want: []records.Record{
				{"Options": "A) Yes B) No"},
			},
		},
		{
			name: "multiple_records_independent",
			in: []records.Record{
				{"Question": " q1 ", "Explanation": "fine"},
				{"Question": "q2", "Explanation": nbspace + "docs" + nbspace},
			},
			want: []records.Record{
				{"Question": "q1", "Explanation": "fine"},
				{"Question": "q2", "Explanation": "docs"},
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			origMapPtrs := make([]uintptr, len(tc.in))
			for i := range tc.in {
				origMapPtrs[i] = reflect.ValueOf(tc.in[i]).Pointer()
			}

			out := Normalize{}.Apply(tc.in)

			if !reflect.DeepEqual(out, tc.want) {
				t.Fatalf("Normalize.Apply() mismatch:\n got: %#v\nwant: %#v", out, tc.want)
			}
			for i := range out {
				if reflect.ValueOf(out[i]).Pointer() != origMapPtrs[i] {
					t.Fatalf("record map identity changed at index %d; want in-place mutation", i)
				}
			}
		})
	}
}

/*
TestNormalizeApply_FieldRestricted verifies that a configured field list
limits the cleanup to those columns and leaves everything else alone.
*/
func TestNormalizeApply_FieldRestricted(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{"Question": " q ", "Explanation": " keep my spaces "},
	}
	out := Normalize{Fields: []string{"Question"}}.Apply(in)

	if got := out[0]["Question"]; got != "q" {
		t.Fatalf("Question: got %#v want %#v", got, "q")
	}
	if got := out[0]["Explanation"]; got != " keep my spaces " {
		t.Fatalf("Explanation: got %#v want untouched value", got)
	}
}

/*
TestHasEdgeSpace verifies that HasEdgeSpace detects leading/trailing ASCII
whitespace and ignores interior-only whitespace.
*/
func TestHasEdgeSpace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "empty", in: "", want: false},
		{name: "no_spaces", in: "foo", want: false},
		{name: "leading_space", in: " foo", want: true},
		{name: "trailing_space", in: "foo ", want: true},
		{name: "both_spaces", in: " foo ", want: true},
		{name: "internal_space_only", in: "f oo", want: false},
		{name: "leading_tab", in: "\tfoo", want: true},
		{name: "trailing_tab", in: "foo\t", want: true},
		{name: "leading_newline", in: "\nfoo", want: true},
		{name: "trailing_newline", in: "foo\n", want: true},
		{name: "leading_carriage_return", in: "\rfoo", want: true},
		{name: "trailing_carriage_return", in: "foo\r", want: true},
		{name: "internal_tab_only", in: "f\too", want: false},
		{name: "single_space", in: " ", want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := HasEdgeSpace(tt.in); got != tt.want {
				t.Fatalf("HasEdgeSpace(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkHasEdgeSpace(b *testing.B) {
	cases := []string{
		"What does RBAC stand for?",
		" leading",
		"trailing ",
		"\tboth\n",
		"interior only text",
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HasEdgeSpace(cases[i%len(cases)])
	}
}

func BenchmarkNormalizeApply(b *testing.B) {
	batch := []records.Record{
		{"Question": " What is a subscription? ", "Options": "A) Billing unit; B) Tenant", "Explanation": "docs" + nbspace + "link"},
		{"Question": nbspace + "q2", "Options": "already clean", "Explanation": "clean"},
		{"Question": "no change", "Options": "none", "Explanation": 123},
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Normalize{}.Apply(batch)
	}
}
