package tags

import (
	"strings"
	"testing"
)

func TestFromCollection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Microsoft Azure", "microsoft azure"},
		{"Azure Data", "azure data"},
		{"", ""},
		{"M365 & Security!", "m365 security"},
	}
	for _, tc := range tests {
		got := strings.Join(fromCollection(tc.in), " ")
		if got != tc.want {
			t.Fatalf("fromCollection(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestFromQuizTitle(t *testing.T) {
	got := fromQuizTitle("AZ-104 Administrator Batch 1")
	want := []string{"az-104", "administrator"}
	if len(got) != len(want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got=%v want=%v", got, want)
		}
	}
}

func TestFromQuizTitleAzureToken(t *testing.T) {
	got := fromQuizTitle("Azure Fundamentals")
	// fundamentals is a role hint and precedes the azure token source.
	want := []string{"fundamentals", "azure"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got=%v want=%v", got, want)
	}
}

func TestInferRanksKeywordsByFrequency(t *testing.T) {
	rows := []string{
		"Store secrets in Key Vault",
		"Rotate Key Vault certificates",
		"Assign an RBAC role",
	}
	got := Infer("", "", rows, 0)
	// key-vault counted twice, rbac once.
	want := "key-vault, rbac"
	if got != want {
		t.Fatalf("Infer=%q want %q", got, want)
	}
}

func TestInferTieBreaksAlphabetically(t *testing.T) {
	rows := []string{"Configure a vnet and enable backup"}
	got := Infer("", "", rows, 0)
	if got != "backup, networking" {
		t.Fatalf("Infer=%q", got)
	}
}

func TestInferPriorityOrder(t *testing.T) {
	rows := []string{"Use a conditional access policy"}
	got := Infer("Microsoft Azure", "AZ-104 Administrator", rows, 0)
	parts := strings.Split(got, ", ")
	// Collection tokens first, then title hints, then ranked keywords.
	wantPrefix := []string{"microsoft", "azure", "az-104", "administrator"}
	for i, w := range wantPrefix {
		if parts[i] != w {
			t.Fatalf("parts=%v want prefix %v", parts, wantPrefix)
		}
	}
	rest := strings.Join(parts[len(wantPrefix):], ",")
	if !strings.Contains(rest, "conditional-access") || !strings.Contains(rest, "policy") {
		t.Fatalf("keyword tags missing: %v", parts)
	}
}

func TestInferCapsAndDedups(t *testing.T) {
	rows := []string{
		"azure ad conditional access mfa rbac key vault managed identity policy blueprint blob",
	}
	got := Infer("Microsoft Azure", "Azure Administrator", rows, 8)
	parts := strings.Split(got, ", ")
	if len(parts) > 8 {
		t.Fatalf("cap exceeded: %d tags: %v", len(parts), parts)
	}
	seen := map[string]bool{}
	for _, p := range parts {
		if seen[p] {
			t.Fatalf("duplicate tag %q in %v", p, parts)
		}
		seen[p] = true
	}
	// "azure" appears in both the collection and the title; it must survive
	// only once.
	n := 0
	for _, p := range parts {
		if p == "azure" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("azure count=%d parts=%v", n, parts)
	}
}

func TestInferNormalizesTags(t *testing.T) {
	got := Infer("C# & .NET!", "", nil, 0)
	// "C#" tokenizes to "c"; "NET!" cleans to "net".
	if got != "c, net" {
		t.Fatalf("Infer=%q", got)
	}
}

func TestInferEmptyInputs(t *testing.T) {
	if got := Infer("", "", nil, 0); got != "" {
		t.Fatalf("Infer on empty inputs=%q", got)
	}
}

func TestInferDeterministic(t *testing.T) {
	rows := []string{"vnet subnet nsg", "backup vault", "azure ad"}
	a := Infer("Microsoft Azure", "AZ-104", rows, 0)
	b := Infer("Microsoft Azure", "AZ-104", rows, 0)
	if a != b {
		t.Fatalf("nondeterministic: %q vs %q", a, b)
	}
}

func BenchmarkInfer(b *testing.B) {
	b.ReportAllocs()
	rows := make([]string, 40)
	for i := range rows {
		rows[i] = "Configure the virtual network peering and review Key Vault access policies for the storage account"
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Infer("Microsoft Azure", "AZ-104 Administrator Batch 3", rows, 8)
	}
}
