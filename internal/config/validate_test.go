package config

import (
	"strings"
	"testing"
)

// helper: find an issue at a path, "" when absent.
func issueAt(issues []Issue, path string) *Issue {
	for i := range issues {
		if issues[i].Path == path {
			return &issues[i]
		}
	}
	return nil
}

func validPipeline() Pipeline {
	return Pipeline{
		Job:    "test",
		Source: Source{Kind: "file", File: SourceFile{Path: "in.csv"}},
		Parser: Parser{Kind: "csv", Options: Options{}},
		Transform: []Transform{
			{Kind: "reconcile", Options: Options{}},
			{Kind: "fields", Options: Options{}},
		},
		Storage: Storage{Kind: "workbook", Workbook: StorageWorkbook{Path: "out.xlsx"}},
	}
}

func TestValidatePipeline_CleanConfig(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
}

func TestValidatePipeline_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Pipeline)
		path   string
	}{
		{
			name:   "empty source kind",
			mutate: func(p *Pipeline) { p.Source.Kind = "" },
			path:   "source.kind",
		},
		{
			name:   "file source without path",
			mutate: func(p *Pipeline) { p.Source.File.Path = "" },
			path:   "source.file.path",
		},
		{
			name: "http source without url",
			mutate: func(p *Pipeline) {
				p.Source = Source{Kind: "http"}
			},
			path: "source.http.url",
		},
		{
			name:   "unknown parser kind",
			mutate: func(p *Pipeline) { p.Parser.Kind = "xml" },
			path:   "parser.kind",
		},
		{
			name: "empty parser kind and opaque source path",
			mutate: func(p *Pipeline) {
				p.Parser.Kind = ""
				p.Source.File.Path = "export.dat"
			},
			path: "parser.kind",
		},
		{
			name: "unknown transform kind",
			mutate: func(p *Pipeline) {
				p.Transform = append(p.Transform, Transform{Kind: "coerce"})
			},
			path: "transform[2].kind",
		},
		{
			name: "negative batch size",
			mutate: func(p *Pipeline) {
				p.Transform = append(p.Transform, Transform{Kind: "batches", Options: Options{"size": float64(-1)}})
			},
			path: "transform[2].options.size",
		},
		{
			name:   "workbook sink without path",
			mutate: func(p *Pipeline) { p.Storage.Workbook.Path = "" },
			path:   "storage.workbook.path",
		},
		{
			name: "sqlite sink without dsn",
			mutate: func(p *Pipeline) {
				p.Storage = Storage{Kind: "sqlite"}
			},
			path: "storage.db.dsn",
		},
		{
			name: "datadog backend without addr",
			mutate: func(p *Pipeline) {
				p.Metrics = Metrics{Backend: "datadog"}
			},
			path: "metrics.statsd_addr",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)

			iss := issueAt(issues, tc.path)
			if iss == nil {
				t.Fatalf("no issue at %q; issues = %v", tc.path, issues)
			}
			if iss.Severity != SeverityError {
				t.Fatalf("severity at %q = %s, want error", tc.path, iss.Severity)
			}
			if !HasError(issues) {
				t.Fatalf("HasError = false, want true")
			}
		})
	}
}

func TestValidatePipeline_Warnings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Pipeline)
		path   string
	}{
		{
			name:   "empty job",
			mutate: func(p *Pipeline) { p.Job = "" },
			path:   "job",
		},
		{
			name:   "unknown source kind",
			mutate: func(p *Pipeline) { p.Source.Kind = "s3" },
			path:   "source.kind",
		},
		{
			name: "chain without reconcile",
			mutate: func(p *Pipeline) {
				p.Transform = []Transform{{Kind: "fields"}}
			},
			path: "transform",
		},
		{
			name: "pushgateway without url",
			mutate: func(p *Pipeline) {
				p.Metrics = Metrics{Backend: "pushgateway"}
			},
			path: "metrics.pushgateway_url",
		},
		{
			name: "unknown metrics backend",
			mutate: func(p *Pipeline) {
				p.Metrics = Metrics{Backend: "graphite"}
			},
			path: "metrics.backend",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)

			iss := issueAt(issues, tc.path)
			if iss == nil {
				t.Fatalf("no issue at %q; issues = %v", tc.path, issues)
			}
			if iss.Severity != SeverityWarning {
				t.Fatalf("severity at %q = %s, want warning", tc.path, iss.Severity)
			}
			if HasError(issues) {
				t.Fatalf("HasError = true for warning-only config: %v", issues)
			}
		})
	}
}

func TestIssue_ErrorString(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "storage.kind", Message: "must not be empty"}
	got := iss.Error()
	if !strings.Contains(got, "storage.kind") || !strings.Contains(got, "error") {
		t.Fatalf("Error() = %q, want path and severity present", got)
	}
}
