// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "transform[1].options.size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasError reports whether any issue in the slice is of error severity.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and log lines will carry a generic name",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser, p.Source)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "list":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "list source requires a non-empty path to the list file",
			})
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if u == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires a non-empty url",
			})
		} else if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("url %q does not look like http(s)", u),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	return issues
}

// validateParser validates parser configuration. An empty kind is fine when
// the source path carries a recognizable extension.
func validateParser(p Parser, s Source) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"csv":  {},
		"json": {},
		"xlsx": {},
	}

	kind := strings.TrimSpace(p.Kind)
	if kind == "" {
		// A list source defers inference to each listed entry.
		if s.Kind == "list" {
			return issues
		}
		path := s.Path()
		if path != "" && !hasKnownExtension(path) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.kind",
				Message:  fmt.Sprintf("parser.kind is empty and source path %q has no recognizable extension (.csv, .json, .xlsx)", path),
			})
		}
		return issues
	}
	if _, ok := known[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q (want csv, json or xlsx)", kind),
		})
	}

	return issues
}

func hasKnownExtension(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	p := strings.ToLower(path)
	for _, ext := range []string{".csv", ".json", ".xlsx", ".xlsm"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// validateTransforms validates the transform chain.
func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"reconcile": {},
		"droptypes": {},
		"fields":    {},
		"batches":   {},
		"normalize": {},
		"striphtml": {},
		"dedupe":    {},
		"require":   {},
		"validate":  {},
	}

	seenStage := map[string]int{}
	for i, t := range ts {
		path := fmt.Sprintf("transform[%d]", i)
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  "transform.kind must not be empty",
			})
			continue
		}
		if _, ok := known[t.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".kind",
				Message:  fmt.Sprintf("unknown transform kind %q", t.Kind),
			})
			continue
		}
		seenStage[t.Kind]++

		if t.Kind == "batches" {
			if size := t.Options.Int("size", 0); size < 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     path + ".options.size",
					Message:  fmt.Sprintf("batch size must not be negative, got %d", size),
				})
			}
		}
	}

	// An explicit chain that skips reconcile almost always means the input
	// columns never reach the canonical schema.
	if len(ts) > 0 && seenStage["reconcile"] == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "transform",
			Message:  "explicit transform chain has no \"reconcile\" stage; downstream stages expect canonical columns",
		})
	}

	return issues
}

// validateStorage validates the sink configuration.
func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	switch s.Kind {
	case "workbook":
		if strings.TrimSpace(s.Workbook.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.workbook.path",
				Message:  "workbook sink requires a non-empty output path",
			})
		}
	case "sqlite", "postgres":
		if strings.TrimSpace(s.DB.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.dsn",
				Message:  fmt.Sprintf("%s sink requires a non-empty dsn", s.Kind),
			})
		}
		if s.DB.BatchSize < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.batch_size",
				Message:  fmt.Sprintf("batch_size must not be negative, got %d", s.DB.BatchSize),
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching sink is registered", s.Kind),
		})
	}

	return issues
}

// validateMetrics validates the metrics backend selection.
func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend without a url falls back to http://localhost:9091",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires statsd_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}

	return issues
}
