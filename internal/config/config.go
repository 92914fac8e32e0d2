// Package config defines the canonical, JSON-serializable configuration model
// for a question-bank run. It is intentionally small, explicit, and dependency-
// free so that pipelines can be loaded from disk (or synthesized from CLI
// flags) and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":      "az104-import",
//	  "source":   { "kind": "file", "file": { "path": "exports/az104.xlsx" } },
//	  "parser":   { "kind": "xlsx", "options": { "has_header": true } },
//	  "transform":[
//	    { "kind": "reconcile" },
//	    { "kind": "droptypes" },
//	    { "kind": "fields" },
//	    { "kind": "batches", "options": { "size": 45 } }
//	  ],
//	  "lookup":   { "path": "exports/az104_images.json" },
//	  "template": { "path": "templates/import.xlsx" },
//	  "storage":  { "kind": "workbook", "workbook": { "path": "out/az104.xlsx" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Pipeline describes one full run in JSON. It is the top-level object decoded
// from a pipeline file.
type Pipeline struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source describes where the question export comes from.
	Source Source `json:"source"`

	// Parser configures how raw bytes become records (csv, json, xlsx).
	// An empty kind means "infer from the source path extension".
	Parser Parser `json:"parser"`

	// Transform lists the ordered transformations applied to parsed records.
	// An empty list runs the standard stage chain.
	Transform []Transform `json:"transform"`

	// Lookup points at the optional question-text -> image-URL JSON file.
	Lookup Lookup `json:"lookup"`

	// Template points at the destination workbook whose sheet headers fix
	// the output column order. Empty means the built-in schema.
	Template Template `json:"template"`

	// Storage describes where the five assembled tables are written.
	Storage Storage `json:"storage"`

	// Metrics selects an optional metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file", "http" or "list".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind, and names the list
	// file for the "list" kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input export.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is the export's http(s) location.
	URL string `json:"url"`
}

// Path returns whichever location the source names, for extension-based
// parser inference.
func (s Source) Path() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// Parser selects how to parse the raw source into logical rows/columns.
type Parser struct {
	// Kind selects the parser implementation: "csv", "json" or "xlsx".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool),
	//   expected_fields (int), header_map (object), scrub_nbsp (bool)
	Options Options `json:"options"`
}

// Transform defines a single transformation step. The sequence of steps forms
// the transformation chain executed by the pipeline.
type Transform struct {
	// Kind selects the transform implementation (e.g., "reconcile",
	// "droptypes", "fields", "batches", "dedupe", "validate").
	// Implementations define their own options.
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected transform.
	Options Options `json:"options"`
}

// Lookup configures the image-URL map input.
type Lookup struct {
	// Path is the JSON lookup file. Empty or missing means no image URLs;
	// the run continues with the has_image sentinel only.
	Path string `json:"path"`
}

// Template configures the destination-schema input.
type Template struct {
	// Path is the template workbook. Empty means the built-in column order.
	Path string `json:"path"`
}

// Storage selects the sink that persists the five assembled tables.
type Storage struct {
	// Kind selects the sink implementation: "workbook", "sqlite" or
	// "postgres".
	Kind string `json:"kind"`

	// Workbook carries options for the "workbook" sink kind.
	Workbook StorageWorkbook `json:"workbook"`

	// DB carries options for the database sink kinds.
	DB DBConfig `json:"db"`
}

// StorageWorkbook configures the multi-sheet xlsx sink.
type StorageWorkbook struct {
	// Path is where the output workbook is written.
	Path string `json:"path"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the connection string (pgx URL for postgres, file path or
	// file: URI for sqlite).
	DSN string `json:"dsn"`

	// TablePrefix is prepended to the five table names, e.g. "qbank_".
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable creates the five destination tables from the template
	// schema before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	// BatchSize caps rows per INSERT/COPY batch. <= 0 means the sink default.
	BatchSize int `json:"batch_size"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is "pushgateway", "datadog", "none" or empty (none).
	Backend string `json:"backend"`

	// PushgatewayURL is the Prometheus Pushgateway base URL.
	PushgatewayURL string `json:"pushgateway_url"`

	// StatsdAddr is the DogStatsD address, e.g. "127.0.0.1:8125".
	StatsdAddr string `json:"statsd_addr"`
}

// Decode reads a Pipeline from r. Unknown fields are rejected so a typo in a
// pipeline file fails loudly instead of silently configuring nothing.
func Decode(r io.Reader) (Pipeline, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var p Pipeline
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline: %w", err)
	}
	return p, nil
}

// Load reads the pipeline file at path.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open pipeline config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for parser/transform-specific configuration where the shape
// varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller (e.g., an inline validation contract).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
