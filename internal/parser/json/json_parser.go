// Package json parses JSON question exports into records.Record maps.
//
// Three shapes cover the exports seen in practice:
//
//   - NDJSON / concatenated objects:
//     {"Question":"...","Options":"..."}
//     {"Question":"...","Options":"..."}
//   - a top-level array of objects, the usual whole-file export shape:
//     [ {...}, {...} ]
//   - an envelope object holding the rows under a named key
//     (envelope_key="questions"):
//     {"exported":"2024-01-02","questions":[ {...}, {...} ]}
//
// Non-object values mixed into a stream or array are counted as skipped,
// matching the soft-row posture of the CSV parser. Array roots are accepted
// by default; allow_arrays=false opts out for strict NDJSON feeds. A refused
// array root, or a missing envelope key, fails hard.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"qbank/internal/config"
	"qbank/pkg/records"
)

// Options holds the JSON parser knobs.
type Options struct {
	// AllowArrays accepts a top-level JSON array of objects. Config-built
	// parsers enable it unless allow_arrays is explicitly false, since a
	// whole-file array is how exports usually serialize.
	AllowArrays bool

	// EnvelopeKey, when non-empty, treats every top-level object as an
	// envelope and reads records from the array stored under this key.
	EnvelopeKey string
}

// FromConfigOptions constructs JSON Options from a generic config.Options
// map (the same one used by the csv/xlsx parsers).
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
		EnvelopeKey: o.String("envelope_key", ""),
	}
}

// Parser parses JSON input according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

const logLimit = 400

// Parse reads every top-level JSON value from r and returns the records
// plus the number of non-object values skipped along the way.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	dec := json.NewDecoder(r)
	// UseNumber so downstream stages decide how numerics are rendered.
	dec.UseNumber()

	var out []records.Record
	var skipped int

	for {
		var root any
		if err := dec.Decode(&root); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("json parser: decode: %w", err)
		}

		switch v := root.(type) {
		case map[string]any:
			if p.opt.EnvelopeKey != "" {
				arr, err := envelopeRows(v, p.opt.EnvelopeKey)
				if err != nil {
					return nil, 0, err
				}
				out, skipped = appendObjects(out, arr, skipped)
				continue
			}
			out = append(out, records.Record(v))

		case []any:
			if !p.opt.AllowArrays {
				return nil, 0, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
			}
			out, skipped = appendObjects(out, v, skipped)

		default:
			if skipped < logLimit {
				log.Printf("skipping non-object JSON value at offset %d (%T)", dec.InputOffset(), v)
			}
			skipped++
		}
	}

	return out, skipped, nil
}

// envelopeRows extracts the record array from an envelope object.
func envelopeRows(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("json parser: envelope key %q not found", key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("json parser: envelope key %q holds %T, want array", key, v)
	}
	return arr, nil
}

// appendObjects appends the object elements of arr to out, counting
// everything else as skipped.
func appendObjects(out []records.Record, arr []any, skipped int) ([]records.Record, int) {
	for i, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			if skipped < logLimit {
				log.Printf("skipping array element %d: not an object (%T)", i, elem)
			}
			skipped++
			continue
		}
		out = append(out, records.Record(obj))
	}
	return out, skipped
}

// Decoder provides a record-at-a-time view over a JSON stream. Inspection
// surfaces use it to peek at the first record without reading the rest.
type Decoder struct {
	dec     *json.Decoder
	opt     Options
	pending []any
}

// NewDecoder constructs a Decoder from an io.Reader and JSON Options.
func NewDecoder(r io.Reader, opt Options) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d, opt: opt}
}

// Next returns the next JSON object in the stream as a records.Record,
// silently passing over non-object values. Array and envelope roots are
// flattened, one element per call. io.EOF signals the end of the stream.
func (d *Decoder) Next() (records.Record, error) {
	for {
		if rec := d.popPending(); rec != nil {
			return rec, nil
		}

		var raw any
		if err := d.dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("json parser: decode: %w", err)
		}

		switch m := raw.(type) {
		case map[string]any:
			if d.opt.EnvelopeKey != "" {
				arr, err := envelopeRows(m, d.opt.EnvelopeKey)
				if err != nil {
					return nil, err
				}
				d.pending = arr
				continue
			}
			return records.Record(m), nil
		case []any:
			d.pending = m
		default:
			continue
		}
	}
}

// popPending shifts the next object off the flattened-array queue. Non-object
// elements are dropped.
func (d *Decoder) popPending() records.Record {
	for len(d.pending) > 0 {
		elem := d.pending[0]
		d.pending = d.pending[1:]
		if obj, ok := elem.(map[string]any); ok {
			return records.Record(obj)
		}
	}
	return nil
}
