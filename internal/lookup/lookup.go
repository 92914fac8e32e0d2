// Package lookup loads the image-URL map produced by the mining step: a
// JSON object whose keys are verbatim question text and whose values are
// image URLs. The assembler consults it before falling back to the
// has_image sentinel.
package lookup

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
)

// Map associates verbatim question text with an image URL.
type Map map[string]string

// Decode reads a JSON object of question text -> URL pairs.
func Decode(r io.Reader) (Map, error) {
	var m Map
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("lookup: decode: %w", err)
	}
	if m == nil {
		m = Map{}
	}
	return m, nil
}

// Load reads the lookup file at path. Image URLs are optional input: an
// empty path, a missing file or a malformed document all yield an empty
// map (with a logged warning for the latter two) so the run continues
// with no resolved images.
func Load(path string) Map {
	if path == "" {
		return Map{}
	}
	f, err := os.Open(path)
	if err != nil {
		log.Printf("lookup: %v (continuing with no image URLs)", err)
		return Map{}
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		log.Printf("lookup: %v (continuing with no image URLs)", err)
		return Map{}
	}
	log.Printf("lookup: loaded %d image URLs from %s", len(m), path)
	return m
}
