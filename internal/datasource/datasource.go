// Package datasource defines where pipeline inputs come from. A Source
// yields a byte stream; the parser layer decides what the bytes mean.
// Implementations live in the file and httpds subpackages.
package datasource

import (
	"context"
	"io"
)

// Source is anything that can open a byte stream for the pipeline's load
// phase: a local export file, an HTTP URL, or a test fixture.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
