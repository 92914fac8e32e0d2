package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// SampleRows reads the header and up to max data rows from r without
// buffering the rest of the stream. It exists for inspection surfaces
// (the probe and its web UI) that want to show real cell values next to
// the proposed column mapping before a full run.
//
// Malformed rows are skipped, mirroring Parse. When the input has no
// header row, headers come back as col_0..col_N based on the first row.
func SampleRows(ctx context.Context, r io.Reader, opt Options, max int) (headers []string, rows [][]string, err error) {
	if opt.ScrubNBSP {
		r = newStreamingRewriter(r, nbsp, []byte(" "))
	}

	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	if opt.HasHeader {
		h, herr := cr.Read()
		if herr != nil {
			return nil, nil, fmt.Errorf("read csv header: %w", herr)
		}
		headers = cleanHeaders(h, opt)
	}

	for len(rows) < max {
		select {
		case <-ctx.Done():
			return headers, rows, ctx.Err()
		default:
		}

		rec, rerr := cr.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			continue
		}

		if headers == nil {
			headers = make([]string, len(rec))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}

		row := make([]string, len(rec))
		for i, v := range rec {
			if opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
