// Batched table loader. Database sinks hand each assembled table to
// LoadTable together with their bulk-insert primitive (Postgres COPY, SQLite
// transactional INSERT); the loader slices the table into batches, invokes
// the primitive per batch, and logs running totals with instantaneous
// rows/sec on every successful flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the given rows (aligned to the columns order) into table and return the
// number of rows inserted. They must cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

// LoadTable writes all rows of one table through copyFn in batches of
// batchSize (<= 0 uses DefaultBatchSize). It returns the total number of rows
// reported inserted and the first error encountered.
func LoadTable(
	ctx context.Context,
	table string,
	columns []string,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var (
		total       int64
		batches     int64
		start       = time.Now()
		lastFlushTS = start
	)

	for off := 0; off < len(rows); off += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := off + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		n, err := copyFn(ctx, table, columns, rows[off:end])
		total += n
		if err != nil {
			log.Printf("loader: %s: copy failed after=%d total=%d err=%v", table, n, total, err)
			return total, err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Printf(
			"%s batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			table, batches, rps, n, total,
			now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
	}
	return total, nil
}
