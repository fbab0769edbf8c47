// Package fetcher downloads and parses data from HTTP, CSV, JSON, and ZIP sources.
package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV reader.
type CSVOptions struct {
	Delimiter  rune // field delimiter, ',' when zero
	Comment    rune // lines starting with this rune are skipped (0 = none)
	LazyQuotes bool // tolerate bare quotes inside fields
	TrimSpace  bool // strip surrounding whitespace from every field
}

// StreamCSV reads records into a channel so a multi-gigabyte microdata
// extract never has to fit in memory. The first record is the header row
// when the source has one; interpreting it is the caller's job. Reading
// stops at the first malformed record or when ctx is cancelled. Both
// channels are closed when the stream ends; the error channel carries at
// most one error.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rows := make(chan []string, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(rows)
		defer close(errc)

		cr := csv.NewReader(r)
		if opts.Delimiter != 0 {
			cr.Comma = opts.Delimiter
		}
		cr.Comment = opts.Comment
		cr.LazyQuotes = opts.LazyQuotes
		cr.FieldsPerRecord = -1

		for {
			record, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- eris.Wrap(err, "csv: read record")
				return
			}
			if opts.TrimSpace {
				for i := range record {
					record[i] = strings.TrimSpace(record[i])
				}
			}

			select {
			case rows <- record:
			case <-ctx.Done():
				errc <- eris.Wrap(ctx.Err(), "csv: stream cancelled")
				return
			}
		}
	}()

	return rows, errc
}
