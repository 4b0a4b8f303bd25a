package fetcher

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// utf8BOM prefixes some spreadsheet-exported CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads r and sends each record, header included, on the row channel.
// Errors are sent on the error channel. Both channels are closed when
// processing completes. A leading UTF-8 byte order mark is dropped.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(skipBOM(r))
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // field count is checked by the decoder

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func skipBOM(r io.Reader) io.Reader {
	head := make([]byte, len(utf8BOM))
	n, err := io.ReadFull(r, head)
	head = head[:n]
	if err == nil && bytes.Equal(head, utf8BOM) {
		return r
	}
	return io.MultiReader(bytes.NewReader(head), r)
}

// RowReader adapts the channels returned by StreamCSV to a pull-style reader
// whose Read returns io.EOF after the last row. It satisfies csvutil.Reader.
type RowReader struct {
	rows <-chan []string
	errs <-chan error
	err  error
}

// NewRowReader wraps the channels returned by StreamCSV.
func NewRowReader(rows <-chan []string, errs <-chan error) *RowReader {
	return &RowReader{rows: rows, errs: errs}
}

// Read returns the next row.
func (r *RowReader) Read() ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	row, ok := <-r.rows
	if ok {
		return row, nil
	}
	if err := <-r.errs; err != nil {
		r.err = err
		return nil, err
	}
	r.err = io.EOF
	return nil, io.EOF
}

// Err returns the stream failure that ended reading, if any. It is nil after
// a clean end of input.
func (r *RowReader) Err() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Drain discards any unread rows so the streaming goroutine can exit.
func (r *RowReader) Drain() {
	for range r.rows { //nolint:revive // drain
	}
}
