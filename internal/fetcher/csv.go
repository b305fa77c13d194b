// Package fetcher parses the delimited-text and XLSX tables the RTA
// publishes driving-test outcome data in.
package fetcher

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// TableOptions configures the delimited-text parser.
type TableOptions struct {
	Delimiter  rune // default '|', the delimiter of the published datasets
	LazyQuotes bool
	TrimSpace  bool
}

// ReadDelimited reads a delimited table and returns the header row and the
// data rows. Rows may have a variable number of fields; short rows are
// padded up to the header by Row.Get.
func ReadDelimited(r io.Reader, opts TableOptions) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = '|'
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	var header []string
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "fetcher: read row")
		}

		if opts.TrimSpace {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}

		if header == nil {
			header = record
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, nil, eris.New("fetcher: empty table")
	}
	return header, rows, nil
}

// ColumnIndex maps header names to their positions. Lookups are exact after
// trimming surrounding whitespace.
func ColumnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

// Field returns the named column of a row, or "" when the row is short or
// the column is unknown.
func Field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
