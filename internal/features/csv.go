// Package features reads per-event feature tables and writes per-event model
// outputs as CSV.
package features

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type ReadOptions struct {
	HasHeader bool
	// ColumnNames selects columns by header name; it requires HasHeader.
	ColumnNames []string
	// ColumnIndexes selects columns by position. With neither set every
	// column of the first record is used.
	ColumnIndexes []int
}

// ReadCSV returns an events x features matrix and the selected column names.
func ReadCSV(in io.Reader, opts ReadOptions) (*mat.Dense, []string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	indexes := append([]int(nil), opts.ColumnIndexes...)
	var names []string
	row := 0
	if opts.HasHeader {
		header, err := reader.Read()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("feature csv is empty")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read feature header: %w", err)
		}
		row++
		if len(opts.ColumnNames) > 0 {
			indexes = indexes[:0]
			for _, name := range opts.ColumnNames {
				idx, err := columnIndexByName(header, name)
				if err != nil {
					return nil, nil, err
				}
				indexes = append(indexes, idx)
			}
		} else if len(indexes) == 0 {
			for i := range header {
				indexes = append(indexes, i)
			}
		}
		for _, idx := range indexes {
			if idx < 0 || idx >= len(header) {
				return nil, nil, fmt.Errorf("feature column index %d out of range", idx)
			}
			names = append(names, strings.TrimSpace(header[idx]))
		}
	} else if len(opts.ColumnNames) > 0 {
		return nil, nil, fmt.Errorf("column names require a header row")
	}

	var values []float64
	events := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read feature row %d: %w", row+1, err)
		}
		row++
		if blankRecord(record) {
			continue
		}
		if len(indexes) == 0 {
			for i := range record {
				indexes = append(indexes, i)
				names = append(names, "x"+strconv.Itoa(i))
			}
		}
		for _, idx := range indexes {
			if idx < 0 || idx >= len(record) {
				return nil, nil, fmt.Errorf("feature row %d missing column index %d", row, idx)
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse feature row %d column %d: %w", row, idx, err)
			}
			values = append(values, value)
		}
		events++
	}
	if events == 0 {
		return nil, nil, fmt.Errorf("feature csv has no events")
	}
	return mat.NewDense(events, len(indexes), values), names, nil
}

// WriteCSV writes one row per event with an event index column followed by
// the named output columns.
func WriteCSV(out io.Writer, headers []string, columns ...[]float64) error {
	if len(headers) != len(columns) {
		return fmt.Errorf("got %d headers for %d columns", len(headers), len(columns))
	}
	events := 0
	for i, column := range columns {
		if i == 0 {
			events = len(column)
		} else if len(column) != events {
			return fmt.Errorf("column %s length mismatch: %d != %d", headers[i], len(column), events)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(append([]string{"event"}, headers...)); err != nil {
		return fmt.Errorf("write output header: %w", err)
	}
	for e := 0; e < events; e++ {
		record := make([]string, 0, len(columns)+1)
		record = append(record, strconv.Itoa(e))
		for _, column := range columns {
			record = append(record, strconv.FormatFloat(column[e], 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write output row %d: %w", e+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush output csv: %w", err)
	}
	return nil
}

func columnIndexByName(header []string, name string) (int, error) {
	want := strings.TrimSpace(strings.ToLower(name))
	for i, field := range header {
		if strings.ToLower(strings.TrimSpace(field)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("csv column not found: %s", name)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
