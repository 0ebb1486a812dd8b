package profiler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// WriteCSV serializes cleaned rows back to CSV, header row first, cells in
// header order. Quoting follows encoding/csv defaults.
func WriteCSV(headers []string, rows []map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, fmt.Errorf("writing header row: %w", err)
	}

	record := make([]string, len(headers))
	for _, row := range rows {
		for i, header := range headers {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing data row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv output: %w", err)
	}
	return buf.Bytes(), nil
}
