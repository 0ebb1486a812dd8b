// Package profiler parses tabular files, infers column types, computes
// per-column statistics, detects duplicate rows, and emits a cleaned copy of
// the data alongside a structured report.
package profiler

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidInput marks malformed delimited text or spreadsheet input.
var ErrInvalidInput = errors.New("invalid tabular input")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Table is a parsed tabular file: normalized headers in original order, and
// rows keyed by normalized header.
//
// Duplicate normalized headers are kept in Headers as-is; during row
// construction later columns overwrite earlier ones. Preserved observed
// behavior, see DESIGN.md.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

var reHeaderWhitespace = regexp.MustCompile(`\s+`)
var reHeaderStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// NormalizeHeader trims a raw header, collapses whitespace runs to a single
// underscore, and strips everything outside [A-Za-z0-9_]. An empty result
// becomes column_<1-based index>. Idempotent.
func NormalizeHeader(raw string, index int) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = reHeaderWhitespace.ReplaceAllString(cleaned, "_")
	cleaned = reHeaderStrip.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return fmt.Sprintf("column_%d", index+1)
	}
	return cleaned
}

// Parse detects the input format from the filename extension or declared
// content type and parses accordingly. Spreadsheets read the first sheet with
// row 1 as headers; everything else is treated as delimited text.
func Parse(filename, contentType string, data []byte) (*Table, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || contentType == xlsxContentType {
		return parseXLSX(data)
	}
	return parseCSV(data)
}

func parseCSV(data []byte) (*Table, error) {
	text := strings.TrimPrefix(string(data), "\uFEFF")

	r := newCSVReader(strings.NewReader(text))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: header row is empty", ErrInvalidInput)
	}

	headers := make([]string, len(records[0]))
	for i, raw := range records[0] {
		headers[i] = NormalizeHeader(raw, i)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

func parseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no worksheet found", ErrInvalidInput)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: header row is empty", ErrInvalidInput)
	}

	headers := make([]string, len(records[0]))
	for i, raw := range records[0] {
		headers[i] = NormalizeHeader(raw, i)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		hasValue := false
		for i, header := range headers {
			value := ""
			if i < len(record) {
				value = record[i]
			}
			if strings.TrimSpace(value) != "" {
				hasValue = true
			}
			row[header] = value
		}
		// Spreadsheet tails often carry formatting-only rows; drop them.
		if hasValue {
			rows = append(rows, row)
		}
	}

	return &Table{Headers: headers, Rows: rows}, nil
}
