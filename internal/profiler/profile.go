package profiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SchemaVersion tags the report shape for downstream consumers.
const SchemaVersion = "1.0"

// rowKeySeparator joins normalized cell values into a row identity key.
// A control character, so it cannot occur in normal text.
const rowKeySeparator = "\x1f"

// Options controls the cleaning pass.
type Options struct {
	RemoveDuplicateRows bool `json:"removeDuplicateRows"`
}

// TypeBreakdown tallies inferred types among non-missing values of a column.
type TypeBreakdown struct {
	Number  int `json:"number"`
	Boolean int `json:"boolean"`
	Date    int `json:"date"`
	String  int `json:"string"`
}

func (b TypeBreakdown) of(t string) int {
	switch t {
	case TypeNumber:
		return b.Number
	case TypeBoolean:
		return b.Boolean
	case TypeDate:
		return b.Date
	default:
		return b.String
	}
}

// ColumnProfile is the per-column statistical summary embedded in a report.
type ColumnProfile struct {
	Name                string        `json:"name"`
	InferredType        string        `json:"inferredType"`
	TypeBreakdown       TypeBreakdown `json:"typeBreakdown"`
	MissingCount        int           `json:"missingCount"`
	MissingPercent      float64       `json:"missingPercent"`
	UniqueCount         int           `json:"uniqueCount"`
	DuplicateValueCount int           `json:"duplicateValueCount"`
	Min                 any           `json:"min"`
	Max                 any           `json:"max"`
	SampleValues        []string      `json:"sampleValues"`
	Warnings            []string      `json:"warnings"`
}

// Summary is the dataset-level block of a report.
type Summary struct {
	RowCount                   int     `json:"rowCount"`
	CleanedRowCount            int     `json:"cleanedRowCount"`
	ColumnCount                int     `json:"columnCount"`
	DuplicateRowCount          int     `json:"duplicateRowCount"`
	DuplicateRowPercent        float64 `json:"duplicateRowPercent"`
	RemoveDuplicateRowsApplied bool    `json:"removeDuplicateRowsApplied"`
}

// Report is the structured profiling result persisted on the job row.
type Report struct {
	SchemaVersion string          `json:"schemaVersion"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	Summary       Summary         `json:"summary"`
	Columns       []ColumnProfile `json:"columns"`
	Warnings      []string        `json:"warnings"`
}

// Dominant-type tie-break order. String wins all ties, then number, then
// date. Deliberate policy; keep in sync with report consumers.
var dominantOrder = []string{TypeString, TypeNumber, TypeDate, TypeBoolean}

func dominantType(breakdown TypeBreakdown) string {
	best := TypeString
	for _, candidate := range dominantOrder {
		if breakdown.of(candidate) > breakdown.of(best) {
			best = candidate
		}
	}
	return best
}

// rowKey builds the identity key for duplicate detection: normalized cell
// values in header order joined by the separator.
func rowKey(row map[string]string, headers []string) string {
	parts := make([]string, len(headers))
	for i, header := range headers {
		parts[i] = cleanCell(row[header])
	}
	return strings.Join(parts, rowKeySeparator)
}

// Profile computes the report for the given table and returns it together
// with the cleaned rows. Cleaning trims every cell, rewrites date columns to
// YYYY-MM-DD, and optionally drops duplicate rows keeping first occurrences.
func Profile(headers []string, rows []map[string]string, opts Options) (*Report, []map[string]string) {
	totalRows := len(rows)

	duplicateRowCount := 0
	keyCounts := make(map[string]int, totalRows)
	for _, row := range rows {
		keyCounts[rowKey(row, headers)]++
	}
	for _, count := range keyCounts {
		if count > 1 {
			duplicateRowCount += count - 1
		}
	}

	columns := make([]ColumnProfile, 0, len(headers))
	dateColumns := make(map[string]bool)

	for _, header := range headers {
		profile := profileColumn(header, rows, totalRows)
		columns = append(columns, profile)

		nonMissing := totalRows - profile.MissingCount
		if nonMissing > 0 && profile.InferredType == TypeDate &&
			float64(profile.TypeBreakdown.Date)/float64(nonMissing) >= 0.8 {
			dateColumns[header] = true
		}
	}

	cleanedRows := make([]map[string]string, 0, totalRows)
	for _, row := range rows {
		cleaned := make(map[string]string, len(headers))
		for _, header := range headers {
			value := cleanCell(row[header])
			if dateColumns[header] {
				value = normalizeDateSafe(value)
			}
			cleaned[header] = value
		}
		cleanedRows = append(cleanedRows, cleaned)
	}

	if opts.RemoveDuplicateRows {
		seen := make(map[string]bool, len(cleanedRows))
		deduped := cleanedRows[:0]
		for _, row := range cleanedRows {
			key := rowKey(row, headers)
			if seen[key] {
				continue
			}
			seen[key] = true
			deduped = append(deduped, row)
		}
		cleanedRows = deduped
	}

	datasetWarnings := []string{}
	if duplicateRowCount > 0 {
		datasetWarnings = append(datasetWarnings, fmt.Sprintf("%d duplicate row(s) detected.", duplicateRowCount))
	}
	if totalRows == 0 {
		datasetWarnings = append(datasetWarnings, "Input has no data rows.")
	}

	duplicatePercent := 0.0
	if totalRows > 0 {
		duplicatePercent = round2(float64(duplicateRowCount) / float64(totalRows) * 100)
	}

	report := &Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Summary: Summary{
			RowCount:                   totalRows,
			CleanedRowCount:            len(cleanedRows),
			ColumnCount:                len(headers),
			DuplicateRowCount:          duplicateRowCount,
			DuplicateRowPercent:        duplicatePercent,
			RemoveDuplicateRowsApplied: opts.RemoveDuplicateRows,
		},
		Columns:  columns,
		Warnings: datasetWarnings,
	}

	return report, cleanedRows
}

func profileColumn(header string, rows []map[string]string, totalRows int) ColumnProfile {
	missingCount := 0
	nonMissing := make([]string, 0, totalRows)
	for _, row := range rows {
		value := cleanCell(row[header])
		if value == "" {
			missingCount++
			continue
		}
		nonMissing = append(nonMissing, value)
	}

	var breakdown TypeBreakdown
	for _, value := range nonMissing {
		switch InferType(value) {
		case TypeNumber:
			breakdown.Number++
		case TypeBoolean:
			breakdown.Boolean++
		case TypeDate:
			breakdown.Date++
		default:
			breakdown.String++
		}
	}

	inferredType := dominantType(breakdown)

	// Distinct values in first-seen order; the sample list reuses the head.
	seen := make(map[string]bool, len(nonMissing))
	distinct := make([]string, 0, len(nonMissing))
	for _, value := range nonMissing {
		if !seen[value] {
			seen[value] = true
			distinct = append(distinct, value)
		}
	}

	duplicateValueCount := len(nonMissing) - len(distinct)
	if duplicateValueCount < 0 {
		duplicateValueCount = 0
	}

	min, max := columnMinMax(inferredType, nonMissing)

	missingPercent := 0.0
	if totalRows > 0 {
		missingPercent = round2(float64(missingCount) / float64(totalRows) * 100)
	}

	warnings := []string{}
	if missingPercent >= 30 {
		warnings = append(warnings, "High missing value rate (>= 30%).")
	}
	if breakdown.String > 0 && (breakdown.Number > 0 || breakdown.Date > 0 || breakdown.Boolean > 0) {
		warnings = append(warnings, "Mixed data types detected.")
	}
	if len(distinct) > 0 && len(nonMissing) > 100 &&
		float64(len(distinct))/float64(len(nonMissing)) > 0.95 {
		warnings = append(warnings, "Very high cardinality column.")
	}

	samples := distinct
	if len(samples) > 5 {
		samples = samples[:5]
	}

	return ColumnProfile{
		Name:                header,
		InferredType:        inferredType,
		TypeBreakdown:       breakdown,
		MissingCount:        missingCount,
		MissingPercent:      missingPercent,
		UniqueCount:         len(distinct),
		DuplicateValueCount: duplicateValueCount,
		Min:                 min,
		Max:                 max,
		SampleValues:        samples,
		Warnings:            warnings,
	}
}

func columnMinMax(inferredType string, values []string) (any, any) {
	if len(values) == 0 {
		return nil, nil
	}

	switch inferredType {
	case TypeNumber:
		var min, max float64
		found := false
		for _, value := range values {
			n, err := strconv.ParseFloat(value, 64)
			if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
				continue
			}
			if !found {
				min, max = n, n
				found = true
				continue
			}
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		if !found {
			return nil, nil
		}
		return min, max

	case TypeDate:
		normalized := make([]string, len(values))
		for i, value := range values {
			normalized[i] = normalizeDateSafe(value)
		}
		min, max := normalized[0], normalized[0]
		for _, value := range normalized[1:] {
			if value < min {
				min = value
			}
			if value > max {
				max = value
			}
		}
		return min, max

	default:
		sorted := make([]string, len(values))
		copy(sorted, values)
		collate.New(language.English).SortStrings(sorted)
		return sorted[0], sorted[len(sorted)-1]
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
