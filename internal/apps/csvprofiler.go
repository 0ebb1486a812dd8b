package apps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/utilityhub/utilityhub/internal/profiler"
)

const CSVProfilerID = "csv_profiler"

// CSVProfiler profiles a delimited or spreadsheet file, emits a column-level
// report, and produces a cleaned CSV copy of the input.
type CSVProfiler struct{}

func NewCSVProfiler() *CSVProfiler {
	return &CSVProfiler{}
}

func (a *CSVProfiler) ID() string   { return CSVProfilerID }
func (a *CSVProfiler) Name() string { return "CSV Profiler" }

func (a *CSVProfiler) Description() string {
	return "Profiles tabular data: column types, missing values, duplicates, and a cleaned CSV output."
}

func (a *CSVProfiler) AcceptedContentTypes() []string {
	return []string{
		"text/csv",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
}

// ValidateOptions accepts {"removeDuplicateRows": bool}. The flag defaults to
// false and unknown keys are dropped.
func (a *CSVProfiler) ValidateOptions(raw map[string]any) (map[string]any, error) {
	removeDuplicates := false
	if v, ok := raw["removeDuplicateRows"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: removeDuplicateRows: expected boolean, got %T", ErrInvalidOptions, v)
		}
		removeDuplicates = b
	}
	return map[string]any{"removeDuplicateRows": removeDuplicates}, nil
}

func (a *CSVProfiler) Run(ctx context.Context, rc RunContext) (*RunResult, error) {
	table, err := profiler.Parse(rc.InputFile.Filename, rc.InputFile.ContentType, rc.InputData)
	if err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}

	opts := profiler.Options{}
	if v, ok := rc.Options["removeDuplicateRows"].(bool); ok {
		opts.RemoveDuplicateRows = v
	}

	report, cleanedRows := profiler.Profile(table.Headers, table.Rows, opts)

	cleanedCSV, err := profiler.WriteCSV(table.Headers, cleanedRows)
	if err != nil {
		return nil, fmt.Errorf("writing cleaned output: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(rc.InputFile.Filename), filepath.Ext(rc.InputFile.Filename))

	return &RunResult{
		Report:            reportToMap(report),
		OutputData:        cleanedCSV,
		OutputFilename:    base + "-cleaned.csv",
		OutputContentType: "text/csv",
	}, nil
}

// reportToMap flattens the typed report into the generic shape stored on the
// job row.
func reportToMap(r *profiler.Report) map[string]any {
	columns := make([]any, 0, len(r.Columns))
	for _, col := range r.Columns {
		columns = append(columns, map[string]any{
			"name":         col.Name,
			"inferredType": col.InferredType,
			"typeBreakdown": map[string]any{
				"number":  col.TypeBreakdown.Number,
				"boolean": col.TypeBreakdown.Boolean,
				"date":    col.TypeBreakdown.Date,
				"string":  col.TypeBreakdown.String,
			},
			"missingCount":        col.MissingCount,
			"missingPercent":      col.MissingPercent,
			"uniqueCount":         col.UniqueCount,
			"duplicateValueCount": col.DuplicateValueCount,
			"min":                 col.Min,
			"max":                 col.Max,
			"sampleValues":        col.SampleValues,
			"warnings":            col.Warnings,
		})
	}

	return map[string]any{
		"schemaVersion": r.SchemaVersion,
		"generatedAt":   r.GeneratedAt,
		"summary": map[string]any{
			"rowCount":                   r.Summary.RowCount,
			"cleanedRowCount":            r.Summary.CleanedRowCount,
			"columnCount":                r.Summary.ColumnCount,
			"duplicateRowCount":          r.Summary.DuplicateRowCount,
			"duplicateRowPercent":        r.Summary.DuplicateRowPercent,
			"removeDuplicateRowsApplied": r.Summary.RemoveDuplicateRowsApplied,
		},
		"columns":  columns,
		"warnings": r.Warnings,
	}
}
