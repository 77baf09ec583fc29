package notebook

import (
	"sort"
	"strconv"
	"strings"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"gonum.org/v1/gonum/stat"
)

// Summarize computes per-column statistics for the numeric columns of a
// frame. Columns without a single numeric value are skipped; a frame with
// no numeric columns summarizes to nil.
func Summarize(df *types.DataFrameData) []types.ColumnSummary {
	if df == nil || len(df.Columns) == 0 {
		return nil
	}

	summaries := make([]types.ColumnSummary, 0, len(df.Columns))
	for col, name := range df.Columns {
		values := columnValues(df, col)
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		summary := types.ColumnSummary{
			Column: name,
			Count:  len(values),
			Mean:   stat.Mean(values, nil),
			Min:    values[0],
			Max:    values[len(values)-1],
			Q1:     stat.Quantile(0.25, stat.Empirical, values, nil),
			Median: stat.Quantile(0.5, stat.Empirical, values, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, values, nil),
		}
		if len(values) > 1 {
			summary.StdDev = stat.StdDev(values, nil)
		}
		summaries = append(summaries, summary)
	}
	if len(summaries) == 0 {
		return nil
	}
	return summaries
}

// columnValues collects the parseable numeric entries of one column.
func columnValues(df *types.DataFrameData, col int) []float64 {
	var values []float64
	for _, row := range df.Rows {
		if col >= len(row) {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err == nil {
			values = append(values, v)
		}
	}
	return values
}
