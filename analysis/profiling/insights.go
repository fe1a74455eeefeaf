package profiling

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// CorrelationMatrix holds pairwise Pearson correlations between numeric
// columns. Cells are nil when a correlation is undefined (fewer than two
// complete pairs or zero variance).
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// Correlations computes the correlation matrix over rows where both columns
// are present.
func Correlations(ds *dataset.Dataset) *CorrelationMatrix {
	var numeric []*dataset.Column
	var names []string
	for i := range ds.Columns {
		if ds.Columns[i].Kind == dataset.KindNumeric {
			numeric = append(numeric, &ds.Columns[i])
			names = append(names, ds.Columns[i].Name)
		}
	}
	m := &CorrelationMatrix{Columns: names, Values: make([][]*float64, len(numeric))}
	for i := range numeric {
		m.Values[i] = make([]*float64, len(numeric))
		for j := range numeric {
			if i == j {
				m.Values[i][j] = dataset.FinitePtr(1)
				continue
			}
			if r, ok := PairwiseCorrelation(numeric[i], numeric[j]); ok {
				m.Values[i][j] = dataset.FinitePtr(r)
			}
		}
	}
	return m
}

// PairwiseCorrelation computes Pearson correlation over rows where both
// columns are present. Returns false when fewer than two complete pairs
// exist or the result is undefined.
func PairwiseCorrelation(a, b *dataset.Column) (float64, bool) {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		if a.Missing[i] || b.Missing[i] {
			continue
		}
		xs = append(xs, a.Floats[i])
		ys = append(ys, b.Floats[i])
	}
	if len(xs) < 2 {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if r != r { // NaN from zero variance
		return 0, false
	}
	return r, true
}

// MissingReportEntry summarizes missingness for one column.
type MissingReportEntry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MissingReport lists columns with at least one missing value, worst first.
func MissingReport(ds *dataset.Dataset) []MissingReportEntry {
	rows := ds.NumRows()
	var out []MissingReportEntry
	for i := range ds.Columns {
		count := ds.Columns[i].MissingCount()
		if count == 0 {
			continue
		}
		pct := 0.0
		if rows > 0 {
			pct = dataset.Round2(100 * float64(count) / float64(rows))
		}
		out = append(out, MissingReportEntry{Name: ds.Columns[i].Name, Count: count, Percentage: pct})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// QuickInsights produces short human-readable observations about a dataset.
func QuickInsights(ds *dataset.Dataset) []string {
	if ds.NumRows() == 0 || ds.NumCols() == 0 {
		return []string{"Dataset is empty"}
	}
	out := []string{fmt.Sprintf("Dataset has %d rows and %d columns", ds.NumRows(), ds.NumCols())}

	if dups := ds.DuplicateCount(); dups > 0 {
		out = append(out, fmt.Sprintf("%d duplicate rows detected", dups))
	}

	rows := float64(ds.NumRows())
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if pct := 100 * float64(c.MissingCount()) / rows; pct > 20 {
			out = append(out, fmt.Sprintf("Column '%s' is %.1f%% missing", c.Name, pct))
		}
		if c.NonMissingCount() > 0 && c.DistinctCount() == 1 {
			out = append(out, fmt.Sprintf("Column '%s' is constant", c.Name))
		}
	}

	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		present := c.NonMissingCount()
		if present == 0 {
			continue
		}
		top := topValues(c, 1)
		if len(top) == 1 && float64(top[0].Count)/float64(present) > 0.8 {
			out = append(out, fmt.Sprintf("Column '%s' is dominated by value '%s'", c.Name, top[0].Value))
		}
	}

	for i := range ds.Columns {
		if ds.Columns[i].Kind != dataset.KindNumeric {
			continue
		}
		for j := i + 1; j < len(ds.Columns); j++ {
			if ds.Columns[j].Kind != dataset.KindNumeric {
				continue
			}
			if r, ok := PairwiseCorrelation(&ds.Columns[i], &ds.Columns[j]); ok && (r > 0.8 || r < -0.8) {
				out = append(out, fmt.Sprintf("Columns '%s' and '%s' are highly correlated (r=%.2f)",
					ds.Columns[i].Name, ds.Columns[j].Name, r))
			}
		}
	}

	return out
}
