// Package profiling inspects tabular datasets: per-column semantic profiles,
// quality and integrity scores, cleaning suggestions and their application,
// and quick exploratory insights.
package profiling

import (
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// Semantic categories assigned to columns during profiling.
const (
	CategoryContinuous          = "continuous"
	CategoryCategorical         = "categorical"
	CategoryCategoricalNumeric  = "categorical_numeric"
	CategoryHighCardinalityText = "high_cardinality_text"
	CategoryTemporal            = "temporal"
	CategoryBoolean             = "boolean"
	CategoryUnknown             = "unknown"
)

// Cardinality buckets.
const (
	CardinalityLow    = "low"
	CardinalityMedium = "medium"
	CardinalityHigh   = "high"
)

// NumericStats holds descriptive statistics for a numeric column. Fields are
// nil when every value is missing or the statistic is undefined.
type NumericStats struct {
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q1     *float64 `json:"q1"`
	Median *float64 `json:"median"`
	Q3     *float64 `json:"q3"`
	Max    *float64 `json:"max"`
}

// ValueCount is one entry of a column's top-value table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile is the per-column profiling record.
type ColumnProfile struct {
	Name           string        `json:"name"`
	Kind           string        `json:"kind"`
	Category       string        `json:"category"`
	MissingCount   int           `json:"missing_count"`
	MissingPct     float64       `json:"missing_percentage"`
	UniqueCount    int           `json:"unique_count"`
	UniquePct      float64       `json:"unique_percentage"`
	Cardinality    string        `json:"cardinality"`
	Stats          *NumericStats `json:"stats,omitempty"`
	OutlierCount   int           `json:"outlier_count"`
	TopValues      []ValueCount  `json:"top_values,omitempty"`
	WhitespaceOnly int           `json:"whitespace_only_count,omitempty"`
}

// DatasetProfile aggregates dataset-level counts with per-column profiles.
type DatasetProfile struct {
	RowCount      int             `json:"row_count"`
	ColumnCount   int             `json:"column_count"`
	MemoryBytes   int64           `json:"memory_bytes"`
	DuplicateRows int             `json:"duplicate_rows"`
	DuplicatePct  float64         `json:"duplicate_percentage"`
	TotalOutliers int             `json:"total_outliers"`
	Columns       []ColumnProfile `json:"columns"`
}

// Profile computes a full dataset profile. Pure with respect to the dataset;
// recomputed from scratch on every call. An empty dataset yields zeroed
// percentages rather than an error.
func Profile(ds *dataset.Dataset) *DatasetProfile {
	rows := ds.NumRows()
	p := &DatasetProfile{
		RowCount:    rows,
		ColumnCount: ds.NumCols(),
		MemoryBytes: memoryEstimate(ds),
	}
	if rows > 0 {
		p.DuplicateRows = ds.DuplicateCount()
		p.DuplicatePct = dataset.Round2(100 * float64(p.DuplicateRows) / float64(rows))
	}
	for i := range ds.Columns {
		cp := profileColumn(&ds.Columns[i], rows)
		p.TotalOutliers += cp.OutlierCount
		p.Columns = append(p.Columns, cp)
	}
	return p
}

func profileColumn(c *dataset.Column, rows int) ColumnProfile {
	cp := ColumnProfile{
		Name:         c.Name,
		Kind:         c.Kind.String(),
		MissingCount: c.MissingCount(),
		UniqueCount:  c.DistinctCount(),
	}
	if rows > 0 {
		cp.MissingPct = dataset.Round2(100 * float64(cp.MissingCount) / float64(rows))
		cp.UniquePct = dataset.Round2(100 * float64(cp.UniqueCount) / float64(rows))
	}
	cp.Cardinality = cardinalityBucket(cp.UniqueCount)
	cp.Category = category(c, cp.UniqueCount, rows)

	if c.Kind == dataset.KindNumeric {
		values := c.FloatValues()
		cp.Stats = numericStats(values)
		cp.OutlierCount = OutlierCount(values)
	}
	if c.Kind == dataset.KindText {
		for i := 0; i < c.Len(); i++ {
			if !c.Missing[i] && isBlank(c.Strings[i]) {
				cp.WhitespaceOnly++
			}
		}
	}
	if c.Kind == dataset.KindText || cp.UniqueCount < 20 {
		cp.TopValues = topValues(c, 10)
	}
	return cp
}

func category(c *dataset.Column, unique, rows int) string {
	switch c.Kind {
	case dataset.KindNumeric:
		if rows > 0 && unique <= 10 && float64(unique)/float64(rows) < 0.05 {
			return CategoryCategoricalNumeric
		}
		return CategoryContinuous
	case dataset.KindText:
		if unique <= 20 {
			return CategoryCategorical
		}
		return CategoryHighCardinalityText
	case dataset.KindBool:
		return CategoryBoolean
	case dataset.KindTemporal:
		return CategoryTemporal
	default:
		return CategoryUnknown
	}
}

func cardinalityBucket(unique int) string {
	switch {
	case unique <= 10:
		return CardinalityLow
	case unique <= 100:
		return CardinalityMedium
	default:
		return CardinalityHigh
	}
}

func numericStats(values []float64) *NumericStats {
	if len(values) == 0 {
		return &NumericStats{}
	}
	sorted := dataset.SortedCopy(values)
	q1, _ := dataset.Quantile(sorted, 0.25)
	med, _ := dataset.Quantile(sorted, 0.5)
	q3, _ := dataset.Quantile(sorted, 0.75)
	return &NumericStats{
		Mean:   dataset.FinitePtr(stat.Mean(values, nil)),
		Std:    dataset.FinitePtr(stat.StdDev(values, nil)),
		Min:    dataset.FinitePtr(sorted[0]),
		Q1:     dataset.FinitePtr(q1),
		Median: dataset.FinitePtr(med),
		Q3:     dataset.FinitePtr(q3),
		Max:    dataset.FinitePtr(sorted[len(sorted)-1]),
	}
}

// OutlierCount applies the 1.5-IQR rule. A zero IQR reports zero outliers so
// constant columns do not flood the count.
func OutlierCount(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := dataset.SortedCopy(values)
	q1, _ := dataset.Quantile(sorted, 0.25)
	q3, _ := dataset.Quantile(sorted, 0.75)
	iqr := q3 - q1
	if iqr == 0 {
		return 0
	}
	lo, hi := q1-1.5*iqr, q3+1.5*iqr
	n := 0
	for _, v := range values {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

func topValues(c *dataset.Column, limit int) []ValueCount {
	counts := make(map[string]int)
	var order []string
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if v == nil {
			continue
		}
		key := valueKey(c, i)
		if counts[key] == 0 {
			order = append(order, key)
		}
		counts[key]++
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]ValueCount, len(order))
	for i, key := range order {
		out[i] = ValueCount{Value: key, Count: counts[key]}
	}
	return out
}

func valueKey(c *dataset.Column, i int) string {
	switch c.Kind {
	case dataset.KindNumeric:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case dataset.KindText:
		return c.Strings[i]
	case dataset.KindBool:
		return strconv.FormatBool(c.Bools[i])
	case dataset.KindTemporal:
		return c.Times[i].Format("2006-01-02T15:04:05")
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func memoryEstimate(ds *dataset.Dataset) int64 {
	var total int64
	for i := range ds.Columns {
		c := &ds.Columns[i]
		switch c.Kind {
		case dataset.KindText:
			for _, s := range c.Strings {
				total += int64(len(s)) + 16
			}
		default:
			total += int64(c.Len()) * 8
		}
	}
	return total
}
