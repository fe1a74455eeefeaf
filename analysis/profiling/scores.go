package profiling

import (
	"math"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// QualityScore rates a dataset 0-100 from three weighted terms:
// completeness (40%, share of non-missing cells), consistency (30%, share of
// non-duplicate rows) and readability (30%, share of text cells that are not
// whitespace-only; 100 when there are no text cells). An empty dataset scores
// exactly 0.
func QualityScore(ds *dataset.Dataset) float64 {
	totalCells := ds.TotalCells()
	if totalCells == 0 {
		return 0.0
	}

	completeness := 1 - float64(ds.MissingCells())/float64(totalCells)
	consistency := 1 - float64(ds.DuplicateCount())/float64(ds.NumRows())

	readability := 1.0
	textCells, blankCells := 0, 0
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		textCells += c.Len()
		for j := 0; j < c.Len(); j++ {
			if !c.Missing[j] && isBlank(c.Strings[j]) {
				blankCells++
			}
		}
	}
	if textCells > 0 {
		readability = 1 - float64(blankCells)/float64(textCells)
	}

	score := 100 * (0.4*completeness + 0.3*consistency + 0.3*readability)
	return dataset.Round2(clamp(score, 0, 100))
}

// IntegrityScore rates numeric validity 0-100: the share of numeric cells
// that are neither infinite nor IQR outliers. A dataset with no numeric
// columns scores 100.
func IntegrityScore(ds *dataset.Dataset) float64 {
	checks, issues := 0, 0
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindNumeric {
			continue
		}
		checks += c.Len()

		finite := make([]float64, 0, c.Len())
		for j := 0; j < c.Len(); j++ {
			if c.Missing[j] {
				continue
			}
			if math.IsInf(c.Floats[j], 0) {
				issues++
				continue
			}
			finite = append(finite, c.Floats[j])
		}
		issues += OutlierCount(finite)
	}
	if checks == 0 {
		return 100.0
	}
	score := 100 * (1 - float64(issues)/float64(checks))
	return dataset.Round2(clamp(score, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
