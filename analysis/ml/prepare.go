// Package ml prepares model-ready feature matrices from raw datasets, trains
// a configurable set of baseline estimators and scores them with
// task-appropriate metrics.
package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/analysis/profiling"
	"github.com/aether-insight/aether-go/utils"
)

// ColumnNotFoundError reports a request that names a column the dataset does
// not have.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in dataset", e.Column)
}

const (
	// retypeThreshold is the parse ratio required to re-type a text column
	// during preparation.
	retypeThreshold = 0.9
	// correlationLimit is the absolute pairwise correlation above which the
	// later of two numeric features is dropped.
	correlationLimit = 0.98
	// maxOneHotCardinality caps categorical expansion; wider columns are
	// dropped rather than encoded.
	maxOneHotCardinality = 10
)

// PreparedData is a train/test split ready for model fitting. Rows of X align
// with entries of Y; feature order is given by FeatureNames.
type PreparedData struct {
	XTrain, XTest [][]float64
	YTrain, YTest []float64
	FeatureNames  []string

	// TargetLabels maps class codes back to original labels when the target
	// was label-encoded; nil for numeric targets.
	TargetLabels []string

	// DroppedFeatures lists columns pruned during preparation with the
	// reason each was pruned.
	DroppedFeatures map[string]string
}

// TargetLabelFor returns the original label for a class code, or the code
// rendered as text for numeric targets.
func (p *PreparedData) TargetLabelFor(code float64) string {
	idx := int(code)
	if p.TargetLabels != nil && idx >= 0 && idx < len(p.TargetLabels) {
		return p.TargetLabels[idx]
	}
	return formatClass(code)
}

// Prepare builds a leakage-aware train/test split from a raw dataset. Feature
// selection and encoding are derived from the full dataset; scaling
// statistics come from the training partition only.
func Prepare(ds *dataset.Dataset, targetColumn string, testFraction float64, seed int64) (*PreparedData, error) {
	if ds.Column(targetColumn) == nil {
		return nil, &ColumnNotFoundError{Column: targetColumn}
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}

	log := utils.GetLogger()
	work := ds.Clone()

	// Re-type text columns that are numbers or timestamps in disguise.
	for i := range work.Columns {
		c := &work.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		if num, res := dataset.AsNumeric(c); res.AtLeast(retypeThreshold) {
			work.Columns[i] = num
			continue
		}
		if tmp, res := dataset.AsTemporal(c); res.AtLeast(retypeThreshold) {
			work.Columns[i] = tmp
		}
	}

	// Rows without a target value cannot be trained on.
	target := work.Column(targetColumn)
	keep := make([]bool, work.NumRows())
	kept := 0
	for i := range keep {
		keep[i] = !target.Missing[i]
		if keep[i] {
			kept++
		}
	}
	if kept == 0 {
		return nil, fmt.Errorf("target column %q has no present values", targetColumn)
	}
	if kept < work.NumRows() {
		work = work.SelectRows(keep)
	}

	work = expandTemporal(work, targetColumn)

	target = work.Column(targetColumn)
	features := work.DropColumns(targetColumn)

	dropped := make(map[string]string)
	features = pruneFeatures(features, dropped)

	specs := encodeFeatures(features, dropped)
	if len(specs) == 0 {
		return nil, fmt.Errorf("no usable features remain after pruning")
	}

	matrix, names := buildMatrix(features, specs)
	y, labels := encodeTarget(target)

	trainIdx, testIdx := splitIndices(y, testFraction, seed)
	prepared := &PreparedData{
		FeatureNames:    names,
		TargetLabels:    labels,
		DroppedFeatures: dropped,
	}
	prepared.XTrain, prepared.YTrain = take(matrix, y, trainIdx)
	prepared.XTest, prepared.YTest = take(matrix, y, testIdx)

	scale(prepared, specs)

	log.Debug("prepared training data", utils.Component("ml"),
		utils.Int("train_rows", len(prepared.XTrain)),
		utils.Int("test_rows", len(prepared.XTest)),
		utils.Int("features", len(names)))
	return prepared, nil
}

// expandTemporal replaces each temporal column with integer calendar
// sub-features. The hour component is included only when some timestamp has a
// non-midnight time.
func expandTemporal(ds *dataset.Dataset, targetColumn string) *dataset.Dataset {
	out := &dataset.Dataset{}
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindTemporal || c.Name == targetColumn {
			out.Columns = append(out.Columns, c.Clone())
			continue
		}

		hasHour := false
		for j := 0; j < c.Len(); j++ {
			if !c.Missing[j] && (c.Times[j].Hour() != 0 || c.Times[j].Minute() != 0) {
				hasHour = true
				break
			}
		}

		parts := []struct {
			suffix string
			fn     func(i int) float64
		}{
			{"year", func(j int) float64 { return float64(c.Times[j].Year()) }},
			{"month", func(j int) float64 { return float64(c.Times[j].Month()) }},
			{"day", func(j int) float64 { return float64(c.Times[j].Day()) }},
			{"weekday", func(j int) float64 { return float64(c.Times[j].Weekday()) }},
		}
		if hasHour {
			parts = append(parts, struct {
				suffix string
				fn     func(i int) float64
			}{"hour", func(j int) float64 { return float64(c.Times[j].Hour()) }})
		}

		for _, part := range parts {
			sub := dataset.Column{
				Name:    c.Name + "_" + part.suffix,
				Kind:    dataset.KindNumeric,
				Floats:  make([]float64, c.Len()),
				Missing: append([]bool(nil), c.Missing...),
			}
			for j := 0; j < c.Len(); j++ {
				if !c.Missing[j] {
					sub.Floats[j] = part.fn(j)
				}
			}
			out.Columns = append(out.Columns, sub)
		}
	}
	return out
}

// pruneFeatures drops zero-variance columns and, from each numeric pair
// correlated beyond the limit, the later column.
func pruneFeatures(ds *dataset.Dataset, dropped map[string]string) *dataset.Dataset {
	var dropNames []string
	for i := range ds.Columns {
		if ds.Columns[i].DistinctCount() <= 1 {
			dropNames = append(dropNames, ds.Columns[i].Name)
			dropped[ds.Columns[i].Name] = "zero variance"
		}
	}
	if len(dropNames) > 0 {
		ds = ds.DropColumns(dropNames...)
	}

	removed := make(map[string]bool)
	for i := range ds.Columns {
		if ds.Columns[i].Kind != dataset.KindNumeric || removed[ds.Columns[i].Name] {
			continue
		}
		for j := i + 1; j < len(ds.Columns); j++ {
			if ds.Columns[j].Kind != dataset.KindNumeric || removed[ds.Columns[j].Name] {
				continue
			}
			r, ok := profiling.PairwiseCorrelation(&ds.Columns[i], &ds.Columns[j])
			if ok && math.Abs(r) > correlationLimit {
				removed[ds.Columns[j].Name] = true
				dropped[ds.Columns[j].Name] = fmt.Sprintf("correlated with %s (r=%.3f)", ds.Columns[i].Name, r)
			}
		}
	}
	if len(removed) > 0 {
		names := make([]string, 0, len(removed))
		for name := range removed {
			names = append(names, name)
		}
		ds = ds.DropColumns(names...)
	}
	return ds
}

// featureSpec describes how one source column maps into matrix columns.
type featureSpec struct {
	column     string
	numeric    bool
	categories []string // one indicator column per category
	fillValue  float64  // numeric imputation value
	fillLabel  string   // categorical imputation value
}

// encodeFeatures decides per-column encoding: numeric columns pass through
// with median imputation; text and boolean columns one-hot encode at low
// cardinality with mode imputation and are dropped otherwise.
func encodeFeatures(ds *dataset.Dataset, dropped map[string]string) []featureSpec {
	var specs []featureSpec
	for i := range ds.Columns {
		c := &ds.Columns[i]
		switch c.Kind {
		case dataset.KindNumeric:
			fill, ok := dataset.Median(c.FloatValues())
			if !ok {
				fill = 0
			}
			specs = append(specs, featureSpec{column: c.Name, numeric: true, fillValue: fill})
		case dataset.KindText, dataset.KindBool:
			values := categoricalValues(c)
			distinct := distinctSorted(values)
			if len(distinct) > maxOneHotCardinality {
				dropped[c.Name] = fmt.Sprintf("categorical cardinality %d exceeds %d", len(distinct), maxOneHotCardinality)
				continue
			}
			fill, ok := dataset.ModeString(values)
			if !ok {
				fill = "Unknown"
			}
			specs = append(specs, featureSpec{column: c.Name, categories: distinct, fillLabel: fill})
		default:
			dropped[c.Name] = "unsupported feature kind"
		}
	}
	return specs
}

func categoricalValues(c *dataset.Column) []string {
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] {
			continue
		}
		out = append(out, categoricalValue(c, i))
	}
	return out
}

func categoricalValue(c *dataset.Column, i int) string {
	if c.Kind == dataset.KindBool {
		if c.Bools[i] {
			return "true"
		}
		return "false"
	}
	return c.Strings[i]
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// buildMatrix renders the dataset as a dense row-major matrix following the
// feature specs, applying imputation. Unknown categories map to an all-zero
// indicator block.
func buildMatrix(ds *dataset.Dataset, specs []featureSpec) ([][]float64, []string) {
	var names []string
	for _, spec := range specs {
		if spec.numeric {
			names = append(names, spec.column)
			continue
		}
		for _, cat := range spec.categories {
			names = append(names, spec.column+"_"+cat)
		}
	}

	rows := ds.NumRows()
	matrix := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, 0, len(names))
		for _, spec := range specs {
			c := ds.Column(spec.column)
			if spec.numeric {
				if c.Missing[r] {
					row = append(row, spec.fillValue)
				} else {
					row = append(row, c.Floats[r])
				}
				continue
			}
			value := spec.fillLabel
			if !c.Missing[r] {
				value = categoricalValue(c, r)
			}
			for _, cat := range spec.categories {
				if value == cat {
					row = append(row, 1)
				} else {
					row = append(row, 0)
				}
			}
		}
		matrix[r] = row
	}
	return matrix, names
}

// encodeTarget converts the target column to a float vector. Non-numeric
// targets are label-encoded against the sorted distinct labels; the label
// table is returned for decoding.
func encodeTarget(c *dataset.Column) ([]float64, []string) {
	if c.Kind == dataset.KindNumeric {
		y := make([]float64, c.Len())
		copy(y, c.Floats)
		return y, nil
	}

	labels := distinctSorted(categoricalTargetValues(c))
	codes := make(map[string]float64, len(labels))
	for i, l := range labels {
		codes[l] = float64(i)
	}
	y := make([]float64, c.Len())
	for i := 0; i < c.Len(); i++ {
		y[i] = codes[categoricalTargetValues1(c, i)]
	}
	return y, labels
}

func categoricalTargetValues(c *dataset.Column) []string {
	out := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		out = append(out, categoricalTargetValues1(c, i))
	}
	return out
}

func categoricalTargetValues1(c *dataset.Column, i int) string {
	switch c.Kind {
	case dataset.KindBool:
		if c.Bools[i] {
			return "true"
		}
		return "false"
	case dataset.KindTemporal:
		return c.Times[i].Format("2006-01-02T15:04:05")
	default:
		return c.Strings[i]
	}
}

// splitIndices partitions row indices into train and test sets. Splits are
// stratified by target value when the target has 2-19 distinct values.
func splitIndices(y []float64, testFraction float64, seed int64) (train, test []int) {
	n := len(y)
	rng := rand.New(rand.NewSource(seed))

	distinct := make(map[float64][]int)
	for i, v := range y {
		distinct[v] = append(distinct[v], i)
	}
	stratify := len(distinct) >= 2 && len(distinct) <= 19

	if !stratify {
		perm := rng.Perm(n)
		nTest := int(math.Ceil(testFraction * float64(n)))
		if nTest >= n {
			nTest = n - 1
		}
		test = append(test, perm[:nTest]...)
		train = append(train, perm[nTest:]...)
		sort.Ints(train)
		sort.Ints(test)
		return train, test
	}

	// Deterministic class order keeps the split reproducible for a seed.
	classes := make([]float64, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Float64s(classes)

	for _, v := range classes {
		idx := distinct[v]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func take(matrix [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	X := make([][]float64, len(idx))
	out := make([]float64, len(idx))
	for i, j := range idx {
		row := make([]float64, len(matrix[j]))
		copy(row, matrix[j])
		X[i] = row
		out[i] = y[j]
	}
	return X, out
}

// scale standardizes numeric matrix columns to zero mean and unit variance
// using statistics from the training partition only. Indicator columns are
// left untouched.
func scale(p *PreparedData, specs []featureSpec) {
	numericCols := make([]bool, 0, len(p.FeatureNames))
	for _, spec := range specs {
		if spec.numeric {
			numericCols = append(numericCols, true)
		} else {
			for range spec.categories {
				numericCols = append(numericCols, false)
			}
		}
	}

	for col, isNumeric := range numericCols {
		if !isNumeric || len(p.XTrain) == 0 {
			continue
		}
		mean, std := 0.0, 0.0
		for _, row := range p.XTrain {
			mean += row[col]
		}
		mean /= float64(len(p.XTrain))
		for _, row := range p.XTrain {
			d := row[col] - mean
			std += d * d
		}
		std = math.Sqrt(std / float64(len(p.XTrain)))
		if std == 0 {
			std = 1
		}
		for _, row := range p.XTrain {
			row[col] = (row[col] - mean) / std
		}
		for _, row := range p.XTest {
			row[col] = (row[col] - mean) / std
		}
	}
}
