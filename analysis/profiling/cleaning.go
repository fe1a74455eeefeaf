package profiling

import (
	"fmt"
	"strings"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/utils"
)

// Impact tiers for cleaning suggestions.
const (
	ImpactLow    = "low"
	ImpactMedium = "medium"
	ImpactHigh   = "high"
)

// Cleaning operation names. Apply runs them in this order regardless of the
// order they were requested in.
const (
	OpRemoveEmptyRows     = "remove_empty_rows"
	OpRemoveDuplicates    = "remove_duplicates"
	OpHandleMissing       = "handle_missing"
	OpRemoveSparseColumns = "remove_sparse_columns"
	OpStandardizeText     = "standardize_text"
	OpFixDataTypes        = "fix_data_types"
	OpTrimWhitespace      = "trim_whitespace"
)

// sparseThreshold is the missing percentage above which a column is
// considered beyond repair and left to removal.
const sparseThreshold = 90.0

// Suggestion is one proposed cleaning operation.
type Suggestion struct {
	Operation    string   `json:"operation"`
	Description  string   `json:"description"`
	Impact       string   `json:"impact"`
	Columns      []string `json:"columns,omitempty"`
	AffectedRows int      `json:"affected_rows,omitempty"`
}

// Suggest proposes cleaning operations from a dataset and its profile,
// ordered by descending impact then generation order.
func Suggest(ds *dataset.Dataset, profile *DatasetProfile) []Suggestion {
	var out []Suggestion

	if profile.DuplicateRows > 0 {
		out = append(out, Suggestion{
			Operation:    OpRemoveDuplicates,
			Description:  fmt.Sprintf("Remove %d duplicate rows", profile.DuplicateRows),
			Impact:       ImpactHigh,
			AffectedRows: profile.DuplicateRows,
		})
	}

	var missingCols []string
	for _, cp := range profile.Columns {
		if cp.MissingCount > 0 {
			missingCols = append(missingCols, cp.Name)
		}
	}
	if len(missingCols) > 0 {
		impact := ImpactMedium
		if total := profile.RowCount * profile.ColumnCount; total > 0 {
			if 100*float64(ds.MissingCells())/float64(total) > 50 {
				impact = ImpactHigh
			}
		}
		out = append(out, Suggestion{
			Operation:   OpHandleMissing,
			Description: fmt.Sprintf("Fill missing values in %d columns", len(missingCols)),
			Impact:      impact,
			Columns:     missingCols,
		})
	}

	var sparseCols []string
	for _, cp := range profile.Columns {
		if cp.MissingPct > sparseThreshold {
			sparseCols = append(sparseCols, cp.Name)
		}
	}
	if len(sparseCols) > 0 {
		out = append(out, Suggestion{
			Operation:   OpRemoveSparseColumns,
			Description: fmt.Sprintf("Drop %d columns that are more than %.0f%% missing", len(sparseCols), sparseThreshold),
			Impact:      ImpactMedium,
			Columns:     sparseCols,
		})
	}

	emptyRows := 0
	for _, empty := range ds.EmptyRowMask() {
		if empty {
			emptyRows++
		}
	}
	if emptyRows > 0 {
		out = append(out, Suggestion{
			Operation:    OpRemoveEmptyRows,
			Description:  fmt.Sprintf("Remove %d fully empty rows", emptyRows),
			Impact:       ImpactLow,
			AffectedRows: emptyRows,
		})
	}

	for _, cp := range profile.Columns {
		if cp.Kind == dataset.KindText.String() {
			out = append(out, Suggestion{
				Operation:   OpStandardizeText,
				Description: "Trim and normalize whitespace in text columns",
				Impact:      ImpactLow,
			})
			break
		}
	}

	sortByImpact(out)
	return out
}

func sortByImpact(s []Suggestion) {
	rank := map[string]int{ImpactHigh: 0, ImpactMedium: 1, ImpactLow: 2}
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && rank[s[j].Impact] < rank[s[j-1].Impact]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// AppliedOperation records one cleaning step Apply actually executed.
type AppliedOperation struct {
	Operation string `json:"operation"`
	Detail    string `json:"detail"`
}

// Apply executes the approved cleaning operations on a copy of the dataset.
// When approved is false the dataset is returned unchanged. Operations run in
// a fixed precedence; names absent from the request are skipped.
func Apply(ds *dataset.Dataset, approved bool, operations []string) (*dataset.Dataset, []AppliedOperation) {
	if !approved {
		return ds, nil
	}
	requested := make(map[string]bool, len(operations))
	for _, op := range operations {
		requested[op] = true
	}

	log := utils.GetLogger()
	out := ds.Clone()
	var applied []AppliedOperation
	record := func(op, detail string) {
		applied = append(applied, AppliedOperation{Operation: op, Detail: detail})
		log.Info("cleaning operation applied", utils.Component("cleaning"),
			utils.String("operation", op), utils.String("detail", detail))
	}

	if requested[OpRemoveEmptyRows] {
		mask := out.EmptyRowMask()
		removed := 0
		keep := make([]bool, len(mask))
		for i, empty := range mask {
			keep[i] = !empty
			if empty {
				removed++
			}
		}
		if removed > 0 {
			out = out.SelectRows(keep)
		}
		record(OpRemoveEmptyRows, fmt.Sprintf("removed %d empty rows", removed))
	}

	if requested[OpRemoveDuplicates] {
		mask := out.DuplicateMask()
		removed := 0
		keep := make([]bool, len(mask))
		for i, dup := range mask {
			keep[i] = !dup
			if dup {
				removed++
			}
		}
		if removed > 0 {
			out = out.SelectRows(keep)
		}
		record(OpRemoveDuplicates, fmt.Sprintf("removed %d duplicate rows", removed))
	}

	if requested[OpHandleMissing] {
		filled := handleMissing(out)
		record(OpHandleMissing, fmt.Sprintf("filled missing values in %d columns", filled))
	}

	if requested[OpRemoveSparseColumns] {
		dropped := removeSparseColumns(out)
		record(OpRemoveSparseColumns, fmt.Sprintf("dropped %d sparse columns", len(dropped)))
		if len(dropped) > 0 {
			out = out.DropColumns(dropped...)
		}
	}

	if requested[OpStandardizeText] {
		n := transformText(out, standardizeText)
		record(OpStandardizeText, fmt.Sprintf("standardized %d text columns", n))
	}

	if requested[OpFixDataTypes] {
		converted := fixDataTypes(out)
		record(OpFixDataTypes, fmt.Sprintf("converted %d text columns to numeric", converted))
	}

	if requested[OpTrimWhitespace] {
		n := transformText(out, strings.TrimSpace)
		record(OpTrimWhitespace, fmt.Sprintf("trimmed %d text columns", n))
	}

	return out, applied
}

// handleMissing fills absent values in place. Columns above the sparse
// threshold are left for removal. Returns the number of columns touched.
func handleMissing(ds *dataset.Dataset) int {
	rows := ds.NumRows()
	filled := 0
	for i := range ds.Columns {
		c := &ds.Columns[i]
		missing := c.MissingCount()
		if missing == 0 || rows == 0 {
			continue
		}
		if 100*float64(missing)/float64(rows) > sparseThreshold {
			continue
		}
		switch c.Kind {
		case dataset.KindNumeric:
			fillNumeric(c)
		case dataset.KindTemporal:
			fillTemporal(c)
		case dataset.KindText:
			fillText(c)
		case dataset.KindBool:
			fillBool(c)
		}
		filled++
	}
	return filled
}

func fillNumeric(c *dataset.Column) {
	values := c.FloatValues()
	fill := 0.0
	if med, ok := dataset.Median(values); ok {
		fill = med
	} else if len(values) > 0 {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		fill = sum / float64(len(values))
	}
	for i := range c.Missing {
		if c.Missing[i] {
			c.Floats[i] = fill
			c.Missing[i] = false
		}
	}
}

func fillTemporal(c *dataset.Column) {
	// Forward fill, then backward fill for a leading run of missing values.
	for i := 1; i < c.Len(); i++ {
		if c.Missing[i] && !c.Missing[i-1] {
			c.Times[i] = c.Times[i-1]
			c.Missing[i] = false
		}
	}
	for i := c.Len() - 2; i >= 0; i-- {
		if c.Missing[i] && !c.Missing[i+1] {
			c.Times[i] = c.Times[i+1]
			c.Missing[i] = false
		}
	}
}

func fillText(c *dataset.Column) {
	fill, ok := dataset.ModeString(c.StringValues())
	if !ok {
		fill = "Unknown"
	}
	for i := range c.Missing {
		if c.Missing[i] {
			c.Strings[i] = fill
			c.Missing[i] = false
		}
	}
}

func fillBool(c *dataset.Column) {
	trues, falses := 0, 0
	for i := range c.Bools {
		if c.Missing[i] {
			continue
		}
		if c.Bools[i] {
			trues++
		} else {
			falses++
		}
	}
	fill := trues > falses
	for i := range c.Missing {
		if c.Missing[i] {
			c.Bools[i] = fill
			c.Missing[i] = false
		}
	}
}

func removeSparseColumns(ds *dataset.Dataset) []string {
	rows := ds.NumRows()
	if rows == 0 {
		return nil
	}
	var dropped []string
	for i := range ds.Columns {
		missing := ds.Columns[i].MissingCount()
		if 100*float64(missing)/float64(rows) > sparseThreshold {
			dropped = append(dropped, ds.Columns[i].Name)
		}
	}
	return dropped
}

// transformText applies fn to every present value of every text column and
// returns the number of columns touched.
func transformText(ds *dataset.Dataset, fn func(string) string) int {
	n := 0
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		for j := range c.Strings {
			if !c.Missing[j] {
				c.Strings[j] = fn(c.Strings[j])
			}
		}
		n++
	}
	return n
}

// standardizeText trims and collapses internal whitespace runs, preserving
// case.
func standardizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fixDataTypes converts text columns to numeric when at least 80% of present
// values parse. Unparsed values become missing.
func fixDataTypes(ds *dataset.Dataset) int {
	converted := 0
	for i := range ds.Columns {
		c := &ds.Columns[i]
		if c.Kind != dataset.KindText {
			continue
		}
		if num, res := dataset.AsNumeric(c); res.AtLeast(0.8) {
			ds.Columns[i] = num
			converted++
		}
	}
	return converted
}
