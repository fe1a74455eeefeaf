// Package dataset defines the in-memory tabular representation shared by the
// profiling, cleaning, training, fairness and ethics components. A column
// carries exactly one value kind, decided at ingestion, plus a missrow mask;
// downstream code switches on the kind instead of re-inspecting raw values.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the value type a column holds.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindBool
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindTemporal:
		return "temporal"
	default:
		return "unknown"
	}
}

// Column is a tagged variant: exactly one of the value slices is populated,
// matching Kind, and Missing marks rows whose value is absent. The value slice
// and Missing always have equal length; entries at missing positions hold the
// zero value and must not be read.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
	Bools   []bool
	Times   []time.Time
	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Missing) }

// MissingCount returns the number of absent values.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// NonMissingCount returns the number of present values.
func (c *Column) NonMissingCount() int { return c.Len() - c.MissingCount() }

// FloatValues returns the present numeric values in row order.
// Only valid for KindNumeric columns.
func (c *Column) FloatValues() []float64 {
	out := make([]float64, 0, len(c.Floats))
	for i, v := range c.Floats {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// StringValues returns the present text values in row order.
// Only valid for KindText columns.
func (c *Column) StringValues() []string {
	out := make([]string, 0, len(c.Strings))
	for i, v := range c.Strings {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Value returns the value at row i as an any, or nil when missing.
func (c *Column) Value(i int) any {
	if c.Missing[i] {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		return c.Floats[i]
	case KindText:
		return c.Strings[i]
	case KindBool:
		return c.Bools[i]
	case KindTemporal:
		return c.Times[i]
	}
	return nil
}

// cellKey renders the value at row i as a canonical string for row-identity
// comparisons (duplicate detection).
func (c *Column) cellKey(i int) string {
	if c.Missing[i] {
		return "\x00missing"
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case KindText:
		return c.Strings[i]
	case KindBool:
		return strconv.FormatBool(c.Bools[i])
	case KindTemporal:
		return c.Times[i].Format(time.RFC3339Nano)
	}
	return ""
}

// DistinctCount returns the number of distinct present values.
func (c *Column) DistinctCount() int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] {
			continue
		}
		seen[c.cellKey(i)] = struct{}{}
	}
	return len(seen)
}

// Select returns a copy of the column keeping only rows where keep[i] is true.
func (c *Column) Select(keep []bool) Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	for i := 0; i < c.Len(); i++ {
		if !keep[i] {
			continue
		}
		out.Missing = append(out.Missing, c.Missing[i])
		switch c.Kind {
		case KindNumeric:
			out.Floats = append(out.Floats, c.Floats[i])
		case KindText:
			out.Strings = append(out.Strings, c.Strings[i])
		case KindBool:
			out.Bools = append(out.Bools, c.Bools[i])
		case KindTemporal:
			out.Times = append(out.Times, c.Times[i])
		}
	}
	return out
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	out.Missing = append([]bool(nil), c.Missing...)
	out.Floats = append([]float64(nil), c.Floats...)
	out.Strings = append([]string(nil), c.Strings...)
	out.Bools = append([]bool(nil), c.Bools...)
	out.Times = append([]time.Time(nil), c.Times...)
	return out
}

// NewNumeric builds a numeric column from values, treating NaN entries as
// missing.
func NewNumeric(name string, values []float64) Column {
	c := Column{Name: name, Kind: KindNumeric, Floats: make([]float64, len(values)), Missing: make([]bool, len(values))}
	for i, v := range values {
		if math.IsNaN(v) {
			c.Missing[i] = true
		} else {
			c.Floats[i] = v
		}
	}
	return c
}

// NewText builds a text column from values, treating empty strings as missing.
func NewText(name string, values []string) Column {
	c := Column{Name: name, Kind: KindText, Strings: make([]string, len(values)), Missing: make([]bool, len(values))}
	for i, v := range values {
		if v == "" {
			c.Missing[i] = true
		} else {
			c.Strings[i] = v
		}
	}
	return c
}

// NewBool builds a boolean column with no missing values.
func NewBool(name string, values []bool) Column {
	return Column{Name: name, Kind: KindBool, Bools: append([]bool(nil), values...), Missing: make([]bool, len(values))}
}

// NewTemporal builds a temporal column, treating zero times as missing.
func NewTemporal(name string, values []time.Time) Column {
	c := Column{Name: name, Kind: KindTemporal, Times: make([]time.Time, len(values)), Missing: make([]bool, len(values))}
	for i, v := range values {
		if v.IsZero() {
			c.Missing[i] = true
		} else {
			c.Times[i] = v
		}
	}
	return c
}

// Dataset is an ordered collection of equal-length, uniquely named columns.
type Dataset struct {
	Columns []Column
}

// New builds a dataset from columns and validates it.
func New(cols ...Column) (*Dataset, error) {
	ds := &Dataset{Columns: cols}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks column name uniqueness and equal lengths.
func (d *Dataset) Validate() error {
	seen := make(map[string]struct{}, len(d.Columns))
	for _, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("dataset: column with empty name")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("dataset: duplicate column name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Len() != d.NumRows() {
			return fmt.Errorf("dataset: column %q has %d rows, want %d", c.Name, c.Len(), d.NumRows())
		}
	}
	return nil
}

// NumRows returns the row count (0 for a dataset with no columns).
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// NumCols returns the column count.
func (d *Dataset) NumCols() int { return len(d.Columns) }

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or nil when absent.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool { return d.Column(name) != nil }

// DropColumns returns a copy of the dataset without the named columns.
func (d *Dataset) DropColumns(names ...string) *Dataset {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := &Dataset{}
	for _, c := range d.Columns {
		if _, skip := drop[c.Name]; skip {
			continue
		}
		out.Columns = append(out.Columns, c.Clone())
	}
	return out
}

// SelectRows returns a copy of the dataset keeping only rows where keep[i] is
// true.
func (d *Dataset) SelectRows(keep []bool) *Dataset {
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i := range d.Columns {
		out.Columns[i] = d.Columns[i].Select(keep)
	}
	return out
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Columns: make([]Column, len(d.Columns))}
	for i := range d.Columns {
		out.Columns[i] = d.Columns[i].Clone()
	}
	return out
}

// rowKey renders row i as a canonical string covering every column.
func (d *Dataset) rowKey(i int) string {
	var b strings.Builder
	for ci := range d.Columns {
		if ci > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(d.Columns[ci].cellKey(i))
	}
	return b.String()
}

// DuplicateMask marks every row that repeats an earlier row. The first
// occurrence is never marked.
func (d *Dataset) DuplicateMask() []bool {
	mask := make([]bool, d.NumRows())
	seen := make(map[string]struct{}, d.NumRows())
	for i := 0; i < d.NumRows(); i++ {
		key := d.rowKey(i)
		if _, dup := seen[key]; dup {
			mask[i] = true
		} else {
			seen[key] = struct{}{}
		}
	}
	return mask
}

// DuplicateCount returns the number of rows that repeat an earlier row.
func (d *Dataset) DuplicateCount() int {
	n := 0
	for _, m := range d.DuplicateMask() {
		if m {
			n++
		}
	}
	return n
}

// EmptyRowMask marks rows whose every cell is missing.
func (d *Dataset) EmptyRowMask() []bool {
	mask := make([]bool, d.NumRows())
	for i := 0; i < d.NumRows(); i++ {
		empty := true
		for ci := range d.Columns {
			if !d.Columns[ci].Missing[i] {
				empty = false
				break
			}
		}
		mask[i] = empty
	}
	return mask
}

// TotalCells returns rows times columns.
func (d *Dataset) TotalCells() int { return d.NumRows() * d.NumCols() }

// MissingCells returns the total number of absent values across all columns.
func (d *Dataset) MissingCells() int {
	n := 0
	for i := range d.Columns {
		n += d.Columns[i].MissingCount()
	}
	return n
}

// Records renders the dataset as row maps for transport. Missing values become
// nil; non-finite floats are rendered as nil so the result is JSON-safe.
func (d *Dataset) Records() []map[string]any {
	rows := make([]map[string]any, d.NumRows())
	for i := 0; i < d.NumRows(); i++ {
		row := make(map[string]any, d.NumCols())
		for ci := range d.Columns {
			c := &d.Columns[ci]
			v := c.Value(i)
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			if t, ok := v.(time.Time); ok {
				v = t.Format(time.RFC3339)
			}
			row[c.Name] = v
		}
		rows[i] = row
	}
	return rows
}

// FinitePtr returns a pointer to v, or nil when v is NaN or infinite. Report
// structs use it to keep JSON output free of non-finite literals.
func FinitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
