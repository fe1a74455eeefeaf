package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FromRecords builds a dataset from row maps, the shape datasets arrive in
// over the API. Column order follows first appearance across rows; rows that
// lack a column get a missing value. Each column's kind is inferred once:
// uniform JSON numbers give numeric, uniform booleans give boolean, and text
// columns are re-typed to numeric or temporal when at least 90% of present
// values parse.
func FromRecords(records []map[string]any) (*Dataset, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		for name := range rec {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	// Map iteration order is random; keep columns deterministic by sorting
	// names that first appear in the same row.
	sortStable(names, records)

	ds := &Dataset{Columns: make([]Column, 0, len(names))}
	for _, name := range names {
		raw := make([]any, len(records))
		for i, rec := range records {
			raw[i] = rec[name]
		}
		col, err := inferColumn(name, raw)
		if err != nil {
			return nil, err
		}
		ds.Columns = append(ds.Columns, col)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// sortStable orders names by the earliest row each appears in, then
// lexically within that row.
func sortStable(names []string, records []map[string]any) {
	firstRow := make(map[string]int, len(names))
	for _, name := range names {
		firstRow[name] = len(records)
		for i, rec := range records {
			if _, ok := rec[name]; ok {
				firstRow[name] = i
				break
			}
		}
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0; j-- {
			a, b := names[j-1], names[j]
			if firstRow[a] > firstRow[b] || (firstRow[a] == firstRow[b] && a > b) {
				names[j-1], names[j] = names[j], names[j-1]
			} else {
				break
			}
		}
	}
}

func inferColumn(name string, raw []any) (Column, error) {
	numbers, booleans, others := 0, 0, 0
	present := 0
	for _, v := range raw {
		if isMissingValue(v) {
			continue
		}
		present++
		switch v.(type) {
		case float64, int, int64, json.Number:
			numbers++
		case bool:
			booleans++
		default:
			others++
		}
	}

	switch {
	case present == 0:
		// All-missing columns default to text.
		return Column{Name: name, Kind: KindText, Strings: make([]string, len(raw)), Missing: allTrue(len(raw))}, nil
	case numbers == present:
		return numericColumn(name, raw)
	case booleans == present:
		return boolColumn(name, raw), nil
	}

	text := textColumn(name, raw)
	if num, res := AsNumeric(&text); res.AtLeast(0.9) {
		return num, nil
	}
	if tmp, res := AsTemporal(&text); res.AtLeast(0.9) {
		return tmp, nil
	}
	return text, nil
}

func isMissingValue(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok {
		return math.IsNaN(f)
	}
	if s, ok := v.(string); ok {
		return IsMissingToken(s)
	}
	return false
}

func allTrue(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func numericColumn(name string, raw []any) (Column, error) {
	c := Column{Name: name, Kind: KindNumeric, Floats: make([]float64, len(raw)), Missing: make([]bool, len(raw))}
	for i, v := range raw {
		if isMissingValue(v) {
			c.Missing[i] = true
			continue
		}
		switch t := v.(type) {
		case float64:
			c.Floats[i] = t
		case int:
			c.Floats[i] = float64(t)
		case int64:
			c.Floats[i] = float64(t)
		case json.Number:
			f, err := t.Float64()
			if err != nil {
				return Column{}, fmt.Errorf("dataset: column %q row %d: %w", name, i, err)
			}
			c.Floats[i] = f
		}
	}
	return c, nil
}

func boolColumn(name string, raw []any) Column {
	c := Column{Name: name, Kind: KindBool, Bools: make([]bool, len(raw)), Missing: make([]bool, len(raw))}
	for i, v := range raw {
		if isMissingValue(v) {
			c.Missing[i] = true
			continue
		}
		c.Bools[i] = v.(bool)
	}
	return c
}

func textColumn(name string, raw []any) Column {
	c := Column{Name: name, Kind: KindText, Strings: make([]string, len(raw)), Missing: make([]bool, len(raw))}
	for i, v := range raw {
		if isMissingValue(v) {
			c.Missing[i] = true
			continue
		}
		c.Strings[i] = stringify(v)
	}
	return c
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
