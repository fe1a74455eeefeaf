package dataset

import (
	"strconv"
	"strings"
	"time"
)

// missingTokens are strings treated as absent values during ingestion and
// re-typing, compared case-insensitively after trimming.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

// IsMissingToken reports whether s represents an absent value. Whitespace-only
// strings are kept as present text so readability scoring can see them.
func IsMissingToken(s string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return s == ""
	}
	_, ok := missingTokens[trimmed]
	return ok
}

// temporalLayouts are tried in order when parsing text as timestamps.
var temporalLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// ParseStatus classifies how much of a text column parsed under a candidate
// type.
type ParseStatus int

const (
	// ParseFailed means too few values parsed for a conversion to be useful.
	ParseFailed ParseStatus = iota
	// ParsePartial means a majority parsed; conversion is allowed at the
	// caller's threshold and unparsed values become missing.
	ParsePartial
	// ParseOK means every present value parsed.
	ParseOK
)

// ParseResult is the outcome of re-typing a text column. Ratio is the share
// of present values that parsed; callers compare it to their own acceptance
// threshold (0.8 for cleaning conversions, 0.9 for feature preparation).
type ParseResult struct {
	Status ParseStatus
	Ratio  float64
}

// AtLeast reports whether the parse succeeded at the given ratio threshold.
func (r ParseResult) AtLeast(threshold float64) bool {
	return r.Status == ParseOK || (r.Status == ParsePartial && r.Ratio >= threshold)
}

func classify(parsed, present int) ParseResult {
	if present == 0 {
		return ParseResult{Status: ParseFailed}
	}
	ratio := float64(parsed) / float64(present)
	switch {
	case parsed == present:
		return ParseResult{Status: ParseOK, Ratio: 1}
	case ratio >= 0.5:
		return ParseResult{Status: ParsePartial, Ratio: ratio}
	default:
		return ParseResult{Status: ParseFailed, Ratio: ratio}
	}
}

// ParseFloat parses s as a number, tolerating surrounding whitespace and
// thousands separators.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// ParseTime parses s as a timestamp using the supported layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsNumeric attempts to re-type a text column as numeric. The returned column
// marks unparsed values as missing; the result reports the parse ratio so the
// caller can decide whether to accept the conversion.
func AsNumeric(c *Column) (Column, ParseResult) {
	out := Column{Name: c.Name, Kind: KindNumeric, Floats: make([]float64, c.Len()), Missing: make([]bool, c.Len())}
	parsed, present := 0, 0
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] || IsMissingToken(c.Strings[i]) {
			out.Missing[i] = true
			continue
		}
		present++
		if v, ok := ParseFloat(c.Strings[i]); ok {
			out.Floats[i] = v
			parsed++
		} else {
			out.Missing[i] = true
		}
	}
	return out, classify(parsed, present)
}

// AsTemporal attempts to re-type a text column as temporal, marking unparsed
// values as missing.
func AsTemporal(c *Column) (Column, ParseResult) {
	out := Column{Name: c.Name, Kind: KindTemporal, Times: make([]time.Time, c.Len()), Missing: make([]bool, c.Len())}
	parsed, present := 0, 0
	for i := 0; i < c.Len(); i++ {
		if c.Missing[i] || IsMissingToken(c.Strings[i]) {
			out.Missing[i] = true
			continue
		}
		present++
		if t, ok := ParseTime(c.Strings[i]); ok {
			out.Times[i] = t
			parsed++
		} else {
			out.Missing[i] = true
		}
	}
	return out, classify(parsed, present)
}
