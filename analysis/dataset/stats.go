package dataset

import "sort"

// SortedCopy returns the values in ascending order without mutating the
// input.
func SortedCopy(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}

// Quantile computes the p-quantile of sorted values using linear
// interpolation between order statistics, the convention most tabular tooling
// uses for quartiles. Returns false when values is empty.
func Quantile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return sorted[0], true
	}
	h := p * float64(n-1)
	lo := int(h)
	if lo >= n-1 {
		return sorted[n-1], true
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), true
}

// Median returns the median of values. Returns false when values is empty.
func Median(values []float64) (float64, bool) {
	return Quantile(SortedCopy(values), 0.5)
}

// ModeString returns the most frequent string, ties broken by first
// appearance. Returns false when values is empty.
func ModeString(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount := "", -1
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, true
}
