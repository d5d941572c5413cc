package dataprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// present drops NaN entries
func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// quantile returns the q-quantile of sorted values using linear interpolation
// between the closest ranks, position (n-1)·q. This is numpy's default method
// and the one a dataframe describe reports; gonum's LinInterp uses the
// empirical CDF definition instead, which disagrees on small samples.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// sampleStd is the ddof=1 standard deviation; NaN below two values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return stat.StdDev(values, nil)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}

// modeFloat returns the most frequent value, the smallest one on ties.
func modeFloat(values []float64) (float64, bool) {
	if len(values) == 0 {
		return math.NaN(), false
	}
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := math.Inf(1), 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, true
}

// modeString returns the most frequent non-missing cell and its count, the
// lexicographically smallest one on ties.
func modeString(cells []string) (string, int) {
	counts := make(map[string]int, len(cells))
	for _, c := range cells {
		if IsMissing(c) {
			continue
		}
		counts[c]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best, bestCount
}
