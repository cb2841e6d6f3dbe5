package results

import (
	"errors"
	"fmt"
	"math"
	"sort"

	momath "github.com/aclements/go-moremath/stats"
	stats "github.com/montanaflynn/stats"
)

// ErrNoSamples is returned when there is no usable latency to summarize.
var ErrNoSamples = errors.New("no valid samples to summarize")

// Summary holds the latency distribution of a run, all values in ms.
type Summary struct {
	Count          int     `json:"count"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	P95            float64 `json:"p95"`
	P99            float64 `json:"p99"`
	StdDev         float64 `json:"stdDev"`
	ConfidenceLow  float64 `json:"confidenceLow"`
	ConfidenceHigh float64 `json:"confidenceHigh"`
}

// skipNaN returns a copy of vals without NaN entries.
func skipNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Quantile picks the nearest rank value for q out of sorted, which must be
// ascending and free of NaN. The fractional rank q*(m-1) is rounded half
// away from zero, so the median of an even sized set is the upper middle.
func Quantile(sorted []float64, q float64) (float64, error) {
	if len(sorted) == 0 {
		return math.NaN(), ErrNoSamples
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN(), fmt.Errorf("quantile %v out of range [0,1]", q)
	}
	idx := int(math.Round(q * float64(len(sorted)-1)))
	return sorted[idx], nil
}

// Percentile accepts array of floats and the desired %tile to calculate
func Percentile(vals []float64, ptile float64) (float64, error) {
	sorted := skipNaN(vals)
	sort.Float64s(sorted)
	return Quantile(sorted, ptile/100)
}

// ConfidenceInterval returns the mean and the bounds of its ci interval
func ConfidenceInterval(vals []float64, ci float64) (float64, float64, float64) {
	return momath.MeanCI(vals, ci)
}

// Summarize computes the Summary of vals. NaN entries are skipped and vals
// is left untouched.
func Summarize(vals []float64) (Summary, error) {
	var s Summary
	sorted := skipNaN(vals)
	if len(sorted) == 0 {
		return s, ErrNoSamples
	}
	sort.Float64s(sorted)
	s.Count = len(sorted)

	var err error
	if s.Min, err = stats.Min(sorted); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(sorted); err != nil {
		return s, err
	}
	if s.Mean, err = stats.Mean(sorted); err != nil {
		return s, err
	}
	// Summation error must not push the mean out of the observed range.
	s.Mean = math.Max(s.Min, math.Min(s.Max, s.Mean))
	if s.Median, err = Quantile(sorted, 0.5); err != nil {
		return s, err
	}
	if s.P95, err = Quantile(sorted, 0.95); err != nil {
		return s, err
	}
	if s.P99, err = Quantile(sorted, 0.99); err != nil {
		return s, err
	}
	if s.StdDev, err = stats.StandardDeviation(sorted); err != nil {
		return s, err
	}
	s.ConfidenceLow, s.ConfidenceHigh = s.Mean, s.Mean
	if s.Count > 1 {
		_, s.ConfidenceLow, s.ConfidenceHigh = ConfidenceInterval(sorted, 0.95)
	}
	return s, nil
}
