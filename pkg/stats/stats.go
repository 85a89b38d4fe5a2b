package stats

import (
	"math"
	"slices"

	mstats "github.com/montanaflynn/stats"
)

// HistogramBuckets is the fixed number of histogram buckets.
const HistogramBuckets = 10

// Percentiles are read from the sorted sample at index floor(p*(n-1)),
// without interpolation.
type Percentiles struct {
	P5  float64 `json:"p5" bson:"p5"`
	P25 float64 `json:"p25" bson:"p25"`
	P75 float64 `json:"p75" bson:"p75"`
	P95 float64 `json:"p95" bson:"p95"`
}

// Histogram counts values in equal-width buckets spanning [Min, Max]. The
// maximum falls into the last bucket. When Min == Max every value is in
// bucket 0.
type Histogram struct {
	Min    float64 `json:"min" bson:"min"`
	Max    float64 `json:"max" bson:"max"`
	Counts []int   `json:"counts" bson:"counts"`
}

// DistributionStats summarizes one metric over a batch of runs.
type DistributionStats struct {
	Count       int         `json:"count" bson:"count"`
	Min         float64     `json:"min" bson:"min"`
	Max         float64     `json:"max" bson:"max"`
	Mean        float64     `json:"mean" bson:"mean"`
	Median      float64     `json:"median" bson:"median"`
	StdDev      float64     `json:"stdDev" bson:"stdDev"`
	Percentiles Percentiles `json:"percentiles" bson:"percentiles"`
	Histogram   Histogram   `json:"histogram" bson:"histogram"`
}

// Compute summarizes values. The input is not modified. Values are summed
// in input order, so callers wanting reproducible means must pass them in a
// fixed order. An empty input yields zero stats with empty buckets.
func Compute(values []float64) DistributionStats {
	out := DistributionStats{
		Count:     len(values),
		Histogram: Histogram{Counts: make([]int, HistogramBuckets)},
	}
	if len(values) == 0 {
		return out
	}

	data := mstats.Float64Data(values)
	// Errors only signal empty input, handled above.
	out.Min, _ = data.Min()
	out.Max, _ = data.Max()
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.StdDev, _ = data.StandardDeviationPopulation()

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	out.Percentiles = Percentiles{
		P5:  Percentile(sorted, 0.05),
		P25: Percentile(sorted, 0.25),
		P75: Percentile(sorted, 0.75),
		P95: Percentile(sorted, 0.95),
	}
	out.Histogram = NewHistogram(values, out.Min, out.Max)
	return out
}

// Percentile returns sorted[floor(p*(n-1))]. sorted must be ascending and
// non-empty; p is clamped to [0, 1].
func Percentile(sorted []float64, p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	return sorted[int(math.Floor(p*float64(len(sorted)-1)))]
}

// NewHistogram buckets values into [HistogramBuckets] buckets over
// [lo, hi].
func NewHistogram(values []float64, lo, hi float64) Histogram {
	h := Histogram{Min: lo, Max: hi, Counts: make([]int, HistogramBuckets)}
	width := hi - lo
	for _, v := range values {
		i := 0
		if width > 0 {
			i = int((v - lo) / width * HistogramBuckets)
			i = max(0, min(HistogramBuckets-1, i))
		}
		h.Counts[i]++
	}
	return h
}

// ConstraintStats summarizes one constraint over a batch. Runs that failed
// before constraints were evaluated are not counted.
type ConstraintStats struct {
	PassRate   float64 `json:"passRate" bson:"passRate"`
	Passes     int     `json:"passes" bson:"passes"`
	Violations int     `json:"violations" bson:"violations"`
	Evaluated  int     `json:"evaluated" bson:"evaluated"`
}

// Record adds one evaluation.
func (c *ConstraintStats) Record(passed bool) {
	c.Evaluated++
	if passed {
		c.Passes++
	} else {
		c.Violations++
	}
	c.PassRate = float64(c.Passes) / float64(c.Evaluated)
}
