package stats

import (
	"math"
	"slices"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeOneToFive(t *testing.T) {
	s := Compute([]float64{1, 2, 3, 4, 5})

	checks := []struct {
		name      string
		got, want float64
	}{
		{"min", s.Min, 1},
		{"max", s.Max, 5},
		{"mean", s.Mean, 3},
		{"median", s.Median, 3},
		{"stdDev", s.StdDev, math.Sqrt2},
		{"p5", s.Percentiles.P5, 1},
		{"p25", s.Percentiles.P25, 2},
		{"p75", s.Percentiles.P75, 4},
		{"p95", s.Percentiles.P95, 4},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if s.Count != 5 {
		t.Errorf("Count = %d, want 5", s.Count)
	}
	want := []int{1, 0, 1, 0, 0, 1, 0, 1, 0, 1}
	if !slices.Equal(s.Histogram.Counts, want) {
		t.Errorf("histogram = %v, want %v", s.Histogram.Counts, want)
	}
}

func TestComputeEdgeCases(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Compute(nil)
		if s.Count != 0 || s.Mean != 0 || len(s.Histogram.Counts) != HistogramBuckets {
			t.Errorf("Compute(nil) = %+v", s)
		}
	})

	t.Run("constant", func(t *testing.T) {
		s := Compute([]float64{7, 7, 7})
		if s.StdDev != 0 || s.Median != 7 {
			t.Errorf("stdDev = %v median = %v", s.StdDev, s.Median)
		}
		if s.Histogram.Counts[0] != 3 {
			t.Errorf("histogram = %v, want all in bucket 0", s.Histogram.Counts)
		}
	})

	t.Run("even median", func(t *testing.T) {
		if s := Compute([]float64{4, 1, 3, 2}); s.Median != 2.5 {
			t.Errorf("median = %v, want 2.5", s.Median)
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []float64{3, 1, 2}
		Compute(in)
		if !slices.Equal(in, []float64{3, 1, 2}) {
			t.Errorf("input reordered: %v", in)
		}
	})
}

func TestPercentile(t *testing.T) {
	sorted := make([]float64, 100)
	for i := range sorted {
		sorted[i] = float64(i)
	}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{0.05, 4},
		{0.5, 49},
		{0.95, 94},
		{1, 99},
		{1.5, 99},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); got != tt.want {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestConstraintStats(t *testing.T) {
	var c ConstraintStats
	for _, passed := range []bool{true, true, false, true} {
		c.Record(passed)
	}
	if c.Evaluated != 4 || c.Passes != 3 || c.Violations != 1 || c.PassRate != 0.75 {
		t.Errorf("stats = %+v", c)
	}
}
