package rng

import (
	"errors"
	"math"
	"testing"
)

func TestDeriveIsPure(t *testing.T) {
	a := Derive(42, "room_1")
	b := Derive(42, "room_1")
	for i := 0; i < 100; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestDeriveIndependence(t *testing.T) {
	tests := []struct {
		name      string
		seedA     uint64
		nodeA     string
		seedB     uint64
		nodeB     string
		wantEqual bool
	}{
		{"same seed same node", 7, "n", 7, "n", true},
		{"different node", 7, "n", 7, "m", false},
		{"different seed", 7, "n", 8, "n", false},
		{"prefix collision", 1, "ab", 1, "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Derive(tt.seedA, tt.nodeA).Uint64()
			b := Derive(tt.seedB, tt.nodeB).Uint64()
			if (a == b) != tt.wantEqual {
				t.Errorf("first draws equal = %v, want %v", a == b, tt.wantEqual)
			}
		})
	}
}

func TestStreamUnaffectedByOtherStreams(t *testing.T) {
	want := Derive(99, "target").Float64()

	// Consuming other streams, however much, must not shift the target.
	noise := Derive(99, "upstream")
	for i := 0; i < 1000; i++ {
		noise.Float64()
	}
	if got := Derive(99, "target").Float64(); got != want {
		t.Errorf("Float64() = %v, want %v", got, want)
	}
}

func TestSubStreams(t *testing.T) {
	parent := Derive(5, "chain")
	first := parent.Sub("0").Uint64()
	parent.Uint64()
	parent.Uint64()
	if again := parent.Sub("0").Uint64(); again != first {
		t.Errorf("Sub(0) depends on parent consumption: %d != %d", again, first)
	}
	if other := Derive(5, "chain").Sub("1").Uint64(); other == first {
		t.Error("Sub(1) should differ from Sub(0)")
	}
	if got := parent.Sub("x").Key(); got != "chain/x" {
		t.Errorf("Key() = %q, want %q", got, "chain/x")
	}
}

func TestRanges(t *testing.T) {
	s := Derive(1, "ranges")
	for i := 0; i < 1000; i++ {
		if v := s.FloatRange(3, 8); v < 3 || v >= 8 {
			t.Fatalf("FloatRange(3, 8) = %v", v)
		}
		if v := s.IntRange(2, 4); v < 2 || v > 4 {
			t.Fatalf("IntRange(2, 4) = %v", v)
		}
	}
	if v := s.FloatRange(5, 5); v != 5 {
		t.Errorf("FloatRange(5, 5) = %v, want 5", v)
	}
	if v := s.IntRange(3, 3); v != 3 {
		t.Errorf("IntRange(3, 3) = %v, want 3", v)
	}
	if s.Bool(0) || !s.Bool(1) {
		t.Error("Bool(0)/Bool(1) should be deterministic")
	}
}

func TestIntRangeCoversBounds(t *testing.T) {
	s := Derive(3, "bounds")
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[s.IntRange(1, 3)] = true
	}
	for v := 1; v <= 3; v++ {
		if !seen[v] {
			t.Errorf("IntRange(1, 3) never produced %d", v)
		}
	}
}

func TestWeighted(t *testing.T) {
	s := Derive(11, "weighted")
	for i := 0; i < 200; i++ {
		if got := s.Weighted([]float64{0, 1, 0}); got != 1 {
			t.Fatalf("Weighted([0 1 0]) = %d, want 1", got)
		}
	}

	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		counts[s.Weighted([]float64{3, 1})]++
	}
	if ratio := float64(counts[0]) / float64(counts[1]); ratio < 2.5 || ratio > 3.5 {
		t.Errorf("Weighted([3 1]) ratio = %.2f, want about 3", ratio)
	}
}

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name    string
		in      []float64
		want    []float64
		wantErr bool
	}{
		{"already normalized", []float64{0.25, 0.75}, []float64{0.25, 0.75}, false},
		{"ratios preserved", []float64{1, 2, 1}, []float64{0.25, 0.5, 0.25}, false},
		{"all zero is uniform", []float64{0, 0, 0, 0}, []float64{0.25, 0.25, 0.25, 0.25}, false},
		{"huge weights", []float64{math.MaxFloat64, math.MaxFloat64}, []float64{0.5, 0.5}, false},
		{"tiny weights", []float64{1e-300, 3e-300}, []float64{0.25, 0.75}, false},
		{"empty", nil, []float64{}, false},
		{"negative", []float64{1, -1}, nil, true},
		{"nan", []float64{math.NaN()}, nil, true},
		{"inf", []float64{math.Inf(1), 1}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWeights(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWeights) {
					t.Fatalf("NormalizeWeights(%v) error = %v, want %v", tt.in, err, ErrInvalidWeights)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeWeights(%v) error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			sum := 0.0
			for i := range got {
				sum += got[i]
				if math.Abs(got[i]-tt.want[i]) > WeightTolerance {
					t.Errorf("w[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if len(got) > 0 && math.Abs(sum-1) > WeightTolerance {
				t.Errorf("sum = %v, want 1 within %g", sum, WeightTolerance)
			}
		})
	}
}

func TestNormalizeWeightsRandomVectors(t *testing.T) {
	s := Derive(2024, "vectors")
	for i := 0; i < 500; i++ {
		n := s.IntRange(1, 12)
		in := make([]float64, n)
		for j := range in {
			in[j] = s.FloatRange(0, 1000)
		}
		got, err := NormalizeWeights(in)
		if err != nil {
			t.Fatalf("NormalizeWeights() error: %v", err)
		}
		sum := 0.0
		for _, w := range got {
			sum += w
		}
		if math.Abs(sum-1) > WeightTolerance {
			t.Fatalf("sum = %v for %v", sum, in)
		}
		if in[0] > 0 {
			for j := 1; j < n; j++ {
				want := in[j] / in[0]
				if math.Abs(got[j]/got[0]-want) > 1e-9*max(1, want) {
					t.Fatalf("ratio %d changed: %v vs %v", j, got[j]/got[0], want)
				}
			}
		}
	}
}
