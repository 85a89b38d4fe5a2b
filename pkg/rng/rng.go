// Package rng derives independent, reproducible random streams for the
// nodes of a generator graph.
//
// A generation run has a single 64-bit root seed. Rather than advancing one
// global generator as nodes execute, every node receives its own stream
// keyed by (seed, node ID). The values a node draws therefore depend only on
// the seed and the node's ID: adding an unrelated node, reordering sibling
// branches or changing how many values an upstream node consumed leaves
// them untouched.
//
// Streams are ChaCha8 generators from math/rand/v2 keyed with
// SHA-256(seed || nodeID). [Derive] is a pure function and needs no
// synchronization, so simulation workers call it freely.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
)

// ErrInvalidWeights is returned by [NormalizeWeights] when a weight is
// negative, NaN or infinite.
var ErrInvalidWeights = errors.New("weights must be finite and non-negative")

// WeightTolerance is the maximum deviation from 1.0 allowed for the sum of
// normalized weights.
const WeightTolerance = 1e-9

// Stream is a deterministic random source owned by one node executor.
// A Stream is not safe for concurrent use.
type Stream struct {
	r    *rand.Rand
	seed uint64
	key  string
}

// Derive returns the stream for node nodeID under the given root seed.
// Calling Derive twice with the same arguments yields streams that produce
// bit-identical sequences.
func Derive(seed uint64, nodeID string) *Stream {
	return &Stream{
		r:    rand.New(rand.NewChaCha8(key(seed, nodeID))),
		seed: seed,
		key:  nodeID,
	}
}

func key(seed uint64, nodeID string) [32]byte {
	buf := make([]byte, 8, 8+len(nodeID))
	binary.LittleEndian.PutUint64(buf, seed)
	buf = append(buf, nodeID...)
	return sha256.Sum256(buf)
}

// Sub derives a child stream for a named sub-step of the same node, such as
// the i-th room of a chain. The child is independent of how many values the
// parent stream has already produced.
func (s *Stream) Sub(label string) *Stream {
	return Derive(s.seed, s.key+"/"+label)
}

// Key returns the identifier the stream was derived for.
func (s *Stream) Key() string { return s.key }

// Uint64 returns a uniformly distributed 64-bit value.
func (s *Stream) Uint64() uint64 { return s.r.Uint64() }

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 { return s.r.Float64() }

// FloatRange returns a value in [lo, hi). If hi <= lo it returns lo
// without consuming randomness.
func (s *Stream) FloatRange(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*s.r.Float64()
}

// IntRange returns a value in [lo, hi], both ends inclusive. If hi <= lo it
// returns lo without consuming randomness.
func (s *Stream) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.r.IntN(hi-lo+1)
}

// Bool returns true with probability p. p is clamped to [0, 1]; the
// degenerate cases consume no randomness.
func (s *Stream) Bool(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return s.r.Float64() < p
}

// Pick returns a uniformly chosen index in [0, n). It panics if n <= 0.
func (s *Stream) Pick(n int) int { return s.r.IntN(n) }

// Weighted returns an index chosen with probability proportional to its
// weight. Weights need not be normalized. If every weight is zero the
// choice is uniform. It panics if weights is empty.
func (s *Stream) Weighted(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return s.Pick(len(weights))
	}
	target := s.r.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	// Rounding can leave target just above the last boundary.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// NormalizeWeights scales weights so they sum to 1 while preserving their
// ratios. An empty or all-zero vector of length n normalizes to the uniform
// distribution 1/n. The result sums to 1 within [WeightTolerance].
func NormalizeWeights(weights []float64) ([]float64, error) {
	peak := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, ErrInvalidWeights
		}
		peak = max(peak, w)
	}

	out := make([]float64, len(weights))
	if len(weights) == 0 {
		return out, nil
	}
	if peak == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out, nil
	}

	// Scaling by the peak first keeps the sum finite for huge weights.
	total := 0.0
	for i, w := range weights {
		out[i] = w / peak
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out, nil
}
