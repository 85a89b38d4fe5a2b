package simulation

import (
	"fmt"
	"time"

	"github.com/matzehuels/dungeonforge/pkg/engine"
	"github.com/matzehuels/dungeonforge/pkg/stats"
)

// Failure identifies a run that did not succeed.
type Failure struct {
	Seed   uint64   `json:"seed" bson:"seed"`
	Errors []string `json:"errors" bson:"errors"`
}

// Results aggregates a completed batch. Every field is derived from the
// runs in seed order, so it does not depend on worker scheduling.
type Results struct {
	RunCount    int                                `json:"runCount" bson:"runCount"`
	SeedStart   uint64                             `json:"seedStart" bson:"seedStart"`
	SuccessRate float64                            `json:"successRate" bson:"successRate"`
	Succeeded   int                                `json:"succeeded" bson:"succeeded"`
	Metrics     map[string]stats.DistributionStats `json:"metrics" bson:"metrics"`
	Constraints map[string]stats.ConstraintStats   `json:"constraintResults" bson:"constraintResults"`
	Failures    []Failure                          `json:"failures" bson:"failures"`
	Warnings    []string                           `json:"warnings" bson:"warnings"`
	RetryCount  int                                `json:"retryCount" bson:"retryCount"`
	DurationMs  float64                            `json:"durationMs" bson:"durationMs"`
	Runs        []*engine.Result                   `json:"runs,omitempty" bson:"runs,omitempty"`
}

// Aggregate reduces per-run results, indexed by seed offset, into Results.
// Metrics cover every run that produced a layout; constraint stats cover
// every run that reached constraint evaluation.
func Aggregate(req Request, runs []*engine.Result, elapsed time.Duration) *Results {
	res := &Results{
		RunCount:    len(runs),
		SeedStart:   req.SeedStart,
		Metrics:     make(map[string]stats.DistributionStats, len(MetricNames)),
		Constraints: make(map[string]stats.ConstraintStats, len(req.Constraints)),
		Failures:    []Failure{},
		Warnings:    []string{},
		DurationMs:  float64(elapsed.Microseconds()) / 1000,
	}

	samples := make(map[string][]float64, len(MetricNames))
	var failed, overlapping int
	for _, run := range runs {
		if run == nil {
			continue
		}
		res.RetryCount += run.Metadata.RetryCount
		if run.Success {
			res.Succeeded++
		} else {
			failed++
			if len(res.Failures) < MaxReportedFailures {
				res.Failures = append(res.Failures, Failure{Seed: run.Seed, Errors: run.Errors})
			}
		}
		if run.Layout == nil {
			continue
		}
		if len(run.Layout.Warnings) > 0 {
			overlapping++
		}
		for name, v := range Measure(run.Layout) {
			samples[name] = append(samples[name], v)
		}
		for _, c := range run.ConstraintResults {
			cs := res.Constraints[c.ConstraintID]
			cs.Record(c.Passed)
			res.Constraints[c.ConstraintID] = cs
		}
	}

	for _, name := range MetricNames {
		res.Metrics[name] = stats.Compute(samples[name])
	}
	if len(runs) > 0 {
		res.SuccessRate = float64(res.Succeeded) / float64(len(runs))
	}
	if failed > len(res.Failures) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d failed runs, first %d listed", failed, len(res.Failures)))
	}
	if overlapping > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d runs accepted overlapping rooms", overlapping))
	}
	if req.KeepRuns {
		res.Runs = runs
	}
	return res
}
