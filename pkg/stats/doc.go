// Package stats reduces per-run metrics into distribution summaries.
//
// [Compute] reports min, max, mean, median, population standard deviation,
// the p5/p25/p75/p95 percentiles by sorted-index lookup and a fixed
// ten-bucket histogram. Mean, median and deviation come from
// github.com/montanaflynn/stats; percentiles use the floor(p*(n-1)) index
// rule so results match across implementations.
package stats
