// Package simulation runs a generator over many seeds in parallel and
// aggregates the results.
//
// A batch covers seeds SeedStart..SeedStart+RunCount-1. Runs are
// independent: each gets its own engine state and random streams, so the
// per-run results, and the aggregate computed from them in seed order, do
// not depend on how many workers ran or in which order they finished.
//
//	sim := simulation.NewRunner(nil, logger).Start(ctx, req)
//	for p := range sim.Progress() {
//	    fmt.Printf("\r%d/%d", p.Completed, p.Total)
//	}
//	results, err := sim.Wait()
//
// Failed runs lower Results.SuccessRate and never abort the batch.
// Cancelling (through [Simulation.Cancel] or the context) stops dispatching
// new runs, lets in-flight runs finish and ends with a [*CancelledError].
package simulation
