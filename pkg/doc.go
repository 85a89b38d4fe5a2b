// Package pkg provides the core libraries of DungeonForge, a deterministic,
// graph-driven dungeon generator.
//
// # Overview
//
// A generator is a node graph (rooms, branches, merges, encounters, loot)
// plus a list of constraints and typed parameters. Executing the graph with
// a seed produces a dungeon layout; the same graph, seed and parameters
// always produce the same layout. The pkg directory is organized into four
// areas:
//
//  1. Model: [graph], [generator], [layout], [dag]
//  2. Execution: [rng], [nodes], [engine], [constraint]
//  3. Batch runs: [simulation], [stats]
//  4. Infrastructure: [pipeline], [cache], [store], [io], [render], [api],
//     [observability], [errors], [buildinfo]
//
// # Architecture
//
// The data flow of a single generation:
//
//	generator file (.json, .yaml, .toml)
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [engine] package (topological execution, one RNG stream per node)
//	         ↓
//	    [constraint] package (evaluate the finished layout)
//	         ↓
//	    layout JSON, DOT, SVG/PNG/PDF
//
// Simulations repeat the generation over a window of consecutive seeds on a
// worker pool and aggregate the results with [stats].
//
// # Quick Start
//
// Load a generator and produce one layout:
//
//	g, _ := io.ReadGeneratorFile("examples/generators/crypt.yaml")
//	params, _ := g.Resolve(nil)
//
//	e := engine.New(nil)
//	res, _ := e.Generate(ctx, engine.Request{
//	    Graph:       g.Graph,
//	    Constraints: g.Constraints,
//	    Seed:        42,
//	    Parameters:  params,
//	})
//	fmt.Println(len(res.Layout.Rooms), res.Success)
//
// Most callers go through [pipeline] instead, which adds result caching and
// rendering and is shared by the CLI and the HTTP API:
//
//	r := pipeline.NewRunner(c, nil, logger)
//	res, _ := r.Generate(ctx, pipeline.GenerateOptions{Generator: g, Seed: 42})
//
//	sim, _ := r.StartSimulation(ctx, pipeline.SimulateOptions{Generator: g, Runs: 500})
//	for p := range sim.Progress() {
//	    fmt.Printf("%d/%d\n", p.Completed, p.Total)
//	}
//	results, _ := sim.Wait()
//
// # Testing
//
//	go test ./...                       # All tests
//	go test ./pkg/engine/...            # Specific package
//	go test -tags integration ./pkg/... # Include MongoDB integration tests
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/graph
// [generator]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/generator
// [layout]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/layout
// [dag]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/dag
// [rng]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/rng
// [nodes]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/nodes
// [engine]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/engine
// [constraint]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/constraint
// [simulation]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/simulation
// [stats]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/stats
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/store
// [io]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/render
// [api]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/api
// [observability]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/dungeonforge/pkg/buildinfo
package pkg
