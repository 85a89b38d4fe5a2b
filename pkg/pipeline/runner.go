package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dungeonforge/pkg/cache"
	"github.com/matzehuels/dungeonforge/pkg/engine"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/observability"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// Runner executes operations with caching, hooks and logging.
//
// The Runner holds no per-request state. Multiple goroutines can safely
// use the same Runner.
type Runner struct {
	Engine    *engine.Engine
	Simulator *simulation.Runner
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	// ResultTTL is the cache lifetime of generation results.
	ResultTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	e := engine.New(logger)
	return &Runner{
		Engine:    e,
		Simulator: simulation.NewRunner(e, logger),
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		ResultTTL: DefaultResultTTL,
	}
}

// Validate runs structural validation on g.
func (r *Runner) Validate(ctx context.Context, g graph.NodeGraph) graph.ValidationResult {
	start := time.Now()
	res := graph.ValidateGraph(g)
	elapsed := time.Since(start)
	observability.Generation().OnValidate(ctx, len(g.Nodes), res.Valid, elapsed)

	r.Logger.Debug("validated graph",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"valid", res.Valid,
		"duration", elapsed)
	return res
}

// Generate runs the generator once, serving the result from the cache when
// the same graph, constraints, resolved parameters and seed ran before.
//
// Errors are returned for invalid input (generator, parameters, graph,
// constraints) and cancellation; node failures and constraint violations
// are carried by the result.
func (r *Runner) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	hooks := observability.Generation()
	hooks.OnGenerateStart(ctx, opts.Seed)

	req, err := opts.Generator.EngineRequest(opts.Seed, opts.Parameters)
	if err != nil {
		hooks.OnGenerateComplete(ctx, opts.Seed, false, time.Since(start), err)
		return nil, err
	}

	graphHash, key, err := r.resultKey(req)
	if err != nil {
		return nil, err
	}

	if !opts.Refresh {
		if res, ok := r.cachedResult(ctx, key); ok {
			out := &GenerateResult{Result: res, GraphHash: graphHash, CacheHit: true, Elapsed: time.Since(start)}
			hooks.OnGenerateComplete(ctx, opts.Seed, res.Success, out.Elapsed, nil)
			r.Logger.Debug("generation cache hit", "seed", opts.Seed, "generator", opts.Generator.ID)
			return out, nil
		}
	}

	res, err := r.Engine.Generate(ctx, req)
	if err != nil {
		hooks.OnGenerateComplete(ctx, opts.Seed, false, time.Since(start), err)
		return nil, err
	}
	r.storeResult(ctx, key, res)

	out := &GenerateResult{Result: res, GraphHash: graphHash, Elapsed: time.Since(start)}
	hooks.OnGenerateComplete(ctx, opts.Seed, res.Success, out.Elapsed, nil)

	r.Logger.Info("generated",
		"generator", opts.Generator.ID,
		"seed", opts.Seed,
		"success", res.Success,
		"rooms", roomCount(res),
		"duration", out.Elapsed)
	return out, nil
}

func (r *Runner) resultKey(req engine.Request) (graphHash, key string, err error) {
	graphHash, err = cache.HashJSON(req.Graph)
	if err != nil {
		return "", "", err
	}
	constraintsHash, err := cache.HashJSON(req.Constraints)
	if err != nil {
		return "", "", err
	}
	key = r.Keyer.ResultKey(graphHash, cache.ResultKeyOpts{
		Seed:            req.Seed,
		ConstraintsHash: constraintsHash,
		Parameters:      req.Parameters,
	})
	return graphHash, key, nil
}

// cachedResult returns a cached result. Backend and decode errors are
// logged and treated as misses.
func (r *Runner) cachedResult(ctx context.Context, key string) (*engine.Result, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
	}
	if !hit {
		hooks.OnCacheMiss(ctx, keyTypeResult)
		return nil, false
	}
	var res engine.Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		hooks.OnCacheMiss(ctx, keyTypeResult)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyTypeResult)
	return &res, true
}

func (r *Runner) storeResult(ctx context.Context, key string, res *engine.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		r.Logger.Warn("cannot cache result", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.ResultTTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeResult, len(data))
}

// Simulate runs a batch simulation to completion.
func (r *Runner) Simulate(ctx context.Context, opts SimulateOptions) (*simulation.Results, error) {
	sim, err := r.StartSimulation(ctx, opts)
	if err != nil {
		return nil, err
	}
	return sim.Wait()
}

// StartSimulation validates opts and starts a batch in the background.
// Request errors are returned directly rather than through Wait.
func (r *Runner) StartSimulation(ctx context.Context, opts SimulateOptions) (*simulation.Simulation, error) {
	req, err := opts.request()
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hooks := observability.Simulation()
	hooks.OnSimulationStart(ctx, req.RunCount, req.Workers)
	start := time.Now()
	sim := r.Simulator.Start(ctx, req)

	go func() {
		res, err := sim.Wait()
		rate := 0.0
		if res != nil {
			rate = res.SuccessRate
		}
		hooks.OnSimulationComplete(context.WithoutCancel(ctx), req.RunCount, rate, time.Since(start), err)
	}()
	return sim, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func roomCount(res *engine.Result) int {
	if res == nil || res.Layout == nil {
		return 0
	}
	return len(res.Layout.Rooms)
}
