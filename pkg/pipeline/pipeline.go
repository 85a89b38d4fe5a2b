// Package pipeline runs DungeonForge operations with caching, hooks and
// logging.
//
// The CLI and the HTTP API both go through a [Runner] so that results are
// cached, logged and instrumented the same way regardless of entry point.
//
// # Operations
//
//   - Validate: structural validation of a generator graph
//   - Generate: one seeded run; results are cached by content hash
//   - Simulate / StartSimulation: batch runs over a seed window
//   - Render: DOT, SVG, PNG, PDF or JSON of a graph or a generated layout
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	gen, err := pipeline.Load("crypt.yaml")
//	res, err := runner.Generate(ctx, pipeline.GenerateOptions{Generator: gen, Seed: 42})
//	if res.CacheHit {
//	    // served from cache
//	}
package pipeline

import (
	"fmt"
	"slices"
	"time"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/engine"
	"github.com/matzehuels/dungeonforge/pkg/generator"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is used when a caller does not pick a seed.
	DefaultSeed = uint64(42)

	// DefaultRuns is the simulation batch size.
	DefaultRuns = 100

	// DefaultResultTTL is how long generation results stay cached.
	DefaultResultTTL = 7 * 24 * time.Hour

	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0
)

// Render formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Render targets.
const (
	TargetGraph  = "graph"
	TargetLayout = "layout"
)

// Cache key types reported to hooks.
const (
	keyTypeResult = "result"
)

var (
	validFormats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}
	validTargets = []string{TargetGraph, TargetLayout}
)

// ValidateFormat checks that a render format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(validFormats, format) {
		return dferrors.New(dferrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateTarget checks that a render target is supported.
func ValidateTarget(target string) error {
	if !slices.Contains(validTargets, target) {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "invalid target: %q (must be one of: graph, layout)", target)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// GenerateOptions configures one generation run.
type GenerateOptions struct {
	Generator  *generator.Generator
	Seed       uint64
	Parameters map[string]any
	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool
}

func (o *GenerateOptions) validate() error {
	if o.Generator == nil {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "generator is required")
	}
	return nil
}

// GenerateResult is a generation result plus cache information.
type GenerateResult struct {
	*engine.Result
	GraphHash string        `json:"graphHash"`
	CacheHit  bool          `json:"cacheHit"`
	Elapsed   time.Duration `json:"-"`
}

// SimulateOptions configures a batch simulation.
type SimulateOptions struct {
	Generator  *generator.Generator
	Runs       int
	SeedStart  uint64
	Workers    int
	KeepRuns   bool
	Parameters map[string]any
	OnProgress func(simulation.Progress)
}

// SetDefaults fills Runs.
func (o *SimulateOptions) SetDefaults() {
	if o.Runs == 0 {
		o.Runs = DefaultRuns
	}
}

func (o *SimulateOptions) request() (simulation.Request, error) {
	if o.Generator == nil {
		return simulation.Request{}, dferrors.New(dferrors.ErrCodeInvalidInput, "generator is required")
	}
	o.SetDefaults()
	req, err := o.Generator.SimulationRequest(o.Runs, o.SeedStart, o.Parameters)
	if err != nil {
		return simulation.Request{}, err
	}
	req.Workers = o.Workers
	req.KeepRuns = o.KeepRuns
	req.OnProgress = o.OnProgress
	return req, nil
}

// RenderOptions configures rendering of a generator.
type RenderOptions struct {
	Target string
	Format string
	// Seed and Parameters select the run whose layout is drawn, or, for
	// graph diagrams with ShowPruned, whose pruned paths are greyed out.
	Seed       uint64
	Parameters map[string]any
	ShowPruned bool
	// Detailed adds node configuration to graph diagram labels.
	Detailed bool
	// Scale is the PNG scale factor.
	Scale float64
}

// SetDefaults fills Target, Format and Scale.
func (o *RenderOptions) SetDefaults() {
	if o.Target == "" {
		o.Target = TargetGraph
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// Validate applies defaults and checks target and format.
func (o *RenderOptions) Validate() error {
	o.SetDefaults()
	if err := ValidateTarget(o.Target); err != nil {
		return err
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.Scale < 0 {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return nil
}

// Extension returns the file extension of the render format.
func (o *RenderOptions) Extension() string {
	return fmt.Sprintf(".%s", o.Format)
}
