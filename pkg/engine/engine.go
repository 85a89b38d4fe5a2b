package engine

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// MaxNodeExecutions caps the node executions of a single run.
const MaxNodeExecutions = 1000

// Request is the input of one generation run.
type Request struct {
	Graph       graph.NodeGraph
	Constraints []constraint.Constraint
	Seed        uint64
	Parameters  map[string]any
	// Registry resolves custom constraints; nil uses constraint.Default().
	Registry *constraint.Registry
}

// Metadata describes how a run executed.
type Metadata struct {
	NodeExecutions int               `json:"nodeExecutions" bson:"nodeExecutions"`
	RetryCount     int               `json:"retryCount" bson:"retryCount"`
	PrunedNodes    []string          `json:"prunedNodes" bson:"prunedNodes"`
	MergeWinners   map[string]string `json:"mergeWinners,omitempty" bson:"mergeWinners,omitempty"`
}

// Result is the outcome of one run. It owns all of its data and is safe to
// serialize.
type Result struct {
	Seed              uint64                `json:"seed" bson:"seed"`
	Success           bool                  `json:"success" bson:"success"`
	Layout            *layout.DungeonLayout `json:"layout,omitempty" bson:"layout,omitempty"`
	ConstraintResults []constraint.Result   `json:"constraintResults" bson:"constraintResults"`
	Metadata          Metadata              `json:"metadata" bson:"metadata"`
	Errors            []string              `json:"errors" bson:"errors"`
	Warnings          []string              `json:"warnings" bson:"warnings"`
	DurationMs        float64               `json:"durationMs" bson:"durationMs"`

	// Err is the node failure that aborted the run, if any.
	Err error `json:"-" bson:"-"`
}

// Passed reports whether the constraint with the given ID passed. Missing
// constraints report false.
func (r *Result) Passed(constraintID string) bool {
	for _, c := range r.ConstraintResults {
		if c.ConstraintID == constraintID {
			return c.Passed
		}
	}
	return false
}

// Engine runs generator graphs. The zero value is not usable; use [New].
type Engine struct {
	Logger *log.Logger
}

// New returns an engine logging to logger. A nil logger discards output.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{Logger: logger}
}

var defaultEngine = New(nil)

// Generate runs req with a silent engine. See [Engine.Generate].
func Generate(ctx context.Context, req Request) (*Result, error) {
	return defaultEngine.Generate(ctx, req)
}

// Generate validates the graph, executes it for req.Seed and evaluates the
// constraints against the frozen layout.
//
// An invalid graph or constraint list is returned as an error before
// anything runs; a *graph.ValidationError lists every graph violation. A
// node failure is not an error: the result carries Success=false, the
// message in Errors and the typed failure in Err, so the seed can be
// replayed. Context cancellation between node executions returns ctx.Err().
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	begin := time.Now()
	if err := graph.Validate(req.Graph); err != nil {
		return nil, err
	}
	if err := constraint.Check(req.Constraints); err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeInvalidInput, err, "invalid constraints")
	}

	r := newRun(&req.Graph, req.Seed, req.Parameters)
	runErr := r.execute(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Seed:              req.Seed,
		ConstraintResults: []constraint.Result{},
		Metadata:          r.meta,
		Errors:            []string{},
		Warnings:          slices.Clone(r.layout.Warnings),
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	res.Metadata.RetryCount = r.retries

	if runErr != nil {
		res.Err = runErr
		res.Errors = append(res.Errors, runErr.Error())
		e.Logger.Debug("generation failed", "seed", req.Seed, "err", runErr)
	} else {
		res.Layout = r.layout
		res.Success = true
		res.ConstraintResults = constraint.Evaluate(r.layout, req.Constraints, req.Registry)
		for _, c := range res.ConstraintResults {
			switch {
			case c.Blocking():
				res.Success = false
				res.Errors = append(res.Errors, fmt.Sprintf("constraint %s failed: %s", c.ConstraintID, c.Message))
			case !c.Passed:
				res.Warnings = append(res.Warnings, fmt.Sprintf("constraint %s failed: %s", c.ConstraintID, c.Message))
			}
		}
	}
	res.DurationMs = float64(time.Since(begin).Microseconds()) / 1000

	e.Logger.Debug("generated",
		"seed", req.Seed,
		"success", res.Success,
		"rooms", roomCount(res.Layout),
		"executions", res.Metadata.NodeExecutions,
		"duration", time.Since(begin))
	return res, nil
}

func roomCount(l *layout.DungeonLayout) int {
	if l == nil {
		return 0
	}
	return len(l.Rooms)
}
