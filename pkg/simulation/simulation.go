package simulation

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	"github.com/matzehuels/dungeonforge/pkg/engine"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
)

// ProgressInterval is the minimum time between progress channel updates.
const ProgressInterval = 100 * time.Millisecond

// MaxReportedFailures caps the failed runs listed in Results.
const MaxReportedFailures = 20

// Request describes a batch of runs over seeds SeedStart..SeedStart+RunCount-1.
type Request struct {
	Graph       graph.NodeGraph         `json:"graph"`
	Constraints []constraint.Constraint `json:"constraints,omitempty"`
	Parameters  map[string]any          `json:"parameters,omitempty"`
	RunCount    int                     `json:"runCount"`
	SeedStart   uint64                  `json:"seedStart"`
	// Workers bounds parallelism; zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
	// KeepRuns includes every per-run result in Results.Runs.
	KeepRuns bool `json:"keepRuns,omitempty"`

	Registry *constraint.Registry `json:"-"`
	// OnProgress, if set, is called from worker goroutines after every
	// completed run. It must be safe for concurrent use.
	OnProgress func(Progress) `json:"-"`
}

// Validate checks the request without running anything.
func (r *Request) Validate() error {
	if err := dferrors.ValidateSeedWindow(r.SeedStart, r.RunCount); err != nil {
		return err
	}
	if r.Workers < 0 {
		return dferrors.New(dferrors.ErrCodeInvalidInput, "workers must not be negative, got %d", r.Workers)
	}
	if err := graph.Validate(r.Graph); err != nil {
		return err
	}
	if err := constraint.Check(r.Constraints); err != nil {
		return dferrors.Wrap(dferrors.ErrCodeInvalidInput, err, "invalid constraints")
	}
	return nil
}

func (r *Request) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Progress reports how many runs have finished.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// CancelledError is returned by a simulation stopped before every run
// finished. No statistics are produced for a cancelled batch.
type CancelledError struct {
	Completed int
	Total     int
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("simulation cancelled after %d of %d runs", e.Completed, e.Total)
}

// Code implements errors.Coder.
func (e *CancelledError) Code() dferrors.Code { return dferrors.ErrCodeSimulationCancelled }

// Runner executes simulations on an engine.
type Runner struct {
	Engine *engine.Engine
	Logger *log.Logger
}

// NewRunner returns a runner. A nil engine uses a silent one; a nil logger
// uses log.Default().
func NewRunner(e *engine.Engine, logger *log.Logger) *Runner {
	if e == nil {
		e = engine.New(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Engine: e, Logger: logger}
}

// Run executes req and blocks until it completes or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, req Request) (*Results, error) {
	return r.Start(ctx, req).Wait()
}

// Start launches req in the background. Invalid requests fail through
// [Simulation.Wait]; call [Request.Validate] first to reject them early.
func (r *Runner) Start(ctx context.Context, req Request) *Simulation {
	ctx, cancel := context.WithCancel(ctx)
	s := &Simulation{
		total:    req.RunCount,
		cancel:   cancel,
		progress: make(chan Progress, 1),
		done:     make(chan struct{}),
	}
	go s.run(ctx, r, req)
	return s
}

// Simulation is a handle on a running batch.
type Simulation struct {
	total     int
	completed atomic.Int64
	cancelled atomic.Bool
	cancel    context.CancelFunc
	progress  chan Progress
	done      chan struct{}

	results *Results
	err     error
}

// Progress returns a channel of progress updates. Updates are sent at most
// every [ProgressInterval]; a slow reader only ever sees the latest one.
// The channel is closed after the final update.
func (s *Simulation) Progress() <-chan Progress { return s.progress }

// Snapshot returns the current progress without waiting.
func (s *Simulation) Snapshot() Progress {
	return Progress{Completed: int(s.completed.Load()), Total: s.total}
}

// Cancel stops dispatching new runs. Runs already executing finish; the
// simulation then ends with a *CancelledError. Cancel is idempotent.
func (s *Simulation) Cancel() {
	s.cancelled.Store(true)
	s.cancel()
}

// Done is closed when the simulation has ended.
func (s *Simulation) Done() <-chan struct{} { return s.done }

// Wait blocks until the simulation ends and returns its outcome.
func (s *Simulation) Wait() (*Results, error) {
	<-s.done
	return s.results, s.err
}

func (s *Simulation) stopped(ctx context.Context) bool {
	return s.cancelled.Load() || ctx.Err() != nil
}

func (s *Simulation) run(ctx context.Context, r *Runner, req Request) {
	defer close(s.done)
	defer s.cancel()

	if err := req.Validate(); err != nil {
		s.err = err
		close(s.progress)
		return
	}

	begin := time.Now()
	stopReporter := s.report()
	runs := make([]*engine.Result, req.RunCount)
	// In-flight runs finish even when the batch is cancelled.
	runCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(req.workers())
	for i := range req.RunCount {
		if s.stopped(ctx) {
			break
		}
		g.Go(func() error {
			if s.stopped(ctx) {
				return nil
			}
			seed := req.SeedStart + uint64(i)
			res, err := r.Engine.Generate(runCtx, engine.Request{
				Graph:       req.Graph,
				Constraints: req.Constraints,
				Seed:        seed,
				Parameters:  req.Parameters,
				Registry:    req.Registry,
			})
			if err != nil {
				res = &engine.Result{Seed: seed, Errors: []string{err.Error()}, Err: err}
			}
			runs[i] = res
			n := int(s.completed.Add(1))
			if req.OnProgress != nil {
				req.OnProgress(Progress{Completed: n, Total: req.RunCount})
			}
			return nil
		})
	}
	_ = g.Wait()
	stopReporter()
	s.publish(s.Snapshot())
	close(s.progress)

	completed := int(s.completed.Load())
	if completed < req.RunCount {
		s.err = &CancelledError{Completed: completed, Total: req.RunCount}
		r.Logger.Warn("simulation cancelled", "completed", completed, "total", req.RunCount)
		return
	}
	s.results = Aggregate(req, runs, time.Since(begin))
	r.Logger.Info("simulation complete",
		"runs", req.RunCount,
		"successRate", s.results.SuccessRate,
		"duration", time.Since(begin))
}

// report starts the periodic progress publisher and returns a function
// that stops it and waits for it to exit.
func (s *Simulation) report() (stop func()) {
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ProgressInterval)
		defer ticker.Stop()
		last := -1
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				if p := s.Snapshot(); p.Completed != last {
					last = p.Completed
					s.publish(p)
				}
			}
		}
	}()
	return func() {
		close(quit)
		wg.Wait()
	}
}

// publish sends p without blocking, replacing an unread stale update.
func (s *Simulation) publish(p Progress) {
	select {
	case <-s.progress:
	default:
	}
	select {
	case s.progress <- p:
	default:
	}
}
