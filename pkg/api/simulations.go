package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
	"github.com/matzehuels/dungeonforge/pkg/store"
)

type simulationRequest struct {
	Generator  json.RawMessage `json:"generator"`
	Runs       int             `json:"runs"`
	SeedStart  uint64          `json:"seedStart"`
	Workers    int             `json:"workers,omitempty"`
	KeepRuns   bool            `json:"keepRuns,omitempty"`
	Parameters map[string]any  `json:"parameters,omitempty"`
}

// job is a simulation running in this process.
type job struct {
	sim  *simulation.Simulation
	done chan struct{} // closed after the final record is stored
}

func (s *Server) createSimulation(w http.ResponseWriter, r *http.Request) {
	var body simulationRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	gen, err := decodeGenerator(body.Generator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.SimulateOptions{
		Generator:  gen,
		Runs:       body.Runs,
		SeedStart:  body.SeedStart,
		Workers:    body.Workers,
		KeepRuns:   body.KeepRuns,
		Parameters: body.Parameters,
	}
	opts.SetDefaults()
	sim, err := s.runner.StartSimulation(s.ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec := store.NewRecord(gen.ID, opts.Runs, s.jobTTL)
	if err := s.store.Put(r.Context(), rec); err != nil {
		sim.Cancel()
		s.writeError(w, r, err)
		return
	}
	resp := *rec
	j := &job{sim: sim, done: make(chan struct{})}
	s.mu.Lock()
	s.jobs[rec.ID] = j
	s.mu.Unlock()

	s.wg.Add(1)
	go s.follow(rec, j)

	s.logger.Info("simulation started", "id", rec.ID, "generator", gen.ID, "runs", opts.Runs)
	w.Header().Set("Location", "/v1/simulations/"+rec.ID)
	writeJSON(w, http.StatusAccepted, &resp)
}

// follow mirrors the progress of a running job into the store and records
// its outcome.
func (s *Server) follow(rec *store.Record, j *job) {
	defer s.wg.Done()
	defer close(j.done)
	defer func() {
		s.mu.Lock()
		delete(s.jobs, rec.ID)
		s.mu.Unlock()
	}()

	ctx := context.WithoutCancel(s.ctx)
	for p := range j.sim.Progress() {
		rec.Progress = p
		if err := s.store.Put(ctx, rec); err != nil {
			s.logger.Warn("cannot store progress", "id", rec.ID, "err", err)
		}
	}

	res, err := j.sim.Wait()
	rec.Progress = j.sim.Snapshot()
	switch {
	case err == nil:
		rec.Status = store.StatusCompleted
		rec.Results = res
	case dferrors.Is(err, dferrors.ErrCodeSimulationCancelled):
		rec.Status = store.StatusCancelled
		rec.Error = err.Error()
	default:
		rec.Status = store.StatusFailed
		rec.Error = err.Error()
	}
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Error("cannot store simulation outcome", "id", rec.ID, "err", err)
		return
	}
	s.logger.Info("simulation finished", "id", rec.ID, "status", rec.Status)
}

func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		s.writeError(w, r, store.ErrNotFound)
		return
	}
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listSimulations(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{GeneratorID: r.URL.Query().Get("generatorId")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, dferrors.New(dferrors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		opts.Limit = n
	}
	recs, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"simulations": recs})
}

// deleteSimulation cancels a job running in this process and returns its
// final record. Finished jobs are deleted.
func (s *Server) deleteSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !store.ValidID(id) {
		s.writeError(w, r, store.ErrNotFound)
		return
	}

	s.mu.Lock()
	j, running := s.jobs[id]
	s.mu.Unlock()

	if running {
		j.sim.Cancel()
		select {
		case <-j.done:
		case <-r.Context().Done():
			s.writeError(w, r, dferrors.Wrap(dferrors.ErrCodeInternal, r.Context().Err(), "waiting for cancellation"))
			return
		}
		rec, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
