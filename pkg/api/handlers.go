package api

import (
	"encoding/json"
	"net/http"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/generator"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	dfio "github.com/matzehuels/dungeonforge/pkg/io"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
)

type validateRequest struct {
	Graph *graph.NodeGraph `json:"graph"`
}

type generateRequest struct {
	Generator  json.RawMessage `json:"generator"`
	Seed       *uint64         `json:"seed,omitempty"`
	Parameters map[string]any  `json:"parameters,omitempty"`
	Refresh    bool            `json:"refresh,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Graph == nil {
		s.writeError(w, r, dferrors.New(dferrors.ErrCodeInvalidInput, "graph is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.runner.Validate(r.Context(), *body.Graph))
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decode(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	gen, err := decodeGenerator(body.Generator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seed := pipeline.DefaultSeed
	if body.Seed != nil {
		seed = *body.Seed
	}

	res, err := s.runner.Generate(r.Context(), pipeline.GenerateOptions{
		Generator:  gen,
		Seed:       seed,
		Parameters: body.Parameters,
		Refresh:    body.Refresh,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeGenerator parses and validates an embedded generator document.
func decodeGenerator(raw json.RawMessage) (*generator.Generator, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, dferrors.New(dferrors.ErrCodeInvalidInput, "generator is required")
	}
	return pipeline.Decode(raw, dfio.FormatJSON)
}
