package generator

import (
	"github.com/matzehuels/dungeonforge/pkg/engine"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// EngineRequest resolves overrides and builds a single-run request.
func (g *Generator) EngineRequest(seed uint64, overrides map[string]any) (engine.Request, error) {
	params, err := g.Resolve(overrides)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{
		Graph:       g.Graph,
		Constraints: g.Constraints,
		Seed:        seed,
		Parameters:  params,
	}, nil
}

// SimulationRequest resolves overrides and builds a batch request.
func (g *Generator) SimulationRequest(runs int, seedStart uint64, overrides map[string]any) (simulation.Request, error) {
	params, err := g.Resolve(overrides)
	if err != nil {
		return simulation.Request{}, err
	}
	return simulation.Request{
		Graph:       g.Graph,
		Constraints: g.Constraints,
		Parameters:  params,
		RunCount:    runs,
		SeedStart:   seedStart,
	}, nil
}
