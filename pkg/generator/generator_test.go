package generator

import (
	"testing"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
)

func ptr(f float64) *float64 { return &f }

func sample() *Generator {
	return &Generator{
		ID:   "crypt",
		Name: "Crypt",
		Type: KindDungeon,
		Graph: graph.NewBuilder().
			Add("start", graph.StartData{}).
			Add("halls", graph.RoomChainData{}).
			Add("exit", graph.OutputData{}).
			Chain("start", "halls", "exit").
			Build(),
		Constraints: []constraint.Constraint{{ID: "connected", Type: constraint.TypeConnected}},
		Parameters: []Parameter{
			{Name: "minRoomSize", Type: ParamNumber, Default: 5, Min: ptr(2), Max: ptr(20)},
			{Name: "hardMode", Type: ParamBoolean, Default: false},
			{Name: "theme", Type: ParamSelect, Default: "stone", Options: []string{"stone", "ice"}},
			{Name: "title", Type: ParamString},
		},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		want      map[string]any
		code      dferrors.Code
	}{
		{"defaults", nil, map[string]any{"minRoomSize": 5.0, "hardMode": false, "theme": "stone"}, ""},
		{"typed overrides", map[string]any{"minRoomSize": 8, "hardMode": true, "title": "Tomb"},
			map[string]any{"minRoomSize": 8.0, "hardMode": true, "theme": "stone", "title": "Tomb"}, ""},
		{"string overrides", map[string]any{"minRoomSize": "7.5", "hardMode": "true", "theme": "ice"},
			map[string]any{"minRoomSize": 7.5, "hardMode": true, "theme": "ice"}, ""},
		{"below min", map[string]any{"minRoomSize": 1}, nil, dferrors.ErrCodeInvalidParameter},
		{"not a number", map[string]any{"minRoomSize": "big"}, nil, dferrors.ErrCodeInvalidParameter},
		{"bad option", map[string]any{"theme": "lava"}, nil, dferrors.ErrCodeInvalidParameter},
		{"bad bool", map[string]any{"hardMode": "maybe"}, nil, dferrors.ErrCodeInvalidParameter},
		{"unknown", map[string]any{"speed": 1}, nil, dferrors.ErrCodeInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sample().Resolve(tt.overrides)
			if tt.code != "" {
				if dferrors.GetCode(err) != tt.code {
					t.Fatalf("err = %v, want code %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v (%T), want %v (%T)", k, got[k], got[k], v, v)
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Generator)
		code   dferrors.Code
	}{
		{"valid", func(*Generator) {}, ""},
		{"bad id", func(g *Generator) { g.ID = "has space" }, dferrors.ErrCodeInvalidInput},
		{"bad type", func(g *Generator) { g.Type = "planet" }, dferrors.ErrCodeInvalidGenerator},
		{"bad graph", func(g *Generator) { g.Graph = graph.NodeGraph{} }, dferrors.ErrCodeInvalidGraph},
		{"bad constraint", func(g *Generator) { g.Constraints[0].Type = "shape" }, dferrors.ErrCodeInvalidGenerator},
		{"duplicate parameter", func(g *Generator) { g.Parameters = append(g.Parameters, Parameter{Name: "theme", Type: ParamString}) }, dferrors.ErrCodeInvalidGenerator},
		{"select without options", func(g *Generator) { g.Parameters[2].Options = nil }, dferrors.ErrCodeInvalidGenerator},
		{"default out of range", func(g *Generator) { g.Parameters[0].Default = 50 }, dferrors.ErrCodeInvalidGenerator},
		{"inverted range", func(g *Generator) { g.Parameters[0].Min = ptr(30) }, dferrors.ErrCodeInvalidGenerator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sample()
			tt.mutate(g)
			err := g.Validate()
			if got := dferrors.GetCode(err); got != tt.code {
				t.Errorf("Validate() = %v, want code %q", err, tt.code)
			}
		})
	}
}

func TestEngineRequest(t *testing.T) {
	req, err := sample().EngineRequest(42, map[string]any{"hardMode": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Seed != 42 || req.Parameters["hardMode"] != true || len(req.Constraints) != 1 {
		t.Errorf("request = %+v", req)
	}
	if _, err := sample().SimulationRequest(10, 0, map[string]any{"nope": 1}); err == nil {
		t.Error("SimulationRequest accepted an unknown parameter")
	}
}
