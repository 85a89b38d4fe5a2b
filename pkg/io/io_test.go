package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/generator"
	"github.com/matzehuels/dungeonforge/pkg/graph"
)

func sample() *generator.Generator {
	max := 12.0
	return &generator.Generator{
		ID:   "crypt",
		Name: "Crypt",
		Type: generator.KindDungeon,
		Graph: graph.NewBuilder().
			Add("start", graph.StartData{}).
			Add("halls", graph.RoomChainData{Count: 3}).
			Add("loot", graph.LootDropData{}).
			Add("exit", graph.OutputData{}).
			Chain("start", "halls", "loot", "exit").
			Build(),
		Constraints: []constraint.Constraint{
			{ID: "connected", Type: constraint.TypeConnected},
			{ID: "rooms", Type: constraint.TypeCount, Severity: constraint.SeverityWarning,
				Parameters: constraint.Params{"target": "rooms", "min": 2.0, "max": 10.0}},
		},
		Parameters: []generator.Parameter{
			{Name: "maxRoomSize", Type: generator.ParamNumber, Default: 10.0, Max: &max},
			{Name: "theme", Type: generator.ParamSelect, Default: "stone", Options: []string{"stone", "ice"}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteGenerator(&buf, sample(), format); err != nil {
				t.Fatalf("WriteGenerator() error: %v", err)
			}
			g, err := ReadGenerator(&buf, format)
			if err != nil {
				t.Fatalf("ReadGenerator() error: %v", err)
			}
			if err := g.Validate(); err != nil {
				t.Fatalf("Validate() error: %v", err)
			}

			if g.ID != "crypt" || g.Type != generator.KindDungeon {
				t.Errorf("header = %s/%s, want crypt/dungeon", g.ID, g.Type)
			}
			if len(g.Graph.Nodes) != 4 || len(g.Graph.Edges) != 3 {
				t.Fatalf("graph = %d nodes, %d edges, want 4, 3", len(g.Graph.Nodes), len(g.Graph.Edges))
			}
			halls, _ := g.Graph.Node("halls")
			chain, ok := halls.Data.(graph.RoomChainData)
			if !ok {
				t.Fatalf("halls data = %T, want graph.RoomChainData", halls.Data)
			}
			if chain.Count != 3 {
				t.Errorf("halls count = %d, want 3", chain.Count)
			}
			if len(g.Constraints) != 2 || g.Constraints[1].ResolvedSeverity() != constraint.SeverityWarning {
				t.Errorf("constraints = %+v", g.Constraints)
			}
			if lo, hi := g.Constraints[1].Parameters.Range(); lo != 2 || hi != 10 {
				t.Errorf("rooms range = [%v, %v], want [2, 10]", lo, hi)
			}
			p, ok := g.Parameter("maxRoomSize")
			if !ok || p.Max == nil || *p.Max != 12 {
				t.Errorf("maxRoomSize = %+v", p)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"crypt.json", FormatJSON, true},
		{"crypt.dfg", FormatJSON, true},
		{"dir/crypt.YAML", FormatYAML, true},
		{"crypt.yml", FormatYAML, true},
		{"crypt.toml", FormatTOML, true},
		{"crypt.xml", "", false},
		{"crypt", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err == nil) != tt.ok {
			t.Errorf("FormatFromPath(%q) error = %v, want ok %v", tt.path, err, tt.ok)
			continue
		}
		if !tt.ok && !dferrors.Is(err, dferrors.ErrCodeInvalidFormat) {
			t.Errorf("FormatFromPath(%q) code = %s, want %s", tt.path, dferrors.GetCode(err), dferrors.ErrCodeInvalidFormat)
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestReadGeneratorFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := ReadGeneratorFile(filepath.Join(dir, "missing.yaml"))
		if !dferrors.Is(err, dferrors.ErrCodeFileNotFound) {
			t.Errorf("err = %v, want %s", err, dferrors.ErrCodeFileNotFound)
		}
	})

	t.Run("export then read", func(t *testing.T) {
		path := filepath.Join(dir, "crypt.toml")
		if err := ExportGenerator(path, sample()); err != nil {
			t.Fatalf("ExportGenerator() error: %v", err)
		}
		g, err := ReadGeneratorFile(path)
		if err != nil {
			t.Fatalf("ReadGeneratorFile() error: %v", err)
		}
		if g.Name != "Crypt" {
			t.Errorf("Name = %q, want Crypt", g.Name)
		}
	})

	t.Run("invalid graph", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		doc := `{"id": "broken", "graph": {"nodes": [{"id": "exit", "type": "output"}], "edges": []}}`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadGeneratorFile(path); err == nil {
			t.Error("expected validation error for graph without start node")
		}
	})
}

func TestReadGeneratorMalformed(t *testing.T) {
	tests := []struct {
		format Format
		doc    string
	}{
		{FormatJSON, `{"id": `},
		{FormatYAML, "id: [unclosed"},
		{FormatTOML, "id = "},
		{"xml", "<generator/>"},
	}
	for _, tt := range tests {
		_, err := ReadGenerator(strings.NewReader(tt.doc), tt.format)
		if !dferrors.Is(err, dferrors.ErrCodeInvalidFormat) {
			t.Errorf("ReadGenerator(%s) err = %v, want %s", tt.format, err, dferrors.ErrCodeInvalidFormat)
		}
	}
}
