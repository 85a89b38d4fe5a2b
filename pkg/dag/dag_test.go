package dag

import (
	"errors"
	"slices"
	"testing"
)

func build(t *testing.T, ids []string, edges [][2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q) error: %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v) error: %v", e, err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want %v", err, ErrInvalidNodeID)
	}
	_ = g.AddNode(Node{ID: "a"})
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want %v", err, ErrDuplicateNodeID)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v", err)
	}
}

func TestTopologicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  []string
	}{
		{
			name:  "chain",
			ids:   []string{"c", "b", "a"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "siblings ordered by id not insertion",
			ids:   []string{"s", "z", "m", "out"},
			edges: [][2]string{{"s", "z"}, {"s", "m"}, {"z", "out"}, {"m", "out"}},
			want:  []string{"s", "m", "z", "out"},
		},
		{
			name:  "late ready node sorted into queue",
			ids:   []string{"s", "b", "d", "a"},
			edges: [][2]string{{"s", "d"}, {"s", "b"}, {"b", "a"}},
			want:  []string{"s", "b", "a", "d"},
		},
		{
			name:  "parallel edges",
			ids:   []string{"a", "b"},
			edges: [][2]string{{"a", "b"}, {"a", "b"}},
			want:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			got, err := g.TopologicalOrder()
			if err != nil {
				t.Fatalf("TopologicalOrder() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopologicalOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateCycle(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}, {"c", "d"}})

	err := g.Validate()
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("Validate() = %v, want *CycleError", err)
	}
	if want := []string{"b", "c", "b"}; !slices.Equal(ce.Path, want) {
		t.Errorf("Path = %v, want %v", ce.Path, want)
	}
	if _, err := g.TopologicalOrder(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("TopologicalOrder() error = %v, want cycle", err)
	}
}

func TestValidateSelfLoop(t *testing.T) {
	g := build(t, []string{"a"}, [][2]string{{"a", "a"}})
	if err := g.Validate(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("Validate() = %v, want cycle", err)
	}
}

func TestReachable(t *testing.T) {
	g := build(t, []string{"s", "a", "b", "island"}, [][2]string{{"s", "a"}, {"a", "b"}})

	got := g.Reachable("s")
	for _, id := range []string{"s", "a", "b"} {
		if !got[id] {
			t.Errorf("Reachable(s)[%q] = false, want true", id)
		}
	}
	if got["island"] {
		t.Error("island should not be reachable")
	}
	if len(g.Reachable("missing")) != 0 {
		t.Error("Reachable(missing) should be empty")
	}
}

func TestSourcesSinksSorted(t *testing.T) {
	g := build(t, []string{"z", "a", "m"}, [][2]string{{"z", "m"}})

	if got := NodeIDs(g.Sources()); !slices.Equal(got, []string{"a", "z"}) {
		t.Errorf("Sources() = %v", got)
	}
	if got := NodeIDs(g.Sinks()); !slices.Equal(got, []string{"a", "m"}) {
		t.Errorf("Sinks() = %v", got)
	}
}
