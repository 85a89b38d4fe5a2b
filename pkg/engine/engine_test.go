package engine

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/nodes"
)

func fixed(size float64) graph.RoomSpec {
	return graph.RoomSpec{MinWidth: size, MaxWidth: size, MinHeight: size, MaxHeight: size}
}

func chainGraph() graph.NodeGraph {
	return graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("chain", graph.RoomChainData{RoomSpec: fixed(5), MinCount: 3, MaxCount: 3}).
		Add("exit", graph.OutputData{}).
		Chain("start", "chain", "exit").
		Build()
}

// forkGraph: start -> fork -> {left, right} -> join -> hub -> exit.
func forkGraph(strategy string) graph.NodeGraph {
	return graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("entry", graph.RoomData{}).
		Add("fork", graph.BranchData{Paths: 2}).
		Add("left", graph.RoomData{}).
		Add("right", graph.RoomData{}).
		Add("join", graph.MergeData{Strategy: strategy}).
		Add("hub", graph.RoomData{}).
		Add("exit", graph.OutputData{}).
		Chain("start", "entry", "fork", "left", "join").
		Chain("fork", "right", "join").
		Chain("join", "hub", "exit").
		Build()
}

func mustGenerate(t *testing.T, req Request) *Result {
	t.Helper()
	res, err := Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return res
}

func TestChainScenario(t *testing.T) {
	first := mustGenerate(t, Request{Graph: chainGraph(), Seed: 42})
	second := mustGenerate(t, Request{Graph: chainGraph(), Seed: 42})

	for _, res := range []*Result{first, second} {
		if !res.Success || res.Err != nil {
			t.Fatalf("Success = %v, errors = %v", res.Success, res.Errors)
		}
		if len(res.Layout.Rooms) != 3 {
			t.Errorf("rooms = %d, want 3", len(res.Layout.Rooms))
		}
		if len(res.ConstraintResults) != 0 {
			t.Errorf("constraintResults = %v, want empty", res.ConstraintResults)
		}
		for _, r := range res.Layout.Rooms {
			if r.Bounds.Width != 5 || r.Bounds.Height != 5 {
				t.Errorf("room %s bounds = %+v, want 5x5", r.ID, r.Bounds)
			}
		}
	}
	if !reflect.DeepEqual(first.Layout, second.Layout) {
		t.Error("same seed produced different layouts")
	}
	l := first.Layout
	if len(l.Connections) != 2 {
		t.Errorf("connections = %d, want 2", len(l.Connections))
	}
	if l.StartRoomID != "chain_0" || l.PlayerStart != l.Rooms[0].Bounds.Center() {
		t.Errorf("start room = %q at %+v", l.StartRoomID, l.PlayerStart)
	}
	if !slices.Equal(l.ExitRoomIDs, []string{"chain_2"}) {
		t.Errorf("exit rooms = %v", l.ExitRoomIDs)
	}
	if first.Seed != 42 || first.Metadata.NodeExecutions != 3 {
		t.Errorf("seed = %d executions = %d", first.Seed, first.Metadata.NodeExecutions)
	}
}

func TestDeterminism(t *testing.T) {
	g := forkGraph(graph.MergeAll)
	for _, seed := range []uint64{0, 1, 42, 1 << 40} {
		a := mustGenerate(t, Request{Graph: g, Seed: seed})
		b := mustGenerate(t, Request{Graph: g, Seed: seed})
		if !reflect.DeepEqual(a.Layout, b.Layout) || !reflect.DeepEqual(a.Metadata, b.Metadata) {
			t.Errorf("seed %d: runs differ", seed)
		}
	}
	a := mustGenerate(t, Request{Graph: g, Seed: 1})
	b := mustGenerate(t, Request{Graph: g, Seed: 2})
	if reflect.DeepEqual(a.Layout.Rooms, b.Layout.Rooms) {
		t.Error("different seeds produced identical rooms")
	}
}

func TestRNGIndependence(t *testing.T) {
	plain := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("a", graph.RoomData{}).
		Add("exit", graph.OutputData{}).
		Chain("start", "a", "exit").
		Build()
	withLoot := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("a", graph.RoomData{}).
		Add("loot", graph.LootDropData{ItemTypes: []string{"gold", "gem"}}).
		Add("exit", graph.OutputData{}).
		Chain("start", "a", "loot", "exit").
		Build()

	for seed := range uint64(20) {
		x := mustGenerate(t, Request{Graph: plain, Seed: seed})
		y := mustGenerate(t, Request{Graph: withLoot, Seed: seed})
		ra, _ := x.Layout.Room("a")
		rb, _ := y.Layout.Room("a")
		if ra.Bounds != rb.Bounds || ra.Metadata[layout.MetaShape] != rb.Metadata[layout.MetaShape] {
			t.Errorf("seed %d: room a changed when a loot node was added: %+v vs %+v", seed, ra.Bounds, rb.Bounds)
		}
	}
}

func TestMergeAllFanIn(t *testing.T) {
	res := mustGenerate(t, Request{Graph: forkGraph(graph.MergeAll), Seed: 7})
	if !res.Success {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Metadata.NodeExecutions != 8 {
		t.Errorf("executions = %d, want 8 (each node once)", res.Metadata.NodeExecutions)
	}
	var into []string
	for _, c := range res.Layout.Connections {
		if c.ToRoomID == "hub" {
			into = append(into, c.FromRoomID)
		}
	}
	slices.Sort(into)
	if !slices.Equal(into, []string{"left", "right"}) {
		t.Errorf("hub connected from %v, want [left right]", into)
	}
	if len(res.Metadata.PrunedNodes) != 0 {
		t.Errorf("pruned = %v, want none", res.Metadata.PrunedNodes)
	}
}

func TestFanOutBeforeFirstRoom(t *testing.T) {
	tests := []struct {
		name string
		fork graph.NodeData
	}{
		{"branch", graph.BranchData{Paths: 2}},
		{"sequence", graph.SequenceData{Steps: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.NewBuilder().
				Add("start", graph.StartData{}).
				Add("fork", tt.fork).
				Add("left", graph.RoomData{}).
				Add("right", graph.RoomData{}).
				Add("join", graph.MergeData{}).
				Add("exit", graph.OutputData{}).
				Chain("start", "fork", "left", "join").
				Chain("fork", "right", "join").
				Chain("join", "exit").
				Build()
			res := mustGenerate(t, Request{
				Graph:       g,
				Seed:        42,
				Constraints: []constraint.Constraint{{ID: "connected", Type: constraint.TypeConnected}},
			})
			if !res.Success {
				t.Fatalf("errors = %v", res.Errors)
			}
			l := res.Layout
			if l.StartRoomID != "left" {
				t.Errorf("start room = %q, want left", l.StartRoomID)
			}
			if len(l.Connections) != 1 {
				t.Fatalf("connections = %d, want 1", len(l.Connections))
			}
			if c := l.Connections[0]; c.FromRoomID != "left" || c.ToRoomID != "right" {
				t.Errorf("connection = %s->%s, want left->right", c.FromRoomID, c.ToRoomID)
			}
			if u := l.Unreachable(l.StartRoomID); len(u) != 0 {
				t.Errorf("unreachable = %v", u)
			}
		})
	}
}

func TestMergeFirstRecordsWinner(t *testing.T) {
	res := mustGenerate(t, Request{Graph: forkGraph(graph.MergeFirst), Seed: 7})
	if got := res.Metadata.MergeWinners["join"]; got != "left" {
		t.Errorf("winner = %q, want left", got)
	}
	if res.Metadata.NodeExecutions != 8 {
		t.Errorf("executions = %d, want 8", res.Metadata.NodeExecutions)
	}
	// Only the winner feeds the hub.
	n := 0
	for _, c := range res.Layout.Connections {
		if c.ToRoomID == "hub" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("connections into hub = %d, want 1", n)
	}
}

func TestProbabilisticBranchPrunes(t *testing.T) {
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("gate", graph.BranchData{Weights: []float64{1, 1}, Probabilistic: true}).
		Add("a", graph.RoomData{}).
		Add("b", graph.RoomData{}).
		Add("exit_a", graph.OutputData{}).
		Add("exit_b", graph.OutputData{}).
		Chain("start", "gate", "a", "exit_a").
		Chain("gate", "b", "exit_b").
		Build()

	seen := map[string]bool{}
	for seed := range uint64(32) {
		res := mustGenerate(t, Request{Graph: g, Seed: seed})
		if len(res.Layout.Rooms) != 1 || len(res.Layout.Exits) != 1 {
			t.Fatalf("seed %d: rooms = %d exits = %d", seed, len(res.Layout.Rooms), len(res.Layout.Exits))
		}
		kept := res.Layout.Rooms[0].ID
		seen[kept] = true
		other := map[string]string{"a": "b", "b": "a"}[kept]
		if !slices.Equal(res.Metadata.PrunedNodes, []string{other, "exit_" + other}) {
			t.Errorf("seed %d: pruned = %v", seed, res.Metadata.PrunedNodes)
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("one side never chosen in 32 seeds: %v", seen)
	}
}

func TestConditionRoutes(t *testing.T) {
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("entry", graph.RoomData{}).
		Add("check", graph.ConditionData{Parameter: "difficulty", Operator: graph.OpGe, Value: 5.0}).
		Add("boss", graph.RoomData{RoomSpec: graph.RoomSpec{RoomType: "boss"}}).
		Add("calm", graph.RoomData{}).
		Add("exit", graph.MergeData{Strategy: graph.MergeAny}).
		Add("out", graph.OutputData{}).
		Chain("start", "entry", "check").
		ConnectPorts("check", "true", "boss", "in").
		ConnectPorts("check", "false", "calm", "in").
		Chain("boss", "exit").
		Chain("calm", "exit").
		Chain("exit", "out").
		Build()

	tests := []struct {
		difficulty float64
		room       string
		pruned     string
	}{
		{7, "boss", "calm"},
		{2, "calm", "boss"},
	}
	for _, tt := range tests {
		res := mustGenerate(t, Request{Graph: g, Seed: 3, Parameters: map[string]any{"difficulty": tt.difficulty}})
		if _, ok := res.Layout.Room(tt.room); !ok {
			t.Errorf("difficulty %v: room %s missing", tt.difficulty, tt.room)
		}
		if !slices.Contains(res.Metadata.PrunedNodes, tt.pruned) {
			t.Errorf("difficulty %v: pruned = %v, want %s", tt.difficulty, res.Metadata.PrunedNodes, tt.pruned)
		}
		if len(res.Layout.Exits) != 1 {
			t.Errorf("exits = %d, want 1", len(res.Layout.Exits))
		}
	}
}

func TestInvalidGraph(t *testing.T) {
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("hall", graph.RoomData{}).
		Chain("start", "hall").
		Build()
	res, err := Generate(context.Background(), Request{Graph: g})
	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if res != nil {
		t.Error("invalid graph should not produce a result")
	}
}

func TestInvalidConstraints(t *testing.T) {
	_, err := Generate(context.Background(), Request{
		Graph:       chainGraph(),
		Constraints: []constraint.Constraint{{ID: "x", Type: "shape"}},
	})
	if err == nil {
		t.Fatal("unknown constraint type accepted")
	}
}

func TestNodeFailureKeepsSeed(t *testing.T) {
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("fight", graph.EncounterData{}).
		Add("exit", graph.OutputData{}).
		Chain("start", "fight", "exit").
		Build()
	res := mustGenerate(t, Request{Graph: g, Seed: 99})
	if res.Success || res.Seed != 99 || len(res.Errors) != 1 || res.Layout != nil {
		t.Fatalf("result = %+v", res)
	}
	var execErr *nodes.ExecutionError
	if !errors.As(res.Err, &execErr) || execErr.NodeID != "fight" {
		t.Errorf("Err = %v, want ExecutionError on fight", res.Err)
	}
}

func TestConstraintSeverity(t *testing.T) {
	tests := []struct {
		name        string
		constraints []constraint.Constraint
		success     bool
		warnings    int
	}{
		{"connected", []constraint.Constraint{{ID: "connected", Type: constraint.TypeConnected}}, true, 0},
		{"error", []constraint.Constraint{{ID: "big", Type: constraint.TypeCount, Parameters: constraint.Params{"min": 100}}}, false, 0},
		{"warning", []constraint.Constraint{{ID: "big", Type: constraint.TypeCount, Parameters: constraint.Params{"min": 100}, Severity: constraint.SeverityWarning}}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustGenerate(t, Request{Graph: forkGraph(graph.MergeAll), Seed: 5, Constraints: tt.constraints})
			if res.Success != tt.success {
				t.Errorf("Success = %v, want %v (errors %v)", res.Success, tt.success, res.Errors)
			}
			if len(res.Warnings) != tt.warnings {
				t.Errorf("warnings = %v, want %d", res.Warnings, tt.warnings)
			}
			if len(res.ConstraintResults) != len(tt.constraints) {
				t.Errorf("constraintResults = %d, want %d", len(res.ConstraintResults), len(tt.constraints))
			}
		})
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Generate(ctx, Request{Graph: chainGraph()}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Pending: "pending", Done: "done", Pruned: "pruned", State(42): "unknown"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
	if !Failed.Terminal() || Ready.Terminal() {
		t.Error("Terminal() wrong")
	}
}
