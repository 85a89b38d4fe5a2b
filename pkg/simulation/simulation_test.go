package simulation

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
)

func quietRunner() *Runner {
	return NewRunner(nil, log.New(io.Discard))
}

func dungeonGraph() graph.NodeGraph {
	return graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("halls", graph.RoomChainData{MinCount: 2, MaxCount: 6}).
		Add("fight", graph.EncounterData{MinEnemies: 1, MaxEnemies: 4}).
		Add("loot", graph.LootDropData{}).
		Add("exit", graph.OutputData{}).
		Chain("start", "halls", "fight", "loot", "exit").
		Build()
}

func connectedReq(runs int) Request {
	return Request{
		Graph:       dungeonGraph(),
		Constraints: []constraint.Constraint{{ID: "connected", Type: constraint.TypeConnected}},
		RunCount:    runs,
	}
}

func TestRunHundredSeeds(t *testing.T) {
	res, err := quietRunner().Run(context.Background(), connectedReq(100))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.SuccessRate != 1.0 || res.Succeeded != 100 {
		t.Errorf("successRate = %v succeeded = %d", res.SuccessRate, res.Succeeded)
	}
	c := res.Constraints["connected"]
	if c.PassRate != 1.0 || c.Evaluated != 100 || c.Violations != 0 {
		t.Errorf("connected = %+v", c)
	}
	rooms := res.Metrics[MetricRoomCount]
	if rooms.Count != 100 || rooms.Min < 2 || rooms.Max > 6 {
		t.Errorf("roomCount = %+v", rooms)
	}
	if res.Metrics[MetricEnemyCount].Min < 1 {
		t.Errorf("enemyCount min = %v, want >= 1", res.Metrics[MetricEnemyCount].Min)
	}
	for _, name := range MetricNames {
		if _, ok := res.Metrics[name]; !ok {
			t.Errorf("metric %s missing", name)
		}
	}
	if res.Runs != nil {
		t.Error("runs kept without KeepRuns")
	}
}

func TestAggregateIndependentOfWorkers(t *testing.T) {
	run := func(workers int) *Results {
		req := connectedReq(60)
		req.Workers = workers
		req.SeedStart = 1000
		res, err := quietRunner().Run(context.Background(), req)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return res
	}
	a, b := run(1), run(8)
	if !reflect.DeepEqual(a.Metrics, b.Metrics) || !reflect.DeepEqual(a.Constraints, b.Constraints) {
		t.Error("aggregate depends on worker count")
	}
}

func TestKeepRunsInSeedOrder(t *testing.T) {
	req := connectedReq(20)
	req.KeepRuns = true
	req.SeedStart = 7
	res, err := quietRunner().Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for i, run := range res.Runs {
		if run.Seed != uint64(7+i) {
			t.Fatalf("runs[%d].Seed = %d, want %d", i, run.Seed, 7+i)
		}
	}
}

func TestCancelAfterTenRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := connectedReq(100)
	req.Workers = 2
	req.OnProgress = func(p Progress) {
		if p.Completed == 10 {
			cancel()
		}
	}

	res, err := quietRunner().Run(ctx, req)
	var cerr *CancelledError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CancelledError", err)
	}
	if res != nil {
		t.Error("cancelled simulation returned results")
	}
	if cerr.Total != 100 || cerr.Completed < 10 || cerr.Completed >= 100 {
		t.Errorf("cancelled at %d/%d", cerr.Completed, cerr.Total)
	}
	if !dferrors.Is(err, dferrors.ErrCodeSimulationCancelled) {
		t.Errorf("code = %q", dferrors.GetCode(err))
	}
}

func TestCancelHandle(t *testing.T) {
	sim := quietRunner().Start(context.Background(), connectedReq(dferrors.MaxRunCount))
	sim.Cancel()
	sim.Cancel()
	for range sim.Progress() {
	}
	_, err := sim.Wait()
	var cerr *CancelledError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CancelledError", err)
	}
	if got := sim.Snapshot(); got.Completed != cerr.Completed || got.Total != dferrors.MaxRunCount {
		t.Errorf("snapshot = %+v, error = %+v", got, cerr)
	}
}

func TestProgressEndsWithFinalUpdate(t *testing.T) {
	sim := quietRunner().Start(context.Background(), connectedReq(50))
	var last Progress
	for p := range sim.Progress() {
		if p.Completed < last.Completed {
			t.Errorf("progress went backwards: %d after %d", p.Completed, last.Completed)
		}
		last = p
	}
	if last != (Progress{Completed: 50, Total: 50}) {
		t.Errorf("last progress = %+v", last)
	}
	if _, err := sim.Wait(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-sim.Done():
	default:
		t.Error("Done() not closed after Wait")
	}
}

func TestFailedRunsLowerSuccessRate(t *testing.T) {
	// Half the seeds route to an encounter with no room and fail.
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("gate", graph.BranchData{Paths: 2, Probabilistic: true}).
		Add("room", graph.RoomData{}).
		Add("ambush", graph.EncounterData{}).
		Add("exit_a", graph.OutputData{}).
		Add("exit_b", graph.OutputData{}).
		Chain("start", "gate", "room", "exit_a").
		Chain("gate", "ambush", "exit_b").
		Build()

	res, err := quietRunner().Run(context.Background(), Request{Graph: g, RunCount: 60})
	if err != nil {
		t.Fatal(err)
	}
	if res.SuccessRate <= 0 || res.SuccessRate >= 1 {
		t.Fatalf("successRate = %v, want strictly between 0 and 1", res.SuccessRate)
	}
	if res.Metrics[MetricRoomCount].Count != res.Succeeded {
		t.Errorf("metrics counted %d runs, want %d successful", res.Metrics[MetricRoomCount].Count, res.Succeeded)
	}
	if len(res.Failures) == 0 || len(res.Failures[0].Errors) == 0 {
		t.Errorf("failures = %+v", res.Failures)
	}
}

func TestInvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		code dferrors.Code
	}{
		{"zero runs", Request{Graph: dungeonGraph()}, dferrors.ErrCodeInvalidInput},
		{"negative workers", Request{Graph: dungeonGraph(), RunCount: 1, Workers: -1}, dferrors.ErrCodeInvalidInput},
		{"seed overflow", Request{Graph: dungeonGraph(), RunCount: 2, SeedStart: ^uint64(0)}, dferrors.ErrCodeInvalidInput},
		{"invalid graph", Request{Graph: graph.NodeGraph{}, RunCount: 1}, dferrors.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); dferrors.GetCode(err) != tt.code {
				t.Errorf("Validate() = %v, want code %s", err, tt.code)
			}
			sim := quietRunner().Start(context.Background(), tt.req)
			for range sim.Progress() {
			}
			if _, err := sim.Wait(); dferrors.GetCode(err) != tt.code {
				t.Errorf("Wait() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	l := layout.New()
	for _, id := range []string{"a", "b", "c"} {
		l.Rooms = append(l.Rooms, layout.GeneratedRoom{ID: id, Metadata: map[string]any{}})
	}
	l.Rooms[1].Entities = []layout.PlacedEntity{
		{ID: "b_enemy_entity_0", Type: layout.EntityEnemy},
		{ID: "b_loot_entity_0", Type: layout.EntityLoot},
		{ID: "b_prop_entity_0", Type: layout.EntityProp},
	}
	l.Connections = []layout.RoomConnection{{FromRoomID: "a", ToRoomID: "b"}, {FromRoomID: "b", ToRoomID: "c"}}
	l.SpawnPoints = []layout.SpawnPoint{{ID: "c_spawn_0", Type: "enemy", RoomID: "c"}, {ID: "c_spawn_1", Type: "npc", RoomID: "c"}}
	l.StartRoomID = "a"
	l.Exits = []layout.Position{{}, {}}
	l.ExitRoomIDs = []string{"b", "c"}

	want := map[string]float64{
		MetricRoomCount:       3,
		MetricPathLength:      3,
		MetricEnemyCount:      2,
		MetricItemCount:       1,
		MetricConnectionCount: 2,
		MetricSpawnPointCount: 2,
		MetricEntityCount:     3,
		MetricExitCount:       2,
	}
	if got := Measure(l); !reflect.DeepEqual(got, want) {
		t.Errorf("Measure() = %v, want %v", got, want)
	}
}
