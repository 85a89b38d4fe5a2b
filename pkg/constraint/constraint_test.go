package constraint

import (
	"strings"
	"testing"

	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// fixture: start - a - b, plus an unconnected island. b is the exit.
func fixture() *layout.DungeonLayout {
	l := layout.New()
	room := func(id, typ string, x, difficulty float64, tags ...string) layout.GeneratedRoom {
		r := layout.GeneratedRoom{
			ID:       id,
			Type:     typ,
			Bounds:   layout.Rect{X: x, Width: 10, Height: 10},
			Entities: []layout.PlacedEntity{},
			Metadata: map[string]any{layout.MetaDifficulty: difficulty},
		}
		if len(tags) > 0 {
			r.Metadata[layout.MetaTags] = tags
		}
		return r
	}
	start := room("start", "entrance", 0, 1)
	a := room("a", "default", 20, 2, "treasure")
	a.Entities = append(a.Entities, layout.PlacedEntity{ID: "a_loot_entity_0", Type: layout.EntityLoot, Metadata: map[string]any{layout.MetaKind: "gold"}})
	b := room("b", "boss", 40, 5)
	b.Entities = append(b.Entities,
		layout.PlacedEntity{ID: "b_enemy_entity_0", Type: layout.EntityEnemy},
		layout.PlacedEntity{ID: "b_enemy_entity_1", Type: layout.EntityEnemy},
	)
	island := room("island", "default", 100, 0)
	l.Rooms = append(l.Rooms, start, a, b, island)
	l.Connections = append(l.Connections,
		layout.RoomConnection{FromRoomID: "start", ToRoomID: "a"},
		layout.RoomConnection{FromRoomID: "a", ToRoomID: "b"},
	)
	l.SpawnPoints = append(l.SpawnPoints, layout.SpawnPoint{ID: "b_spawn_0", Type: "enemy", RoomID: "b"})
	l.StartRoomID = "start"
	l.PlayerStart = layout.Position{X: 5, Y: 5}
	l.Exits = append(l.Exits, layout.Position{X: 45, Y: 5})
	l.ExitRoomIDs = append(l.ExitRoomIDs, "b")
	return l
}

func withoutIsland(l *layout.DungeonLayout) *layout.DungeonLayout {
	l.Rooms = l.Rooms[:3]
	return l
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		typ    Type
		params Params
		layout func(*layout.DungeonLayout) *layout.DungeonLayout
		want   bool
	}{
		{"distance within", TypeDistance, Params{"from": "entrance", "to": "boss", "min": 1, "max": 3}, nil, true},
		{"distance too far", TypeDistance, Params{"from": "entrance", "to": "boss", "max": 1}, nil, false},
		{"distance disconnected", TypeDistance, Params{"from": "entrance", "to": "island"}, nil, false},
		{"distance missing tag", TypeDistance, Params{"from": "entrance", "to": "dragon"}, nil, false},

		{"count rooms", TypeCount, Params{"min": 4, "max": 4}, nil, true},
		{"count tagged rooms", TypeCount, Params{"tag": "treasure", "min": 2}, nil, false},
		{"count enemies", TypeCount, Params{"tag": "enemy", "target": "entities", "min": 2, "max": 2}, nil, true},
		{"count loot by kind", TypeCount, Params{"tag": "gold", "target": "entities", "min": 1}, nil, true},
		{"count spawn points", TypeCount, Params{"target": "spawnPoints", "max": 0}, nil, false},
		{"count bad target", TypeCount, Params{"target": "doors"}, nil, false},

		{"density average", TypeDensity, Params{"min": 0.5, "max": 1}, nil, true},
		{"density per room", TypeDensity, Params{"mode": "perRoom", "max": 1}, nil, false},
		{"density tagged per room", TypeDensity, Params{"tag": "loot", "mode": "perRoom", "max": 1}, nil, true},

		{"progression rising", TypeProgression, nil, nil, true},
		{"progression drop", TypeProgression, nil, func(l *layout.DungeonLayout) *layout.DungeonLayout {
			l.Rooms[1].Metadata[layout.MetaDifficulty] = 6.0
			return l
		}, false},
		{"progression custom key", TypeProgression, Params{"key": "danger"}, nil, true},

		{"required present", TypeRequired, Params{"tag": "treasure"}, nil, true},
		{"required missing", TypeRequired, Params{"tag": "dragon"}, nil, false},
		{"required entity", TypeRequired, Params{"tag": "enemy"}, nil, true},
		{"required before", TypeRequired, Params{"tag": "treasure", "before": "boss"}, nil, true},
		{"required before fails", TypeRequired, Params{"tag": "boss", "before": "treasure"}, nil, false},
		{"required after missing ref", TypeRequired, Params{"tag": "boss", "after": "dragon"}, nil, false},
		{"forbidden present", TypeForbidden, Params{"tag": "boss"}, nil, false},
		{"forbidden absent", TypeForbidden, Params{"tag": "dragon"}, nil, true},
		{"forbidden after", TypeForbidden, Params{"tag": "enemy", "after": "treasure"}, nil, false},
		{"forbidden before", TypeForbidden, Params{"tag": "enemy", "before": "treasure"}, nil, true},

		{"connected with island", TypeConnected, nil, nil, false},
		{"connected", TypeConnected, nil, withoutIsland, true},

		{"custom unknown", TypeCustom, Params{"predicate": "nope"}, nil, false},
		{"custom builtin", TypeCustom, Params{"predicate": "exitReachable"}, nil, true},
		{"unknown type", Type("shape"), nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := fixture()
			if tt.layout != nil {
				l = tt.layout(l)
			}
			got := Evaluate(l, []Constraint{{ID: "c", Type: tt.typ, Parameters: tt.params}}, nil)
			if len(got) != 1 {
				t.Fatalf("len(results) = %d, want 1", len(got))
			}
			if got[0].Passed != tt.want {
				t.Errorf("Passed = %v, want %v (message %q)", got[0].Passed, tt.want, got[0].Message)
			}
			if !got[0].Passed && got[0].Message == "" {
				t.Error("failed result has no message")
			}
		})
	}
}

func TestConnectedFailsOnIsolatedRoom(t *testing.T) {
	res := Evaluate(fixture(), []Constraint{{ID: "connected", Type: TypeConnected}}, nil)
	if res[0].Passed {
		t.Fatal("connected passed with an isolated room")
	}
	if !strings.Contains(res[0].Message, "island") {
		t.Errorf("message %q does not name the isolated room", res[0].Message)
	}
	if !res[0].Blocking() {
		t.Error("error-severity failure should block")
	}
}

func TestSeverity(t *testing.T) {
	cs := []Constraint{
		{ID: "hard", Type: TypeRequired, Parameters: Params{"tag": "dragon"}},
		{ID: "soft", Type: TypeRequired, Parameters: Params{"tag": "dragon"}, Severity: SeverityWarning},
		{ID: "ok", Type: TypeRequired, Parameters: Params{"tag": "boss"}},
	}
	res := Evaluate(fixture(), cs, nil)
	want := []struct {
		id       string
		blocking bool
	}{{"hard", true}, {"soft", false}, {"ok", false}}
	for i, w := range want {
		if res[i].ConstraintID != w.id || res[i].Blocking() != w.blocking {
			t.Errorf("result %d = %+v, want %s blocking=%v", i, res[i], w.id, w.blocking)
		}
	}
	if res[1].Severity != SeverityWarning || res[0].Severity != SeverityError {
		t.Errorf("severities = %s, %s", res[0].Severity, res[1].Severity)
	}
}

func TestCustomRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("bossDifficulty", func(l *layout.DungeonLayout, p Params) (bool, string) {
		want, _ := p.Float("atLeast")
		for i := range l.Rooms {
			if l.Rooms[i].Type == "boss" {
				d, _ := l.Rooms[i].Number(layout.MetaDifficulty)
				return d >= want, "boss too easy"
			}
		}
		return false, "no boss"
	})

	tests := []struct {
		atLeast float64
		want    bool
	}{{5, true}, {6, false}}
	for _, tt := range tests {
		c := Constraint{ID: "boss", Type: TypeCustom, Parameters: Params{"predicate": "bossDifficulty", "atLeast": tt.atLeast}}
		if got := Evaluate(fixture(), []Constraint{c}, reg)[0].Passed; got != tt.want {
			t.Errorf("atLeast %v: Passed = %v, want %v", tt.atLeast, got, tt.want)
		}
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "bossDifficulty" {
		t.Errorf("Names() = %v", names)
	}
	// Builtins live in the default registry only.
	if _, ok := reg.Lookup("exitReachable"); ok {
		t.Error("new registry should start empty")
	}
}

func TestNoOverlapsPredicate(t *testing.T) {
	l := fixture()
	c := Constraint{ID: "o", Type: TypeCustom, Parameters: Params{"predicate": "noOverlaps"}}
	if !Evaluate(l, []Constraint{c}, nil)[0].Passed {
		t.Error("separate rooms reported as overlapping")
	}
	l.Rooms[1].Bounds.X = 5
	if Evaluate(l, []Constraint{c}, nil)[0].Passed {
		t.Error("overlapping rooms passed")
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		cs      []Constraint
		wantErr string
	}{
		{"ok", []Constraint{{ID: "a", Type: TypeConnected}, {ID: "b", Type: TypeCount, Severity: SeverityWarning}}, ""},
		{"missing id", []Constraint{{Type: TypeConnected}}, "missing id"},
		{"duplicate", []Constraint{{ID: "a", Type: TypeConnected}, {ID: "a", Type: TypeCount}}, "duplicate"},
		{"unknown type", []Constraint{{ID: "a", Type: "shape"}}, "unknown type"},
		{"unknown severity", []Constraint{{ID: "a", Type: TypeCount, Severity: "fatal"}}, "unknown severity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.cs)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Check() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Check() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
