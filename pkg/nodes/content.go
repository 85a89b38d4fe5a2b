package nodes

import (
	"fmt"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/rng"
)

// EntityPadding keeps entities and spawn points off room walls.
const EntityPadding = 1.5

// Default spawn type when a spawn_point node does not name one.
const DefaultSpawnType = "enemy"

func execSpawnPoint(ctx *Context, d graph.SpawnPointData, f Fragment) (Outputs, error) {
	room, err := anchorRoom(ctx, f)
	if err != nil {
		return nil, err
	}
	spawnType := d.SpawnType
	if spawnType == "" {
		spawnType = DefaultSpawnType
	}
	lo, hi := countRange(d.MinCount, d.MaxCount, 1, 1)
	n := ctx.RNG.IntRange(lo, hi)
	next := ctx.Layout.CountSpawnPoints(room.ID)
	for i := range n {
		ctx.Layout.AddSpawnPoint(layout.SpawnPoint{
			ID:       fmt.Sprintf("%s_spawn_%d", room.ID, next+i),
			Type:     spawnType,
			Position: inside(ctx.RNG, room.Bounds),
			RoomID:   room.ID,
		})
	}
	return passThrough(ctx, f), nil
}

// execLootDrop drops loot only when the Bernoulli trial on the drop chance
// succeeds; the path continues either way.
func execLootDrop(ctx *Context, d graph.LootDropData, f Fragment) (Outputs, error) {
	room, err := anchorRoom(ctx, f)
	if err != nil {
		return nil, err
	}
	if !ctx.RNG.Bool(d.Chance()) {
		return passThrough(ctx, f), nil
	}
	lo, hi := countRange(d.MinCount, d.MaxCount, 1, 1)
	if err := placeEntities(ctx, room, layout.EntityLoot, ctx.RNG.IntRange(lo, hi), d.ItemTypes); err != nil {
		return nil, err
	}
	return passThrough(ctx, f), nil
}

// execEncounter places enemies and raises the room's difficulty to the
// encounter's.
func execEncounter(ctx *Context, d graph.EncounterData, f Fragment) (Outputs, error) {
	room, err := anchorRoom(ctx, f)
	if err != nil {
		return nil, err
	}
	lo, hi := countRange(d.MinEnemies, d.MaxEnemies, 1, 3)
	if err := placeEntities(ctx, room, layout.EntityEnemy, ctx.RNG.IntRange(lo, hi), d.EnemyTypes); err != nil {
		return nil, err
	}
	if d.Difficulty != 0 {
		ctx.Layout.Raise(room.ID, layout.MetaDifficulty, d.Difficulty)
	}
	return passThrough(ctx, f), nil
}

func execProp(ctx *Context, d graph.PropData, f Fragment) (Outputs, error) {
	room, err := anchorRoom(ctx, f)
	if err != nil {
		return nil, err
	}
	var kinds []string
	if d.PropType != "" {
		kinds = []string{d.PropType}
	}
	lo, hi := countRange(d.MinCount, d.MaxCount, 1, 3)
	if err := placeEntities(ctx, room, layout.EntityProp, ctx.RNG.IntRange(lo, hi), kinds); err != nil {
		return nil, err
	}
	return passThrough(ctx, f), nil
}

// placeEntities appends n entities named {room}_{type}_entity_{i}, numbering
// on from the entities of that type already in the room.
func placeEntities(ctx *Context, room layout.GeneratedRoom, entityType string, n int, kinds []string) error {
	next := ctx.Layout.CountEntities(room.ID, entityType)
	for i := range n {
		e := layout.PlacedEntity{
			ID:       fmt.Sprintf("%s_%s_entity_%d", room.ID, entityType, next+i),
			Type:     entityType,
			Position: inside(ctx.RNG, room.Bounds),
			Metadata: map[string]any{},
		}
		if len(kinds) > 0 {
			e.Metadata[layout.MetaKind] = kinds[ctx.RNG.Pick(len(kinds))]
		}
		if err := ctx.Layout.AddEntity(room.ID, e); err != nil {
			return ctx.fail("%v", err)
		}
	}
	return nil
}

// inside samples a point in r at least EntityPadding from every wall. Rooms
// too small for the padding use their center on that axis.
func inside(s *rng.Stream, r layout.Rect) layout.Position {
	c := r.Center()
	p := c
	if r.Width > 2*EntityPadding {
		p.X = s.FloatRange(r.X+EntityPadding, r.Right()-EntityPadding)
	}
	if r.Height > 2*EntityPadding {
		p.Y = s.FloatRange(r.Y+EntityPadding, r.Bottom()-EntityPadding)
	}
	return p
}
