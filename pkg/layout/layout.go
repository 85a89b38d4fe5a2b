// Package layout defines the content a generation run produces: rooms,
// connections, entities, spawn points, the player start and the exits.
//
// Every type here is plain data with JSON and BSON tags. A DungeonLayout
// is owned by exactly one run and holds no references back into the
// engine, so results can be cached, stored and sent over the wire as-is.
package layout

import (
	"maps"
	"slices"
)

// Metadata keys written by the node executors.
const (
	MetaShape      = "shape"
	MetaTags       = "tags"
	MetaDoors      = "doors"
	MetaDifficulty = "difficulty"
	MetaSourceNode = "sourceNode"
	MetaKind       = "kind"
)

// Entity types written by the node executors.
const (
	EntityEnemy = "enemy"
	EntityLoot  = "loot"
	EntityProp  = "prop"
)

// Position is a point in layout space.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Center returns the center point of r.
func (r Rect) Center() Position {
	return Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Overlaps reports whether r and o share interior area, optionally
// requiring a gap of margin between them. Touching edges do not overlap.
func (r Rect) Overlaps(o Rect, margin float64) bool {
	return r.X < o.Right()+margin && o.X < r.Right()+margin &&
		r.Y < o.Bottom()+margin && o.Y < r.Bottom()+margin
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// PlacedEntity is an enemy, item or prop placed in a room.
type PlacedEntity struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Position Position       `json:"position" bson:"position"`
	Metadata map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// GeneratedRoom is a room placed by a room or room_chain node. Spawn,
// loot, encounter and prop nodes append entities to it afterwards.
type GeneratedRoom struct {
	ID       string         `json:"id" bson:"id"`
	Type     string         `json:"type" bson:"type"`
	Bounds   Rect           `json:"bounds" bson:"bounds"`
	Entities []PlacedEntity `json:"entities" bson:"entities"`
	Metadata map[string]any `json:"metadata" bson:"metadata"`
}

// Tags returns the room's tag list from its metadata.
func (r *GeneratedRoom) Tags() []string {
	switch v := r.Metadata[MetaTags].(type) {
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	}
	return nil
}

// HasTag reports whether the room's type or one of its tags equals tag.
func (r *GeneratedRoom) HasTag(tag string) bool {
	return r.Type == tag || slices.Contains(r.Tags(), tag)
}

// Number returns a numeric metadata value.
func (r *GeneratedRoom) Number(key string) (float64, bool) {
	return Number(r.Metadata[key])
}

// Clone returns a deep copy of the room's entity list and metadata map.
func (r GeneratedRoom) Clone() GeneratedRoom {
	r.Entities = slices.Clone(r.Entities)
	for i := range r.Entities {
		r.Entities[i].Metadata = maps.Clone(r.Entities[i].Metadata)
	}
	r.Metadata = maps.Clone(r.Metadata)
	return r
}

// RoomConnection is a door-to-door link between two rooms.
type RoomConnection struct {
	FromRoomID string   `json:"fromRoomId" bson:"fromRoomId"`
	ToRoomID   string   `json:"toRoomId" bson:"toRoomId"`
	FromDoor   Position `json:"fromDoor" bson:"fromDoor"`
	ToDoor     Position `json:"toDoor" bson:"toDoor"`
}

// SpawnPoint marks where something appears at runtime.
type SpawnPoint struct {
	ID       string   `json:"id" bson:"id"`
	Type     string   `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	RoomID   string   `json:"roomId" bson:"roomId"`
}

// DungeonLayout is the frozen output of one generation run.
type DungeonLayout struct {
	Rooms       []GeneratedRoom  `json:"rooms" bson:"rooms"`
	Connections []RoomConnection `json:"connections" bson:"connections"`
	SpawnPoints []SpawnPoint     `json:"spawnPoints" bson:"spawnPoints"`
	PlayerStart Position         `json:"playerStart" bson:"playerStart"`
	// StartRoomID is the room containing the player start, empty when the
	// layout has no rooms.
	StartRoomID string     `json:"startRoomId,omitempty" bson:"startRoomId,omitempty"`
	Exits       []Position `json:"exits" bson:"exits"`
	// ExitRoomIDs parallels Exits; an entry is empty for an exit that is
	// not inside any room.
	ExitRoomIDs []string `json:"exitRoomIds,omitempty" bson:"exitRoomIds,omitempty"`
	Warnings    []string `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// New returns an empty layout with non-nil collections so that it
// serializes as empty arrays.
func New() *DungeonLayout {
	return &DungeonLayout{
		Rooms:       []GeneratedRoom{},
		Connections: []RoomConnection{},
		SpawnPoints: []SpawnPoint{},
		Exits:       []Position{},
	}
}

// Room returns the room with the given ID.
func (l *DungeonLayout) Room(id string) (*GeneratedRoom, bool) {
	for i := range l.Rooms {
		if l.Rooms[i].ID == id {
			return &l.Rooms[i], true
		}
	}
	return nil, false
}

// Entities returns every entity in room order.
func (l *DungeonLayout) Entities() []PlacedEntity {
	var out []PlacedEntity
	for _, r := range l.Rooms {
		out = append(out, r.Entities...)
	}
	return out
}

// Clone returns a deep copy of l.
func (l *DungeonLayout) Clone() *DungeonLayout {
	c := *l
	c.Rooms = make([]GeneratedRoom, len(l.Rooms))
	for i, r := range l.Rooms {
		c.Rooms[i] = r.Clone()
	}
	c.Connections = slices.Clone(l.Connections)
	c.SpawnPoints = slices.Clone(l.SpawnPoints)
	c.Exits = slices.Clone(l.Exits)
	c.ExitRoomIDs = slices.Clone(l.ExitRoomIDs)
	c.Warnings = slices.Clone(l.Warnings)
	return &c
}

// EntityMatches reports whether an entity's type or kind equals tag.
func EntityMatches(e PlacedEntity, tag string) bool {
	if e.Type == tag {
		return true
	}
	kind, _ := e.Metadata[MetaKind].(string)
	return kind == tag
}

// Number converts any Go numeric value decoded from JSON, YAML, TOML or
// BSON to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
