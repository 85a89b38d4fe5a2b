package nodes

import (
	"fmt"
	"slices"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/rng"
)

// ExecutionError is a failure inside a node executor. It aborts the whole
// generation run.
type ExecutionError struct {
	NodeID string
	Reason string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("node %s: %s", e.NodeID, e.Reason)
}

// Code implements errors.Coder.
func (e *ExecutionError) Code() dferrors.Code { return dferrors.ErrCodeNodeExecution }

// Params are the resolved runtime parameters of a run.
type Params map[string]any

// Float returns a numeric parameter.
func (p Params) Float(name string) (float64, bool) {
	return layout.Number(p[name])
}

// Context is everything an executor may touch: its own random stream, the
// run's parameters and a scoped view of the layout under construction.
type Context struct {
	Node   *graph.GraphNode
	RNG    *rng.Stream
	Params Params
	Layout *Scope
}

func (c *Context) fail(format string, args ...any) error {
	return &ExecutionError{NodeID: c.Node.ID, Reason: fmt.Sprintf(format, args...)}
}

// Scope is the write interface of one node onto the shared layout. A node
// may create rooms and connections it owns, append entities, spawn points
// and exits to existing rooms, and raise a room's numeric metadata. It
// cannot remove or lower anything another node created.
type Scope struct {
	node    string
	layout  *layout.DungeonLayout
	index   map[string]int
	retries *int
}

// NewScope returns the scope of node over l. retries accumulates placement
// retries across every scope sharing the counter.
func NewScope(node string, l *layout.DungeonLayout, retries *int) *Scope {
	index := make(map[string]int, len(l.Rooms))
	for i, r := range l.Rooms {
		index[r.ID] = i
	}
	return &Scope{node: node, layout: l, index: index, retries: retries}
}

// Room returns a copy of the room with the given ID.
func (s *Scope) Room(id string) (layout.GeneratedRoom, bool) {
	i, ok := s.index[id]
	if !ok {
		return layout.GeneratedRoom{}, false
	}
	return s.layout.Rooms[i], true
}

// Overlapping returns the IDs of rooms whose bounds overlap r within margin.
func (s *Scope) Overlapping(r layout.Rect, margin float64) []string {
	var ids []string
	for _, room := range s.layout.Rooms {
		if room.Bounds.Overlaps(r, margin) {
			ids = append(ids, room.ID)
		}
	}
	return ids
}

// StartRoom returns the player-start room ID, empty until one is placed.
func (s *Scope) StartRoom() string { return s.layout.StartRoomID }

// AddRoom appends a new room owned by this node. The first room placed
// without an upstream anchor becomes the player-start room.
func (s *Scope) AddRoom(r layout.GeneratedRoom, start bool) error {
	if _, exists := s.index[r.ID]; exists {
		return fmt.Errorf("room %q already exists", r.ID)
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.Entities == nil {
		r.Entities = []layout.PlacedEntity{}
	}
	r.Metadata[layout.MetaSourceNode] = s.node
	s.index[r.ID] = len(s.layout.Rooms)
	s.layout.Rooms = append(s.layout.Rooms, r)
	if start && s.layout.StartRoomID == "" {
		s.layout.StartRoomID = r.ID
		s.layout.PlayerStart = r.Bounds.Center()
	}
	return nil
}

// Connect records a door-to-door connection into a room this node owns.
func (s *Scope) Connect(c layout.RoomConnection) error {
	to, ok := s.index[c.ToRoomID]
	if !ok {
		return fmt.Errorf("unknown room %q", c.ToRoomID)
	}
	if owner := s.layout.Rooms[to].Metadata[layout.MetaSourceNode]; owner != s.node {
		return fmt.Errorf("room %q belongs to node %v", c.ToRoomID, owner)
	}
	if _, ok := s.index[c.FromRoomID]; !ok {
		return fmt.Errorf("unknown room %q", c.FromRoomID)
	}
	s.layout.Connections = append(s.layout.Connections, c)
	return nil
}

// AddEntity appends an entity to a room.
func (s *Scope) AddEntity(roomID string, e layout.PlacedEntity) error {
	i, ok := s.index[roomID]
	if !ok {
		return fmt.Errorf("unknown room %q", roomID)
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata[layout.MetaSourceNode] = s.node
	s.layout.Rooms[i].Entities = append(s.layout.Rooms[i].Entities, e)
	return nil
}

// CountEntities returns how many entities of a type a room holds.
func (s *Scope) CountEntities(roomID, entityType string) int {
	i, ok := s.index[roomID]
	if !ok {
		return 0
	}
	n := 0
	for _, e := range s.layout.Rooms[i].Entities {
		if e.Type == entityType {
			n++
		}
	}
	return n
}

// Raise lifts a numeric room metadata value to at least v. It never
// lowers a value another node set.
func (s *Scope) Raise(roomID, key string, v float64) {
	i, ok := s.index[roomID]
	if !ok {
		return
	}
	room := &s.layout.Rooms[i]
	if cur, ok := room.Number(key); ok && cur >= v {
		return
	}
	if room.Metadata == nil {
		room.Metadata = map[string]any{}
	}
	room.Metadata[key] = v
}

// AddSpawnPoint appends a spawn point.
func (s *Scope) AddSpawnPoint(sp layout.SpawnPoint) {
	s.layout.SpawnPoints = append(s.layout.SpawnPoints, sp)
}

// CountSpawnPoints returns how many spawn points a room holds.
func (s *Scope) CountSpawnPoints(roomID string) int {
	n := 0
	for _, sp := range s.layout.SpawnPoints {
		if sp.RoomID == roomID {
			n++
		}
	}
	return n
}

// AddExit records an exit position, optionally inside a room.
func (s *Scope) AddExit(p layout.Position, roomID string) {
	s.layout.Exits = append(s.layout.Exits, p)
	s.layout.ExitRoomIDs = append(s.layout.ExitRoomIDs, roomID)
}

// Warn records a non-fatal problem on the layout.
func (s *Scope) Warn(format string, args ...any) {
	s.layout.Warnings = append(s.layout.Warnings, fmt.Sprintf("node %s: ", s.node)+fmt.Sprintf(format, args...))
}

// Retry counts one placement retry.
func (s *Scope) Retry() {
	if s.retries != nil {
		*s.retries++
	}
}

func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	return slices.Clone(tags)
}
