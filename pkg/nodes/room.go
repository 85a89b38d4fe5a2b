package nodes

import (
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/rng"
)

// Placement tuning.
const (
	MinSpacing          = 3.0
	MaxSpacing          = 8.0
	MaxJitter           = 2.0
	OverlapMargin       = 1.0
	MaxPlacementRetries = 8
	DefaultMinDoors     = 1
	DefaultMaxDoors     = 4
	ParamMinRoomSize    = "minRoomSize"
	ParamMaxRoomSize    = "maxRoomSize"
	doorEdgeMin         = 0.25
	doorEdgeMax         = 0.75
)

func execRoom(ctx *Context, d graph.RoomData, f Fragment) (Outputs, error) {
	room, err := placeRoom(ctx, ctx.RNG, ctx.Node.ID, d.RoomSpec, f)
	if err != nil {
		return nil, err
	}
	next := f
	next.Anchor, next.Joins = room.ID, nil
	return passThrough(ctx, next), nil
}

// execRoomChain places a run of rooms named {node}_{i}. Linear chains
// thread each room from the previous one. Branching chains attach each
// room to a random earlier room of the chain, continuing straight with
// probability 0.7 and turning clockwise otherwise. The output anchors on
// the last room placed.
func execRoomChain(ctx *Context, d graph.RoomChainData, f Fragment) (Outputs, error) {
	lo, hi := d.CountRange()
	count := ctx.RNG.IntRange(lo, hi)
	branching := d.Connection == graph.ChainBranching

	var placed []string
	cur := f
	for i := range count {
		s := ctx.RNG.Sub(strconv.Itoa(i))
		from := cur
		if branching && i > 0 {
			from = Fragment{
				Anchor:  placed[s.Pick(len(placed))],
				Heading: f.Heading,
				Weight:  f.Weight,
			}
			if !s.Bool(0.7) {
				from.Heading = from.Heading.Turn(1)
			}
		}
		room, err := placeRoom(ctx, s, fmt.Sprintf("%s_%d", ctx.Node.ID, i), d.RoomSpec, from)
		if err != nil {
			return nil, err
		}
		placed = append(placed, room.ID)
		cur.Anchor, cur.Joins = room.ID, nil
		cur.Heading = from.Heading
	}
	cur.Heading = f.Heading
	return passThrough(ctx, cur), nil
}

// placeRoom samples a room and places it next to the fragment's anchor,
// connecting it to the anchor and every join. A path that fans out before
// any room has no anchor; once the start room exists it anchors there so
// the layout stays connected.
func placeRoom(ctx *Context, s *rng.Stream, id string, spec graph.RoomSpec, f Fragment) (layout.GeneratedRoom, error) {
	wLo, wHi := sizeRange(ctx.Params, spec.MinWidth, spec.MaxWidth)
	hLo, hHi := sizeRange(ctx.Params, spec.MinHeight, spec.MaxHeight)
	w := s.FloatRange(wLo, wHi)
	h := s.FloatRange(hLo, hHi)
	shapes := spec.ShapeSet()
	shape := shapes[s.Pick(len(shapes))]
	dLo, dHi := countRange(spec.MinDoors, spec.MaxDoors, DefaultMinDoors, DefaultMaxDoors)
	doors := s.IntRange(dLo, dHi)

	if f.Anchor == "" {
		f.Anchor = ctx.Layout.StartRoom()
	}
	var anchor *layout.GeneratedRoom
	if f.Anchor != "" {
		a, ok := ctx.Layout.Room(f.Anchor)
		if !ok {
			return layout.GeneratedRoom{}, ctx.fail("unknown anchor room %q", f.Anchor)
		}
		anchor = &a
	}

	var bounds layout.Rect
	for attempt := 0; ; attempt++ {
		bounds = candidate(s, anchor, f, w, h, attempt)
		if len(ctx.Layout.Overlapping(bounds, OverlapMargin)) == 0 {
			break
		}
		if attempt == MaxPlacementRetries {
			ctx.Layout.Warn("room %s overlaps %v after %d retries", id, ctx.Layout.Overlapping(bounds, OverlapMargin), attempt)
			break
		}
		ctx.Layout.Retry()
	}

	roomType := spec.RoomType
	if roomType == "" {
		roomType = graph.DefaultRoomType
	}
	room := layout.GeneratedRoom{
		ID:     id,
		Type:   roomType,
		Bounds: bounds,
		Metadata: map[string]any{
			layout.MetaShape: shape,
			layout.MetaDoors: doors,
			"pathWeight":     f.Weight,
		},
	}
	if tags := cloneTags(spec.Tags); tags != nil {
		room.Metadata[layout.MetaTags] = tags
	}
	if spec.Difficulty != nil {
		room.Metadata[layout.MetaDifficulty] = *spec.Difficulty
	}
	if err := ctx.Layout.AddRoom(room, anchor == nil); err != nil {
		return layout.GeneratedRoom{}, ctx.fail("%v", err)
	}

	if anchor != nil {
		if err := connect(ctx, s, *anchor, room, f.Heading); err != nil {
			return layout.GeneratedRoom{}, err
		}
	}
	for _, j := range f.Joins {
		join, ok := ctx.Layout.Room(j)
		if !ok {
			return layout.GeneratedRoom{}, ctx.fail("unknown joined room %q", j)
		}
		if err := connect(ctx, s, join, room, facing(join.Bounds, room.Bounds)); err != nil {
			return layout.GeneratedRoom{}, err
		}
	}
	return room, nil
}

// candidate proposes bounds for a w x h room. Each retry pushes the room
// further out along the heading and widens the lateral jitter.
func candidate(s *rng.Stream, anchor *layout.GeneratedRoom, f Fragment, w, h float64, attempt int) layout.Rect {
	push := float64(attempt) * MaxSpacing
	jitter := MaxJitter * float64(attempt+1)
	lateral := s.FloatRange(-jitter, jitter)
	if anchor == nil {
		if attempt == 0 {
			return layout.Rect{X: f.Cursor.X, Y: f.Cursor.Y, Width: w, Height: h}
		}
		return layout.Rect{X: f.Cursor.X + push, Y: f.Cursor.Y + lateral, Width: w, Height: h}
	}

	gap := s.FloatRange(MinSpacing, MaxSpacing) + push
	a := anchor.Bounds
	r := layout.Rect{Width: w, Height: h}
	switch f.Heading {
	case Right:
		r.X = a.Right() + gap
		r.Y = a.Y + (a.Height-h)/2 + lateral
	case Left:
		r.X = a.X - gap - w
		r.Y = a.Y + (a.Height-h)/2 + lateral
	case Down:
		r.Y = a.Bottom() + gap
		r.X = a.X + (a.Width-w)/2 + lateral
	case Up:
		r.Y = a.Y - gap - h
		r.X = a.X + (a.Width-w)/2 + lateral
	}
	return r
}

// connect links from to a newly placed room with a door on each facing
// edge, 25-75% of the way along it.
func connect(ctx *Context, s *rng.Stream, from, to layout.GeneratedRoom, heading Direction) error {
	c := layout.RoomConnection{
		FromRoomID: from.ID,
		ToRoomID:   to.ID,
		FromDoor:   door(s, from.Bounds, heading),
		ToDoor:     door(s, to.Bounds, heading.Opposite()),
	}
	if err := ctx.Layout.Connect(c); err != nil {
		return ctx.fail("%v", err)
	}
	return nil
}

func door(s *rng.Stream, r layout.Rect, edge Direction) layout.Position {
	t := s.FloatRange(doorEdgeMin, doorEdgeMax)
	switch edge {
	case Right:
		return layout.Position{X: r.Right(), Y: r.Y + t*r.Height}
	case Left:
		return layout.Position{X: r.X, Y: r.Y + t*r.Height}
	case Down:
		return layout.Position{X: r.X + t*r.Width, Y: r.Bottom()}
	default:
		return layout.Position{X: r.X + t*r.Width, Y: r.Y}
	}
}

// facing returns the dominant direction from a to b.
func facing(a, b layout.Rect) Direction {
	ca, cb := a.Center(), b.Center()
	dx, dy := cb.X-ca.X, cb.Y-ca.Y
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return Right
		}
		return Left
	}
	if dy >= 0 {
		return Down
	}
	return Up
}

// sizeRange resolves one room dimension. The minRoomSize/maxRoomSize
// parameters override node values, which override the defaults.
func sizeRange(p Params, lo, hi float64) (float64, float64) {
	if lo <= 0 {
		lo = graph.DefaultMinRoomSize
	}
	if hi <= 0 {
		hi = graph.DefaultMaxRoomSize
	}
	if v, ok := p.Float(ParamMinRoomSize); ok && v > 0 {
		lo = v
	}
	if v, ok := p.Float(ParamMaxRoomSize); ok && v > 0 {
		hi = v
	}
	return lo, max(lo, hi)
}

// countRange resolves an inclusive count range; an all-zero range takes
// the defaults.
func countRange(lo, hi, defLo, defHi int) (int, int) {
	if lo <= 0 && hi <= 0 {
		return defLo, defHi
	}
	if hi < lo {
		hi = lo
	}
	return max(lo, 0), hi
}
