package constraint

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Evaluate runs every constraint against l and returns one result per
// constraint in declaration order. Custom predicates are looked up in reg;
// a nil reg uses [Default].
func Evaluate(l *layout.DungeonLayout, constraints []Constraint, reg *Registry) []Result {
	if reg == nil {
		reg = Default()
	}
	results := make([]Result, 0, len(constraints))
	for _, c := range constraints {
		passed, msg := evaluate(l, c, reg)
		results = append(results, Result{
			ConstraintID: c.ID,
			Type:         c.Type,
			Severity:     c.ResolvedSeverity(),
			Passed:       passed,
			Message:      msg,
		})
	}
	return results
}

func evaluate(l *layout.DungeonLayout, c Constraint, reg *Registry) (bool, string) {
	p := c.Parameters
	switch c.Type {
	case TypeDistance:
		return distance(l, p)
	case TypeCount:
		return count(l, p)
	case TypeDensity:
		return density(l, p)
	case TypeProgression:
		return progression(l, p)
	case TypeRequired:
		return presence(l, p, true)
	case TypeForbidden:
		return presence(l, p, false)
	case TypeConnected:
		return connected(l)
	case TypeCustom:
		name := p.String("predicate", "")
		pred, ok := reg.Lookup(name)
		if !ok {
			return false, fmt.Sprintf("unknown custom predicate %q", name)
		}
		return pred(l, p)
	}
	return false, fmt.Sprintf("unknown constraint type %q", c.Type)
}

// taggedRooms returns the rooms whose type or tags match tag; an empty tag
// matches every room.
func taggedRooms(l *layout.DungeonLayout, tag string) []string {
	var ids []string
	for i := range l.Rooms {
		if tag == "" || l.Rooms[i].HasTag(tag) {
			ids = append(ids, l.Rooms[i].ID)
		}
	}
	return ids
}

// elementRooms returns the rooms holding an element matching tag: the room
// itself, an entity in it or a spawn point of that type.
func elementRooms(l *layout.DungeonLayout, tag string) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range l.Rooms {
		r := &l.Rooms[i]
		if r.HasTag(tag) {
			add(r.ID)
			continue
		}
		for _, e := range r.Entities {
			if layout.EntityMatches(e, tag) {
				add(r.ID)
				break
			}
		}
	}
	for _, sp := range l.SpawnPoints {
		if sp.Type == tag && sp.RoomID != "" {
			add(sp.RoomID)
		}
	}
	return ids
}

func distance(l *layout.DungeonLayout, p Params) (bool, string) {
	fromTag, toTag := p.String("from", ""), p.String("to", "")
	lo, hi := p.Range()
	from, to := taggedRooms(l, fromTag), taggedRooms(l, toTag)
	if len(from) == 0 || len(to) == 0 {
		return false, fmt.Sprintf("no rooms tagged %q and %q", fromTag, toTag)
	}
	best := math.MaxInt
	for _, a := range from {
		dist := l.Distances(a)
		for _, b := range to {
			if d, ok := dist[b]; ok && d < best {
				best = d
			}
		}
	}
	if best == math.MaxInt {
		return false, fmt.Sprintf("rooms tagged %q and %q are not connected", fromTag, toTag)
	}
	if !within(float64(best), lo, hi) {
		return false, fmt.Sprintf("distance %d outside %s", best, describeRange(lo, hi))
	}
	return true, ""
}

func count(l *layout.DungeonLayout, p Params) (bool, string) {
	tag := p.String("tag", "")
	target := p.String("target", TargetRooms)
	lo, hi := p.Range()

	n := 0
	switch target {
	case TargetRooms:
		n = len(taggedRooms(l, tag))
	case TargetEntities:
		for _, e := range l.Entities() {
			if tag == "" || layout.EntityMatches(e, tag) {
				n++
			}
		}
	case TargetSpawnPoints:
		for _, sp := range l.SpawnPoints {
			if tag == "" || sp.Type == tag {
				n++
			}
		}
	default:
		return false, fmt.Sprintf("unknown count target %q", target)
	}
	if !within(float64(n), lo, hi) {
		return false, fmt.Sprintf("%d %s outside %s", n, target, describeRange(lo, hi))
	}
	return true, ""
}

func density(l *layout.DungeonLayout, p Params) (bool, string) {
	tag := p.String("tag", "")
	mode := p.String("mode", ModeAverage)
	lo, hi := p.Range()
	if len(l.Rooms) == 0 {
		return false, "layout has no rooms"
	}

	perRoom := make([]int, len(l.Rooms))
	total := 0
	for i, r := range l.Rooms {
		for _, e := range r.Entities {
			if tag == "" || layout.EntityMatches(e, tag) {
				perRoom[i]++
			}
		}
		total += perRoom[i]
	}

	switch mode {
	case ModeAverage:
		avg := float64(total) / float64(len(l.Rooms))
		if !within(avg, lo, hi) {
			return false, fmt.Sprintf("average %.2f per room outside %s", avg, describeRange(lo, hi))
		}
	case ModePerRoom:
		for i, n := range perRoom {
			if !within(float64(n), lo, hi) {
				return false, fmt.Sprintf("room %s has %d, outside %s", l.Rooms[i].ID, n, describeRange(lo, hi))
			}
		}
	default:
		return false, fmt.Sprintf("unknown density mode %q", mode)
	}
	return true, ""
}

// progression checks that key never decreases along the shortest path from
// the start room to each exit room. Rooms without the key are skipped.
func progression(l *layout.DungeonLayout, p Params) (bool, string) {
	key := p.String("key", layout.MetaDifficulty)
	if l.StartRoomID == "" {
		return false, "layout has no start room"
	}
	for _, exit := range l.ExitRoomIDs {
		if exit == "" {
			continue
		}
		path := l.ShortestPath(l.StartRoomID, exit)
		if path == nil {
			return false, fmt.Sprintf("exit room %s is unreachable", exit)
		}
		prev, prevID, seen := 0.0, "", false
		for _, id := range path {
			r, _ := l.Room(id)
			v, ok := r.Number(key)
			if !ok {
				continue
			}
			if seen && v < prev {
				return false, fmt.Sprintf("%s drops from %g in %s to %g in %s", key, prev, prevID, v, id)
			}
			prev, prevID, seen = v, id, true
		}
	}
	return true, ""
}

// presence implements required (want true) and forbidden (want false).
// With "before" or "after" only elements strictly closer to or further
// from the start room than the nearest reference element count.
func presence(l *layout.DungeonLayout, p Params, want bool) (bool, string) {
	tag := p.String("tag", "")
	if tag == "" {
		return false, "missing tag"
	}
	rooms := elementRooms(l, tag)

	before, after := p.String("before", ""), p.String("after", "")
	var relation, ref string
	switch {
	case before != "":
		relation, ref = "before", before
	case after != "":
		relation, ref = "after", after
	}

	if relation != "" {
		depth := l.Distances(l.StartRoomID)
		refDepth := math.MaxInt
		for _, id := range elementRooms(l, ref) {
			if d, ok := depth[id]; ok {
				refDepth = min(refDepth, d)
			}
		}
		if refDepth == math.MaxInt {
			if want {
				return false, fmt.Sprintf("no reachable %q to compare against", ref)
			}
			return true, ""
		}
		var matched []string
		for _, id := range rooms {
			d, ok := depth[id]
			if ok && ((relation == "before" && d < refDepth) || (relation == "after" && d > refDepth)) {
				matched = append(matched, id)
			}
		}
		rooms = matched
	}

	where := tag
	if relation != "" {
		where = fmt.Sprintf("%s %s %s", tag, relation, ref)
	}
	switch {
	case want && len(rooms) == 0:
		return false, fmt.Sprintf("no %s", where)
	case !want && len(rooms) > 0:
		return false, fmt.Sprintf("found %s in %s", where, strings.Join(rooms, ", "))
	}
	return true, ""
}

// connected checks every room is reachable from the player-start room.
func connected(l *layout.DungeonLayout) (bool, string) {
	if len(l.Rooms) == 0 {
		return true, ""
	}
	start := l.StartRoomID
	if start == "" {
		r, ok := l.RoomAt(l.PlayerStart)
		if !ok {
			return false, "player start is not inside a room"
		}
		start = r.ID
	}
	if missing := l.Unreachable(start); len(missing) > 0 {
		return false, fmt.Sprintf("unreachable rooms: %s", strings.Join(missing, ", "))
	}
	return true, ""
}
