package layout

import "slices"

// Adjacency returns the undirected room graph induced by the connections.
// Neighbors are listed in connection order without duplicates.
func (l *DungeonLayout) Adjacency() map[string][]string {
	adj := make(map[string][]string, len(l.Rooms))
	link := func(a, b string) {
		if !slices.Contains(adj[a], b) {
			adj[a] = append(adj[a], b)
		}
	}
	for _, c := range l.Connections {
		link(c.FromRoomID, c.ToRoomID)
		link(c.ToRoomID, c.FromRoomID)
	}
	return adj
}

// Distances returns the hop count from room from to every room reachable
// from it over connections, treating doors as two-way.
func (l *DungeonLayout) Distances(from string) map[string]int {
	return bfs(l.Adjacency(), from)
}

// ShortestPath returns the room IDs on a shortest path from one room to
// another, both included, or nil if to is unreachable. Ties are broken by
// connection order.
func (l *DungeonLayout) ShortestPath(from, to string) []string {
	adj := l.Adjacency()
	if _, ok := l.Room(from); !ok {
		return nil
	}
	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if curr == to {
			break
		}
		for _, next := range adj[curr] {
			if _, seen := prev[next]; !seen {
				prev[next] = curr
				queue = append(queue, next)
			}
		}
	}
	if _, ok := prev[to]; !ok {
		return nil
	}
	var path []string
	for at := to; at != ""; at = prev[at] {
		path = append(path, at)
		if at == from {
			break
		}
	}
	slices.Reverse(path)
	return path
}

// Unreachable returns the IDs of rooms that cannot be reached from room
// from, in room order.
func (l *DungeonLayout) Unreachable(from string) []string {
	dist := l.Distances(from)
	var out []string
	for _, r := range l.Rooms {
		if _, ok := dist[r.ID]; !ok {
			out = append(out, r.ID)
		}
	}
	return out
}

// RoomAt returns the first room whose bounds contain p.
func (l *DungeonLayout) RoomAt(p Position) (*GeneratedRoom, bool) {
	for i := range l.Rooms {
		if l.Rooms[i].Bounds.Contains(p) {
			return &l.Rooms[i], true
		}
	}
	return nil, false
}

func bfs(adj map[string][]string, from string) map[string]int {
	dist := map[string]int{from: 0}
	queue := []string{from}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adj[curr] {
			if _, seen := dist[next]; !seen {
				dist[next] = dist[curr] + 1
				queue = append(queue, next)
			}
		}
	}
	return dist
}
