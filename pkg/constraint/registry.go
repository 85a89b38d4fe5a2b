package constraint

import (
	"sort"
	"sync"

	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Predicate is a named custom check. It returns whether the layout passes
// and an optional message explaining a failure.
type Predicate func(l *layout.DungeonLayout, params Params) (bool, string)

// Registry maps custom predicate names to implementations. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{preds: map[string]Predicate{}}
}

// Register adds or replaces a predicate.
func (r *Registry) Register(name string, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds[name] = p
}

// Lookup returns the predicate registered under name.
func (r *Registry) Lookup(name string) (Predicate, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[name]
	return p, ok
}

// Names returns the registered predicate names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.preds))
	for name := range r.preds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register("exitReachable", exitReachable)
	r.Register("noOverlaps", noOverlaps)
	return r
}()

// Default returns the process-wide registry, preloaded with the built-in
// predicates "exitReachable" and "noOverlaps".
func Default() *Registry { return defaultRegistry }

func exitReachable(l *layout.DungeonLayout, _ Params) (bool, string) {
	if len(l.ExitRoomIDs) == 0 {
		return false, "layout has no exits"
	}
	dist := l.Distances(l.StartRoomID)
	for _, id := range l.ExitRoomIDs {
		if _, ok := dist[id]; ok {
			return true, ""
		}
	}
	return false, "no exit is reachable from the start room"
}

func noOverlaps(l *layout.DungeonLayout, p Params) (bool, string) {
	margin, _ := p.Float("margin")
	for i := range l.Rooms {
		for j := i + 1; j < len(l.Rooms); j++ {
			if l.Rooms[i].Bounds.Overlaps(l.Rooms[j].Bounds, margin) {
				return false, "rooms " + l.Rooms[i].ID + " and " + l.Rooms[j].ID + " overlap"
			}
		}
	}
	return true, ""
}
