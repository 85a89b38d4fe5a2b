// Package constraint checks finished layouts against declarative
// constraints.
//
// Eight constraint types are supported: distance, count, density,
// progression, required, forbidden, connected and custom. Tags match a
// room's type, its "tags" metadata, or an entity's type or kind. Room
// distances are BFS hops over connections, which are two-way.
//
// [Evaluate] produces one [Result] per constraint. A failed constraint of
// error severity fails the run; a warning is recorded only. The solver
// never retries generation.
//
// Custom constraints name a [Predicate] in a [Registry]:
//
//	reg := constraint.NewRegistry()
//	reg.Register("bossLast", func(l *layout.DungeonLayout, p constraint.Params) (bool, string) {
//	    ...
//	})
//	results := constraint.Evaluate(l, constraints, reg)
package constraint
