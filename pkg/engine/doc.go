// Package engine executes generator graphs into dungeon layouts.
//
// [Generate] validates the graph, runs every node through its executor and
// evaluates the constraints against the result. Scheduling is Kahn's
// algorithm over per-node counters of unresolved incoming edges, with the
// ready set ordered by node ID; the layout is therefore a pure function of
// graph, seed and parameters.
//
// Each node moves through [Pending], [Ready], [Executing] and ends [Done]
// or [Failed]. Nodes that can no longer receive a fragment, because a
// probabilistic branch, random_select or condition routed elsewhere, end
// [Pruned] without executing. Merge nodes with strategy "all" wait for every
// incoming edge; "any" and "first" fire on the first fragment.
package engine
