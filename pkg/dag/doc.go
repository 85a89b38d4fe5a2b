// Package dag provides the directed acyclic graph that generator graphs are
// checked and scheduled on.
//
// # Overview
//
// A DungeonForge generator is a node graph: rooms, branches, merges, spawns
// and outputs wired together by edges. Before a generator can run, the graph
// must be acyclic and every node must be reachable from the start node. This
// package owns those structural questions. It knows nothing about node types
// or ports; [github.com/matzehuels/dungeonforge/pkg/graph] projects a
// generator graph onto a DAG and interprets the answers.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "start"})
//	g.AddNode(dag.Node{ID: "room"})
//	g.AddEdge(dag.Edge{From: "start", To: "room"})
//
//	order, err := g.TopologicalOrder()
//
// # Determinism
//
// Every ordering the package returns is a function of node IDs and edges
// only. [DAG.TopologicalOrder] breaks ties between simultaneously ready nodes
// by ID, and [DAG.Sources] and [DAG.Sinks] are sorted. Generation relies on
// this so that sibling branches always execute in the same order for the
// same graph.
//
// # Cycles
//
// [DAG.Validate] reports the first cycle found as a [*CycleError] whose Path
// lists the nodes on the cycle. The error matches [ErrGraphHasCycle] with
// errors.Is.
package dag
