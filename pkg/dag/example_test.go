package dag_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/dungeonforge/pkg/dag"
)

func ExampleDAG_TopologicalOrder() {
	// start fans out to two rooms that meet again at a merge
	g := dag.New(nil)
	for _, id := range []string{"start", "west", "east", "merge"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "start", To: "west"})
	_ = g.AddEdge(dag.Edge{From: "start", To: "east"})
	_ = g.AddEdge(dag.Edge{From: "west", To: "merge"})
	_ = g.AddEdge(dag.Edge{From: "east", To: "merge"})

	order, _ := g.TopologicalOrder()
	fmt.Println(order)
	// Output:
	// [start east west merge]
}

func ExampleDAG_Validate() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "a"})
	_ = g.AddNode(dag.Node{ID: "b"})
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "a"})

	err := g.Validate()
	fmt.Println(errors.Is(err, dag.ErrGraphHasCycle))
	fmt.Println(err)
	// Output:
	// true
	// graph contains a cycle: a -> b -> a
}
