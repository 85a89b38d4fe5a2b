package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/render/nodelink"
)

func ExampleGraphDOT() {
	g := graph.NewBuilder().
		Add("start", graph.StartData{}).
		Add("hall", graph.RoomData{}).
		Add("exit", graph.OutputData{}).
		Chain("start", "hall", "exit").
		Build()

	dot := nodelink.GraphDOT(g, nodelink.Options{})
	fmt.Println(strings.Count(dot, "->"), "edges")
	// Output:
	// 2 edges
}
