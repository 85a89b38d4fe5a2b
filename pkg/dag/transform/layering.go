package transform

import "github.com/matzehuels/dungeonforge/pkg/dag"

// AssignLayers computes a layer (depth) for every node of g.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum layer of any of
// its parents, so that:
//   - Source nodes (no incoming edges) are at layer 0
//   - All parents are strictly above their children
//
// Renderers use the layers to line up nodes that sit at the same depth of a
// generator graph.
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// zero in-degree and keep layer 0. Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) map[string]int {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	layers := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		layers[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if layer := layers[curr] + 1; layer > layers[child] {
				layers[child] = layer
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return layers
}

// GroupByLayer inverts a layer assignment into layer -> node IDs, keeping
// the node order of g within each layer.
func GroupByLayer(g *dag.DAG, layers map[string]int) [][]string {
	maxLayer := 0
	for _, l := range layers {
		maxLayer = max(maxLayer, l)
	}
	groups := make([][]string, maxLayer+1)
	for _, n := range g.Nodes() {
		l := layers[n.ID]
		groups[l] = append(groups[l], n.ID)
	}
	return groups
}
