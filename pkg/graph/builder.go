package graph

import "fmt"

// Builder assembles a NodeGraph in code. It is mainly used by tests and
// examples; generator files are decoded from JSON, YAML or TOML instead.
//
//	g := graph.NewBuilder().
//		Add("start", graph.StartData{}).
//		Add("hall", graph.RoomData{}).
//		Add("exit", graph.OutputData{}).
//		Chain("start", "hall", "exit").
//		Build()
type Builder struct {
	g NodeGraph
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// Add appends a node with default ports.
func (b *Builder) Add(id string, data NodeData) *Builder {
	b.g.Nodes = append(b.g.Nodes, NewNode(id, data))
	return b
}

// Connect links from to to. The source port is the first output of from
// that has no edge yet (or its first output when all are used); the target
// port is the first input of to. Unknown nodes produce dangling edges that
// validation reports.
func (b *Builder) Connect(from, to string) *Builder {
	fromPort, toPort := "out", "in"
	if n, ok := b.g.Node(from); ok && len(n.Outputs) > 0 {
		fromPort = n.Outputs[0].ID
		for _, p := range n.Outputs {
			if !b.hasEdgeFrom(from, p.ID) {
				fromPort = p.ID
				break
			}
		}
	}
	if n, ok := b.g.Node(to); ok && len(n.Inputs) > 0 {
		toPort = n.Inputs[0].ID
	}
	return b.ConnectPorts(from, fromPort, to, toPort)
}

// ConnectPorts links an explicit output port to an explicit input port.
func (b *Builder) ConnectPorts(from, fromPort, to, toPort string) *Builder {
	b.g.Edges = append(b.g.Edges, Edge{
		ID:     fmt.Sprintf("e%d", len(b.g.Edges)+1),
		Source: PortRef{NodeID: from, PortID: fromPort},
		Target: PortRef{NodeID: to, PortID: toPort},
	})
	return b
}

// Chain connects each node to the next.
func (b *Builder) Chain(ids ...string) *Builder {
	for i := 1; i < len(ids); i++ {
		b.Connect(ids[i-1], ids[i])
	}
	return b
}

// Build returns the assembled graph.
func (b *Builder) Build() NodeGraph { return b.g }

func (b *Builder) hasEdgeFrom(node, port string) bool {
	for _, e := range b.g.Edges {
		if e.Source.NodeID == node && e.Source.PortID == port {
			return true
		}
	}
	return false
}
