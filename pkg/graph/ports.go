package graph

import "strconv"

// DefaultPorts returns the fixed port set of a node type. Fan-out types get
// one output per configured path, named out_0, out_1, ...; condition nodes
// get "true" and "false" outputs.
func DefaultPorts(t NodeType, data NodeData) (inputs, outputs []Port) {
	in := func(multiple bool) []Port {
		return []Port{{ID: "in", Direction: PortInput, DataType: DataTypeRoom, Multiple: multiple}}
	}
	out := []Port{{ID: "out", Direction: PortOutput, DataType: DataTypeRoom}}

	switch t {
	case TypeStart:
		return nil, out
	case TypeOutput:
		return in(false), nil
	case TypeMerge:
		return in(true), out
	case TypeBranch:
		n := DefaultBranchPaths
		if d, ok := data.(BranchData); ok {
			n = d.PathCount()
		}
		return in(false), PathPorts(n)
	case TypeRandomSelect:
		n := DefaultBranchPaths
		if d, ok := data.(RandomSelectData); ok {
			n = d.PathCount()
		}
		return in(false), PathPorts(n)
	case TypeSequence:
		n := DefaultBranchPaths
		if d, ok := data.(SequenceData); ok && d.Steps > 0 {
			n = d.Steps
		}
		return in(false), PathPorts(n)
	case TypeCondition:
		return in(false), []Port{
			{ID: "true", Direction: PortOutput, DataType: DataTypeRoom, Label: "True"},
			{ID: "false", Direction: PortOutput, DataType: DataTypeRoom, Label: "False"},
		}
	}
	return in(false), out
}

// PathPorts returns n room outputs named out_0 .. out_{n-1}.
func PathPorts(n int) []Port {
	ports := make([]Port, n)
	for i := range ports {
		ports[i] = Port{ID: "out_" + strconv.Itoa(i), Direction: PortOutput, DataType: DataTypeRoom}
	}
	return ports
}

// NewNode builds a node of data's type with the default ports.
func NewNode(id string, data NodeData) GraphNode {
	in, out := DefaultPorts(data.NodeType(), data)
	return GraphNode{ID: id, Type: data.NodeType(), Data: data, Inputs: in, Outputs: out}
}
