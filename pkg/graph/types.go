package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeType is the discriminant of a generator node. The set is closed: every
// type maps to exactly one [NodeData] variant.
type NodeType string

// Executable node types.
const (
	TypeStart        NodeType = "start"
	TypeOutput       NodeType = "output"
	TypeRoom         NodeType = "room"
	TypeRoomChain    NodeType = "room_chain"
	TypeBranch       NodeType = "branch"
	TypeMerge        NodeType = "merge"
	TypeSpawnPoint   NodeType = "spawn_point"
	TypeLootDrop     NodeType = "loot_drop"
	TypeEncounter    NodeType = "encounter"
	TypeProp         NodeType = "prop"
	TypeRandomSelect NodeType = "random_select"
	TypeSequence     NodeType = "sequence"
	TypeCondition    NodeType = "condition"
)

// Node types the editor can place but the engine cannot execute. Graphs
// containing them decode, and fail validation.
const (
	TypeSubgraph     NodeType = "subgraph"
	TypeLoop         NodeType = "loop"
	TypeDistribution NodeType = "distribution"
	TypeCurve        NodeType = "curve"
	TypeTable        NodeType = "table"
)

// Executable reports whether the engine has an executor for t.
func (t NodeType) Executable() bool {
	switch t {
	case TypeStart, TypeOutput, TypeRoom, TypeRoomChain, TypeBranch, TypeMerge,
		TypeSpawnPoint, TypeLootDrop, TypeEncounter, TypeProp,
		TypeRandomSelect, TypeSequence, TypeCondition:
		return true
	}
	return false
}

// Known reports whether t is part of the node type enumeration at all.
func (t NodeType) Known() bool {
	switch t {
	case TypeSubgraph, TypeLoop, TypeDistribution, TypeCurve, TypeTable:
		return true
	}
	return t.Executable()
}

// PortDirection tells whether a port receives or emits fragments.
type PortDirection string

const (
	PortInput  PortDirection = "input"
	PortOutput PortDirection = "output"
)

// Port data types.
const (
	DataTypeRoom = "room"
	DataTypeAny  = "any"
)

// =============================================================================
// Graph structure
// =============================================================================

// NodeGraph is a generator graph as authored in the editor.
//
// Nodes keep their authored order for round-tripping; the engine never
// depends on it. Groups are editor-only and ignored by generation.
type NodeGraph struct {
	Nodes  []GraphNode `json:"nodes"`
	Edges  []Edge      `json:"edges"`
	Groups []NodeGroup `json:"groups,omitempty"`
}

// GraphNode is a typed node with its ports.
type GraphNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Inputs   []Port   `json:"inputs"`
	Outputs  []Port   `json:"outputs"`
}

// Position is the editor canvas position of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Port is a typed connection point on a node.
type Port struct {
	ID        string        `json:"id"`
	Direction PortDirection `json:"type"`
	DataType  string        `json:"dataType"`
	Label     string        `json:"label,omitempty"`
	// Multiple marks an input that joins several upstream paths (merge).
	Multiple bool `json:"multiple,omitempty"`
}

// PortRef addresses one port of one node.
type PortRef struct {
	NodeID string `json:"nodeId"`
	PortID string `json:"portId"`
}

func (r PortRef) String() string { return r.NodeID + "." + r.PortID }

// Edge connects an output port to an input port.
type Edge struct {
	ID     string  `json:"id"`
	Source PortRef `json:"source"`
	Target PortRef `json:"target"`
}

// NodeGroup is a visual grouping of nodes in the editor.
type NodeGroup struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	NodeIDs []string `json:"nodeIds"`
	Color   string   `json:"color,omitempty"`
}

// =============================================================================
// Lookups
// =============================================================================

// Node returns the node with the given ID.
func (g *NodeGraph) Node(id string) (*GraphNode, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// StartNodes returns every node of type start.
func (g *NodeGraph) StartNodes() []*GraphNode { return g.nodesOfType(TypeStart) }

// OutputNodes returns every node of type output.
func (g *NodeGraph) OutputNodes() []*GraphNode { return g.nodesOfType(TypeOutput) }

func (g *NodeGraph) nodesOfType(t NodeType) []*GraphNode {
	var out []*GraphNode
	for i := range g.Nodes {
		if g.Nodes[i].Type == t {
			out = append(out, &g.Nodes[i])
		}
	}
	return out
}

// Input returns the input port with the given ID.
func (n *GraphNode) Input(id string) (Port, bool) { return findPort(n.Inputs, id) }

// Output returns the output port with the given ID.
func (n *GraphNode) Output(id string) (Port, bool) { return findPort(n.Outputs, id) }

// OutputIndex returns the position of an output port, or -1.
func (n *GraphNode) OutputIndex(id string) int {
	for i, p := range n.Outputs {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Label returns the node's display label, falling back to its ID.
func (n *GraphNode) Label() string {
	if n.Data != nil {
		if l := n.Data.label(); l != "" {
			return l
		}
	}
	return n.ID
}

func findPort(ports []Port, id string) (Port, bool) {
	for _, p := range ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// =============================================================================
// JSON
// =============================================================================

// UnmarshalJSON decodes a node and its type-specific data. Missing port
// lists are filled with the type's default ports.
func (n *GraphNode) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Type     NodeType        `json:"type"`
		Position Position        `json:"position"`
		Data     json.RawMessage `json:"data"`
		Inputs   []Port          `json:"inputs"`
		Outputs  []Port          `json:"outputs"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := DecodeData(raw.Type, raw.Data)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}

	*n = GraphNode{
		ID:       raw.ID,
		Type:     raw.Type,
		Position: raw.Position,
		Data:     data,
		Inputs:   raw.Inputs,
		Outputs:  raw.Outputs,
	}
	in, out := DefaultPorts(raw.Type, data)
	if raw.Inputs == nil {
		n.Inputs = in
	}
	if raw.Outputs == nil {
		n.Outputs = out
	}
	return nil
}
