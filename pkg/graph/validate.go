package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/dungeonforge/pkg/dag"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
)

// Violation codes, in the order the checks run.
const (
	CodeInvalidNode     = "invalid_node"
	CodeDuplicateNode   = "duplicate_node"
	CodeUnknownNode     = "unknown_node"
	CodeUnknownPort     = "unknown_port"
	CodePortDirection   = "port_direction"
	CodeTypeMismatch    = "type_mismatch"
	CodePortCapacity    = "port_capacity"
	CodeMergeFanIn      = "merge_fan_in"
	CodeCycle           = "cycle"
	CodeStartCount      = "start_count"
	CodeStartInDegree   = "start_in_degree"
	CodeUnreachable     = "unreachable"
	CodeNoOutput        = "no_output"
	CodeOutputUnreached = "output_unreachable"
	CodeUnsupportedNode = "unsupported_node"
	CodeInvalidData     = "invalid_data"
)

// Violation is one structural defect of a graph.
type Violation struct {
	Code    string `json:"code"`
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	switch {
	case v.EdgeID != "":
		return fmt.Sprintf("edge %s: %s", v.EdgeID, v.Message)
	case v.NodeID != "":
		return fmt.Sprintf("node %s: %s", v.NodeID, v.Message)
	}
	return v.Message
}

// ValidationError lists every violation found in a graph.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid graph: " + e.Violations[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid graph: %d violations:", len(e.Violations))
	for i, v := range e.Violations {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, v)
	}
	return b.String()
}

// Code implements errors.Coder.
func (e *ValidationError) Code() dferrors.Code { return dferrors.ErrCodeInvalidGraph }

// ValidationResult is the boundary form of a validation run.
type ValidationResult struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// ValidateGraph validates g and reports the outcome as data.
func ValidateGraph(g NodeGraph) ValidationResult {
	err := Validate(g)
	if err == nil {
		return ValidationResult{Valid: true, Violations: []Violation{}}
	}
	var ve *ValidationError
	errors.As(err, &ve)
	return ValidationResult{Valid: false, Violations: ve.Violations}
}

// Validate checks the structure of g. It returns nil or a
// *ValidationError enumerating every violation found:
//
//  1. node IDs are valid and unique; every edge references existing nodes
//     and ports, running from an output port to an input port
//  2. port data types are compatible on every edge ("any" matches all)
//  3. single inputs have at most one incoming edge; merge inputs have at
//     least two
//  4. the graph is acyclic
//  5. there is exactly one start node and every node is reachable from it
//  6. at least one output node exists and every output is reachable
//
// Node configuration is checked last. No randomness is consumed.
func Validate(g NodeGraph) error {
	v := &validator{g: g, nodes: make(map[string]*GraphNode, len(g.Nodes))}
	v.checkNodes()
	v.checkEdges()
	v.checkPortTypes()
	v.checkFanIn()
	d := v.buildDAG()
	v.checkCycles(d)
	v.checkReachability(d)
	v.checkOutputs(d)
	v.checkData()

	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

type validator struct {
	g          NodeGraph
	nodes      map[string]*GraphNode
	validEdges []Edge
	violations []Violation
}

func (v *validator) add(code, node, edge, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Code:    code,
		NodeID:  node,
		EdgeID:  edge,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) checkNodes() {
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if err := dferrors.ValidateIdentifier("node", n.ID); err != nil {
			v.add(CodeInvalidNode, n.ID, "", "%s", dferrors.UserMessage(err))
			continue
		}
		if _, dup := v.nodes[n.ID]; dup {
			v.add(CodeDuplicateNode, n.ID, "", "duplicate node id")
			continue
		}
		v.nodes[n.ID] = n
	}
}

func (v *validator) checkEdges() {
	for _, e := range v.g.Edges {
		src, okS := v.nodes[e.Source.NodeID]
		dst, okD := v.nodes[e.Target.NodeID]
		if !okS {
			v.add(CodeUnknownNode, "", e.ID, "source node %q does not exist", e.Source.NodeID)
		}
		if !okD {
			v.add(CodeUnknownNode, "", e.ID, "target node %q does not exist", e.Target.NodeID)
		}
		if !okS || !okD {
			continue
		}

		ok := true
		if _, found := src.Output(e.Source.PortID); !found {
			ok = false
			if _, isInput := src.Input(e.Source.PortID); isInput {
				v.add(CodePortDirection, "", e.ID, "source port %s is an input", e.Source)
			} else {
				v.add(CodeUnknownPort, "", e.ID, "source port %s does not exist", e.Source)
			}
		}
		if _, found := dst.Input(e.Target.PortID); !found {
			ok = false
			if _, isOutput := dst.Output(e.Target.PortID); isOutput {
				v.add(CodePortDirection, "", e.ID, "target port %s is an output", e.Target)
			} else {
				v.add(CodeUnknownPort, "", e.ID, "target port %s does not exist", e.Target)
			}
		}
		if ok {
			v.validEdges = append(v.validEdges, e)
		}
	}
}

func (v *validator) checkPortTypes() {
	for _, e := range v.validEdges {
		out, _ := v.nodes[e.Source.NodeID].Output(e.Source.PortID)
		in, _ := v.nodes[e.Target.NodeID].Input(e.Target.PortID)
		if !Compatible(out.DataType, in.DataType) {
			v.add(CodeTypeMismatch, "", e.ID, "cannot connect %s (%s) to %s (%s)",
				e.Source, out.DataType, e.Target, in.DataType)
		}
	}
}

// Compatible reports whether an output of type out may feed an input of
// type in.
func Compatible(out, in string) bool {
	return out == in || out == DataTypeAny || in == DataTypeAny
}

func (v *validator) checkFanIn() {
	incoming := make(map[PortRef]int)
	for _, e := range v.validEdges {
		incoming[e.Target]++
	}
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if v.nodes[n.ID] != n {
			continue
		}
		for _, p := range n.Inputs {
			count := incoming[PortRef{NodeID: n.ID, PortID: p.ID}]
			switch {
			case p.Multiple && count > 0 && count < 2:
				v.add(CodeMergeFanIn, n.ID, "", "merge input %q needs at least 2 incoming edges, has %d", p.ID, count)
			case !p.Multiple && count > 1:
				v.add(CodePortCapacity, n.ID, "", "input %q accepts one edge, has %d", p.ID, count)
			}
		}
	}
}

func (v *validator) buildDAG() *dag.DAG {
	d := dag.New(nil)
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if v.nodes[n.ID] == n {
			_ = d.AddNode(dag.Node{ID: n.ID, Meta: dag.Metadata{"type": string(n.Type)}})
		}
	}
	for _, e := range v.validEdges {
		_ = d.AddEdge(dag.Edge{From: e.Source.NodeID, To: e.Target.NodeID})
	}
	return d
}

func (v *validator) checkCycles(d *dag.DAG) {
	var ce *dag.CycleError
	if err := d.Validate(); errors.As(err, &ce) {
		v.add(CodeCycle, ce.Path[0], "", "cycle %s", strings.Join(ce.Path, " -> "))
	}
}

func (v *validator) checkReachability(d *dag.DAG) {
	starts := v.g.StartNodes()
	switch len(starts) {
	case 0:
		v.add(CodeStartCount, "", "", "graph has no start node")
		return
	case 1:
	default:
		ids := make([]string, len(starts))
		for i, s := range starts {
			ids[i] = s.ID
		}
		v.add(CodeStartCount, "", "", "graph has %d start nodes (%s), want exactly one", len(starts), strings.Join(ids, ", "))
		return
	}

	start := starts[0].ID
	if d.InDegree(start) > 0 || len(starts[0].Inputs) > 0 {
		v.add(CodeStartInDegree, start, "", "start node must not have inputs")
	}
	reached := d.Reachable(start)
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if v.nodes[n.ID] != n || n.Type == TypeOutput {
			continue
		}
		if !reached[n.ID] {
			v.add(CodeUnreachable, n.ID, "", "node is not reachable from start %q", start)
		}
	}
}

func (v *validator) checkOutputs(d *dag.DAG) {
	outputs := v.g.OutputNodes()
	if len(outputs) == 0 {
		v.add(CodeNoOutput, "", "", "graph has no output node")
		return
	}
	starts := v.g.StartNodes()
	if len(starts) != 1 {
		return
	}
	reached := d.Reachable(starts[0].ID)
	for _, o := range outputs {
		if v.nodes[o.ID] == o && !reached[o.ID] {
			v.add(CodeOutputUnreached, o.ID, "", "output is not reachable from start %q", starts[0].ID)
		}
	}
}

func (v *validator) checkData() {
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if !n.Type.Known() {
			v.add(CodeUnsupportedNode, n.ID, "", "unknown node type %q", n.Type)
			continue
		}
		if !n.Type.Executable() {
			v.add(CodeUnsupportedNode, n.ID, "", "node type %q cannot be executed", n.Type)
			continue
		}
		if n.Data == nil {
			continue
		}
		if n.Data.NodeType() != n.Type {
			v.add(CodeInvalidData, n.ID, "", "%s node carries %s data", n.Type, n.Data.NodeType())
			continue
		}
		for _, p := range n.Data.check() {
			v.add(CodeInvalidData, n.ID, "", "%s", p)
		}
		var weights []float64
		switch d := n.Data.(type) {
		case BranchData:
			weights = d.Weights
		case RandomSelectData:
			weights = d.Weights
		}
		if len(weights) > 0 && len(weights) != len(n.Outputs) {
			v.add(CodeInvalidData, n.ID, "", "%d weights for %d outputs", len(weights), len(n.Outputs))
		}
	}
}
