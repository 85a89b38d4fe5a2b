package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/dungeonforge/pkg/dag"
)

// MarshalGraph converts a graph to indented JSON.
func MarshalGraph(g NodeGraph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g NodeGraph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadGraph decodes a JSON graph. The result is not validated.
func ReadGraph(r io.Reader) (NodeGraph, error) {
	var g NodeGraph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return NodeGraph{}, fmt.Errorf("decode: %w", err)
	}
	return g, nil
}

// ReadGraphFile reads a JSON graph file.
func ReadGraphFile(path string) (NodeGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return NodeGraph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ToDAG projects the node/edge structure of g onto a DAG. Each DAG node
// carries its generator node type under the "type" metadata key and each
// DAG edge its port references under "source" and "target". Edges that
// reference missing nodes are rejected.
func ToDAG(g NodeGraph) (*dag.DAG, error) {
	d := dag.New(nil)
	for _, n := range g.Nodes {
		meta := dag.Metadata{"type": string(n.Type), "label": n.Label()}
		if err := d.AddNode(dag.Node{ID: n.ID, Meta: meta}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
	}
	for _, e := range g.Edges {
		meta := dag.Metadata{"source": e.Source.PortID, "target": e.Target.PortID, "id": e.ID}
		if err := d.AddEdge(dag.Edge{From: e.Source.NodeID, To: e.Target.NodeID, Meta: meta}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.Source.NodeID, e.Target.NodeID, err)
		}
	}
	return d, nil
}
