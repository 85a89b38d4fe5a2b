package nodelink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/dungeonforge/pkg/dag/transform"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Options configures generator graph diagrams.
type Options struct {
	// Detailed adds the node's configuration to its label.
	Detailed bool
	// Pruned nodes are drawn dashed and grey, e.g. the PrunedNodes of a run.
	Pruned []string
}

// Fill colors by node category.
var categoryColors = map[string]string{
	"flow":      "#c8e6c9",
	"structure": "#bbdefb",
	"content":   "#ffe0b2",
	"logic":     "#e1bee7",
}

func category(t graph.NodeType) string {
	switch t {
	case graph.TypeStart, graph.TypeOutput:
		return "flow"
	case graph.TypeRoom, graph.TypeRoomChain:
		return "structure"
	case graph.TypeSpawnPoint, graph.TypeLootDrop, graph.TypeEncounter, graph.TypeProp:
		return "content"
	case graph.TypeBranch, graph.TypeMerge, graph.TypeRandomSelect, graph.TypeSequence, graph.TypeCondition:
		return "logic"
	}
	return ""
}

// GraphDOT converts a generator graph to Graphviz DOT, laid out left to
// right. Edges leaving a node with several outputs are labelled with the
// source port. Nodes that cannot be executed are drawn dashed.
func GraphDOT(g graph.NodeGraph, opts Options) string {
	pruned := make(map[string]bool, len(opts.Pruned))
	for _, id := range opts.Pruned {
		pruned[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}
		switch {
		case pruned[n.ID], !n.Type.Executable():
			attrs = append(attrs, `style="rounded,filled,dashed"`, "fillcolor=lightgrey", "fontcolor=grey30")
		default:
			cat := category(n.Type)
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", categoryColors[cat]))
			if cat == "flow" {
				attrs = append(attrs, `style="rounded,filled,bold"`)
			}
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	writeRanks(&buf, g)

	buf.WriteString("\n")
	for _, e := range g.Edges {
		var attrs []string
		if src, ok := g.Node(e.Source.NodeID); ok && len(src.Outputs) > 1 {
			label := e.Source.PortID
			if p, ok := src.Output(e.Source.PortID); ok && p.Label != "" {
				label = p.Label
			}
			attrs = append(attrs, fmt.Sprintf("taillabel=%q", label))
		}
		if pruned[e.Source.NodeID] || pruned[e.Target.NodeID] {
			attrs = append(attrs, "style=dashed", "color=grey60")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source.NodeID, e.Target.NodeID)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source.NodeID, e.Target.NodeID, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeRanks pins nodes of equal depth to the same rank so parallel paths
// line up. Graphs that do not form a DAG are left to Graphviz.
func writeRanks(buf *bytes.Buffer, g graph.NodeGraph) {
	d, err := graph.ToDAG(g)
	if err != nil || d.Validate() != nil {
		return
	}
	for _, ids := range transform.GroupByLayer(d, transform.AssignLayers(d)) {
		if len(ids) < 2 {
			continue
		}
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		fmt.Fprintf(buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}
}

// nodeLabel is "label\n(type)", plus "key: value" lines of the node data
// in key order when detailed.
func nodeLabel(n graph.GraphNode, detailed bool) string {
	label := n.Label()
	if label != string(n.Type) {
		label += "\n(" + string(n.Type) + ")"
	}
	if !detailed || n.Data == nil {
		return label
	}

	raw, err := json.Marshal(n.Data)
	if err != nil {
		return label
	}
	var fields map[string]any
	if json.Unmarshal(raw, &fields) != nil {
		return label
	}
	delete(fields, "label")
	parts := []string{label}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, fields[k]))
	}
	return strings.Join(parts, "\n")
}

// LayoutOptions configures dungeon map diagrams.
type LayoutOptions struct {
	// Scale converts layout units to inches. Zero uses 0.15.
	Scale float64
}

// LayoutDOT converts a generated layout to an undirected DOT graph with
// every room pinned at its position and size. It must be rendered with
// [EngineNeato]. The start room is green, exit rooms are red.
func LayoutDOT(l *layout.DungeonLayout, opts LayoutOptions) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = 0.15
	}
	exits := make(map[string]bool, len(l.ExitRoomIDs))
	for _, id := range l.ExitRoomIDs {
		exits[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("graph L {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=line;\n")
	buf.WriteString("  node [shape=box, style=filled, fillcolor=white, fixedsize=true, fontname=\"Helvetica\", fontsize=9];\n")
	buf.WriteString("  edge [color=grey40, penwidth=2];\n")
	buf.WriteString("\n")

	for _, r := range l.Rooms {
		c := r.Bounds.Center()
		label := r.ID
		if n := len(r.Entities); n > 0 {
			label += fmt.Sprintf("\n%d entities", n)
		}
		attrs := []string{
			fmt.Sprintf("label=%q", label),
			// Graphviz y grows upwards; layout y grows downwards.
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", c.X*scale, -c.Y*scale),
			fmt.Sprintf("width=%.2f", r.Bounds.Width*scale),
			fmt.Sprintf("height=%.2f", r.Bounds.Height*scale),
		}
		switch {
		case r.ID == l.StartRoomID:
			attrs = append(attrs, `fillcolor="#a5d6a7"`)
		case exits[r.ID]:
			attrs = append(attrs, `fillcolor="#ef9a9a"`)
		}
		if r.Metadata["shape"] == graph.ShapeCircular {
			attrs = append(attrs, "shape=ellipse")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", r.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range l.Connections {
		fmt.Fprintf(&buf, "  %q -- %q;\n", c.FromRoomID, c.ToRoomID)
	}

	buf.WriteString("}\n")
	return buf.String()
}
