// Package nodelink draws generator graphs and generated layouts with
// Graphviz.
//
// [GraphDOT] renders a generator's node graph left to right, colored by
// node category (flow, structure, content, logic). Passing the pruned
// nodes of a run greys out the paths that run did not take:
//
//	dot := nodelink.GraphDOT(gen.Graph, nodelink.Options{Pruned: res.Metadata.PrunedNodes})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineDot)
//
// [LayoutDOT] renders the rooms of a [layout.DungeonLayout] at their
// generated positions, joined by their connections. Positions are pinned,
// so the neato engine must be used:
//
//	dot := nodelink.LayoutDOT(res.Layout, nodelink.LayoutOptions{})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineNeato)
//
// SVG rendering runs in-process via [github.com/goccy/go-graphviz]. PDF and
// PNG conversion requires librsvg (rsvg-convert).
package nodelink
