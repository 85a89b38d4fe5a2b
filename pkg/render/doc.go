// Package render converts generator graphs and generated layouts into
// images.
//
// Diagrams are produced by the [nodelink] subpackage as Graphviz DOT and
// rendered to SVG in-process. [ToPDF] and [ToPNG] convert any SVG with the
// external rsvg-convert tool (librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineDot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/matzehuels/dungeonforge/pkg/render/nodelink
package render
