// Package transform provides layer assignment for drawing generator graphs.
//
// [AssignLayers] computes a longest-path depth for every node, and
// [GroupByLayer] turns that into rows of node IDs. The Graphviz renderer in
// pkg/render/nodelink uses the rows to pin nodes of equal depth to the same
// rank so that branches fan out side by side.
package transform
