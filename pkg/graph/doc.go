// Package graph defines generator graphs and their structural validation.
//
// # Model
//
// A [NodeGraph] is a small visual program: typed [GraphNode]s with ordered
// input and output [Port]s, wired together by [Edge]s that always run from
// an output port to an input port. Every node carries type-specific
// configuration as a [NodeData] variant. The variants form a closed union,
// one struct per [NodeType] ([RoomData], [BranchData], [MergeData], ...),
// so executors switch on the concrete type instead of probing optional
// fields.
//
// Nodes decoded from JSON without explicit ports receive the fixed port set
// of their type (see [DefaultPorts]).
//
// # Validation
//
// [Validate] rejects structurally broken graphs before any content is
// generated. It does not stop at the first problem: the returned
// [*ValidationError] lists every [Violation] so that an editor can surface
// them together. [ValidateGraph] returns the same information as a
// [ValidationResult] value for transports.
package graph
