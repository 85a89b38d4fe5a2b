// Package generator defines the generator bundle: a node graph, its
// constraints and the runtime parameters it declares.
//
// [Generator.Resolve] turns caller-supplied parameter values into the
// parameter map the engine consumes: defaults are applied, strings are
// parsed for number and boolean parameters, and ranges and select options
// are enforced.
package generator
