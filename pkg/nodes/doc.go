// Package nodes implements the executors behind every executable node
// type.
//
// An executor receives the [Fragment]s that reached its node and returns
// the fragments it emits per output port. Fragments carry the position of
// the growing path: the room it currently ends in, any rooms joined at a
// merge, and the heading the next room is placed in. Output ports that
// receive no fragment are pruned.
//
// Executors never share randomness. Each gets a stream derived from the
// run seed and its own node ID (see package rng), so adding a node
// elsewhere in a graph leaves every other node's output unchanged.
//
// Layout writes go through a [Scope]. A node may create rooms and connect
// into them, and may append entities, spawn points and exits to rooms that
// already exist; it cannot change anything another node created.
package nodes
