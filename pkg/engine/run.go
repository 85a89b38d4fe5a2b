package engine

import (
	"context"
	"slices"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/nodes"
	"github.com/matzehuels/dungeonforge/pkg/rng"
)

// State is the lifecycle position of a node within one run.
type State int

const (
	Pending State = iota
	Ready
	Executing
	Done
	Failed
	Pruned
)

var stateNames = [...]string{"pending", "ready", "executing", "done", "failed", "pruned"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Done || s == Failed || s == Pruned }

type nodeState struct {
	node    *graph.GraphNode
	state   State
	pending int // incoming edges not yet resolved
	arrived []nodes.Fragment
}

// eager reports whether the node fires on its first fragment.
func (s *nodeState) eager() bool {
	d, ok := s.node.Data.(graph.MergeData)
	return ok && d.ResolvedStrategy() != graph.MergeAll
}

// run is the mutable state of one execution. It is confined to a single
// goroutine.
type run struct {
	seed     uint64
	params   nodes.Params
	states   map[string]*nodeState
	outgoing map[string][]graph.Edge
	ready    []string
	layout   *layout.DungeonLayout
	retries  int
	meta     Metadata
}

func newRun(g *graph.NodeGraph, seed uint64, params map[string]any) *run {
	r := &run{
		seed:     seed,
		params:   nodes.Params(params),
		states:   make(map[string]*nodeState, len(g.Nodes)),
		outgoing: make(map[string][]graph.Edge),
		layout:   layout.New(),
		meta:     Metadata{PrunedNodes: []string{}},
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		r.states[n.ID] = &nodeState{node: n}
	}
	for _, e := range g.Edges {
		r.states[e.Target.NodeID].pending++
		r.outgoing[e.Source.NodeID] = append(r.outgoing[e.Source.NodeID], e)
	}
	for id, st := range r.states {
		if st.pending == 0 {
			r.markReady(id, st)
		}
	}
	return r
}

// markReady moves a node to Ready and inserts it into the ready set, which
// stays sorted by node ID.
func (r *run) markReady(id string, st *nodeState) {
	st.state = Ready
	i, _ := slices.BinarySearch(r.ready, id)
	r.ready = slices.Insert(r.ready, i, id)
}

// execute drains the ready set. Each node runs at most once.
func (r *run) execute(ctx context.Context) error {
	for len(r.ready) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := r.ready[0]
		r.ready = r.ready[1:]
		st := r.states[id]

		if r.meta.NodeExecutions >= MaxNodeExecutions {
			st.state = Failed
			return &nodes.ExecutionError{NodeID: id, Reason: "node execution limit reached"}
		}
		r.meta.NodeExecutions++
		st.state = Executing
		out, err := nodes.Execute(&nodes.Context{
			Node:   st.node,
			RNG:    rng.Derive(r.seed, id),
			Params: r.params,
			Layout: nodes.NewScope(id, r.layout, &r.retries),
		}, st.arrived)
		if err != nil {
			st.state = Failed
			return err
		}
		st.state = Done

		if d, ok := st.node.Data.(graph.MergeData); ok && d.ResolvedStrategy() == graph.MergeFirst {
			if r.meta.MergeWinners == nil {
				r.meta.MergeWinners = map[string]string{}
			}
			r.meta.MergeWinners[id] = st.arrived[0].Source
		}
		for _, e := range r.outgoing[id] {
			f, ok := out[e.Source.PortID]
			r.resolve(e, f, ok)
		}
	}

	// Validation guarantees every node is reachable from start, so nothing
	// should be left pending; prune stragglers to keep every state terminal.
	for _, id := range sortedIDs(r.states) {
		if st := r.states[id]; st.state == Pending {
			r.prune(id, st)
		}
	}
	return nil
}

// resolve settles one incoming edge of e's target, with or without a
// fragment. Fragments reaching a node that already fired are discarded.
func (r *run) resolve(e graph.Edge, f nodes.Fragment, ok bool) {
	id := e.Target.NodeID
	st := r.states[id]
	st.pending--
	if st.state != Pending {
		return
	}
	if ok {
		st.arrived = append(st.arrived, f)
		if st.eager() {
			r.markReady(id, st)
			return
		}
	}
	if st.pending > 0 {
		return
	}
	if len(st.arrived) > 0 {
		r.markReady(id, st)
		return
	}
	r.prune(id, st)
}

// prune marks a node that can never receive a fragment and resolves its
// outgoing edges empty.
func (r *run) prune(id string, st *nodeState) {
	st.state = Pruned
	r.meta.PrunedNodes = append(r.meta.PrunedNodes, id)
	for _, e := range r.outgoing[id] {
		r.resolve(e, nodes.Fragment{}, false)
	}
}

func sortedIDs(m map[string]*nodeState) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
