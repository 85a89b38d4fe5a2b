package nodes

import (
	"fmt"
	"slices"

	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
	"github.com/matzehuels/dungeonforge/pkg/rng"
)

// Execute runs the executor for ctx.Node on the fragments that reached it.
// Single-input nodes receive exactly one fragment; merge nodes receive one
// per arrived path in arrival order.
//
// Executors are pure apart from writes through ctx.Layout: given the same
// node, fragments, parameters and random stream they produce the same
// outputs and the same layout additions.
func Execute(ctx *Context, in []Fragment) (Outputs, error) {
	if ctx.Node.Type == graph.TypeMerge {
		if len(in) == 0 {
			return nil, ctx.fail("merge received no input")
		}
	} else if ctx.Node.Type != graph.TypeStart && len(in) != 1 {
		return nil, ctx.fail("expected one input fragment, got %d", len(in))
	}

	switch d := ctx.Node.Data.(type) {
	case graph.StartData:
		return execStart(ctx)
	case graph.OutputData:
		return execOutput(ctx, in[0])
	case graph.RoomData:
		return execRoom(ctx, d, in[0])
	case graph.RoomChainData:
		return execRoomChain(ctx, d, in[0])
	case graph.BranchData:
		return execBranch(ctx, d, in[0])
	case graph.MergeData:
		return execMerge(ctx, in)
	case graph.SpawnPointData:
		return execSpawnPoint(ctx, d, in[0])
	case graph.LootDropData:
		return execLootDrop(ctx, d, in[0])
	case graph.EncounterData:
		return execEncounter(ctx, d, in[0])
	case graph.PropData:
		return execProp(ctx, d, in[0])
	case graph.RandomSelectData:
		return execRandomSelect(ctx, d, in[0])
	case graph.SequenceData:
		return execSequence(ctx, in[0])
	case graph.ConditionData:
		return execCondition(ctx, d, in[0])
	case graph.UnsupportedData:
		return nil, ctx.fail("node type %q cannot be executed", d.Type)
	case nil:
		return nil, ctx.fail("node has no data")
	default:
		return nil, ctx.fail("no executor for node type %q", d.NodeType())
	}
}

// passThrough forwards the input on the node's single output.
func passThrough(ctx *Context, f Fragment) Outputs {
	if len(ctx.Node.Outputs) == 0 {
		return nil
	}
	return Outputs{ctx.Node.Outputs[0].ID: f.with(ctx.Node.ID)}
}

func execStart(ctx *Context) (Outputs, error) {
	return passThrough(ctx, Fragment{Heading: Right, Weight: 1}), nil
}

func execOutput(ctx *Context, f Fragment) (Outputs, error) {
	if f.Anchor == "" {
		ctx.Layout.AddExit(f.Cursor, "")
		return nil, nil
	}
	room, ok := ctx.Layout.Room(f.Anchor)
	if !ok {
		return nil, ctx.fail("unknown anchor room %q", f.Anchor)
	}
	ctx.Layout.AddExit(room.Bounds.Center(), room.ID)
	return nil, nil
}

// execBranch emits every path. Probabilistic branches instead sample one
// path by weight and prune the others.
func execBranch(ctx *Context, d graph.BranchData, f Fragment) (Outputs, error) {
	weights, err := pathWeights(ctx, d.Weights)
	if err != nil {
		return nil, err
	}
	if d.Probabilistic {
		i := ctx.RNG.Weighted(weights)
		return Outputs{ctx.Node.Outputs[i].ID: fanOut(ctx, f, i, 1)}, nil
	}
	out := make(Outputs, len(ctx.Node.Outputs))
	for i, p := range ctx.Node.Outputs {
		out[p.ID] = fanOut(ctx, f, i, weights[i])
	}
	return out, nil
}

func execRandomSelect(ctx *Context, d graph.RandomSelectData, f Fragment) (Outputs, error) {
	weights, err := pathWeights(ctx, d.Weights)
	if err != nil {
		return nil, err
	}
	i := ctx.RNG.Weighted(weights)
	return Outputs{ctx.Node.Outputs[i].ID: fanOut(ctx, f, i, 1)}, nil
}

// execSequence forwards the fragment unchanged to every output, so each
// step attaches to the same room.
func execSequence(ctx *Context, f Fragment) (Outputs, error) {
	out := make(Outputs, len(ctx.Node.Outputs))
	for _, p := range ctx.Node.Outputs {
		out[p.ID] = f.with(ctx.Node.ID)
	}
	return out, nil
}

func fanOut(ctx *Context, f Fragment, i int, weight float64) Fragment {
	f = f.with(ctx.Node.ID)
	f.Heading = PathHeading(i)
	f.Weight *= weight
	f.Joins = slices.Clone(f.Joins)
	return f
}

// pathWeights normalizes per-output weights; none means uniform.
func pathWeights(ctx *Context, raw []float64) ([]float64, error) {
	n := len(ctx.Node.Outputs)
	if n == 0 {
		return nil, ctx.fail("node has no outputs")
	}
	if len(raw) == 0 {
		raw = make([]float64, n)
	}
	if len(raw) != n {
		return nil, ctx.fail("%d weights for %d outputs", len(raw), n)
	}
	w, err := rng.NormalizeWeights(raw)
	if err != nil {
		return nil, ctx.fail("%v", err)
	}
	return w, nil
}

// execMerge combines the arrived fragments. The first becomes the primary
// path; the anchors of the others are carried as joins so the next room
// connects to all of them.
func execMerge(ctx *Context, in []Fragment) (Outputs, error) {
	merged := in[0].with(ctx.Node.ID)
	merged.Joins = nil
	seen := map[string]bool{merged.Anchor: true}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			merged.Joins = append(merged.Joins, id)
		}
	}
	for _, id := range in[0].Joins {
		add(id)
	}
	weight := in[0].Weight
	for _, f := range in[1:] {
		if merged.Anchor == "" && f.Anchor != "" {
			merged.Anchor = f.Anchor
			seen[f.Anchor] = true
		} else {
			add(f.Anchor)
		}
		for _, id := range f.Joins {
			add(id)
		}
		weight += f.Weight
	}
	merged.Weight = min(weight, 1)
	return passThrough(ctx, merged), nil
}

func execCondition(ctx *Context, d graph.ConditionData, f Fragment) (Outputs, error) {
	v, ok := ctx.Params[d.Parameter]
	if !ok {
		return nil, ctx.fail("parameter %q is not set", d.Parameter)
	}
	result, err := compare(v, d.ResolvedOperator(), d.Value)
	if err != nil {
		return nil, ctx.fail("condition on %q: %v", d.Parameter, err)
	}
	port := "false"
	if result {
		port = "true"
	}
	if _, ok := ctx.Node.Output(port); !ok {
		return nil, ctx.fail("missing %q output", port)
	}
	return Outputs{port: f.with(ctx.Node.ID)}, nil
}

// compare applies op to a parameter value and a literal. Numbers compare
// numerically and strings lexically; booleans support only eq and ne.
func compare(a any, op string, b any) (bool, error) {
	if x, ok := layout.Number(a); ok {
		y, ok := layout.Number(b)
		if !ok {
			return false, fmt.Errorf("cannot compare number with %T", b)
		}
		return ordered(op, cmpFloat(x, y))
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", b)
		}
		switch {
		case x < y:
			return ordered(op, -1)
		case x > y:
			return ordered(op, 1)
		}
		return ordered(op, 0)
	case bool:
		y, ok := b.(bool)
		if !ok {
			return false, fmt.Errorf("cannot compare bool with %T", b)
		}
		switch op {
		case graph.OpEq:
			return x == y, nil
		case graph.OpNe:
			return x != y, nil
		}
		return false, fmt.Errorf("operator %q not defined on booleans", op)
	}
	return false, fmt.Errorf("unsupported parameter type %T", a)
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func ordered(op string, c int) (bool, error) {
	switch op {
	case graph.OpEq:
		return c == 0, nil
	case graph.OpNe:
		return c != 0, nil
	case graph.OpLt:
		return c < 0, nil
	case graph.OpLe:
		return c <= 0, nil
	case graph.OpGt:
		return c > 0, nil
	case graph.OpGe:
		return c >= 0, nil
	}
	return false, fmt.Errorf("unknown operator %q", op)
}

// anchorRoom returns the room content nodes attach to.
func anchorRoom(ctx *Context, f Fragment) (layout.GeneratedRoom, error) {
	if f.Anchor == "" {
		return layout.GeneratedRoom{}, ctx.fail("no upstream room to place content in")
	}
	room, ok := ctx.Layout.Room(f.Anchor)
	if !ok {
		return layout.GeneratedRoom{}, ctx.fail("unknown anchor room %q", f.Anchor)
	}
	return room, nil
}
