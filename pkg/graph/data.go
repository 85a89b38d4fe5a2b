package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Room defaults applied when a node leaves a size unset.
const (
	DefaultMinRoomSize = 5.0
	DefaultMaxRoomSize = 10.0
	DefaultRoomType    = "default"
	DefaultBranchPaths = 2
)

// Room shapes.
const (
	ShapeRectangular = "rectangular"
	ShapeLShaped     = "l-shaped"
	ShapeCircular    = "circular"
	ShapeIrregular   = "irregular"
)

// Merge strategies.
const (
	MergeAll   = "all"
	MergeAny   = "any"
	MergeFirst = "first"
)

// Chain connection styles.
const (
	ChainLinear    = "linear"
	ChainBranching = "branching"
)

// Condition operators.
const (
	OpEq = "eq"
	OpNe = "ne"
	OpLt = "lt"
	OpLe = "le"
	OpGt = "gt"
	OpGe = "ge"
)

var (
	validShapes     = []string{ShapeRectangular, ShapeLShaped, ShapeCircular, ShapeIrregular}
	validStrategies = []string{MergeAll, MergeAny, MergeFirst}
	validOperators  = []string{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe}
)

// NodeData is the type-specific configuration of a node. It is a closed
// union: the only implementations are the *Data types of this package, one
// per [NodeType], selected by the node's type when decoding.
type NodeData interface {
	NodeType() NodeType
	label() string
	check() []string
}

// Common holds fields every node variant carries.
type Common struct {
	Label string `json:"label,omitempty"`
}

func (c Common) label() string { return c.Label }

// RoomSpec configures how a single room is sampled. Zero sizes mean "use
// the default range"; see [DefaultMinRoomSize] and [DefaultMaxRoomSize].
type RoomSpec struct {
	MinWidth   float64  `json:"minWidth,omitempty"`
	MaxWidth   float64  `json:"maxWidth,omitempty"`
	MinHeight  float64  `json:"minHeight,omitempty"`
	MaxHeight  float64  `json:"maxHeight,omitempty"`
	RoomType   string   `json:"roomType,omitempty"`
	Shape      string   `json:"shape,omitempty"`
	Shapes     []string `json:"shapes,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	MinDoors   int      `json:"minDoors,omitempty"`
	MaxDoors   int      `json:"maxDoors,omitempty"`
	Difficulty *float64 `json:"difficulty,omitempty"`
}

// ShapeSet returns the shapes a room may take, rectangular by default.
func (s RoomSpec) ShapeSet() []string {
	shapes := slices.Clone(s.Shapes)
	if s.Shape != "" && !slices.Contains(shapes, s.Shape) {
		shapes = append(shapes, s.Shape)
	}
	if len(shapes) == 0 {
		return []string{ShapeRectangular}
	}
	return shapes
}

func (s RoomSpec) check() []string {
	var problems []string
	for _, v := range []float64{s.MinWidth, s.MaxWidth, s.MinHeight, s.MaxHeight} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			problems = append(problems, "room sizes must be finite and non-negative")
			break
		}
	}
	if s.MinWidth > 0 && s.MaxWidth > 0 && s.MinWidth > s.MaxWidth {
		problems = append(problems, fmt.Sprintf("minWidth %g exceeds maxWidth %g", s.MinWidth, s.MaxWidth))
	}
	if s.MinHeight > 0 && s.MaxHeight > 0 && s.MinHeight > s.MaxHeight {
		problems = append(problems, fmt.Sprintf("minHeight %g exceeds maxHeight %g", s.MinHeight, s.MaxHeight))
	}
	for _, shape := range s.ShapeSet() {
		if !slices.Contains(validShapes, shape) {
			problems = append(problems, fmt.Sprintf("unknown room shape %q", shape))
		}
	}
	problems = append(problems, checkRange("doors", s.MinDoors, s.MaxDoors)...)
	return problems
}

// StartData configures the start node.
type StartData struct {
	Common
}

// OutputData configures an output (exit) node.
type OutputData struct {
	Common
}

// RoomData configures a room node.
type RoomData struct {
	Common
	RoomSpec
}

// RoomChainData configures a chain of rooms. Count fixes the number of
// rooms; otherwise it is sampled from [MinCount, MaxCount] (default 3..5).
type RoomChainData struct {
	Common
	RoomSpec
	Count      int    `json:"count,omitempty"`
	MinCount   int    `json:"minCount,omitempty"`
	MaxCount   int    `json:"maxCount,omitempty"`
	Connection string `json:"connection,omitempty"`
}

// CountRange returns the resolved room count range.
func (d RoomChainData) CountRange() (int, int) {
	if d.Count > 0 {
		return d.Count, d.Count
	}
	lo, hi := d.MinCount, d.MaxCount
	if lo <= 0 {
		lo = 3
	}
	if hi <= 0 {
		hi = max(lo, 5)
	}
	return lo, hi
}

// BranchData configures a fan-out. Without weights the paths are uniform.
type BranchData struct {
	Common
	Paths         int       `json:"paths,omitempty"`
	Weights       []float64 `json:"weights,omitempty"`
	Probabilistic bool      `json:"probabilistic,omitempty"`
}

// PathCount returns the number of output paths.
func (d BranchData) PathCount() int { return pathCount(d.Paths, d.Weights) }

// MergeData configures a fan-in.
type MergeData struct {
	Common
	Strategy string `json:"strategy,omitempty"`
}

// ResolvedStrategy returns the merge strategy, "all" by default.
func (d MergeData) ResolvedStrategy() string {
	if d.Strategy == "" {
		return MergeAll
	}
	return d.Strategy
}

// SpawnPointData places spawn points in the upstream room.
type SpawnPointData struct {
	Common
	SpawnType string `json:"spawnType,omitempty"`
	MinCount  int    `json:"minCount,omitempty"`
	MaxCount  int    `json:"maxCount,omitempty"`
}

// LootDropData places loot in the upstream room after a Bernoulli trial
// against DropChance (1 when unset).
type LootDropData struct {
	Common
	DropChance *float64 `json:"dropChance,omitempty"`
	MinCount   int      `json:"minCount,omitempty"`
	MaxCount   int      `json:"maxCount,omitempty"`
	ItemTypes  []string `json:"itemTypes,omitempty"`
}

// Chance returns the resolved drop chance.
func (d LootDropData) Chance() float64 {
	if d.DropChance == nil {
		return 1
	}
	return *d.DropChance
}

// EncounterData places enemies in the upstream room and raises its
// difficulty.
type EncounterData struct {
	Common
	MinEnemies int      `json:"minEnemies,omitempty"`
	MaxEnemies int      `json:"maxEnemies,omitempty"`
	EnemyTypes []string `json:"enemyTypes,omitempty"`
	Difficulty float64  `json:"difficulty,omitempty"`
}

// PropData places decorative props in the upstream room.
type PropData struct {
	Common
	PropType string `json:"propType,omitempty"`
	MinCount int    `json:"minCount,omitempty"`
	MaxCount int    `json:"maxCount,omitempty"`
}

// RandomSelectData continues along exactly one of its outputs.
type RandomSelectData struct {
	Common
	Options int       `json:"options,omitempty"`
	Weights []float64 `json:"weights,omitempty"`
}

// PathCount returns the number of output paths.
func (d RandomSelectData) PathCount() int { return pathCount(d.Options, d.Weights) }

// SequenceData forwards its input to every output in port order.
type SequenceData struct {
	Common
	Steps int `json:"steps,omitempty"`
}

// ConditionData routes to its "true" or "false" output by comparing a
// runtime parameter with Value.
type ConditionData struct {
	Common
	Parameter string `json:"parameter"`
	Operator  string `json:"operator,omitempty"`
	Value     any    `json:"value"`
}

// ResolvedOperator returns the comparison operator, "eq" by default.
func (d ConditionData) ResolvedOperator() string {
	if d.Operator == "" {
		return OpEq
	}
	return d.Operator
}

// UnsupportedData holds the raw configuration of a node type the engine
// recognizes but cannot execute.
type UnsupportedData struct {
	Common
	Type NodeType        `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

// MarshalJSON writes the configuration back exactly as it was read.
func (d UnsupportedData) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	return json.Marshal(d.Common)
}

func (d StartData) NodeType() NodeType        { return TypeStart }
func (d OutputData) NodeType() NodeType       { return TypeOutput }
func (d RoomData) NodeType() NodeType         { return TypeRoom }
func (d RoomChainData) NodeType() NodeType    { return TypeRoomChain }
func (d BranchData) NodeType() NodeType       { return TypeBranch }
func (d MergeData) NodeType() NodeType        { return TypeMerge }
func (d SpawnPointData) NodeType() NodeType   { return TypeSpawnPoint }
func (d LootDropData) NodeType() NodeType     { return TypeLootDrop }
func (d EncounterData) NodeType() NodeType    { return TypeEncounter }
func (d PropData) NodeType() NodeType         { return TypeProp }
func (d RandomSelectData) NodeType() NodeType { return TypeRandomSelect }
func (d SequenceData) NodeType() NodeType     { return TypeSequence }
func (d ConditionData) NodeType() NodeType    { return TypeCondition }
func (d UnsupportedData) NodeType() NodeType  { return d.Type }

func (d StartData) check() []string  { return nil }
func (d OutputData) check() []string { return nil }
func (d RoomData) check() []string   { return d.RoomSpec.check() }

func (d RoomChainData) check() []string {
	problems := d.RoomSpec.check()
	if d.Count < 0 {
		problems = append(problems, "count must not be negative")
	}
	problems = append(problems, checkRange("count", d.MinCount, d.MaxCount)...)
	if d.Connection != "" && d.Connection != ChainLinear && d.Connection != ChainBranching {
		problems = append(problems, fmt.Sprintf("unknown chain connection %q", d.Connection))
	}
	return problems
}

func (d BranchData) check() []string { return checkPaths(d.Paths, d.Weights) }

func (d MergeData) check() []string {
	if !slices.Contains(validStrategies, d.ResolvedStrategy()) {
		return []string{fmt.Sprintf("unknown merge strategy %q", d.Strategy)}
	}
	return nil
}

func (d SpawnPointData) check() []string { return checkRange("count", d.MinCount, d.MaxCount) }

func (d LootDropData) check() []string {
	problems := checkRange("count", d.MinCount, d.MaxCount)
	if c := d.Chance(); c < 0 || c > 1 || math.IsNaN(c) {
		problems = append(problems, fmt.Sprintf("dropChance %g outside [0, 1]", c))
	}
	return problems
}

func (d EncounterData) check() []string {
	problems := checkRange("enemies", d.MinEnemies, d.MaxEnemies)
	if math.IsNaN(d.Difficulty) || math.IsInf(d.Difficulty, 0) {
		problems = append(problems, "difficulty must be finite")
	}
	return problems
}

func (d PropData) check() []string         { return checkRange("count", d.MinCount, d.MaxCount) }
func (d RandomSelectData) check() []string { return checkPaths(d.Options, d.Weights) }

func (d SequenceData) check() []string {
	if d.Steps < 0 {
		return []string{"steps must not be negative"}
	}
	return nil
}

func (d ConditionData) check() []string {
	var problems []string
	if d.Parameter == "" {
		problems = append(problems, "condition needs a parameter name")
	}
	if !slices.Contains(validOperators, d.ResolvedOperator()) {
		problems = append(problems, fmt.Sprintf("unknown operator %q", d.Operator))
	}
	return problems
}

func (d UnsupportedData) check() []string { return nil }

func checkRange(name string, lo, hi int) []string {
	if lo < 0 || hi < 0 {
		return []string{fmt.Sprintf("%s bounds must not be negative", name)}
	}
	if hi > 0 && lo > hi {
		return []string{fmt.Sprintf("min %s %d exceeds max %d", name, lo, hi)}
	}
	return nil
}

func checkPaths(paths int, weights []float64) []string {
	var problems []string
	if paths < 0 {
		problems = append(problems, "path count must not be negative")
	}
	if len(weights) > 0 && paths > 0 && paths != len(weights) {
		problems = append(problems, fmt.Sprintf("%d weights given for %d paths", len(weights), paths))
	}
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			problems = append(problems, "weights must be finite and non-negative")
			break
		}
	}
	return problems
}

func pathCount(n int, weights []float64) int {
	switch {
	case len(weights) > 0:
		return len(weights)
	case n > 0:
		return n
	}
	return DefaultBranchPaths
}

// DecodeData decodes raw node configuration into the variant selected by t.
// Empty or null data decodes to the variant's zero value.
func DecodeData(t NodeType, raw json.RawMessage) (NodeData, error) {
	var data NodeData
	switch t {
	case TypeStart:
		data = &StartData{}
	case TypeOutput:
		data = &OutputData{}
	case TypeRoom:
		data = &RoomData{}
	case TypeRoomChain:
		data = &RoomChainData{}
	case TypeBranch:
		data = &BranchData{}
	case TypeMerge:
		data = &MergeData{}
	case TypeSpawnPoint:
		data = &SpawnPointData{}
	case TypeLootDrop:
		data = &LootDropData{}
	case TypeEncounter:
		data = &EncounterData{}
	case TypeProp:
		data = &PropData{}
	case TypeRandomSelect:
		data = &RandomSelectData{}
	case TypeSequence:
		data = &SequenceData{}
	case TypeCondition:
		data = &ConditionData{}
	case TypeSubgraph, TypeLoop, TypeDistribution, TypeCurve, TypeTable:
		d := UnsupportedData{Type: t, Raw: raw}
		if len(raw) > 0 && string(raw) != "null" {
			_ = json.Unmarshal(raw, &d.Common)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", t)
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", t, err)
		}
	}
	return deref(data), nil
}

// deref stores variants by value so that type switches over NodeData match
// the plain struct types.
func deref(d NodeData) NodeData {
	switch v := d.(type) {
	case *StartData:
		return *v
	case *OutputData:
		return *v
	case *RoomData:
		return *v
	case *RoomChainData:
		return *v
	case *BranchData:
		return *v
	case *MergeData:
		return *v
	case *SpawnPointData:
		return *v
	case *LootDropData:
		return *v
	case *EncounterData:
		return *v
	case *PropData:
		return *v
	case *RandomSelectData:
		return *v
	case *SequenceData:
		return *v
	case *ConditionData:
		return *v
	}
	return d
}
