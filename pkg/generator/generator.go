package generator

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/matzehuels/dungeonforge/pkg/constraint"
	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Kind classifies what a generator produces.
type Kind string

const (
	KindDungeon   Kind = "dungeon"
	KindLoot      Kind = "loot"
	KindEncounter Kind = "encounter"
	KindCustom    Kind = "custom"
)

// ParamType is the value type of a declared parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamSelect  ParamType = "select"
)

// Parameter declares a runtime parameter callers may set.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// Generator bundles a node graph with its constraints and parameter
// declarations. It is the unit stored in generator files.
type Generator struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name,omitempty"`
	Description string                  `json:"description,omitempty"`
	Type        Kind                    `json:"type,omitempty"`
	Graph       graph.NodeGraph         `json:"graph"`
	Constraints []constraint.Constraint `json:"constraints,omitempty"`
	Parameters  []Parameter             `json:"parameters,omitempty"`
}

// Validate checks the whole bundle: identifier, kind, graph, constraints and
// parameter declarations including their defaults.
func (g *Generator) Validate() error {
	if err := dferrors.ValidateIdentifier("generator", g.ID); err != nil {
		return err
	}
	switch g.Type {
	case "", KindDungeon, KindLoot, KindEncounter, KindCustom:
	default:
		return dferrors.New(dferrors.ErrCodeInvalidGenerator, "generator %s: unknown type %q", g.ID, g.Type)
	}
	if err := graph.Validate(g.Graph); err != nil {
		return err
	}
	if err := constraint.Check(g.Constraints); err != nil {
		return dferrors.Wrap(dferrors.ErrCodeInvalidGenerator, err, "generator %s", g.ID)
	}
	seen := map[string]bool{}
	for _, p := range g.Parameters {
		if p.Name == "" {
			return dferrors.New(dferrors.ErrCodeInvalidGenerator, "generator %s: parameter without name", g.ID)
		}
		if seen[p.Name] {
			return dferrors.New(dferrors.ErrCodeInvalidGenerator, "generator %s: duplicate parameter %q", g.ID, p.Name)
		}
		seen[p.Name] = true
		if err := p.check(); err != nil {
			return dferrors.Wrap(dferrors.ErrCodeInvalidGenerator, err, "generator %s", g.ID)
		}
	}
	return nil
}

// Parameter returns the declaration with the given name.
func (g *Generator) Parameter(name string) (Parameter, bool) {
	i := slices.IndexFunc(g.Parameters, func(p Parameter) bool { return p.Name == name })
	if i < 0 {
		return Parameter{}, false
	}
	return g.Parameters[i], true
}

// Resolve merges overrides onto the declared defaults and checks every value
// against its declaration. String overrides of number and boolean
// parameters are parsed, so command-line values can be passed through
// unchanged. Unknown names are rejected.
func (g *Generator) Resolve(overrides map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(g.Parameters))
	for _, p := range g.Parameters {
		if p.Default != nil {
			v, err := p.Coerce(p.Default)
			if err != nil {
				return nil, dferrors.Wrap(dferrors.ErrCodeInvalidParameter, err, "default of %s", p.Name)
			}
			out[p.Name] = v
		}
	}
	for name, raw := range overrides {
		p, ok := g.Parameter(name)
		if !ok {
			return nil, dferrors.New(dferrors.ErrCodeInvalidParameter, "unknown parameter %q", name)
		}
		v, err := p.Coerce(raw)
		if err != nil {
			return nil, dferrors.Wrap(dferrors.ErrCodeInvalidParameter, err, "parameter %s", name)
		}
		out[name] = v
	}
	return out, nil
}

// Coerce converts v to the parameter's type and checks its bounds or
// options. Numbers come back as float64.
func (p Parameter) Coerce(v any) (any, error) {
	switch p.Type {
	case ParamNumber:
		f, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v is not a finite number", v)
		}
		if p.Min != nil && f < *p.Min {
			return nil, fmt.Errorf("%g below minimum %g", f, *p.Min)
		}
		if p.Max != nil && f > *p.Max {
			return nil, fmt.Errorf("%g above maximum %g", f, *p.Max)
		}
		return f, nil
	case ParamBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("%v is not a boolean", v)
	case ParamString, ParamSelect:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a string", v)
		}
		if p.Type == ParamSelect && !slices.Contains(p.Options, s) {
			return nil, fmt.Errorf("%q is not one of %v", s, p.Options)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown parameter type %q", p.Type)
}

func (p Parameter) check() error {
	switch p.Type {
	case ParamString, ParamNumber, ParamBoolean:
	case ParamSelect:
		if len(p.Options) == 0 {
			return fmt.Errorf("select parameter %s has no options", p.Name)
		}
	default:
		return fmt.Errorf("parameter %s: unknown type %q", p.Name, p.Type)
	}
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		return fmt.Errorf("parameter %s: min %g exceeds max %g", p.Name, *p.Min, *p.Max)
	}
	if p.Default != nil {
		if _, err := p.Coerce(p.Default); err != nil {
			return fmt.Errorf("parameter %s: default: %w", p.Name, err)
		}
	}
	return nil
}

func toNumber(v any) (float64, error) {
	if f, ok := layout.Number(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%v is not a number", v)
}
