package constraint

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/dungeonforge/pkg/layout"
)

// Type identifies a constraint kind.
type Type string

const (
	TypeDistance    Type = "distance"
	TypeCount       Type = "count"
	TypeDensity     Type = "density"
	TypeProgression Type = "progression"
	TypeRequired    Type = "required"
	TypeForbidden   Type = "forbidden"
	TypeConnected   Type = "connected"
	TypeCustom      Type = "custom"
)

var knownTypes = []Type{
	TypeDistance, TypeCount, TypeDensity, TypeProgression,
	TypeRequired, TypeForbidden, TypeConnected, TypeCustom,
}

// Severity decides whether a failed constraint fails the run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Count targets and density modes.
const (
	TargetRooms       = "rooms"
	TargetEntities    = "entities"
	TargetSpawnPoints = "spawnPoints"
	ModeAverage       = "average"
	ModePerRoom       = "perRoom"
)

// Constraint is a declarative check run against a finished layout.
type Constraint struct {
	ID         string   `json:"id" yaml:"id" toml:"id"`
	Type       Type     `json:"type" yaml:"type" toml:"type"`
	Parameters Params   `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	Severity   Severity `json:"severity,omitempty" yaml:"severity,omitempty" toml:"severity,omitempty"`
}

// ResolvedSeverity returns the severity, error by default.
func (c Constraint) ResolvedSeverity() Severity {
	if c.Severity == "" {
		return SeverityError
	}
	return c.Severity
}

// Check reports declaration problems: a missing ID, duplicate IDs, unknown
// types or severities.
func Check(constraints []Constraint) error {
	seen := map[string]bool{}
	for i, c := range constraints {
		switch {
		case c.ID == "":
			return fmt.Errorf("constraint %d: missing id", i)
		case seen[c.ID]:
			return fmt.Errorf("constraint %q: duplicate id", c.ID)
		case !slices.Contains(knownTypes, c.Type):
			return fmt.Errorf("constraint %q: unknown type %q", c.ID, c.Type)
		}
		if s := c.ResolvedSeverity(); s != SeverityError && s != SeverityWarning {
			return fmt.Errorf("constraint %q: unknown severity %q", c.ID, c.Severity)
		}
		seen[c.ID] = true
	}
	return nil
}

// Result is the outcome of one constraint on one run.
type Result struct {
	ConstraintID string   `json:"constraintId" bson:"constraintId"`
	Type         Type     `json:"type" bson:"type"`
	Severity     Severity `json:"severity" bson:"severity"`
	Passed       bool     `json:"passed" bson:"passed"`
	Message      string   `json:"message,omitempty" bson:"message,omitempty"`
}

// Blocking reports whether the result fails the run.
func (r Result) Blocking() bool { return !r.Passed && r.Severity == SeverityError }

// Params holds a constraint's loosely typed parameters as decoded from a
// generator definition.
type Params map[string]any

// String returns a string parameter or def.
func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Float returns a numeric parameter.
func (p Params) Float(key string) (float64, bool) {
	return layout.Number(p[key])
}

// Range returns the [min, max] bounds; a missing bound is unbounded.
func (p Params) Range() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if v, ok := p.Float("min"); ok {
		lo = v
	}
	if v, ok := p.Float("max"); ok {
		hi = v
	}
	return lo, hi
}

func within(v, lo, hi float64) bool { return v >= lo && v <= hi }

func describeRange(lo, hi float64) string {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return "any"
	case math.IsInf(lo, -1):
		return fmt.Sprintf("<= %g", hi)
	case math.IsInf(hi, 1):
		return fmt.Sprintf(">= %g", lo)
	}
	return fmt.Sprintf("[%g, %g]", lo, hi)
}
