package cascade

import (
	"math"
	"strings"
	"time"

	"github.com/iburimskiy/vib34d/internal/param"
)

// Relationship shapes how a trigger's weight becomes a bias.
type Relationship int

const (
	Linear Relationship = iota
	Inverse
	Exponential
	Logarithmic
)

var relationshipNames = map[string]Relationship{
	"linear":      Linear,
	"inverse":     Inverse,
	"exponential": Exponential,
	"logarithmic": Logarithmic,
}

// ParseRelationship translates a configuration string into a Relationship.
// The empty string means Linear.
func ParseRelationship(s string) (Relationship, bool) {
	if s == "" {
		return Linear, true
	}
	r, ok := relationshipNames[s]
	return r, ok
}

func (r Relationship) String() string {
	for name, v := range relationshipNames {
		if v == r {
			return name
		}
	}
	return "linear"
}

// Bias converts an influence intensity and a signed trigger weight into the
// bias the target parameter should move toward.
func (r Relationship) Bias(intensity, weight float64) float64 {
	var b float64
	switch r {
	case Inverse:
		b = -math.Abs(intensity) * sign(weight)
	case Exponential:
		b = sign(weight) * (math.Exp(math.Abs(intensity*weight)) - 1)
	case Logarithmic:
		b = sign(weight) * math.Log1p(math.Abs(intensity*weight))
	default:
		b = intensity * weight
	}
	return param.Finite(b, 0)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Influence is one parameter bias produced by a named trigger.
//
// Path is "geometry.<key>" for a per-layer snapshot field, or "aux.<key>"
// (or a bare key) for a free-form auxiliary value.
type Influence struct {
	Path         string
	Relationship Relationship
	Intensity    float64

	// Layer pins a geometry influence to one layer regardless of the
	// trigger context.
	Layer *param.Layer

	Curve   param.Curve
	Damping float64
	Delay   time.Duration

	Min *float64
	Max *float64

	// Polarity is used when the trigger context carries none.
	Polarity *float64
}

// Context qualifies one Trigger call. Nil fields fall back to the
// influence's own settings, then to defaults.
type Context struct {
	Polarity  *float64
	Magnitude *float64
	Layer     *param.Layer
}

// Float returns a pointer to v, for optional Context and Influence fields.
func Float(v float64) *float64 { return &v }

// LayerRef returns a pointer to l, for optional Context and Influence fields.
func LayerRef(l param.Layer) *param.Layer { return &l }

func (c Context) weight(in Influence) float64 {
	polarity := 1.0
	switch {
	case c.Polarity != nil:
		polarity = *c.Polarity
	case in.Polarity != nil:
		polarity = *in.Polarity
	}
	magnitude := 1.0
	if c.Magnitude != nil {
		magnitude = *c.Magnitude
	}
	return param.Finite(polarity*magnitude, 0)
}

func (c Context) layer(in Influence) param.Layer {
	switch {
	case in.Layer != nil && in.Layer.Valid():
		return *in.Layer
	case c.Layer != nil && c.Layer.Valid():
		return *c.Layer
	}
	return param.Content
}

// target is an Influence path resolved once at construction.
type target struct {
	geometry bool
	key      param.Key
	aux      string
	valid    bool
}

const (
	geometryPrefix = "geometry."
	auxPrefix      = "aux."
)

func parseTarget(path string) target {
	if rest, ok := strings.CutPrefix(path, geometryPrefix); ok {
		k, known := param.ParseKey(rest)
		return target{geometry: true, key: k, valid: known}
	}
	aux := strings.TrimPrefix(path, auxPrefix)
	return target{aux: aux, valid: aux != ""}
}
