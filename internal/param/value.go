// Package param holds the engine's shared vocabulary (layers, parameter keys,
// snapshots) and Value, the smoothed scalar every cascade bias lives in.
package param

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

const (
	// Epsilon is the distance below which a bias counts as settled.
	Epsilon = 1e-4

	// DefaultDamping is used when a Value is constructed without a positive rate.
	DefaultDamping = 6.0

	// MinDamping is the slowest rate a Value will smooth at.
	MinDamping = 0.5

	// SpringDampingRatio is the damping ratio of CurveSpring. Under 1, so the
	// spring overshoots slightly before settling.
	SpringDampingRatio = 0.55
)

// Curve selects how a Value travels toward its target.
type Curve int

const (
	// CurveSmooth is exponential decay toward the target.
	CurveSmooth Curve = iota
	// CurveLinear, CurveEaseIn and CurveEaseOut are accepted from configuration
	// and follow the same exponential law as CurveSmooth.
	CurveLinear
	CurveEaseIn
	CurveEaseOut
	// CurveImmediate snaps to the target inside SetTarget.
	CurveImmediate
	// CurveSpring follows a damped spring and may overshoot.
	CurveSpring
)

var curveNames = map[string]Curve{
	"":          CurveSmooth,
	"smooth":    CurveSmooth,
	"linear":    CurveLinear,
	"easeIn":    CurveEaseIn,
	"easeOut":   CurveEaseOut,
	"immediate": CurveImmediate,
	"spring":    CurveSpring,
}

// ParseCurve translates a configuration string into a Curve.
func ParseCurve(s string) (Curve, bool) {
	c, ok := curveNames[s]
	return c, ok
}

func (c Curve) String() string {
	for name, v := range curveNames {
		if v == c && name != "" {
			return name
		}
	}
	return "smooth"
}

// TargetOptions adjust a Value as its target changes. Curve always replaces
// the current curve. A zero Damping selects the Value's base rate and nil
// bounds keep the current ones.
type TargetOptions struct {
	Damping float64
	Curve   Curve
	Min     *float64
	Max     *float64
}

// Value is a smoothed bias with a target, a damping rate and optional bounds.
// It is not safe for concurrent use; owners serialize access.
type Value struct {
	current  float64
	target   float64
	velocity float64

	damping     float64
	baseDamping float64
	curve       Curve

	min float64
	max float64
}

// NewValue returns a Value at rest with the given damping rate. Non-positive
// rates fall back to DefaultDamping.
func NewValue(damping float64) *Value {
	return &Value{
		damping:     sanitizeDamping(damping, DefaultDamping),
		baseDamping: sanitizeDamping(damping, DefaultDamping),
		min:         math.Inf(-1),
		max:         math.Inf(1),
	}
}

func sanitizeDamping(d, fallback float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return fallback
	}
	return math.Max(d, MinDamping)
}

// SetTarget sets the bias the Value moves toward and reports whether the
// visible value differs from it. With CurveImmediate the bias is applied
// at once and the result reports whether the visible value changed.
func (v *Value) SetTarget(bias float64, opts TargetOptions) bool {
	bias = Finite(bias, 0)
	v.damping = sanitizeDamping(opts.Damping, v.baseDamping)
	if opts.Curve != v.curve {
		v.velocity = 0
	}
	v.curve = opts.Curve
	if opts.Min != nil {
		v.min = Finite(*opts.Min, math.Inf(-1))
	}
	if opts.Max != nil {
		v.max = Finite(*opts.Max, math.Inf(1))
	}

	if v.curve == CurveImmediate {
		changed := math.Abs(bias-v.current) > Epsilon
		v.current = bias
		v.target = bias
		v.velocity = 0
		return changed
	}

	v.target = bias
	return math.Abs(v.current-v.target) > Epsilon
}

// Step advances the bias toward its target by dt seconds and reports whether
// it moved by more than Epsilon.
func (v *Value) Step(dt float64) bool {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return false
	}
	prev := v.current

	switch v.curve {
	case CurveSpring:
		s := harmonica.NewSpring(dt, v.damping, SpringDampingRatio)
		v.current, v.velocity = s.Update(v.current, v.velocity, v.target)
		if math.Abs(v.target-v.current) < Epsilon && math.Abs(v.velocity) < Epsilon {
			v.current = v.target
			v.velocity = 0
		}
	default:
		diff := v.target - v.current
		if diff == 0 {
			return false
		}
		v.current += diff * (1 - math.Exp(-dt*v.damping))
		if math.Abs(v.target-v.current) < Epsilon {
			v.current = v.target
		}
	}

	if math.IsNaN(v.current) || math.IsInf(v.current, 0) {
		v.current, v.target, v.velocity = 0, 0, 0
	}
	return math.Abs(v.current-prev) > Epsilon
}

// Compute overlays the current bias onto base and applies the bounds.
func (v *Value) Compute(base float64) float64 {
	out := base + v.current
	if math.IsNaN(out) || math.IsInf(out, 0) {
		out = 0
	}
	if out < v.min {
		out = v.min
	}
	if out > v.max {
		out = v.max
	}
	return out
}

// Reset returns the Value to rest at zero bias.
func (v *Value) Reset() {
	v.current, v.target, v.velocity = 0, 0, 0
}

// Current returns the bias being applied now.
func (v *Value) Current() float64 { return v.current }

// Target returns the bias being moved toward.
func (v *Value) Target() float64 { return v.target }

// Damping returns the active smoothing rate.
func (v *Value) Damping() float64 { return v.damping }

// Settled reports whether the Value has reached its target.
func (v *Value) Settled() bool {
	return v.current == v.target && v.velocity == 0
}
