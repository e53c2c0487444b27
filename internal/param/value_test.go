package param

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestValue_StepConvergesMonotonically(t *testing.T) {
	v := NewValue(4)
	require.True(t, v.SetTarget(0.5, TargetOptions{}))

	prevGap := math.Abs(v.Current() - v.Target())
	for i := 0; i < 200; i++ {
		v.Step(1.0 / 60)
		gap := math.Abs(v.Current() - v.Target())
		require.LessOrEqual(t, gap, prevGap, "step %d widened the gap", i)
		require.LessOrEqual(t, v.Current(), 0.5, "decay smoothing must not overshoot")
		prevGap = gap
	}
	assert.True(t, v.Settled())
	assert.Equal(t, 0.5, v.Current())
}

func TestValue_StepMatchesExponentialLaw(t *testing.T) {
	v := NewValue(9)
	v.SetTarget(0.28, TargetOptions{Damping: 9, Curve: CurveEaseOut})

	assert.True(t, v.Step(1.0))
	assert.InDelta(t, 0.28*(1-math.Exp(-9)), v.Current(), 1e-4)
}

func TestValue_StepHalfLife(t *testing.T) {
	v := NewValue(math.Ln2)
	v.SetTarget(1, TargetOptions{})
	v.Step(1)
	assert.InDelta(t, 0.5, v.Current(), 1e-9)
}

func TestValue_StepReportsMovement(t *testing.T) {
	v := NewValue(6)
	assert.False(t, v.Step(0.016), "no target, no movement")

	v.SetTarget(1, TargetOptions{})
	assert.False(t, v.Step(0), "zero delta never moves")
	assert.False(t, v.Step(-1), "negative delta never moves")
	assert.False(t, v.Step(math.NaN()))
	assert.True(t, v.Step(0.016))
}

func TestValue_ImmediateCurve(t *testing.T) {
	v := NewValue(2)

	assert.True(t, v.SetTarget(0.3, TargetOptions{Curve: CurveImmediate}))
	assert.InDelta(t, 1.3, v.Compute(1.0), 1e-12)
	assert.False(t, v.SetTarget(0.3, TargetOptions{Curve: CurveImmediate}),
		"snapping to the same bias is not a change")
	assert.False(t, v.Step(1), "immediate value is already settled")
}

func TestValue_SetTargetReportsDifference(t *testing.T) {
	v := NewValue(6)
	assert.False(t, v.SetTarget(0.00001, TargetOptions{}))
	assert.True(t, v.SetTarget(0.2, TargetOptions{}))
}

func TestValue_Compute(t *testing.T) {
	v := NewValue(6)
	v.SetTarget(0.4, TargetOptions{Curve: CurveImmediate, Min: ptr(0), Max: ptr(1)})

	assert.InDelta(t, 0.9, v.Compute(0.5), 1e-12)
	assert.Equal(t, 1.0, v.Compute(0.9), "upper bound applies")

	v.SetTarget(-2, TargetOptions{Curve: CurveImmediate})
	assert.Equal(t, 0.0, v.Compute(0.5), "bounds persist across targets")

	u := NewValue(6)
	u.SetTarget(5, TargetOptions{Curve: CurveImmediate})
	assert.Equal(t, 105.0, u.Compute(100), "no bounds means unbounded")
	assert.Equal(t, 0.0, u.Compute(math.NaN()), "NaN falls back to zero")
}

func TestValue_DegenerateDamping(t *testing.T) {
	assert.Equal(t, DefaultDamping, NewValue(0).Damping())
	assert.Equal(t, DefaultDamping, NewValue(-3).Damping())
	assert.Equal(t, MinDamping, NewValue(0.01).Damping())

	v := NewValue(3)
	v.SetTarget(1, TargetOptions{Damping: 12})
	assert.Equal(t, 12.0, v.Damping())
	v.SetTarget(1, TargetOptions{Damping: -1})
	assert.Equal(t, 3.0, v.Damping(), "invalid override falls back to construction damping")
}

func TestValue_NaNTarget(t *testing.T) {
	v := NewValue(6)
	v.SetTarget(math.NaN(), TargetOptions{})
	v.Step(1)
	assert.Equal(t, 0.0, v.Current())
	assert.False(t, math.IsNaN(v.Compute(0.2)))
}

func TestValue_SpringSettles(t *testing.T) {
	v := NewValue(10)
	v.SetTarget(1, TargetOptions{Curve: CurveSpring})

	overshot := false
	for i := 0; i < 600; i++ {
		v.Step(1.0 / 60)
		if v.Current() > 1 {
			overshot = true
		}
	}
	assert.True(t, overshot, "an underdamped spring passes its target")
	assert.InDelta(t, 1.0, v.Current(), Epsilon)
}

func TestValue_CurveChangeDropsVelocity(t *testing.T) {
	v := NewValue(8)
	v.SetTarget(1, TargetOptions{Curve: CurveSpring})
	require.True(t, v.Step(0.05))

	hold := v.Current()
	v.SetTarget(hold, TargetOptions{Curve: CurveSmooth})
	assert.True(t, v.Settled(), "switching curves drops spring velocity")

	v.SetTarget(hold, TargetOptions{Curve: CurveSpring})
	assert.False(t, v.Step(0.05))
	assert.Equal(t, hold, v.Current())
}

func TestValue_Reset(t *testing.T) {
	v := NewValue(6)
	v.SetTarget(0.7, TargetOptions{Curve: CurveImmediate})
	v.Reset()
	assert.True(t, v.Settled())
	assert.Equal(t, 0.25, v.Compute(0.25))
}

func TestParseCurve(t *testing.T) {
	for name, want := range map[string]Curve{
		"":          CurveSmooth,
		"easeOut":   CurveEaseOut,
		"immediate": CurveImmediate,
		"spring":    CurveSpring,
	} {
		got, ok := ParseCurve(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ParseCurve("bounce")
	assert.False(t, ok)
}
