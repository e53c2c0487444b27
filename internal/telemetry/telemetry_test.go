package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/timeutil"
)

// counting streams 0.0, 1.0, 2.0, ... on the left channel.
func counting() beep.Streamer {
	next := 0.0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{next, -next}
			next++
		}
		return len(samples), true
	})
}

func constant(n int, v float64) [][2]float64 {
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{v, v}
	}
	return out
}

func TestTap_Snapshot(t *testing.T) {
	tap := NewTap(counting(), 4)
	assert.Nil(t, tap.Snapshot(3), "nothing played yet")

	buf := make([][2]float64, 3)
	n, ok := tap.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 3, n)

	got := tap.Snapshot(10)
	require.Len(t, got, 3, "only recorded samples are returned")
	assert.Equal(t, [2]float64{0, 0}, got[0])
	assert.Equal(t, [2]float64{2, -2}, got[2])

	tap.Stream(buf)
	got = tap.Snapshot(4)
	require.Len(t, got, 4)
	assert.Equal(t, []float64{2, 3, 4, 5}, []float64{got[0][0], got[1][0], got[2][0], got[3][0]},
		"oldest first after wrapping")

	assert.NoError(t, tap.Err())
}

func TestTap_SourceExhausted(t *testing.T) {
	empty := beep.StreamerFunc(func([][2]float64) (int, bool) { return 0, false })
	tap := NewTap(empty, 8)
	n, ok := tap.Stream(make([][2]float64, 4))
	assert.Equal(t, 0, n)
	assert.False(t, ok)
	assert.Nil(t, tap.Snapshot(4))
}

func TestAnalyzer_BandSplit(t *testing.T) {
	a := NewAnalyzer(timeutil.NewMockClock(time.Unix(0, 0)), WithBands(3), WithSmoothing(0))

	samples := append(constant(100, 1), constant(200, 0)...)
	f := a.Analyze(samples)
	require.Len(t, f.Bands, 3)
	assert.InDelta(t, 1.0, f.Bass, 1e-12)
	assert.Zero(t, f.Mid)
	assert.Zero(t, f.Treble)
	assert.InDelta(t, 1.0/3, f.Energy, 1e-12)
}

func TestAnalyzer_Smoothing(t *testing.T) {
	a := NewAnalyzer(timeutil.NewMockClock(time.Unix(0, 0)), WithBands(1))
	f := a.Analyze(constant(64, 1))
	assert.InDelta(t, 1-config.SmoothingFactor, f.Bands[0], 1e-12)

	f = a.Analyze(nil)
	assert.InDelta(t, 1-config.SmoothingFactor, f.Bands[0], 1e-12, "an empty frame keeps the levels")
	assert.False(t, f.Beat)
}

func TestAnalyzer_BeatOnset(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	a := NewAnalyzer(clock, WithBands(4), WithSmoothing(0))

	quiet := constant(256, 0.001)
	loud := constant(256, 0.5)

	f := a.Analyze(quiet)
	assert.False(t, f.Beat, "the first frame only primes the average")

	f = a.Analyze(loud)
	require.True(t, f.Beat)
	assert.Equal(t, 1.0, f.BeatStrength)

	f = a.Analyze(loud)
	assert.False(t, f.Beat, "inside the cooldown")

	clock.Advance(config.BeatCooldown)
	f = a.Analyze(loud)
	assert.True(t, f.Beat)
	assert.Greater(t, f.BeatStrength, 0.0)
	assert.LessOrEqual(t, f.BeatStrength, 1.0)

	clock.Advance(time.Second)
	f = a.Analyze(constant(256, 0))
	assert.False(t, f.Beat, "silence never beats")
	assert.Zero(t, f.BeatStrength)
}

func TestAnalyzer_Reset(t *testing.T) {
	a := NewAnalyzer(timeutil.NewMockClock(time.Unix(0, 0)), WithBands(2), WithSmoothing(0))
	a.Analyze(constant(16, 0.001))
	a.Reset()

	f := a.Analyze(constant(16, 0.5))
	assert.False(t, f.Beat, "a reset analyzer primes again")
	assert.InDelta(t, math.Pow(0.5, 0.3), f.Energy, 1e-12)
}

type recordingSink struct {
	updates  []authority.HomeUpdate
	triggers []string
	contexts []cascade.Context
}

func (s *recordingSink) UpdateHomeParams(u authority.HomeUpdate) {
	s.updates = append(s.updates, u)
}

func (s *recordingSink) TriggerParameterCascade(name string, ctx cascade.Context) {
	s.triggers = append(s.triggers, name)
	s.contexts = append(s.contexts, ctx)
}

func TestPort_Observe(t *testing.T) {
	sink := &recordingSink{}
	p := NewPort(sink)

	p.Observe(Features{Energy: 0.9})
	assert.Empty(t, sink.triggers, "frames without a beat are dropped")

	for i := 0; i < 5; i++ {
		p.Observe(Features{Beat: true, BeatStrength: 0.6})
	}
	require.Len(t, sink.triggers, 5)
	assert.Equal(t, config.TriggerAudioPulse, sink.triggers[0])
	require.NotNil(t, sink.contexts[0].Magnitude)
	assert.Equal(t, 0.6, *sink.contexts[0].Magnitude)

	require.NotNil(t, sink.updates[0].BeatPhase)
	assert.InDelta(t, 0.25, *sink.updates[0].BeatPhase, 1e-12)
	assert.InDelta(t, 0.0, *sink.updates[3].BeatPhase, 1e-12, "phase wraps after four beats")
	assert.InDelta(t, 0.25, *sink.updates[4].BeatPhase, 1e-12)
	assert.Equal(t, 5, p.Beats())
}

func TestPort_Options(t *testing.T) {
	sink := &recordingSink{}
	p := NewPort(sink, WithPulseTrigger("kick"), WithPhaseStep(0.5))

	p.Observe(Features{Beat: true, BeatStrength: 1})
	assert.Equal(t, []string{"kick"}, sink.triggers)
	assert.InDelta(t, 0.5, *sink.updates[0].BeatPhase, 1e-12)

	p.SetEnabled(false)
	p.Observe(Features{Beat: true, BeatStrength: 1})
	assert.Len(t, sink.triggers, 1)
}

func TestPort_DrivesAuthority(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	engine := config.Default()
	web := cascade.New(clock, engine.Triggers)
	auth := authority.New(engine.AuthorityConfig(), web, clock)
	defer auth.Close()

	NewPort(auth).Observe(Features{Beat: true, BeatStrength: 1})
	assert.InDelta(t, config.BeatPhasePerBeat, auth.Home().BeatPhase, 1e-12)
	assert.Equal(t, 1, web.Pending(), "the pulse schedules its delayed release")
}
