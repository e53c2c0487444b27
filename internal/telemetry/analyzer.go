package telemetry

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/timeutil"
)

// minBeatEnergy keeps near-silence from registering beats.
const minBeatEnergy = 0.05

// averageRate is the weight of the newest frame in the running energy average.
const averageRate = 0.1

// Features is one analysis frame.
type Features struct {
	Bands  []float64 // compressed, smoothed band levels in [0,1]
	Bass   float64
	Mid    float64
	Treble float64
	Energy float64 // mean band level

	Beat         bool
	BeatStrength float64 // [0,1], zero when Beat is false
}

// Analyzer reduces raw samples to Features. It is not safe for concurrent use;
// call it from the frame loop.
type Analyzer struct {
	clock     timeutil.Clock
	bands     []float64
	smoothing float64
	threshold float64
	cooldown  time.Duration

	average  float64
	primed   bool
	lastBeat time.Time
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithBands sets the number of bands.
func WithBands(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.bands = make([]float64, n)
		}
	}
}

// WithBeatThreshold sets how far energy must rise over its running average to
// count as a beat.
func WithBeatThreshold(ratio float64) AnalyzerOption {
	return func(a *Analyzer) { a.threshold = ratio }
}

// WithBeatCooldown sets the minimum spacing between beats.
func WithBeatCooldown(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) { a.cooldown = d }
}

// WithSmoothing sets the weight of the previous band level.
func WithSmoothing(f float64) AnalyzerOption {
	return func(a *Analyzer) { a.smoothing = param.Clamp01(f) }
}

// NewAnalyzer returns an Analyzer using clock for beat spacing.
func NewAnalyzer(clock timeutil.Clock, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		clock:     clock,
		bands:     make([]float64, config.AudioBands),
		smoothing: config.SmoothingFactor,
		threshold: config.BeatThreshold,
		cooldown:  config.BeatCooldown,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze folds samples into the band levels and checks for a beat onset.
// An empty frame leaves the levels where they were.
func (a *Analyzer) Analyze(samples [][2]float64) Features {
	if len(samples) > 0 {
		a.updateBands(samples)
	}

	f := Features{Bands: append([]float64(nil), a.bands...)}
	third := len(a.bands) / 3
	if third > 0 {
		f.Bass = floats.Sum(a.bands[:third]) / float64(third)
		f.Mid = floats.Sum(a.bands[third:2*third]) / float64(third)
		f.Treble = floats.Sum(a.bands[2*third:]) / float64(len(a.bands)-2*third)
	}
	f.Energy = floats.Sum(a.bands) / float64(len(a.bands))

	if len(samples) == 0 {
		return f
	}
	if !a.primed {
		a.average, a.primed = f.Energy, true
		return f
	}

	now := a.clock.Now()
	if f.Energy > minBeatEnergy && f.Energy > a.average*a.threshold &&
		(a.lastBeat.IsZero() || now.Sub(a.lastBeat) >= a.cooldown) {
		f.Beat = true
		f.BeatStrength = param.Clamp01(f.Energy/math.Max(a.average, minBeatEnergy) - 1)
		a.lastBeat = now
	}
	a.average += (f.Energy - a.average) * averageRate
	return f
}

func (a *Analyzer) updateBands(samples [][2]float64) {
	n := len(a.bands)
	size := max(1, len(samples)/n)
	mono := make([]float64, size)

	for i := 0; i < n; i++ {
		start := i * size
		if start >= len(samples) {
			break
		}
		end := min(start+size, len(samples))

		seg := mono[:end-start]
		for j, s := range samples[start:end] {
			seg[j] = (s[0] + s[1]) * 0.5
		}
		rms := math.Sqrt(floats.Dot(seg, seg) / float64(len(seg)))
		level := param.Clamp01(math.Pow(rms, 0.3))

		a.bands[i] = a.smoothing*a.bands[i] + (1-a.smoothing)*level
	}
}

// Reset clears the band levels and the beat history.
func (a *Analyzer) Reset() {
	for i := range a.bands {
		a.bands[i] = 0
	}
	a.average, a.primed = 0, false
	a.lastBeat = time.Time{}
}
