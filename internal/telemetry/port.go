package telemetry

import (
	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
)

// Sink is the part of the authority the port drives.
type Sink interface {
	UpdateHomeParams(u authority.HomeUpdate)
	TriggerParameterCascade(name string, ctx cascade.Context)
}

// Port forwards analysis frames to a Sink. Each beat fires the pulse trigger
// with the beat strength as magnitude and advances the home beat phase.
type Port struct {
	sink     Sink
	trigger  string
	perBeat  float64
	phase    float64
	beats    int
	disabled bool
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithPulseTrigger sets the trigger fired on each beat.
func WithPulseTrigger(name string) PortOption {
	return func(p *Port) { p.trigger = name }
}

// WithPhaseStep sets how far the beat phase moves per beat.
func WithPhaseStep(step float64) PortOption {
	return func(p *Port) { p.perBeat = step }
}

// NewPort returns a Port writing to sink.
func NewPort(sink Sink, opts ...PortOption) *Port {
	p := &Port{
		sink:    sink,
		trigger: config.TriggerAudioPulse,
		perBeat: config.BeatPhasePerBeat,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Observe forwards one frame. Frames without a beat are dropped.
func (p *Port) Observe(f Features) {
	if p.disabled || !f.Beat {
		return
	}
	p.beats++
	p.phase = param.Wrap01(p.phase + p.perBeat)
	phase := p.phase

	p.sink.UpdateHomeParams(authority.HomeUpdate{BeatPhase: &phase})
	strength := f.BeatStrength
	p.sink.TriggerParameterCascade(p.trigger, cascade.Context{Magnitude: &strength})
	monitoring.Debugf("telemetry: beat %d strength %.2f phase %.2f", p.beats, strength, phase)
}

// SetEnabled turns forwarding on or off.
func (p *Port) SetEnabled(on bool) { p.disabled = !on }

// Beats returns the number of beats forwarded so far.
func (p *Port) Beats() int { return p.beats }
