// Package config holds the constants and the static engine configuration:
// home parameters, section offset rules, layer profiles, cascade triggers and
// transition timings.
package config

import (
	"time"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/transition"
)

// Section ids, in navigation order.
var SectionOrder = []string{"home", "about", "portfolio", "blog", "contact", "tech"}

// Trigger names the preview and the telemetry port fire.
const (
	TriggerCardHover    = "cardHoverTarget"
	TriggerCardSiblings = "cardHoverSiblings"
	TriggerCardClick    = "cardClick"
	TriggerSectionFocus = "sectionFocus"
	TriggerScroll       = "scrollMomentum"
	TriggerAudioPulse   = "audioPulse"
	TriggerNavigate     = "navigate"
)

// Engine is the full static configuration of the parameter engine.
type Engine struct {
	Home                 authority.HomeParams
	Sections             map[string]authority.OffsetRule
	Layers               [param.LayerCount]authority.LayerProfile
	Triggers             map[string][]cascade.Influence
	Phases               transition.Phases
	TransitionMultiplier float64
	Damping              float64
	FrameInterval        time.Duration
}

// Default returns the stock configuration.
func Default() *Engine {
	return &Engine{
		Home:                 authority.DefaultHomeParams(),
		Sections:             DefaultSectionRules(),
		Layers:               authority.DefaultLayerProfiles(),
		Triggers:             DefaultTriggers(),
		Phases:               transition.DefaultPhases(),
		TransitionMultiplier: TransitionMultiplier,
		Damping:              CascadeDamping,
		FrameInterval:        FrameInterval,
	}
}

// AuthorityConfig returns the subset an authority.Authority is built from.
func (e *Engine) AuthorityConfig() authority.Config {
	return authority.Config{
		Home:          e.Home,
		Sections:      e.Sections,
		Layers:        e.Layers,
		FrameInterval: e.FrameInterval,
	}
}

func rule(mod func(*authority.OffsetRule)) authority.OffsetRule {
	r := authority.IdentityRule()
	mod(&r)
	return r
}

// DefaultSectionRules returns one offset rule per section.
func DefaultSectionRules() map[string]authority.OffsetRule {
	return map[string]authority.OffsetRule{
		"home": authority.IdentityRule(),
		"about": rule(func(r *authority.OffsetRule) {
			r.HueShift = 0.07
			r.DensMul = 0.9
		}),
		"portfolio": rule(func(r *authority.OffsetRule) {
			r.HueShift = 0.33
			r.MorphMul = 0.8
			r.MorphAdd = 0.1
			r.ChaosAdd = 0.05
		}),
		"blog": rule(func(r *authority.OffsetRule) {
			r.HueShift = -0.12
			r.ChaosMul = 0.6
			r.NoiseFreqMul = 0.8
			r.TimeScaleMul = 0.85
		}),
		"contact": rule(func(r *authority.OffsetRule) {
			r.HueShift = 0.5
			r.DensMul = 0.8
			r.DensAdd = 0.05
			r.GlitchBias = -0.03
		}),
		"tech": rule(func(r *authority.OffsetRule) {
			r.HueShift = 0.2
			r.ChaosMul = 1.4
			r.ChaosAdd = 0.05
			r.GlitchBias = 0.08
			r.NoiseFreqMul = 1.6
			r.TimeScaleMul = 1.25
		}),
	}
}

// DefaultTriggers returns the stock cascade definitions.
func DefaultTriggers() map[string][]cascade.Influence {
	f := cascade.Float
	highlight := cascade.LayerRef(param.Highlight)
	accent := cascade.LayerRef(param.Accent)
	shadow := cascade.LayerRef(param.Shadow)
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	return map[string][]cascade.Influence{
		TriggerCardHover: {
			{Path: "geometry.morph", Relationship: cascade.Linear, Intensity: 0.28, Curve: param.CurveEaseOut, Damping: 9},
			{Path: "geometry.density", Relationship: cascade.Linear, Intensity: 0.12, Damping: 7},
			{Path: "geometry.chaos", Relationship: cascade.Exponential, Intensity: 0.15},
			{Path: "geometry.glitch", Relationship: cascade.Linear, Intensity: 0.05, Layer: highlight},
			{Path: "aux.cardLift", Relationship: cascade.Linear, Intensity: 12, Damping: 10, Min: f(0)},
		},
		TriggerCardSiblings: {
			{Path: "geometry.density", Relationship: cascade.Inverse, Intensity: 0.1, Layer: shadow},
			{Path: "geometry.morph", Relationship: cascade.Linear, Intensity: -0.08, Layer: shadow, Delay: ms(60)},
			{Path: "aux.siblingDim", Relationship: cascade.Linear, Intensity: 0.35, Min: f(0), Max: f(1)},
		},
		TriggerCardClick: {
			{Path: "geometry.chaos", Relationship: cascade.Exponential, Intensity: 0.4, Curve: param.CurveSpring, Damping: 14},
			{Path: "geometry.glitch", Relationship: cascade.Linear, Intensity: 0.15, Curve: param.CurveImmediate},
			{Path: "geometry.glitch", Relationship: cascade.Linear, Intensity: 0, Delay: ms(180)},
			{Path: "aux.clickFlash", Relationship: cascade.Linear, Intensity: 1, Curve: param.CurveImmediate},
			{Path: "aux.clickFlash", Relationship: cascade.Linear, Intensity: 0, Delay: ms(220), Damping: 8},
		},
		TriggerSectionFocus: {
			{Path: "geometry.hue", Relationship: cascade.Linear, Intensity: 0.04, Layer: accent},
			{Path: "geometry.dispAmp", Relationship: cascade.Logarithmic, Intensity: 0.5},
		},
		TriggerScroll: {
			{Path: "geometry.noiseFreq", Relationship: cascade.Logarithmic, Intensity: 0.8},
			{Path: "geometry.timeScale", Relationship: cascade.Linear, Intensity: 0.3, Damping: 3},
			{Path: "geometry.chromaShift", Relationship: cascade.Linear, Intensity: 0.03, Min: f(0), Max: f(0.2)},
		},
		TriggerAudioPulse: {
			{Path: "geometry.dispAmp", Relationship: cascade.Exponential, Intensity: 0.3, Curve: param.CurveSpring, Damping: 14},
			{Path: "geometry.chromaShift", Relationship: cascade.Linear, Intensity: 0.05, Curve: param.CurveImmediate},
			{Path: "geometry.chromaShift", Relationship: cascade.Linear, Intensity: 0, Delay: ms(90)},
			{Path: "aux.beatGlow", Relationship: cascade.Linear, Intensity: 1, Min: f(0), Max: f(1.5), Damping: 12},
		},
		TriggerNavigate: {
			{Path: "geometry.glitch", Relationship: cascade.Linear, Intensity: 0.2, Curve: param.CurveImmediate},
			{Path: "geometry.glitch", Relationship: cascade.Linear, Intensity: 0, Delay: ms(300), Damping: 4},
		},
	}
}
