package authority

import (
	"math"

	"github.com/iburimskiy/vib34d/internal/param"
)

// HomeParams is the canonical parameter set every section derives from.
type HomeParams struct {
	Hue         float64 `json:"hue"`         // [0,1), wraps
	Density     float64 `json:"density"`     // [0,1]
	Morph       float64 `json:"morph"`       // [0,2]
	Chaos       float64 `json:"chaos"`       // [0,1]
	NoiseFreq   float64 `json:"noiseFreq"`   // [0.5,5]
	Glitch      float64 `json:"glitch"`      // [0,0.5]
	DispAmp     float64 `json:"dispAmp"`     // [0,1]
	ChromaShift float64 `json:"chromaShift"` // [0,0.2]
	TimeScale   float64 `json:"timeScale"`   // [0.1,3]
	BeatPhase   float64 `json:"beatPhase"`   // [0,1), wraps
}

// DefaultHomeParams returns the resting home state.
func DefaultHomeParams() HomeParams {
	return HomeParams{
		Hue:         0.6,
		Density:     0.5,
		Morph:       1.0,
		Chaos:       0.2,
		NoiseFreq:   1.5,
		Glitch:      0.05,
		DispAmp:     0.3,
		ChromaShift: 0.02,
		TimeScale:   1.0,
		BeatPhase:   0,
	}
}

// Normalize brings every field into its declared range, wrapping the cyclic
// fields and replacing NaN with the field's default.
func (h HomeParams) Normalize() HomeParams {
	d := DefaultHomeParams()
	return HomeParams{
		Hue:         param.Wrap01(param.Finite(h.Hue, d.Hue)),
		Density:     param.Clamp(param.Finite(h.Density, d.Density), 0, 1),
		Morph:       param.Clamp(param.Finite(h.Morph, d.Morph), 0, 2),
		Chaos:       param.Clamp(param.Finite(h.Chaos, d.Chaos), 0, 1),
		NoiseFreq:   param.Clamp(param.Finite(h.NoiseFreq, d.NoiseFreq), 0.5, 5),
		Glitch:      param.Clamp(param.Finite(h.Glitch, d.Glitch), 0, 0.5),
		DispAmp:     param.Clamp(param.Finite(h.DispAmp, d.DispAmp), 0, 1),
		ChromaShift: param.Clamp(param.Finite(h.ChromaShift, d.ChromaShift), 0, 0.2),
		TimeScale:   param.Clamp(param.Finite(h.TimeScale, d.TimeScale), 0.1, 3),
		BeatPhase:   param.Wrap01(param.Finite(h.BeatPhase, d.BeatPhase)),
	}
}

// HomeUpdate is a partial update; nil fields are left unchanged.
type HomeUpdate struct {
	Hue         *float64 `json:"hue,omitempty"`
	Density     *float64 `json:"density,omitempty"`
	Morph       *float64 `json:"morph,omitempty"`
	Chaos       *float64 `json:"chaos,omitempty"`
	NoiseFreq   *float64 `json:"noiseFreq,omitempty"`
	Glitch      *float64 `json:"glitch,omitempty"`
	DispAmp     *float64 `json:"dispAmp,omitempty"`
	ChromaShift *float64 `json:"chromaShift,omitempty"`
	TimeScale   *float64 `json:"timeScale,omitempty"`
	BeatPhase   *float64 `json:"beatPhase,omitempty"`
}

// Merge returns h with every non-nil field of u applied, normalized.
func (h HomeParams) Merge(u HomeUpdate) HomeParams {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&h.Hue, u.Hue)
	set(&h.Density, u.Density)
	set(&h.Morph, u.Morph)
	set(&h.Chaos, u.Chaos)
	set(&h.NoiseFreq, u.NoiseFreq)
	set(&h.Glitch, u.Glitch)
	set(&h.DispAmp, u.DispAmp)
	set(&h.ChromaShift, u.ChromaShift)
	set(&h.TimeScale, u.TimeScale)
	set(&h.BeatPhase, u.BeatPhase)
	return h.Normalize()
}

// OffsetRule is a section's static modifier set over the home parameters.
type OffsetRule struct {
	HueShift     float64 `json:"hueShift"`
	DensMul      float64 `json:"densMul"`
	DensAdd      float64 `json:"densAdd"`
	MorphMul     float64 `json:"morphMul"`
	MorphAdd     float64 `json:"morphAdd"`
	ChaosMul     float64 `json:"chaosMul"`
	ChaosAdd     float64 `json:"chaosAdd"`
	GlitchBias   float64 `json:"glitchBias"`
	NoiseFreqMul float64 `json:"noiseFreqMul"`
	TimeScaleMul float64 `json:"timeScaleMul"`
}

// IdentityRule leaves the home parameters untouched.
func IdentityRule() OffsetRule {
	return OffsetRule{
		DensMul:      1,
		MorphMul:     1,
		ChaosMul:     1,
		NoiseFreqMul: 1,
		TimeScaleMul: 1,
	}
}

// Derive applies the rule to home. It is a pure function of its inputs.
func (r OffsetRule) Derive(home HomeParams) HomeParams {
	return HomeParams{
		Hue:         param.Wrap01(home.Hue + r.HueShift),
		Density:     param.Clamp01(home.Density*r.DensMul + r.DensAdd),
		Morph:       param.Clamp01(home.Morph*r.MorphMul + r.MorphAdd),
		Chaos:       param.Clamp01(home.Chaos*r.ChaosMul + r.ChaosAdd),
		Glitch:      math.Max(0, param.Finite(home.Glitch+r.GlitchBias, 0)),
		NoiseFreq:   param.Finite(home.NoiseFreq*r.NoiseFreqMul, 0),
		TimeScale:   param.Finite(home.TimeScale*r.TimeScaleMul, 0),
		DispAmp:     param.Finite(home.DispAmp, 0),
		ChromaShift: param.Finite(home.ChromaShift, 0),
		BeatPhase:   param.Finite(home.BeatPhase, 0),
	}
}

// LayerProfile maps section parameters onto one layer.
type LayerProfile struct {
	Geometry     int     `json:"geometry"`
	DensityScale float64 `json:"densityScale"`
	ChaosScale   float64 `json:"chaosScale"`
}

// DefaultLayerProfiles returns the stock per-layer geometry selectors and
// density/chaos scales.
func DefaultLayerProfiles() [param.LayerCount]LayerProfile {
	return [param.LayerCount]LayerProfile{
		param.Background: {Geometry: 0, DensityScale: 0.7, ChaosScale: 1.0},
		param.Shadow:     {Geometry: 1, DensityScale: 1.0, ChaosScale: 0.8},
		param.Content:    {Geometry: 2, DensityScale: 1.0, ChaosScale: 1.0},
		param.Highlight:  {Geometry: 3, DensityScale: 1.0, ChaosScale: 1.2},
		param.Accent:     {Geometry: 4, DensityScale: 0.5, ChaosScale: 1.0},
	}
}

// Map builds the layer snapshot for a section's derived parameters.
func (p LayerProfile) Map(sec HomeParams) param.Snapshot {
	return param.Snapshot{
		Geometry:    p.Geometry,
		Hue:         sec.Hue,
		Density:     sec.Density * p.DensityScale,
		Morph:       sec.Morph,
		Chaos:       sec.Chaos * p.ChaosScale,
		NoiseFreq:   sec.NoiseFreq,
		Glitch:      sec.Glitch,
		DispAmp:     sec.DispAmp,
		ChromaShift: sec.ChromaShift,
		TimeScale:   sec.TimeScale,
		BeatPhase:   sec.BeatPhase,
	}.ClampNormalized()
}
