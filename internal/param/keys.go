package param

import "math"

// Layer is one of the five visual strata, each with independent cascade state.
type Layer int

const (
	Background Layer = iota
	Shadow
	Content
	Highlight
	Accent

	LayerCount
)

var layerNames = [LayerCount]string{"background", "shadow", "content", "highlight", "accent"}

func (l Layer) String() string {
	if l < 0 || l >= LayerCount {
		return "unknown"
	}
	return layerNames[l]
}

// Valid reports whether l names a known layer.
func (l Layer) Valid() bool {
	return l >= 0 && l < LayerCount
}

// ParseLayer translates a configuration string into a Layer.
func ParseLayer(s string) (Layer, bool) {
	for i, name := range layerNames {
		if name == s {
			return Layer(i), true
		}
	}
	return 0, false
}

// Layers lists every layer in draw order, back to front.
func Layers() []Layer {
	return []Layer{Background, Shadow, Content, Highlight, Accent}
}

// Key names one field of a Snapshot.
type Key int

const (
	KeyGeometry Key = iota
	KeyHue
	KeyDensity
	KeyMorph
	KeyChaos
	KeyNoiseFreq
	KeyGlitch
	KeyDispAmp
	KeyChromaShift
	KeyTimeScale
	KeyBeatPhase

	KeyCount
)

var keyNames = [KeyCount]string{
	"geometry", "hue", "density", "morph", "chaos", "noiseFreq",
	"glitch", "dispAmp", "chromaShift", "timeScale", "beatPhase",
}

func (k Key) String() string {
	if k < 0 || k >= KeyCount {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey translates a configuration string into a Key.
func ParseKey(s string) (Key, bool) {
	for i, name := range keyNames {
		if name == s {
			return Key(i), true
		}
	}
	return 0, false
}

// Normalized reports whether k is confined to [0,1] in a layer snapshot.
func (k Key) Normalized() bool {
	switch k {
	case KeyDensity, KeyChaos, KeyDispAmp, KeyHue, KeyBeatPhase:
		return true
	}
	return false
}

// Snapshot is the per-layer parameter set handed to renderers: the ten home
// fields plus the integer geometry selector.
type Snapshot struct {
	Geometry    int     `json:"geometry"`
	Hue         float64 `json:"hue"`
	Density     float64 `json:"density"`
	Morph       float64 `json:"morph"`
	Chaos       float64 `json:"chaos"`
	NoiseFreq   float64 `json:"noiseFreq"`
	Glitch      float64 `json:"glitch"`
	DispAmp     float64 `json:"dispAmp"`
	ChromaShift float64 `json:"chromaShift"`
	TimeScale   float64 `json:"timeScale"`
	BeatPhase   float64 `json:"beatPhase"`
}

// Get returns the field named by k. Unknown keys read as 0.
func (s *Snapshot) Get(k Key) float64 {
	switch k {
	case KeyGeometry:
		return float64(s.Geometry)
	case KeyHue:
		return s.Hue
	case KeyDensity:
		return s.Density
	case KeyMorph:
		return s.Morph
	case KeyChaos:
		return s.Chaos
	case KeyNoiseFreq:
		return s.NoiseFreq
	case KeyGlitch:
		return s.Glitch
	case KeyDispAmp:
		return s.DispAmp
	case KeyChromaShift:
		return s.ChromaShift
	case KeyTimeScale:
		return s.TimeScale
	case KeyBeatPhase:
		return s.BeatPhase
	}
	return 0
}

// Set writes v into the field named by k. The geometry selector is rounded
// and floored at zero. Unknown keys are ignored.
func (s *Snapshot) Set(k Key, v float64) {
	v = Finite(v, 0)
	switch k {
	case KeyGeometry:
		g := int(math.Round(v))
		if g < 0 {
			g = 0
		}
		s.Geometry = g
	case KeyHue:
		s.Hue = v
	case KeyDensity:
		s.Density = v
	case KeyMorph:
		s.Morph = v
	case KeyChaos:
		s.Chaos = v
	case KeyNoiseFreq:
		s.NoiseFreq = v
	case KeyGlitch:
		s.Glitch = v
	case KeyDispAmp:
		s.DispAmp = v
	case KeyChromaShift:
		s.ChromaShift = v
	case KeyTimeScale:
		s.TimeScale = v
	case KeyBeatPhase:
		s.BeatPhase = v
	}
}

// ClampNormalized replaces NaN fields with 0 and confines the normalized
// fields to [0,1].
func (s Snapshot) ClampNormalized() Snapshot {
	for k := KeyHue; k < KeyCount; k++ {
		v := Finite(s.Get(k), 0)
		if k.Normalized() {
			v = Clamp01(v)
		}
		s.Set(k, v)
	}
	return s
}

// Clamp01 confines v to [0,1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp confines v to [lo,hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Wrap01 maps v into [0,1) by modulo, so 1.3 becomes 0.3 and -0.2 becomes 0.8.
func Wrap01(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	w := math.Mod(v, 1)
	if w < 0 {
		w++
	}
	if w >= 1 {
		w = 0
	}
	return w
}

// Finite returns v, or fallback if v is NaN or infinite.
func Finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
