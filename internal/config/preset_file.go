package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
)

// maxPresetSize caps preset files at 1MB.
const maxPresetSize = 1 * 1024 * 1024

// PresetFile is the JSON form of an engine override. Every part is optional;
// absent parts keep the defaults. Sections and layers are decoded over the
// identity rule and the stock profile, so partial objects are safe.
type PresetFile struct {
	Home                 *authority.HomeUpdate      `json:"home,omitempty"`
	Sections             map[string]json.RawMessage `json:"sections,omitempty"`
	Layers               map[string]json.RawMessage `json:"layers,omitempty"`
	Triggers             map[string][]InfluenceSpec `json:"triggers,omitempty"`
	TransitionMultiplier *float64                   `json:"transition_multiplier,omitempty"`
	Damping              *float64                   `json:"damping,omitempty"`
}

// InfluenceSpec is the string-keyed form of cascade.Influence.
type InfluenceSpec struct {
	Target       string   `json:"target"`
	Relationship string   `json:"relationship,omitempty"`
	Intensity    float64  `json:"intensity"`
	Layer        string   `json:"layer,omitempty"`
	Curve        string   `json:"curve,omitempty"`
	Damping      float64  `json:"damping,omitempty"`
	DelayMs      int      `json:"delay_ms,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Polarity     *float64 `json:"polarity,omitempty"`
}

// Influence translates s into a cascade.Influence. Unknown geometry
// keys are accepted, since the web ignores them, but are logged.
func (s InfluenceSpec) Influence() (cascade.Influence, error) {
	if s.Target == "" {
		return cascade.Influence{}, fmt.Errorf("influence target is empty")
	}
	rel, ok := cascade.ParseRelationship(s.Relationship)
	if !ok {
		return cascade.Influence{}, fmt.Errorf("unknown relationship %q", s.Relationship)
	}
	curve, ok := param.ParseCurve(s.Curve)
	if !ok {
		return cascade.Influence{}, fmt.Errorf("unknown curve %q", s.Curve)
	}
	if s.DelayMs < 0 {
		return cascade.Influence{}, fmt.Errorf("delay_ms must be non-negative, got %d", s.DelayMs)
	}
	if math.IsNaN(s.Intensity) || math.IsInf(s.Intensity, 0) {
		return cascade.Influence{}, fmt.Errorf("intensity must be finite")
	}

	in := cascade.Influence{
		Path:         s.Target,
		Relationship: rel,
		Intensity:    s.Intensity,
		Curve:        curve,
		Damping:      s.Damping,
		Delay:        time.Duration(s.DelayMs) * time.Millisecond,
		Min:          s.Min,
		Max:          s.Max,
		Polarity:     s.Polarity,
	}
	if s.Layer != "" {
		l, ok := param.ParseLayer(s.Layer)
		if !ok {
			return cascade.Influence{}, fmt.Errorf("unknown layer %q", s.Layer)
		}
		in.Layer = &l
	}
	if key, ok := strings.CutPrefix(s.Target, "geometry."); ok {
		if _, known := param.ParseKey(key); !known {
			monitoring.Logf("config: influence target %q names no geometry field, it will be ignored", s.Target)
		}
	}
	return in, nil
}

// LoadPresetFile reads and validates a preset file. The path must have a
// .json extension and the file must be under 1MB.
func LoadPresetFile(path string) (*PresetFile, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("preset file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat preset file: %w", err)
	}
	if info.Size() > maxPresetSize {
		return nil, fmt.Errorf("preset file too large: %d bytes (max %d)", info.Size(), maxPresetSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	return ParsePreset(data)
}

// ParsePreset decodes and validates preset JSON.
func ParsePreset(data []byte) (*PresetFile, error) {
	p := &PresetFile{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse preset JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	return p, nil
}

// Validate checks the parts that Apply cannot repair.
func (p *PresetFile) Validate() error {
	if p.TransitionMultiplier != nil && !(*p.TransitionMultiplier > 0) {
		return fmt.Errorf("transition_multiplier must be positive, got %f", *p.TransitionMultiplier)
	}
	if p.Damping != nil && !(*p.Damping > 0) {
		return fmt.Errorf("damping must be positive, got %f", *p.Damping)
	}
	for name := range p.Layers {
		if _, ok := param.ParseLayer(name); !ok {
			return fmt.Errorf("unknown layer %q", name)
		}
	}
	for name, list := range p.Triggers {
		if name == "" {
			return fmt.Errorf("trigger name is empty")
		}
		for i, spec := range list {
			if _, err := spec.Influence(); err != nil {
				return fmt.Errorf("trigger %q influence %d: %w", name, i, err)
			}
		}
	}
	return nil
}

// Apply overlays the preset onto e. Triggers named in the preset replace the
// stock definition of the same name. Every part is decoded before e is
// touched, so a failed Apply leaves e unchanged.
func (e *Engine) Apply(p *PresetFile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	sections := make(map[string]authority.OffsetRule, len(p.Sections))
	for id, raw := range p.Sections {
		r, ok := e.Sections[id]
		if !ok {
			r = authority.IdentityRule()
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("section %q: %w", id, err)
		}
		sections[id] = r
	}
	layers := e.Layers
	for name, raw := range p.Layers {
		l, _ := param.ParseLayer(name)
		if err := json.Unmarshal(raw, &layers[l]); err != nil {
			return fmt.Errorf("layer %q: %w", name, err)
		}
	}
	triggers := make(map[string][]cascade.Influence, len(p.Triggers))
	for name, list := range p.Triggers {
		out := make([]cascade.Influence, 0, len(list))
		for _, spec := range list {
			in, err := spec.Influence()
			if err != nil {
				return fmt.Errorf("trigger %q: %w", name, err)
			}
			out = append(out, in)
		}
		triggers[name] = out
	}

	if p.Home != nil {
		e.Home = e.Home.Merge(*p.Home)
	}
	for id, r := range sections {
		e.Sections[id] = r
	}
	e.Layers = layers
	for name, list := range triggers {
		e.Triggers[name] = list
	}
	if p.TransitionMultiplier != nil {
		e.TransitionMultiplier = *p.TransitionMultiplier
	}
	if p.Damping != nil {
		e.Damping = *p.Damping
	}
	return nil
}
