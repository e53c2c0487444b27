package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
)

func writePreset(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPresetFile(t *testing.T) {
	path := writePreset(t, "calm.json", `{
		"home": {"hue": 0.25, "chaos": 0.1},
		"sections": {"blog": {"hueShift": 0.4}},
		"layers": {"accent": {"densityScale": 0.25}},
		"triggers": {
			"cardHoverTarget": [
				{"target": "geometry.morph", "intensity": 0.5, "curve": "spring", "damping": 12},
				{"target": "aux.cardLift", "intensity": 6, "delay_ms": 40, "layer": "highlight"}
			]
		},
		"transition_multiplier": 1.5,
		"damping": 4
	}`)

	p, err := LoadPresetFile(path)
	require.NoError(t, err)
	require.NotNil(t, p.Home)
	require.NotNil(t, p.Home.Hue)
	assert.Equal(t, 0.25, *p.Home.Hue)
	assert.Len(t, p.Triggers["cardHoverTarget"], 2)
	assert.Equal(t, 1.5, *p.TransitionMultiplier)
}

func TestLoadPresetFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{name: "extension", file: "preset.yaml", body: `{}`, wantErr: ".json extension"},
		{name: "syntax", file: "a.json", body: `{"home": `, wantErr: "failed to parse"},
		{name: "multiplier", file: "a.json", body: `{"transition_multiplier": 0}`, wantErr: "transition_multiplier"},
		{name: "damping", file: "a.json", body: `{"damping": -1}`, wantErr: "damping"},
		{name: "layer", file: "a.json", body: `{"layers": {"foreground": {}}}`, wantErr: `unknown layer "foreground"`},
		{
			name:    "relationship",
			file:    "a.json",
			body:    `{"triggers": {"x": [{"target": "geometry.hue", "relationship": "cubic"}]}}`,
			wantErr: `unknown relationship "cubic"`,
		},
		{
			name:    "curve",
			file:    "a.json",
			body:    `{"triggers": {"x": [{"target": "geometry.hue", "curve": "bounce"}]}}`,
			wantErr: `unknown curve "bounce"`,
		},
		{
			name:    "influence layer",
			file:    "a.json",
			body:    `{"triggers": {"x": [{"target": "geometry.hue", "layer": "top"}]}}`,
			wantErr: `unknown layer "top"`,
		},
		{
			name:    "negative delay",
			file:    "a.json",
			body:    `{"triggers": {"x": [{"target": "geometry.hue", "delay_ms": -5}]}}`,
			wantErr: "delay_ms",
		},
		{
			name:    "empty target",
			file:    "a.json",
			body:    `{"triggers": {"x": [{"intensity": 1}]}}`,
			wantErr: "target is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPresetFile(writePreset(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPresetFile_Missing(t *testing.T) {
	_, err := LoadPresetFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPresetFile_TooLarge(t *testing.T) {
	body := `{"home": {}, "pad": "` + strings.Repeat("x", maxPresetSize) + `"}`
	_, err := LoadPresetFile(writePreset(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestInfluenceSpec_Influence(t *testing.T) {
	spec := InfluenceSpec{
		Target:       "geometry.chaos",
		Relationship: "exponential",
		Intensity:    0.4,
		Layer:        "shadow",
		Curve:        "immediate",
		DelayMs:      250,
		Max:          cascade.Float(0.9),
	}
	in, err := spec.Influence()
	require.NoError(t, err)
	assert.Equal(t, cascade.Exponential, in.Relationship)
	assert.Equal(t, param.CurveImmediate, in.Curve)
	assert.Equal(t, 250*time.Millisecond, in.Delay)
	require.NotNil(t, in.Layer)
	assert.Equal(t, param.Shadow, *in.Layer)
	assert.Equal(t, 0.9, *in.Max)
	assert.Nil(t, in.Min)
}

func TestInfluenceSpec_UnknownGeometryKeyIsLogged(t *testing.T) {
	var logged []string
	original := monitoring.SetLogger(func(format string, args ...interface{}) {
		logged = append(logged, format)
	})
	defer monitoring.SetLogger(original)

	in, err := InfluenceSpec{Target: "geometry.sparkle", Intensity: 1}.Influence()
	require.NoError(t, err, "unknown keys are ignored by the web, not rejected")
	assert.Equal(t, "geometry.sparkle", in.Path)
	assert.Len(t, logged, 1)
}

func TestEngine_Apply(t *testing.T) {
	p, err := ParsePreset([]byte(`{
		"home": {"density": 0.9},
		"sections": {
			"blog": {"hueShift": 0.4},
			"lab": {"chaosAdd": 0.3}
		},
		"layers": {"accent": {"densityScale": 0.25}},
		"triggers": {"cardClick": [{"target": "aux.clickFlash", "intensity": 2}]},
		"transition_multiplier": 2,
		"damping": 3
	}`))
	require.NoError(t, err)

	e := Default()
	stockBlog := e.Sections["blog"]
	require.NoError(t, e.Apply(p))

	assert.Equal(t, 0.9, e.Home.Density)
	assert.Equal(t, authority.DefaultHomeParams().Hue, e.Home.Hue, "untouched home fields keep their defaults")

	blog := e.Sections["blog"]
	assert.Equal(t, 0.4, blog.HueShift)
	assert.Equal(t, stockBlog.ChaosMul, blog.ChaosMul, "partial section objects overlay the existing rule")

	lab := e.Sections["lab"]
	assert.Equal(t, 0.3, lab.ChaosAdd)
	assert.Equal(t, 1.0, lab.DensMul, "new sections start from the identity rule")

	assert.Equal(t, 0.25, e.Layers[param.Accent].DensityScale)
	assert.Equal(t, 4, e.Layers[param.Accent].Geometry)

	require.Len(t, e.Triggers["cardClick"], 1, "preset triggers replace the stock definition")
	assert.Equal(t, 2.0, e.Triggers["cardClick"][0].Intensity)
	assert.NotEmpty(t, e.Triggers[TriggerCardHover])

	assert.Equal(t, 2.0, e.TransitionMultiplier)
	assert.Equal(t, 3.0, e.Damping)
}

func TestEngine_ApplyBadSectionType(t *testing.T) {
	raw, err := ParsePreset([]byte(`{"sections": {"blog": {"hueShift": "far"}}}`))
	require.NoError(t, err, "section bodies are decoded by Apply")
	e := Default()
	err = e.Apply(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `section "blog"`)
}

func TestEngine_ApplyFailureLeavesEngineUnchanged(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "section", body: `{"home": {"density": 0.9}, "damping": 3, "sections": {"blog": {"hueShift": "far"}}}`},
		{name: "layer", body: `{"home": {"density": 0.9}, "sections": {"blog": {"hueShift": 0.4}}, "layers": {"accent": {"densityScale": "thin"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePreset([]byte(tt.body))
			require.NoError(t, err)

			e := Default()
			want := Default()
			require.Error(t, e.Apply(p))

			assert.Equal(t, want.Home, e.Home)
			assert.Equal(t, want.Sections, e.Sections)
			assert.Equal(t, want.Layers, e.Layers)
			assert.Equal(t, want.Damping, e.Damping)
		})
	}
}
