package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/param"
)

func TestDefault_CoversEverySection(t *testing.T) {
	e := Default()
	require.Len(t, e.Sections, len(SectionOrder))
	for _, id := range SectionOrder {
		_, ok := e.Sections[id]
		assert.True(t, ok, "section %q has no rule", id)
	}
	assert.Equal(t, authority.IdentityRule(), e.Sections["home"])
}

func TestDefault_TriggersTargetKnownFields(t *testing.T) {
	names := []string{
		TriggerCardHover, TriggerCardSiblings, TriggerCardClick, TriggerSectionFocus,
		TriggerScroll, TriggerAudioPulse, TriggerNavigate,
	}
	triggers := DefaultTriggers()
	require.Len(t, triggers, len(names))

	for _, name := range names {
		list, ok := triggers[name]
		require.True(t, ok, "trigger %q missing", name)
		require.NotEmpty(t, list)
		for _, in := range list {
			if key, ok := strings.CutPrefix(in.Path, "geometry."); ok {
				_, known := param.ParseKey(key)
				assert.True(t, known, "%s targets %s", name, in.Path)
				continue
			}
			assert.True(t, strings.HasPrefix(in.Path, "aux."), "%s targets %s", name, in.Path)
		}
	}
}

func TestEngine_AuthorityConfig(t *testing.T) {
	e := Default()
	e.Home.Chaos = 0.7
	cfg := e.AuthorityConfig()

	assert.Equal(t, 0.7, cfg.Home.Chaos)
	assert.Equal(t, FrameInterval, cfg.FrameInterval)
	assert.Equal(t, e.Layers, cfg.Layers)
	assert.Len(t, cfg.Sections, len(SectionOrder))
}
