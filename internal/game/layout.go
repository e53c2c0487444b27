package game

import (
	"math"

	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/transition"
)

// cardRect returns the bounds of section card i, centred along the bottom edge.
func cardRect(i, count int) (x, y, w, h int) {
	total := count*config.CardWidth + (count-1)*config.CardGap
	left := (config.WindowWidth - total) / 2
	return left + i*(config.CardWidth+config.CardGap), config.CardY, config.CardWidth, config.CardHeight
}

// cardAt returns the index of the card under (mx, my), or -1.
func cardAt(mx, my, count int) int {
	for i := 0; i < count; i++ {
		x, y, w, h := cardRect(i, count)
		if mx >= x && mx <= x+w && my >= y && my <= y+h {
			return i
		}
	}
	return -1
}

func inButton(mx, my int) bool {
	return mx >= config.ButtonX && mx <= config.ButtonX+config.ButtonWidth &&
		my >= config.ButtonY && my <= config.ButtonY+config.ButtonHeight
}

// stateFromSnapshot maps a content-layer snapshot onto the animatable state
// of a visualizer instance.
func stateFromSnapshot(s param.Snapshot) transition.State {
	return transition.State{
		Density:        param.Clamp01(s.Density),
		ColorIntensity: param.Clamp01(0.6 + 0.4*s.DispAmp),
		Translucency:   param.Clamp01(1 - s.Glitch),
		Scale:          0.8 + 0.2*param.Clamp(s.Morph, 0, 2),
		Blur:           math.Max(0, s.ChromaShift) * 10,
		Rotation:       param.Wrap01(s.Hue) * 360,
		Sparkles:       int(math.Round(param.Clamp01(s.Density) * config.ParticleCount)),
	}
}

// wrapIndex keeps section navigation cycling through the card row.
func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
