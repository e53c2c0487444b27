package game

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/transition"
)

// layerView is everything one layer routine needs to draw.
type layerView struct {
	snap   param.Snapshot
	state  transition.State
	bands  []float64
	cx, cy float64
	time   float64
	spin   float64
}

// level returns band i, with an idle floor so layers move without audio.
func (v layerView) level(i int) float64 {
	if len(v.bands) == 0 {
		return 0.15
	}
	return 0.15 + 0.85*v.bands[i%len(v.bands)]
}

func (v layerView) color(offset, sat, intensity float64) color.RGBA {
	hue := (v.snap.Hue + offset) * 360
	r, g, b := hsvToRgb(hue, sat, 0.35+0.65*v.state.ColorIntensity)
	return color.RGBA{R: r, G: g, B: b, A: alpha(v.state.Translucency * intensity)}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawBackground(screen, g.auth.DeriveParameters(g.Section(), param.Background))

	if s, ok := g.coord.Session(); ok {
		g.drawInstance(screen, s.OutgoingID)
		g.drawInstance(screen, s.IncomingID)
	} else {
		g.drawInstance(screen, g.instanceIDs[g.Section()])
	}

	g.drawAudioBar(screen)
	g.drawCards(screen)
	g.drawButton(screen)
	ebitenutil.DebugPrintAt(screen, g.status(), 12, 12)
}

func (g *Game) status() string {
	var s string
	switch {
	case g.ctrl == nil:
		s = "O: open audio  P: preset  </>: section  R: reset"
	case g.paused:
		s = "Paused - Space to play"
	default:
		pos, total := g.position()
		s = fmt.Sprintf("Playing %s / %s - beats %d", formatDuration(pos), formatDuration(total), g.port.Beats())
	}
	s += " | " + g.Section()
	if g.lastErr != nil {
		s += " | Error: " + g.lastErr.Error()
	}
	return s
}

func (g *Game) sectionOf(id string) (string, bool) {
	for sec, iid := range g.instanceIDs {
		if iid == id {
			return sec, true
		}
	}
	return "", false
}

// drawInstance draws all layers of one section with its live transition state.
func (g *Game) drawInstance(screen *ebiten.Image, id string) {
	sec, ok := g.sectionOf(id)
	if !ok {
		return
	}
	st, ok := g.reg.Current(id)
	if !ok {
		return
	}

	layers := g.auth.DeriveLayers(sec)
	for _, l := range param.Layers() {
		v := layerView{
			snap:  layers[l],
			state: st,
			bands: g.features.Bands,
			cx:    float64(config.WindowWidth) / 2,
			cy:    float64(config.CardY) / 2,
			time:  g.time,
			spin:  g.rotation + st.Rotation*math.Pi/180,
		}
		switch v.snap.Geometry % 4 {
		case 0:
			drawAnimatedCircles(screen, v)
		case 1:
			drawWavePatterns(screen, v)
		case 2:
			drawParticleEffects(screen, v)
		default:
			drawEnergyRings(screen, v)
		}
	}
}

func (g *Game) drawBackground(screen *ebiten.Image, bg param.Snapshot) {
	for y := 0; y < config.WindowHeight; y += 2 {
		ratio := float64(y) / float64(config.WindowHeight)
		v := 0.06 + 0.08*bg.Density*(0.5+0.5*math.Sin(g.time*0.5+ratio*math.Pi))
		r, gv, b := hsvToRgb(bg.Hue*360, 0.6, v)
		vector.DrawFilledRect(screen, 0, float32(y), float32(config.WindowWidth), 2, color.RGBA{R: r, G: gv, B: b, A: 255}, false)
	}
}

func drawAnimatedCircles(screen *ebiten.Image, v layerView) {
	count := max(1, int(math.Round(config.CircleCount*(0.5+v.snap.Density))))
	for i := 0; i < count; i++ {
		angle := float64(i)*(2*math.Pi/float64(count)) + v.spin
		radius := (30 + float64(i)*15 + v.level(i)*100*v.snap.Morph) * v.state.Scale

		x := v.cx + math.Cos(angle)*radius
		y := v.cy + math.Sin(angle)*radius
		size := (8 + v.level(i)*20) * v.state.Scale
		if v.state.Blur > 0 {
			vector.DrawFilledCircle(screen, float32(x), float32(y), float32(size+v.state.Blur), v.color(float64(i)*0.1, 0.5, 0.25), true)
		}
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(size), v.color(float64(i)*0.1, 0.8, 0.6+0.4*v.level(i)), true)
	}
}

func drawWavePatterns(screen *ebiten.Image, v layerView) {
	const step = 10
	for i := 0; i < config.WaveCount; i++ {
		angle := float64(i)*(2*math.Pi/config.WaveCount) + v.spin
		base := (80 + v.level(i)*150*v.snap.Morph) * v.state.Scale
		amp := 10 * (1 + v.snap.Chaos)

		for j := 0; j < 360; j += step {
			a1 := float64(j) * math.Pi / 180
			a2 := float64(j+step) * math.Pi / 180
			r1 := base + math.Sin(a1*v.snap.NoiseFreq*2+v.time*2)*amp
			r2 := base + math.Sin(a2*v.snap.NoiseFreq*2+v.time*2)*amp

			x1, y1 := v.cx+math.Cos(angle+a1/8)*r1, v.cy+math.Sin(angle+a1/8)*r1
			x2, y2 := v.cx+math.Cos(angle+a2/8)*r2, v.cy+math.Sin(angle+a2/8)*r2
			c := v.color(float64(i)*0.05+float64(j)/3600, 0.7, 0.4+0.6*v.level(i))
			vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), float32(2+v.state.Blur/4), c, true)
		}
	}
}

func drawParticleEffects(screen *ebiten.Image, v layerView) {
	for i := 0; i < v.state.Sparkles; i++ {
		angle := v.time*0.5 + float64(i)*0.1 + v.spin
		jitter := v.snap.Glitch * 40 * math.Sin(float64(i)*12.9898+v.time*30)
		radius := (20 + v.level(i)*300*v.snap.DispAmp + jitter) * v.state.Scale

		x := v.cx + math.Cos(angle)*radius
		y := v.cy + math.Sin(angle)*radius
		size := 2 + v.level(i)*8
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(size), v.color(float64(i)*0.02, 1, 0.8+0.2*v.level(i)), true)
	}
}

func drawEnergyRings(screen *ebiten.Image, v layerView) {
	const segments = 24
	for i := 0; i < 5; i++ {
		lvl := v.level(i)
		if lvl < 0.1+0.3*(1-v.snap.Density) {
			continue
		}
		ringRadius := (float64(40+i*30) + lvl*100) * v.state.Scale

		for j := 0; j < segments; j++ {
			start := float64(j)*(2*math.Pi/segments) + v.spin
			end := float64(j+1)*(2*math.Pi/segments) + v.spin
			x1, y1 := v.cx+math.Cos(start)*ringRadius, v.cy+math.Sin(start)*ringRadius
			x2, y2 := v.cx+math.Cos(end)*ringRadius, v.cy+math.Sin(end)*ringRadius

			// chroma shift splits the ring into offset copies
			shift := v.snap.ChromaShift * 60
			c := v.color(float64(i)*0.2+float64(j)*0.01, 0.9, 0.5+0.5*lvl)
			width := float32(3 + lvl*8 + v.state.Blur/2)
			vector.StrokeLine(screen, float32(x1-shift), float32(y1), float32(x2-shift), float32(y2), width, c, true)
			if shift > 0.5 {
				vector.StrokeLine(screen, float32(x1+shift), float32(y1), float32(x2+shift), float32(y2), width/2, c, true)
			}
		}
	}
}

func (g *Game) drawAudioBar(screen *ebiten.Image) {
	bands := g.features.Bands
	if len(bands) == 0 {
		return
	}

	barHeight := 40
	barY := config.CardY - barHeight - 16
	barWidth := config.WindowWidth - 40
	barX := 20
	segmentWidth := float64(barWidth) / float64(len(bands))

	vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), color.RGBA{R: 20, G: 25, B: 35, A: 160}, false)
	for i, lvl := range bands {
		h := math.Max(2, lvl*float64(barHeight-6))
		x := float64(barX) + float64(i)*segmentWidth
		y := float64(barY+barHeight) - h
		r, gv, b := hsvToRgb((g.colorPhase+float64(i)/float64(len(bands))*0.5)*360, 0.8, 0.9)
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(segmentWidth-1), float32(h), color.RGBA{R: r, G: gv, B: b, A: alpha(0.4 + 0.6*lvl)}, false)
	}
	if g.features.Beat {
		vector.StrokeRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), 2, color.RGBA{R: 255, G: 255, B: 255, A: 200}, false)
	}
}

func (g *Game) drawCards(screen *ebiten.Image) {
	web := g.auth.Web()
	lift := web.AuxValue("cardLift", 0)
	dim := param.Clamp01(web.AuxValue("siblingDim", 0))
	flash := param.Clamp01(web.AuxValue("clickFlash", 0))

	count := len(config.SectionOrder)
	for i, sec := range config.SectionOrder {
		x, y, w, h := cardRect(i, count)
		fy := float32(y)
		shade := 1.0
		switch {
		case i == g.hovered:
			fy -= float32(lift)
		case g.hovered >= 0:
			shade = 1 - dim
		}

		snap := g.auth.DeriveParameters(sec, param.Accent)
		r, gv, b := hsvToRgb(snap.Hue*360, 0.5, 0.25+0.35*shade)
		vector.DrawFilledRect(screen, float32(x), fy, float32(w), float32(h), color.RGBA{R: r, G: gv, B: b, A: 230}, false)

		border := color.RGBA{R: 120, G: 130, B: 150, A: 255}
		if i == g.section {
			border = color.RGBA{R: 255, G: 255, B: 255, A: alpha(0.6 + 0.4*flash)}
		}
		vector.StrokeRect(screen, float32(x), fy, float32(w), float32(h), 2, border, false)
		ebitenutil.DebugPrintAt(screen, sec, x+10, int(fy)+h/2-8)
	}
}

func (g *Game) drawButton(screen *ebiten.Image) {
	var bgColor color.Color
	switch {
	case g.buttonPressed:
		bgColor = color.RGBA{R: 60, G: 80, B: 120, A: 255}
	case g.buttonHovered:
		bgColor = color.RGBA{R: 80, G: 100, B: 140, A: 255}
	default:
		bgColor = color.RGBA{R: 100, G: 120, B: 160, A: 255}
	}
	vector.DrawFilledRect(screen, config.ButtonX, config.ButtonY, config.ButtonWidth, config.ButtonHeight, bgColor, false)
	vector.StrokeRect(screen, config.ButtonX, config.ButtonY, config.ButtonWidth, config.ButtonHeight, 2, color.RGBA{R: 150, G: 170, B: 200, A: 255}, false)

	text := "Open Audio"
	textX := config.ButtonX + (config.ButtonWidth-len(text)*6)/2
	ebitenutil.DebugPrintAt(screen, text, textX, config.ButtonY+config.ButtonHeight/2-8)
}
