// Package game is the ebiten preview of the parameter engine. It draws every
// layer of the current section from authority snapshots, turns mouse and
// keyboard input into cascade triggers and section transitions, and feeds
// playing audio into the telemetry port.
package game

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/faiface/beep"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iburimskiy/vib34d/internal/authority"
	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/config"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/telemetry"
	"github.com/iburimskiy/vib34d/internal/timeutil"
	"github.com/iburimskiy/vib34d/internal/transition"
)

// Game implements ebiten.Game.
type Game struct {
	clock  timeutil.Clock
	engine *config.Engine

	// engine
	auth        *authority.Authority
	unsubscribe func()
	reg         *transition.Registry
	coord       *transition.Coordinator
	instanceIDs map[string]string // section -> instance id
	dirty       atomic.Bool

	// audio
	currentFile *os.File
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	tap         *telemetry.Tap
	analyzer    *telemetry.Analyzer
	port        *telemetry.Port
	features    telemetry.Features
	paused      bool
	initDone    bool

	// viz
	section    int
	hovered    int
	scrolling  bool
	time       float64
	rotation   float64
	colorPhase float64

	// button state
	buttonHovered bool
	buttonPressed bool

	lastErr error
}

// New builds the engine described by engine and returns a Game driving it.
func New(engine *config.Engine, clock timeutil.Clock) *Game {
	g := &Game{
		clock:    clock,
		engine:   engine,
		analyzer: telemetry.NewAnalyzer(clock),
		hovered:  -1,
	}
	g.build()
	return g
}

func (g *Game) build() {
	web := cascade.New(g.clock, g.engine.Triggers, cascade.WithDamping(g.engine.Damping))
	g.auth = authority.New(g.engine.AuthorityConfig(), web, g.clock)
	g.unsubscribe = g.auth.Subscribe(func(authority.ChangeKind) { g.dirty.Store(true) })
	g.port = telemetry.NewPort(g.auth)
	g.coord = transition.NewCoordinator(transition.WithPhases(g.engine.Phases))

	g.reg = transition.NewRegistry()
	g.instanceIDs = make(map[string]string, len(config.SectionOrder))
	for _, sec := range config.SectionOrder {
		id := uuid.NewString()
		g.instanceIDs[sec] = id
		base := stateFromSnapshot(g.auth.DeriveParameters(sec, param.Content))
		if err := g.reg.Register(id, base); err != nil {
			monitoring.Logf("game: register %s: %v", sec, err)
		}
	}
}

// Close releases the engine and any playing audio.
func (g *Game) Close() {
	g.stopCurrent()
	g.teardown()
}

func (g *Game) teardown() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.coord.Cancel()
	g.auth.Close()
}

// Authority returns the running authority.
func (g *Game) Authority() *authority.Authority { return g.auth }

// Section returns the id of the section on screen.
func (g *Game) Section() string { return config.SectionOrder[g.section] }

func (g *Game) Update() error {
	mouseX, mouseY := ebiten.CursorPosition()

	g.buttonHovered = inButton(mouseX, mouseY)
	if g.buttonHovered && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.buttonPressed = true
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.buttonPressed && g.buttonHovered {
			if err := g.openAndPlayFileDialog(); err != nil {
				g.lastErr = err
			}
		}
		g.buttonPressed = false
	}

	g.updateHover(cardAt(mouseX, mouseY, len(config.SectionOrder)))
	if g.hovered >= 0 && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if g.hovered == g.section {
			g.auth.TriggerParameterCascade(config.TriggerCardClick, cascade.Context{})
		} else {
			g.navigate(g.hovered)
		}
	}

	_, dy := ebiten.Wheel()
	g.updateScroll(dy)

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.navigate(g.section + 1)
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.navigate(g.section - 1)
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		if err := g.openAndPlayFileDialog(); err != nil {
			g.lastErr = err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		if err := g.openPresetDialog(); err != nil {
			g.lastErr = err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.auth.Web().Reset()
		g.dirty.Store(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	}

	g.advance()
	return nil
}

// advance runs one frame of the engine: audio analysis, cascade smoothing,
// base refresh and the active transition.
func (g *Game) advance() {
	var samples [][2]float64
	if g.tap != nil && !g.paused {
		samples = g.tap.Snapshot(config.AudioWindow)
	}
	g.features = g.analyzer.Analyze(samples)
	g.port.Observe(g.features)

	g.auth.Tick()
	if g.dirty.Swap(false) {
		g.refreshBases()
	}

	if f, ok := g.coord.Update(g.reg, g.clock.Now()); ok && f.Done {
		g.auth.TriggerParameterCascade(config.TriggerSectionFocus, cascade.Context{})
		g.dirty.Store(true)
	}

	content := g.auth.DeriveParameters(g.Section(), param.Content)
	g.time += config.FrameInterval.Seconds() * content.TimeScale
	g.rotation += config.RotationSpeed * (1 + content.Chaos)
	g.colorPhase = content.Hue + config.ColorShiftSpeed*g.time
}

func (g *Game) refreshBases() {
	active := g.coord.IsActive()
	for _, sec := range config.SectionOrder {
		id := g.instanceIDs[sec]
		base := stateFromSnapshot(g.auth.DeriveParameters(sec, param.Content))
		if err := g.reg.SetBase(id, base); err != nil {
			monitoring.Logf("game: refresh %s: %v", sec, err)
			continue
		}
		if !active {
			g.reg.SetCurrent(id, base)
		}
	}
}

func (g *Game) updateHover(card int) {
	if card == g.hovered {
		return
	}
	if g.hovered >= 0 {
		g.fireHover(0)
	}
	g.hovered = card
	if card >= 0 {
		g.fireHover(1)
	}
}

func (g *Game) fireHover(magnitude float64) {
	g.auth.TriggerParameterCascade(config.TriggerCardHover, cascade.Context{Magnitude: cascade.Float(magnitude)})
	g.auth.TriggerParameterCascade(config.TriggerCardSiblings, cascade.Context{Magnitude: cascade.Float(magnitude)})
}

func (g *Game) updateScroll(dy float64) {
	if dy == 0 {
		if g.scrolling {
			g.scrolling = false
			g.auth.TriggerParameterCascade(config.TriggerScroll, cascade.Context{Magnitude: cascade.Float(0)})
		}
		return
	}
	g.scrolling = true
	g.auth.TriggerParameterCascade(config.TriggerScroll, cascade.Context{
		Polarity:  cascade.Float(math.Copysign(1, dy)),
		Magnitude: cascade.Float(param.Clamp01(math.Abs(dy) / 3)),
	})
}

// navigate cross-fades from the current section to section i, wrapping
// around the card row.
func (g *Game) navigate(i int) {
	to := wrapIndex(i, len(config.SectionOrder))
	if to == g.section {
		return
	}
	from := g.Section()
	target := config.SectionOrder[to]
	if !g.coord.StartTransition(g.instanceIDs[from], g.instanceIDs[target], g.reg, g.clock.Now(), g.engine.TransitionMultiplier) {
		monitoring.Logf("game: transition %s -> %s not started", from, target)
		return
	}

	polarity := 1.0
	if to < g.section {
		polarity = -1
	}
	g.auth.TriggerParameterCascade(config.TriggerSectionFocus, cascade.Context{Magnitude: cascade.Float(0)})
	g.auth.TriggerParameterCascade(config.TriggerNavigate, cascade.Context{Polarity: &polarity})
	g.section = to
	monitoring.Debugf("game: %s -> %s", from, target)
}

// ApplyPreset overlays p on the current configuration and rebuilds the
// engine. The section on screen is kept.
func (g *Game) ApplyPreset(p *config.PresetFile) error {
	if err := g.engine.Apply(p); err != nil {
		return fmt.Errorf("apply preset: %w", err)
	}
	g.teardown()
	g.build()
	g.hovered, g.scrolling = -1, false
	return nil
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.WindowWidth, config.WindowHeight
}
