// Package transition cross-fades two visualizer instances. The outgoing
// instance collapses while the incoming one crystallizes, and the two sides
// are coupled so the result reads as one transition.
package transition

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
)

// BaseDuration is the length of a transition at multiplier 1.
const BaseDuration = 1500 * time.Millisecond

const (
	// DissolveScale is the fraction of scale the outgoing side loses.
	DissolveScale = 0.3
	// DissolveRotation is the outgoing rotation gain in degrees.
	DissolveRotation = 90.0
	// CrystallizeScale is where the incoming scale starts, relative to base.
	CrystallizeScale = 0.8
	// BloomOvershoot lets the incoming colour ramp run ahead of base before
	// it is capped.
	BloomOvershoot = 1.1
	// DefaultMaxBlur is the extra blur at the peak of a dissolve.
	DefaultMaxBlur = 8.0
)

// Window is a phase's time range at BaseDuration.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Phases holds the time windows of the transition pipelines.
//
// There is no separate window for incoming density: the incoming side gains
// exactly the density the outgoing side has lost, so its expansion follows
// DensityCollapse.
type Phases struct {
	DensityCollapse  Window
	ColorFade        Window
	GeometryDissolve Window
	TranslucencyOut  Window

	TranslucencyIn Window
	Crystallize    Window
	ColorBloom     Window
}

// DefaultPhases returns the stock phase timings.
func DefaultPhases() Phases {
	ms := func(a, b int) Window {
		return Window{Start: time.Duration(a) * time.Millisecond, End: time.Duration(b) * time.Millisecond}
	}
	return Phases{
		DensityCollapse:  ms(0, 500),
		ColorFade:        ms(150, 700),
		GeometryDissolve: ms(300, 1000),
		TranslucencyOut:  ms(700, 1200),

		TranslucencyIn: ms(600, 1100),
		Crystallize:    ms(800, 1350),
		ColorBloom:     ms(1000, 1450),
	}
}

// Session is one running transition.
type Session struct {
	ID           string
	OutgoingID   string
	IncomingID   string
	StartedAt    time.Time
	Duration     time.Duration
	OutgoingBase State
	IncomingBase State
}

// Frame is the pair of states produced by one Update.
type Frame struct {
	OutgoingID string
	IncomingID string
	Outgoing   State
	Incoming   State
	Progress   float64
	Done       bool
}

// Coordinator schedules one cross-fade at a time.
type Coordinator struct {
	mu      sync.Mutex
	phases  Phases
	maxBlur float64
	session *Session
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPhases replaces the phase timings.
func WithPhases(p Phases) Option {
	return func(c *Coordinator) { c.phases = p }
}

// WithMaxBlur sets the extra blur at the peak of a dissolve.
func WithMaxBlur(b float64) Option {
	return func(c *Coordinator) { c.maxBlur = b }
}

// NewCoordinator returns an idle Coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{phases: DefaultPhases(), maxBlur: DefaultMaxBlur}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartTransition begins a cross-fade from outgoingID to incomingID at ts,
// replacing any active session. It does nothing and returns false if either
// id is unknown or both are the same. Non-positive multipliers mean 1.
func (c *Coordinator) StartTransition(outgoingID, incomingID string, reg Instances, ts time.Time, multiplier float64) bool {
	if outgoingID == incomingID {
		return false
	}
	outBase, ok := reg.Base(outgoingID)
	if !ok {
		return false
	}
	inBase, ok := reg.Base(incomingID)
	if !ok {
		return false
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		multiplier = 1
	}

	s := &Session{
		ID:           uuid.NewString(),
		OutgoingID:   outgoingID,
		IncomingID:   incomingID,
		StartedAt:    ts,
		Duration:     time.Duration(float64(BaseDuration) * multiplier),
		OutgoingBase: outBase,
		IncomingBase: inBase,
	}

	c.mu.Lock()
	if c.session != nil {
		monitoring.Debugf("transition %s replaced by %s", c.session.ID, s.ID)
	}
	c.session = s
	c.mu.Unlock()
	return true
}

// Update advances the active session to ts, writes both live states into reg
// and returns them. It returns false when no session is active. Once ts
// reaches the session's end both instances snap to their captured bases and
// the Coordinator goes idle.
func (c *Coordinator) Update(reg Instances, ts time.Time) (Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return Frame{}, false
	}
	if _, ok := reg.Base(s.OutgoingID); !ok {
		c.session = nil
		return Frame{}, false
	}
	if _, ok := reg.Base(s.IncomingID); !ok {
		c.session = nil
		return Frame{}, false
	}

	elapsed := ts.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	f := Frame{OutgoingID: s.OutgoingID, IncomingID: s.IncomingID}
	if elapsed >= s.Duration {
		f.Outgoing, f.Incoming = s.OutgoingBase, s.IncomingBase
		f.Progress, f.Done = 1, true
		c.session = nil
	} else {
		f.Outgoing, f.Incoming = c.blend(s, elapsed)
		f.Progress = float64(elapsed) / float64(s.Duration)
	}

	reg.SetCurrent(f.OutgoingID, f.Outgoing)
	reg.SetCurrent(f.IncomingID, f.Incoming)
	return f, true
}

func (c *Coordinator) blend(s *Session, elapsed time.Duration) (State, State) {
	scale := float64(s.Duration) / float64(BaseDuration)
	progress := func(w Window) float64 {
		start := float64(w.Start) * scale
		end := float64(w.End) * scale
		if end <= start {
			if float64(elapsed) >= start {
				return 1
			}
			return 0
		}
		return param.Clamp01((float64(elapsed) - start) / (end - start))
	}

	ob, ib := s.OutgoingBase, s.IncomingBase
	out, in := ob, ib

	p := progress(c.phases.DensityCollapse)
	out.Density = ob.Density * (1 - p)

	p = progress(c.phases.ColorFade)
	out.ColorIntensity = ob.ColorIntensity * (1 - p)

	p = progress(c.phases.GeometryDissolve)
	out.Scale = ob.Scale * (1 - DissolveScale*p)
	out.Blur = ob.Blur + c.maxBlur*p
	out.Rotation = ob.Rotation + DissolveRotation*p

	p = progress(c.phases.TranslucencyOut)
	out.Translucency = ob.Translucency * (1 - p)

	out.Sparkles = ob.Sparkles / 2

	p = progress(c.phases.TranslucencyIn)
	in.Translucency = ib.Translucency * p

	p = progress(c.phases.Crystallize)
	in.Scale = ib.Scale * (CrystallizeScale + (1-CrystallizeScale)*p)
	in.Blur = ib.Blur + c.maxBlur*(1-p)

	p = progress(c.phases.ColorBloom)
	in.ColorIntensity = math.Min(ib.ColorIntensity*BloomOvershoot*p, ib.ColorIntensity)

	// Coupling: what the outgoing side gives up, the incoming side takes.
	in.Density = ib.Density + (ob.Density - out.Density)
	if ob.ColorIntensity != 0 {
		in.ColorIntensity *= 1 - out.ColorIntensity/ob.ColorIntensity
	}
	in.Rotation = -out.Rotation
	in.Sparkles = int(math.Round(float64(ib.Sparkles) * float64(elapsed) / float64(s.Duration)))

	return out, in
}

// IsActive reports whether a session is running.
func (c *Coordinator) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Session returns a copy of the active session.
func (c *Coordinator) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Cancel drops the active session without touching the instances.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}
