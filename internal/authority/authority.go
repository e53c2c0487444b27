// Package authority owns the home parameters, derives every section's
// parameters from them, and composes the cascade state on top.
package authority

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iburimskiy/vib34d/internal/cascade"
	"github.com/iburimskiy/vib34d/internal/monitoring"
	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/timeutil"
)

// HomeSection is the section whose rule serves unknown section ids.
const HomeSection = "home"

// DefaultFrameInterval paces the loop started by Start.
const DefaultFrameInterval = time.Second / 60

// ChangeKind tells a listener what moved.
type ChangeKind int

const (
	HomeChanged ChangeKind = iota
	CascadeChanged
)

func (k ChangeKind) String() string {
	if k == HomeChanged {
		return "home"
	}
	return "cascade"
}

// Listener is notified after every parameter change.
type Listener func(ChangeKind)

// Observer receives every snapshot DeriveParameters hands out.
type Observer interface {
	ObserveDerivation(section string, layer param.Layer, snap param.Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(section string, layer param.Layer, snap param.Snapshot)

// ObserveDerivation calls f.
func (f ObserverFunc) ObserveDerivation(section string, layer param.Layer, snap param.Snapshot) {
	f(section, layer, snap)
}

// Config is the static input of an Authority.
type Config struct {
	Home          HomeParams
	Sections      map[string]OffsetRule
	Layers        [param.LayerCount]LayerProfile
	FrameInterval time.Duration
}

// Authority is the single owner of the home parameters.
type Authority struct {
	mu       sync.RWMutex
	home     HomeParams
	sections map[string]OffsetRule
	layers   [param.LayerCount]LayerProfile

	web      *cascade.Web
	clock    timeutil.Clock
	observer Observer

	subMu   sync.Mutex
	subs    map[uint64]Listener
	nextSub uint64

	loopMu        sync.Mutex
	frameInterval time.Duration
	lastFrame     time.Time
	stop          chan struct{}
	done          chan struct{}
	inFrame       atomic.Bool
}

// Option configures an Authority.
type Option func(*Authority)

// WithObserver reports every derived snapshot to o.
func WithObserver(o Observer) Option {
	return func(a *Authority) { a.observer = o }
}

// New builds an Authority over web. The web's change listener is taken over
// so cascade movement reaches the Authority's subscribers.
func New(cfg Config, web *cascade.Web, clock timeutil.Clock, opts ...Option) *Authority {
	sections := make(map[string]OffsetRule, len(cfg.Sections))
	for id, r := range cfg.Sections {
		sections[id] = r
	}
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	a := &Authority{
		home:          cfg.Home.Normalize(),
		sections:      sections,
		layers:        cfg.Layers,
		web:           web,
		clock:         clock,
		subs:          make(map[uint64]Listener),
		frameInterval: interval,
		lastFrame:     clock.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	web.SetListener(func() { a.notify(CascadeChanged) })
	return a
}

// Home returns a copy of the home parameters.
func (a *Authority) Home() HomeParams {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.home
}

// UpdateHomeParams merges u into the home parameters and notifies subscribers.
func (a *Authority) UpdateHomeParams(u HomeUpdate) {
	a.mu.Lock()
	a.home = a.home.Merge(u)
	a.mu.Unlock()
	a.notify(HomeChanged)
}

// Sections returns the configured section ids, sorted.
func (a *Authority) Sections() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, 0, len(a.sections))
	for id := range a.sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a *Authority) ruleLocked(section string) OffsetRule {
	if r, ok := a.sections[section]; ok {
		return r
	}
	if r, ok := a.sections[HomeSection]; ok {
		return r
	}
	return IdentityRule()
}

// SectionParameters derives a section's parameters from the current home
// parameters. Unknown sections use the home rule.
func (a *Authority) SectionParameters(section string) HomeParams {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ruleLocked(section).Derive(a.home)
}

// DeriveParameters returns the snapshot a renderer should draw for one layer
// of a section: derived section parameters, mapped onto the layer, with the
// cascade overlay applied.
func (a *Authority) DeriveParameters(section string, layer param.Layer) param.Snapshot {
	if !layer.Valid() {
		layer = param.Content
	}

	a.mu.RLock()
	sec := a.ruleLocked(section).Derive(a.home)
	base := a.layers[layer].Map(sec)
	a.mu.RUnlock()

	snap := a.web.ApplyTo(base, cascade.Context{Layer: &layer})
	if a.observer != nil {
		a.observer.ObserveDerivation(section, layer, snap)
	}
	return snap
}

// DeriveLayers derives all five layers of a section, back to front.
func (a *Authority) DeriveLayers(section string) [param.LayerCount]param.Snapshot {
	var out [param.LayerCount]param.Snapshot
	for _, l := range param.Layers() {
		out[l] = a.DeriveParameters(section, l)
	}
	return out
}

// TriggerParameterCascade forwards a named trigger to the cascade web.
func (a *Authority) TriggerParameterCascade(name string, ctx cascade.Context) {
	a.web.Trigger(name, ctx)
}

// Web returns the cascade web the Authority composes.
func (a *Authority) Web() *cascade.Web {
	return a.web
}

// Subscribe registers l and returns the function that removes it.
func (a *Authority) Subscribe(l Listener) func() {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = l
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

func (a *Authority) notify(kind ChangeKind) {
	a.subMu.Lock()
	ls := make([]Listener, 0, len(a.subs))
	for _, l := range a.subs {
		ls = append(ls, l)
	}
	a.subMu.Unlock()

	for _, l := range ls {
		l(kind)
	}
}

// Tick advances the cascade by the real time elapsed since the previous tick
// and reports whether anything moved. Subscribers hear about movement through
// the web's listener.
func (a *Authority) Tick() bool {
	a.loopMu.Lock()
	now := a.clock.Now()
	dt := now.Sub(a.lastFrame).Seconds()
	a.lastFrame = now
	a.loopMu.Unlock()

	return a.web.Step(dt)
}

// Start runs a frame loop on the Authority's clock. A second Start while the
// loop is running does nothing.
func (a *Authority) Start() {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()
	if a.stop != nil {
		return
	}

	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.lastFrame = a.clock.Now()
	ticker := a.clock.NewTicker(a.frameInterval)
	stop, done := a.stop, a.done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				a.inFrame.Store(true)
				a.Tick()
				a.inFrame.Store(false)
			}
		}
	}()
	monitoring.Debugf("authority: frame loop started (%v)", a.frameInterval)
}

// Stop ends the frame loop and waits for it to exit. While a loop frame is
// in progress, as when a subscriber calls Stop, it signals the loop and
// returns; the loop exits once that frame ends.
func (a *Authority) Stop() {
	a.loopMu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.loopMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	if a.inFrame.Load() {
		monitoring.Debugf("authority: frame loop stopping after current frame")
		return
	}
	<-done
	monitoring.Debugf("authority: frame loop stopped")
}

// Running reports whether the frame loop is active.
func (a *Authority) Running() bool {
	a.loopMu.Lock()
	defer a.loopMu.Unlock()
	return a.stop != nil
}

// Close stops the loop and disposes the cascade web.
func (a *Authority) Close() {
	a.Stop()
	a.web.Dispose()
}
