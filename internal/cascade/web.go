// Package cascade turns named interaction triggers into smoothed parameter
// biases. Triggers only set targets; Step does all the easing in one pass.
package cascade

import (
	"sort"
	"strings"
	"sync"

	"github.com/iburimskiy/vib34d/internal/param"
	"github.com/iburimskiy/vib34d/internal/timeutil"
)

type compiled struct {
	Influence
	target target
}

// Web owns every cascade bias, per layer and auxiliary.
//
// Within one Trigger call influences apply in declaration order, and across
// calls the most recently applied target wins. A delayed influence is applied
// when its timer fires, with no ordering guarantee against same-tick triggers.
type Web struct {
	mu sync.Mutex

	clock    timeutil.Clock
	damping  float64
	triggers map[string][]compiled

	layers [param.LayerCount]map[param.Key]*param.Value
	aux    map[string]*param.Value

	pending  map[uint64]timeutil.Timer
	nextID   uint64
	disposed bool

	listener func()
}

// Option configures a Web.
type Option func(*Web)

// WithDamping sets the damping rate of lazily created values.
func WithDamping(d float64) Option {
	return func(w *Web) { w.damping = d }
}

// WithListener registers the change listener at construction.
func WithListener(f func()) Option {
	return func(w *Web) { w.listener = f }
}

// New builds a Web over the given trigger definitions. Delayed influences are
// scheduled on clock.
func New(clock timeutil.Clock, triggers map[string][]Influence, opts ...Option) *Web {
	w := &Web{
		clock:    clock,
		damping:  param.DefaultDamping,
		triggers: make(map[string][]compiled, len(triggers)),
		aux:      make(map[string]*param.Value),
		pending:  make(map[uint64]timeutil.Timer),
	}
	for i := range w.layers {
		w.layers[i] = make(map[param.Key]*param.Value)
	}
	for name, list := range triggers {
		out := make([]compiled, 0, len(list))
		for _, in := range list {
			out = append(out, compiled{Influence: in, target: parseTarget(in.Path)})
		}
		w.triggers[name] = out
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetListener replaces the change listener. It is called outside the Web's
// lock whenever a trigger, timer or step changes a value.
func (w *Web) SetListener(f func()) {
	w.mu.Lock()
	w.listener = f
	w.mu.Unlock()
}

// Trigger applies every influence registered under name. Unknown names are
// ignored.
func (w *Web) Trigger(name string, ctx Context) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}

	changed := false
	for _, in := range w.triggers[name] {
		bias := in.Relationship.Bias(in.Intensity, ctx.weight(in.Influence))
		layer := ctx.layer(in.Influence)
		if in.Delay > 0 {
			w.scheduleLocked(in, layer, bias)
			continue
		}
		if w.applyLocked(in, layer, bias) {
			changed = true
		}
	}
	w.mu.Unlock()

	if changed {
		w.notify()
	}
}

func (w *Web) scheduleLocked(in compiled, layer param.Layer, bias float64) {
	id := w.nextID
	w.nextID++

	w.pending[id] = w.clock.AfterFunc(in.Delay, func() {
		w.mu.Lock()
		if _, ok := w.pending[id]; !ok || w.disposed {
			w.mu.Unlock()
			return
		}
		delete(w.pending, id)
		changed := w.applyLocked(in, layer, bias)
		w.mu.Unlock()

		if changed {
			w.notify()
		}
	})
}

func (w *Web) applyLocked(in compiled, layer param.Layer, bias float64) bool {
	if !in.target.valid {
		return false
	}

	var v *param.Value
	if in.target.geometry {
		m := w.layers[layer]
		if v = m[in.target.key]; v == nil {
			v = param.NewValue(w.damping)
			m[in.target.key] = v
		}
	} else {
		if v = w.aux[in.target.aux]; v == nil {
			v = param.NewValue(w.damping)
			w.aux[in.target.aux] = v
		}
	}

	return v.SetTarget(bias, param.TargetOptions{
		Damping: in.Damping,
		Curve:   in.Curve,
		Min:     in.Min,
		Max:     in.Max,
	})
}

// Step advances every value by dt seconds and reports whether any moved.
func (w *Web) Step(dt float64) bool {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return false
	}
	changed := false
	for _, m := range w.layers {
		for _, v := range m {
			if v.Step(dt) {
				changed = true
			}
		}
	}
	for _, v := range w.aux {
		if v.Step(dt) {
			changed = true
		}
	}
	w.mu.Unlock()

	if changed {
		w.notify()
	}
	return changed
}

// ApplyTo overlays the context layer's biases onto a copy of base. The
// geometry selector is rounded and floored at zero and the normalized fields
// are clamped to [0,1].
func (w *Web) ApplyTo(base param.Snapshot, ctx Context) param.Snapshot {
	layer := ctx.layer(Influence{})
	out := base

	w.mu.Lock()
	for k, v := range w.layers[layer] {
		out.Set(k, v.Compute(base.Get(k)))
	}
	w.mu.Unlock()

	return out.ClampNormalized()
}

// AuxValue returns base with the named auxiliary bias applied, or base
// unchanged if nothing has targeted that key.
func (w *Web) AuxValue(key string, base float64) float64 {
	key = strings.TrimPrefix(key, auxPrefix)

	w.mu.Lock()
	defer w.mu.Unlock()
	if v, ok := w.aux[key]; ok {
		return v.Compute(base)
	}
	return base
}

// Bias returns the current bias on a layer's field, 0 if untracked.
func (w *Web) Bias(layer param.Layer, k param.Key) float64 {
	if !layer.Valid() {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if v, ok := w.layers[layer][k]; ok {
		return v.Current()
	}
	return 0
}

// Reset snaps every bias back to zero. Pending delayed updates still apply.
func (w *Web) Reset() {
	w.mu.Lock()
	for _, m := range w.layers {
		for _, v := range m {
			v.Reset()
		}
	}
	for _, v := range w.aux {
		v.Reset()
	}
	w.mu.Unlock()
	w.notify()
}

// Triggers returns the configured trigger names, sorted.
func (w *Web) Triggers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.triggers))
	for name := range w.triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Pending returns the number of delayed updates not yet applied.
func (w *Web) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Dispose cancels every pending delayed update. Later triggers, timer
// callbacks and steps are no-ops.
func (w *Web) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return
	}
	w.disposed = true
	for id, t := range w.pending {
		t.Stop()
		delete(w.pending, id)
	}
	w.listener = nil
}

func (w *Web) notify() {
	w.mu.Lock()
	f := w.listener
	w.mu.Unlock()
	if f != nil {
		f()
	}
}
