package transition

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrEmptyID is returned when an instance is registered without an id.
	ErrEmptyID = errors.New("transition: empty instance id")

	// ErrUnknownInstance is returned when an id has not been registered.
	ErrUnknownInstance = errors.New("transition: unknown instance")
)

// State is the animatable state of one visualizer instance.
type State struct {
	Density        float64 `json:"density"`
	ColorIntensity float64 `json:"colorIntensity"`
	Translucency   float64 `json:"translucency"`
	Scale          float64 `json:"scale"`
	Blur           float64 `json:"blur"`
	Rotation       float64 `json:"rotation"` // degrees
	Sparkles       int     `json:"sparkles"`
}

// Instance is a registered visualizer: its rest state and its live state.
type Instance struct {
	ID      string
	Base    State
	Current State
}

// Instances is what the Coordinator needs from an instance registry.
type Instances interface {
	Base(id string) (State, bool)
	SetCurrent(id string, s State) bool
}

// Registry is the in-memory Instances implementation.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]*Instance
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]*Instance)}
}

// Register adds or replaces an instance at rest in base.
func (r *Registry) Register(id string, base State) error {
	if id == "" {
		return ErrEmptyID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[id] = &Instance{ID: id, Base: base, Current: base}
	return nil
}

// Remove drops an instance. Unknown ids are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, id)
}

// SetBase replaces an instance's rest state, for example after its preset
// changed. The live state is left to the caller's animation.
func (r *Registry) SetBase(id string, base State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok {
		return ErrUnknownInstance
	}
	inst.Base = base
	return nil
}

// Base returns an instance's rest state.
func (r *Registry) Base(id string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return State{}, false
	}
	return inst.Base, true
}

// Current returns an instance's live state.
func (r *Registry) Current(id string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return State{}, false
	}
	return inst.Current, true
}

// SetCurrent replaces an instance's live state.
func (r *Registry) SetCurrent(id string, s State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok {
		return false
	}
	inst.Current = s
	return true
}

// Instance returns a copy of a registered instance.
func (r *Registry) Instance(id string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[id]
	if !ok {
		return Instance{}, false
	}
	return *inst, true
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.instances))
	for id := range r.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
