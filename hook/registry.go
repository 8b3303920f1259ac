package hook

import (
	"sort"
	"sync"

	"github.com/leeforge/hookkit/errors"
)

// Gate decides whether a plugin's hooks are visible to extension point
// queries. Implementations must not call back into the Registry.
type Gate interface {
	Visible(plugin PluginID) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(plugin PluginID) bool

func (f GateFunc) Visible(plugin PluginID) bool { return f(plugin) }

type openGate struct{}

func (openGate) Visible(PluginID) bool { return true }

// Option configures a Registry.
type Option func(*Registry)

// WithGate sets the visibility gate. Without one every hook is visible.
func WithGate(g Gate) Option {
	return func(r *Registry) {
		if g != nil {
			r.gate = g
		}
	}
}

// Registry owns all registered hooks, indexed by extension point for
// point-of-use lookup and by plugin for bulk removal.
type Registry struct {
	mu       sync.RWMutex
	byPoint  map[ExtensionPointID][]*Hook
	byID     map[HookID]*Hook
	byPlugin map[PluginID][]HookID
	nextSeq  uint64
	gate     Gate
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byPoint:  make(map[ExtensionPointID][]*Hook),
		byID:     make(map[HookID]*Hook),
		byPlugin: make(map[PluginID][]HookID),
		gate:     openGate{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores h. The registry is unchanged when it returns an error.
func (r *Registry) Register(h *Hook) error {
	if h == nil {
		return errors.NewInvalidHook("", "nil hook")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[h.id]; exists {
		return errors.NewDuplicateHookID(string(h.id.Plugin), h.id)
	}

	r.nextSeq++
	h.seq = r.nextSeq
	r.byID[h.id] = h
	r.byPoint[h.id.Point] = append(r.byPoint[h.id.Point], h)
	r.byPlugin[h.id.Plugin] = append(r.byPlugin[h.id.Plugin], h.id)
	return nil
}

// Deregister removes a single hook.
func (r *Registry) Deregister(id HookID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return errors.NewHookNotFound(string(id.Plugin), id)
	}
	r.remove(id)
	return nil
}

// DeregisterPlugin removes every hook owned by plugin and returns how many
// were removed. Removing a plugin that owns nothing is not an error.
func (r *Registry) DeregisterPlugin(plugin PluginID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := append([]HookID(nil), r.byPlugin[plugin]...)
	for _, id := range ids {
		r.remove(id)
	}
	return len(ids)
}

// remove deletes id from all indexes. Caller holds the write lock.
func (r *Registry) remove(id HookID) {
	delete(r.byID, id)

	hooks := r.byPoint[id.Point]
	for i, h := range hooks {
		if h.id == id {
			hooks = append(hooks[:i:i], hooks[i+1:]...)
			break
		}
	}
	if len(hooks) == 0 {
		delete(r.byPoint, id.Point)
	} else {
		r.byPoint[id.Point] = hooks
	}

	owned := r.byPlugin[id.Plugin]
	for i, hid := range owned {
		if hid == id {
			owned = append(owned[:i:i], owned[i+1:]...)
			break
		}
	}
	if len(owned) == 0 {
		delete(r.byPlugin, id.Plugin)
	} else {
		r.byPlugin[id.Plugin] = owned
	}
}

// ByPlugin returns the ids of all hooks plugin owns, in registration order,
// whether or not the plugin is currently visible.
func (r *Registry) ByPlugin(plugin PluginID) []HookID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]HookID{}, r.byPlugin[plugin]...)
}

// Has reports whether a hook with id is stored.
func (r *Registry) Has(id HookID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.byID[id]
	return exists
}

// Len returns the number of stored hooks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Points returns every extension point with at least one stored hook,
// sorted by name.
func (r *Registry) Points() []ExtensionPointID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	points := make([]ExtensionPointID, 0, len(r.byPoint))
	for p := range r.byPoint {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].String() < points[j].String() })
	return points
}

// Snapshot returns every stored hook id in registration order.
func (r *Registry) Snapshot() []HookID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := make([]*Hook, 0, len(r.byID))
	for _, h := range r.byID {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].seq < hooks[j].seq })

	ids := make([]HookID, len(hooks))
	for i, h := range hooks {
		ids[i] = h.id
	}
	return ids
}

// visible returns the gated hooks for point. Caller holds a lock.
func (r *Registry) visible(point ExtensionPointID) []*Hook {
	hooks := r.byPoint[point]
	out := make([]*Hook, 0, len(hooks))
	for _, h := range hooks {
		if r.gate.Visible(h.id.Plugin) {
			out = append(out, h)
		}
	}
	return out
}

// Get returns the visible hooks for contract C in registration order.
// It returns an empty slice when nothing matches.
func Get[C any](r *Registry) []Entry[C] {
	return Filter[C](r, nil)
}

// Filter is Get restricted to the hooks whose id satisfies keep, for
// example one discriminator among several hooks for the same contract.
// A nil keep selects every visible hook.
func Filter[C any](r *Registry, keep func(HookID) bool) []Entry[C] {
	point := PointOf[C]()

	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := r.visible(point)
	entries := make([]Entry[C], 0, len(hooks))
	for _, h := range hooks {
		if keep != nil && !keep(h.id) {
			continue
		}
		if impl, ok := h.impl.(C); ok {
			entries = append(entries, Entry[C]{ID: h.id, Impl: impl})
		}
	}
	return entries
}

// Impls is Get without the ids.
func Impls[C any](r *Registry) []C {
	entries := Get[C](r)
	impls := make([]C, len(entries))
	for i, e := range entries {
		impls[i] = e.Impl
	}
	return impls
}

// Mutate calls fn for each visible hook of contract C while holding the
// registry exclusively, so fn may modify pointer-backed implementations
// without racing readers. fn must not call back into the registry.
func Mutate[C any](r *Registry, fn func(id HookID, impl C)) {
	point := PointOf[C]()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.visible(point) {
		if impl, ok := h.impl.(C); ok {
			fn(h.id, impl)
		}
	}
}

// Lookup returns the implementation stored under id, ignoring the gate.
func Lookup[C any](r *Registry, id HookID) (C, bool) {
	var zero C
	if id.Point != PointOf[C]() {
		return zero, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.byID[id]
	if !exists {
		return zero, false
	}
	impl, ok := h.impl.(C)
	return impl, ok
}
