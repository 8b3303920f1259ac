package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leeforge/hookkit/errors"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/metrics"
	"github.com/leeforge/hookkit/utils"
	"go.uber.org/zap"
)

// publishTimeout bounds every lifecycle event publish.
var publishTimeout = 5 * time.Second

type entry struct {
	plugin   Plugin
	app      *AppContext
	hooks    int
	loadedAt time.Time
}

// Info describes a loaded plugin.
type Info struct {
	ID          hook.PluginID `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	State       State         `json:"state"`
	Hooks       int           `json:"hooks"`
	Cycle       uuid.UUID     `json:"cycle"`
	LoadedAt    time.Time     `json:"loadedAt"`
}

// Manager owns the hook registry and moves plugins through
// Unloaded -> Disabled <-> Enabled -> Unloaded.
type Manager struct {
	mu      sync.RWMutex
	plugins map[hook.PluginID]*entry
	order   []hook.PluginID

	// stateMu guards states only and is never held while calling out.
	// The registry gate reads it, so queries never wait on mu.
	stateMu sync.RWMutex
	states  map[hook.PluginID]State

	registry   *hook.Registry
	visibility Visibility
	logger     logging.Logger
	events     EventBus
	services   *ServiceRegistry
	configs    ConfigSource
	metrics    *metrics.Collector
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger logging.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithEventBus publishes lifecycle events to bus.
func WithEventBus(bus EventBus) ManagerOption {
	return func(m *Manager) { m.events = bus }
}

// WithServices shares a service registry with the host.
func WithServices(services *ServiceRegistry) ManagerOption {
	return func(m *Manager) {
		if services != nil {
			m.services = services
		}
	}
}

// WithConfig sets where plugins get their ConfigProvider from.
func WithConfig(source ConfigSource) ManagerOption {
	return func(m *Manager) {
		if source != nil {
			m.configs = source
		}
	}
}

// WithVisibility selects whether disabled plugins' hooks are queryable.
func WithVisibility(v Visibility) ManagerOption {
	return func(m *Manager) { m.visibility = v }
}

// WithMetrics records lifecycle counters into c.
func WithMetrics(c *metrics.Collector) ManagerOption {
	return func(m *Manager) { m.metrics = c }
}

// NewManager creates a manager with an empty registry.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		plugins:  make(map[hook.PluginID]*entry),
		states:   make(map[hook.PluginID]State),
		logger:   logging.Nop(),
		services: NewServiceRegistry(),
		configs:  func(hook.PluginID) ConfigProvider { return EmptyConfig() },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("plugin")
	m.registry = hook.NewRegistry(hook.WithGate(hook.GateFunc(m.visible)))
	return m
}

// Registry returns the registry every plugin's hooks live in.
func (m *Manager) Registry() *hook.Registry {
	return m.registry
}

// Services returns the service registry handed to plugins.
func (m *Manager) Services() *ServiceRegistry {
	return m.services
}

// Visibility returns the configured visibility policy.
func (m *Manager) Visibility() Visibility {
	return m.visibility
}

// LoadPlugin loads p and registers its hooks. The plugin starts Disabled.
// On any error nothing of p is retained.
func (m *Manager) LoadPlugin(ctx context.Context, p Plugin) error {
	if p == nil {
		return errors.NewInvalidPluginID("", fmt.Errorf("nil plugin"))
	}
	id := p.ID()
	if _, err := hook.ParsePluginID(string(id)); err != nil {
		return err
	}

	e, err := m.load(ctx, id, p)
	if err != nil {
		m.logger.Warn("plugin load failed", zap.String("plugin", string(id)), zap.Error(err))
		m.metrics.IncCounter(metrics.PluginLoadFailures, map[string]string{"plugin": string(id)})
		if !errors.IsType(err, errors.ErrorTypePluginAlreadyLoaded) {
			m.publish(ctx, TopicFailed, Transition{Plugin: id, From: StateUnloaded, To: StateUnloaded, Err: err})
		}
		return err
	}

	m.logger.Info("plugin loaded",
		zap.String("plugin", string(id)),
		zap.Stringer("state", StateDisabled),
		zap.Int("hooks", e.hooks),
		zap.Stringer("cycle", e.app.Cycle),
	)
	m.metrics.IncCounter(metrics.PluginLoads, map[string]string{"plugin": string(id)})
	m.metrics.SetGauge(metrics.HooksRegistered, float64(m.registry.Len()), nil)
	m.publish(ctx, TopicLoaded, Transition{
		Plugin: id, From: StateUnloaded, To: StateDisabled, Cycle: e.app.Cycle, Hooks: e.hooks,
	})
	return nil
}

func (m *Manager) load(ctx context.Context, id hook.PluginID, p Plugin) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.plugins[id]; exists {
		return nil, errors.NewPluginAlreadyLoaded(string(id))
	}

	app := &AppContext{
		Plugin:   id,
		Cycle:    uuid.New(),
		Logger:   m.logger.With(zap.String("plugin", string(id))),
		Services: m.services,
		Config:   m.configs(id),
		Events:   m.events,
	}

	if l, ok := p.(Loadable); ok {
		if err := l.OnLoad(ctx, app); err != nil {
			m.services.RemoveOwner(id)
			return nil, errors.NewLifecycle(string(id), "load", err)
		}
	}

	n, err := m.registerHooks(id, p.Hooks())
	if err != nil {
		// OnLoad ran but the plugin never became loaded: no OnUnload.
		m.services.RemoveOwner(id)
		return nil, err
	}

	e := &entry{plugin: p, app: app, hooks: n, loadedAt: time.Now()}
	m.plugins[id] = e
	m.order = append(m.order, id)
	m.setState(id, StateDisabled)
	return e, nil
}

// registerHooks binds and registers every contribution, or none of them.
func (m *Manager) registerHooks(id hook.PluginID, contributions []hook.Contribution) (int, error) {
	registered := make([]hook.HookID, 0, len(contributions))
	rollback := func() {
		for i := len(registered) - 1; i >= 0; i-- {
			_ = m.registry.Deregister(registered[i])
		}
		if len(registered) > 0 {
			m.metrics.IncCounter(metrics.HookRollbacks, map[string]string{"plugin": string(id)})
		}
	}

	for _, c := range contributions {
		h, err := c.Bind(id)
		if err != nil {
			rollback()
			return 0, err
		}
		if err := m.registry.Register(h); err != nil {
			rollback()
			return 0, err
		}
		registered = append(registered, h.ID())
	}
	return len(registered), nil
}

// EnablePlugin makes a Disabled plugin's hooks visible.
func (m *Manager) EnablePlugin(id hook.PluginID) error {
	return m.transition(id, StateDisabled, StateEnabled, TopicEnabled)
}

// DisablePlugin hides an Enabled plugin's hooks.
func (m *Manager) DisablePlugin(id hook.PluginID) error {
	return m.transition(id, StateEnabled, StateDisabled, TopicDisabled)
}

func (m *Manager) transition(id hook.PluginID, from, to State, topic string) error {
	m.mu.Lock()
	e, exists := m.plugins[id]
	if !exists {
		m.mu.Unlock()
		return errors.NewPluginNotFound(string(id))
	}
	if current := m.stateOf(id); current != from {
		m.mu.Unlock()
		if to == StateEnabled {
			return errors.NewPluginAlreadyEnabled(string(id))
		}
		return errors.NewPluginNotEnabled(string(id))
	}
	m.setState(id, to)
	cycle := e.app.Cycle
	m.mu.Unlock()

	m.logger.Info("plugin state changed",
		zap.String("plugin", string(id)),
		zap.Stringer("state", to),
		zap.Int("hooks", e.hooks),
	)
	m.metrics.IncCounter(metrics.PluginTransitions, map[string]string{"to": to.String()})

	m.publish(context.Background(), topic, Transition{Plugin: id, From: from, To: to, Cycle: cycle, Hooks: e.hooks})
	return nil
}

// UnloadPlugin removes the plugin's hooks, runs OnUnload and forgets the
// plugin. An OnUnload failure is returned after the plugin is gone.
func (m *Manager) UnloadPlugin(ctx context.Context, id hook.PluginID) error {
	from, removed, cycle, err := m.unload(ctx, id)
	if errors.IsType(err, errors.ErrorTypePluginNotFound) {
		return err
	}

	fields := []zap.Field{
		zap.String("plugin", string(id)),
		zap.Stringer("state", StateUnloaded),
		zap.Int("hooks", removed),
	}
	if err != nil {
		m.logger.Error("plugin unload callback failed", append(fields, zap.Error(err))...)
		m.metrics.IncCounter(metrics.PluginUnloadErrors, map[string]string{"plugin": string(id)})
	} else {
		m.logger.Info("plugin unloaded", fields...)
	}
	m.metrics.IncCounter(metrics.PluginUnloads, map[string]string{"plugin": string(id)})
	m.metrics.SetGauge(metrics.HooksRegistered, float64(m.registry.Len()), nil)
	m.publish(ctx, TopicUnloaded, Transition{
		Plugin: id, From: from, To: StateUnloaded, Cycle: cycle, Hooks: removed, Err: err,
	})
	return err
}

func (m *Manager) unload(ctx context.Context, id hook.PluginID) (State, int, uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.plugins[id]
	if !exists {
		return StateUnloaded, 0, uuid.Nil, errors.NewPluginNotFound(string(id))
	}
	from := m.stateOf(id)

	removed := m.registry.DeregisterPlugin(id)
	m.clearState(id)

	var err error
	if u, ok := e.plugin.(Unloadable); ok {
		if uerr := u.OnUnload(ctx, e.app); uerr != nil {
			err = errors.NewLifecycle(string(id), "unload", uerr)
		}
	}

	m.services.RemoveOwner(id)
	delete(m.plugins, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	return from, removed, e.app.Cycle, err
}

// Shutdown unloads every plugin in reverse load order.
func (m *Manager) Shutdown(ctx context.Context) error {
	ids := m.IDs()
	var errs []error
	for i := len(ids) - 1; i >= 0; i-- {
		if err := m.UnloadPlugin(ctx, ids[i]); err != nil && !errors.IsType(err, errors.ErrorTypePluginNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsEnabled reports whether id is loaded and enabled.
func (m *Manager) IsEnabled(id hook.PluginID) bool {
	return m.stateOf(id) == StateEnabled
}

// IsLoaded reports whether id is loaded, enabled or not.
func (m *Manager) IsLoaded(id hook.PluginID) bool {
	return m.stateOf(id).IsLoaded()
}

// State returns the plugin's state, PluginNotFound if it is not loaded.
func (m *Manager) State(id hook.PluginID) (State, error) {
	s := m.stateOf(id)
	if !s.IsLoaded() {
		return StateUnloaded, errors.NewPluginNotFound(string(id))
	}
	return s, nil
}

// Plugin returns the loaded plugin value.
func (m *Manager) Plugin(id hook.PluginID) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.plugins[id]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// IDs returns loaded plugin ids in load order.
func (m *Manager) IDs() []hook.PluginID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]hook.PluginID(nil), m.order...)
}

// Info describes every loaded plugin in load order.
func (m *Manager) Info() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Info, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.info(id, m.plugins[id]))
	}
	return out
}

// PluginInfo describes one loaded plugin.
func (m *Manager) PluginInfo(id hook.PluginID) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.plugins[id]
	if !ok {
		return Info{}, errors.NewPluginNotFound(string(id))
	}
	return m.info(id, e), nil
}

func (m *Manager) info(id hook.PluginID, e *entry) Info {
	return Info{
		ID:          id,
		Name:        DisplayName(e.plugin),
		Description: e.plugin.Description(),
		State:       m.stateOf(id),
		Hooks:       e.hooks,
		Cycle:       e.app.Cycle,
		LoadedAt:    e.loadedAt,
	}
}

// DisplayName returns the plugin's Namer name or a title-cased id.
func DisplayName(p Plugin) string {
	if n, ok := p.(Namer); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return utils.DisplayName(string(p.ID()))
}

// visible is the registry gate.
func (m *Manager) visible(id hook.PluginID) bool {
	return m.visibility.admits(m.stateOf(id))
}

func (m *Manager) stateOf(id hook.PluginID) State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.states[id]
}

func (m *Manager) setState(id hook.PluginID, s State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.states[id] = s
}

func (m *Manager) clearState(id hook.PluginID) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	delete(m.states, id)
}

func (m *Manager) publish(ctx context.Context, topic string, t Transition) {
	if m.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := m.events.Publish(ctx, Event{
		ID:        uuid.New(),
		Name:      topic,
		Data:      t,
		Source:    string(t.Plugin),
		Timestamp: time.Now(),
	})
	if err != nil {
		m.logger.Debug("lifecycle event dropped", zap.String("event", topic), zap.Error(err))
	}
}
