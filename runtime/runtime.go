package runtime

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/leeforge/hookkit/config"
	"github.com/leeforge/hookkit/errors"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
	"github.com/leeforge/hookkit/metrics"
	"github.com/leeforge/hookkit/plugin"
	"github.com/leeforge/hookkit/store"
	"go.uber.org/zap"
)

// Config holds configuration for creating a new Runtime.
type Config struct {
	Logger      logging.Logger
	EventBuffer int // default 1024
	Visibility  plugin.Visibility
	Store       store.Store // nil disables persistence
	Settings    *config.Settings
	Metrics     *metrics.Collector
	Services    *plugin.ServiceRegistry
}

// ConfigFromSettings derives a Config from loaded settings.
func ConfigFromSettings(s *config.Settings, logger logging.Logger, st store.Store) (Config, error) {
	visibility, err := plugin.ParseVisibility(s.Manager.Visibility)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Logger:      logger,
		EventBuffer: s.Manager.EventBuffer,
		Visibility:  visibility,
		Store:       st,
		Settings:    s,
	}, nil
}

// Status is a registered plugin's view: manager info when loaded, the
// bootstrap error when it failed.
type Status struct {
	plugin.Info
	Error string `json:"error,omitempty"`
}

// Runtime loads registered plugins in dependency order into one
// plugin.Manager and keeps the enabled set in sync with settings and the store.
type Runtime struct {
	manager *plugin.Manager
	logger  logging.Logger
	store   store.Store
	bus     *eventBus
	metrics *metrics.Collector

	// mu serializes Register, Bootstrap, Apply, Enable, Disable and Shutdown.
	mu         sync.Mutex
	plugins    map[hook.PluginID]plugin.Plugin
	registered []hook.PluginID
	bootOrder  []hook.PluginID
	failed     map[hook.PluginID]error
	booted     bool

	// settingsMu is a leaf lock; the manager reads settings through it
	// while r.mu may be held.
	settingsMu sync.RWMutex
	settings   *config.Settings
}

// New creates a runtime with its own event bus and manager.
func New(cfg Config) *Runtime {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}

	r := &Runtime{
		logger:   cfg.Logger.Named("runtime"),
		store:    cfg.Store,
		bus:      NewEventBus(cfg.EventBuffer, cfg.Logger),
		metrics:  cfg.Metrics,
		plugins:  make(map[hook.PluginID]plugin.Plugin),
		failed:   make(map[hook.PluginID]error),
		settings: cfg.Settings,
	}
	r.manager = plugin.NewManager(
		plugin.WithLogger(cfg.Logger),
		plugin.WithEventBus(r.bus),
		plugin.WithServices(cfg.Services),
		plugin.WithConfig(r.pluginConfig),
		plugin.WithVisibility(cfg.Visibility),
		plugin.WithMetrics(cfg.Metrics),
	)
	return r
}

// Manager returns the underlying plugin manager.
func (r *Runtime) Manager() *plugin.Manager { return r.manager }

// Registry is shorthand for Manager().Registry().
func (r *Runtime) Registry() *hook.Registry { return r.manager.Registry() }

// Metrics returns the collector the manager records into.
func (r *Runtime) Metrics() *metrics.Collector { return r.metrics }

// Events returns the runtime's event bus.
func (r *Runtime) Events() plugin.EventBus { return r.bus }

// Settings returns the settings last applied.
func (r *Runtime) Settings() *config.Settings {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.settings
}

// Register adds a plugin. Must be called before Bootstrap.
func (r *Runtime) Register(p plugin.Plugin) error {
	if p == nil {
		return errors.NewInvalidPluginID("", fmt.Errorf("nil plugin"))
	}
	id := p.ID()
	if _, err := hook.ParsePluginID(string(id)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booted {
		return fmt.Errorf("plugin %q registered after bootstrap", id)
	}
	if _, exists := r.plugins[id]; exists {
		return fmt.Errorf("plugin %q already registered", id)
	}

	r.plugins[id] = p
	r.registered = append(r.registered, id)
	r.logger.Info("plugin registered", zap.String("plugin", string(id)))
	return nil
}

// Bootstrap loads every registered plugin in dependency order, then enables
// those marked enabled in settings or in the store.
func (r *Runtime) Bootstrap(ctx context.Context) error {
	startTime := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booted {
		return fmt.Errorf("runtime already bootstrapped")
	}

	// Phase 1: Resolve dependencies
	order, err := r.resolveDependencies()
	if err != nil {
		return fmt.Errorf("dependency resolution failed: %w", err)
	}
	r.bootOrder = order
	r.booted = true
	r.logger.Info("dependency resolution completed", zap.Stringers("order", order))

	// Phase 2: Load (in dependency order)
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bootstrap canceled: %w", err)
		}

		if depErr := r.checkDependenciesLoaded(id); depErr != nil {
			if abortErr := r.handlePluginError(id, depErr); abortErr != nil {
				return abortErr
			}
			continue
		}

		if err := r.manager.LoadPlugin(ctx, r.plugins[id]); err != nil {
			if abortErr := r.handlePluginError(id, err); abortErr != nil {
				return abortErr
			}
		}
	}

	// Phase 3: Enable what settings or the store ask for
	want, err := r.desiredEnabled(ctx)
	if err != nil {
		return err
	}
	for _, id := range order {
		if _, ok := want[id]; !ok || !r.manager.IsLoaded(id) {
			continue
		}
		if err := r.manager.EnablePlugin(id); err != nil {
			r.logger.Warn("plugin enable failed", zap.String("plugin", string(id)), zap.Error(err))
		}
	}

	r.logger.Info("bootstrap completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("plugins", len(r.plugins)),
		zap.Int("failed", len(r.failed)),
		zap.Int("hooks", r.manager.Registry().Len()),
	)
	return nil
}

// Enable enables a loaded plugin and records it in the store.
func (r *Runtime) Enable(ctx context.Context, id hook.PluginID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.manager.EnablePlugin(id); err != nil {
		return err
	}
	return r.persist(ctx)
}

// Disable disables an enabled plugin and records it in the store.
func (r *Runtime) Disable(ctx context.Context, id hook.PluginID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.manager.DisablePlugin(id); err != nil {
		return err
	}
	return r.persist(ctx)
}

// Apply switches to new settings. Loaded plugins that settings mention are
// enabled or disabled to match; others keep their state. Plugin settings
// maps take effect on the next load.
func (r *Runtime) Apply(ctx context.Context, s *config.Settings) error {
	if s == nil {
		return nil
	}
	if err := s.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.settingsMu.Lock()
	r.settings = s
	r.settingsMu.Unlock()

	var errs []error
	changed := 0
	for _, id := range r.manager.IDs() {
		ps, ok := s.Plugin(id)
		if !ok {
			continue
		}
		switch enabled := r.manager.IsEnabled(id); {
		case ps.Enabled && !enabled:
			if err := r.manager.EnablePlugin(id); err != nil {
				errs = append(errs, err)
				continue
			}
			changed++
		case !ps.Enabled && enabled:
			if err := r.manager.DisablePlugin(id); err != nil {
				errs = append(errs, err)
				continue
			}
			changed++
		}
	}

	r.logger.Info("settings applied", zap.Int("changed", changed))
	if changed > 0 {
		errs = append(errs, r.persist(ctx))
	}
	return errors.Join(errs...)
}

// Shutdown unloads plugins in reverse boot order, then closes the event bus
// and the store.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var errs []error
	for _, id := range reverseSlice(r.bootOrder) {
		if !r.manager.IsLoaded(id) {
			continue
		}
		if err := r.manager.UnloadPlugin(shutdownCtx, id); err != nil {
			errs = append(errs, err)
		}
	}
	// Plugins loaded directly through the manager.
	errs = append(errs, r.manager.Shutdown(shutdownCtx))

	r.bus.Close()
	if c, ok := r.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		r.logger.Error("shutdown completed with errors", zap.Error(err))
	} else {
		r.logger.Info("shutdown completed")
	}
	return err
}

// Publish sends an event through the event bus.
func (r *Runtime) Publish(ctx context.Context, event plugin.Event) error {
	return r.bus.Publish(ctx, event)
}

// BootOrder returns the topological order used during bootstrap.
func (r *Runtime) BootOrder() []hook.PluginID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hook.PluginID{}, r.bootOrder...)
}

// Failed returns the plugins that failed to bootstrap and why.
func (r *Runtime) Failed() map[hook.PluginID]error {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[hook.PluginID]error, len(r.failed))
	for k, v := range r.failed {
		result[k] = v
	}
	return result
}

// Status describes every registered plugin in registration order, followed
// by plugins loaded directly through the manager.
func (r *Runtime) Status() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[hook.PluginID]struct{}, len(r.registered))
	out := make([]Status, 0, len(r.registered))
	for _, id := range r.registered {
		seen[id] = struct{}{}
		out = append(out, r.status(id))
	}
	for _, id := range r.manager.IDs() {
		if _, ok := seen[id]; !ok {
			out = append(out, r.status(id))
		}
	}
	return out
}

// PluginStatus describes one plugin, PluginNotFound if it is neither
// registered nor loaded.
func (r *Runtime) PluginStatus(id hook.PluginID) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[id]; !ok && !r.manager.IsLoaded(id) {
		return Status{}, errors.NewPluginNotFound(string(id))
	}
	return r.status(id), nil
}

func (r *Runtime) status(id hook.PluginID) Status {
	if info, err := r.manager.PluginInfo(id); err == nil {
		return Status{Info: info}
	}
	p := r.plugins[id]
	st := Status{Info: plugin.Info{
		ID:          id,
		Name:        plugin.DisplayName(p),
		Description: p.Description(),
		State:       plugin.StateUnloaded,
	}}
	if err := r.failed[id]; err != nil {
		st.Error = err.Error()
	}
	return st
}

// --- Internal ---

func (r *Runtime) pluginConfig(id hook.PluginID) plugin.ConfigProvider {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()

	ps, ok := r.settings.Plugin(id)
	if !ok {
		return plugin.EmptyConfig()
	}
	return plugin.NewPluginConfigEntry(id, ps.Enabled, ps.Settings)
}

// desiredEnabled unions the settings' enabled plugins with the stored set.
func (r *Runtime) desiredEnabled(ctx context.Context) (map[hook.PluginID]struct{}, error) {
	want := make(map[hook.PluginID]struct{})
	settings := r.Settings()
	for id := range r.plugins {
		if ps, ok := settings.Plugin(id); ok && ps.Enabled {
			want[id] = struct{}{}
		}
	}
	if r.store == nil {
		return want, nil
	}

	stored, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enabled plugins: %w", err)
	}
	for _, id := range stored {
		if _, ok := r.plugins[id.ID()]; !ok {
			r.logger.Debug("stored plugin is not registered", zap.Stringer("plugin", id))
			continue
		}
		want[id.ID()] = struct{}{}
	}
	return want, nil
}

// persist saves the enabled set. Stored ids of plugins this runtime does
// not know are kept.
func (r *Runtime) persist(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	stored, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load enabled plugins: %w", err)
	}

	var ids []hook.OwnedID
	for _, id := range stored {
		if _, known := r.plugins[id.ID()]; !known && !r.manager.IsLoaded(id.ID()) {
			ids = append(ids, id)
		}
	}
	for _, id := range r.manager.IDs() {
		if r.manager.IsEnabled(id) {
			ids = append(ids, id.Own())
		}
	}
	if err := r.store.Save(ctx, ids); err != nil {
		return fmt.Errorf("save enabled plugins: %w", err)
	}
	return nil
}

func (r *Runtime) resolveDependencies() ([]hook.PluginID, error) {
	inDegree := make(map[hook.PluginID]int, len(r.plugins))
	dependents := make(map[hook.PluginID][]hook.PluginID) // dep -> list of plugins that depend on it

	for id := range r.plugins {
		inDegree[id] = 0
	}

	for id := range r.plugins {
		for _, dep := range dependencies(r.plugins[id]) {
			if _, exists := r.plugins[dep]; !exists {
				return nil, errors.NewDependency(string(id), fmt.Sprintf("depends on %q which is not registered", dep))
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	// Kahn's algorithm
	var queue []hook.PluginID
	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}
	sortIDs(queue) // deterministic

	var order []hook.PluginID
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, dep := range dependents[current] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
				sortIDs(queue)
			}
		}
	}

	if len(order) != len(r.plugins) {
		var cycle []string
		for id, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, string(id))
			}
		}
		sort.Strings(cycle)
		return nil, errors.NewDependency("", fmt.Sprintf("circular dependency detected among %v", cycle))
	}

	return order, nil
}

func (r *Runtime) handlePluginError(id hook.PluginID, err error) error {
	r.failed[id] = err

	if r.isOptional(id) {
		r.logger.Warn("optional plugin failed, continuing",
			zap.String("plugin", string(id)), zap.Error(err))
		return nil
	}

	return fmt.Errorf("required plugin %q failed: %w", id, err)
}

// isOptional: the plugin's own options or its settings entry.
func (r *Runtime) isOptional(id hook.PluginID) bool {
	if p, ok := r.plugins[id].(plugin.Configurable); ok && p.PluginOptions().Optional {
		return true
	}
	ps, _ := r.Settings().Plugin(id)
	return ps.Optional
}

func (r *Runtime) checkDependenciesLoaded(id hook.PluginID) error {
	for _, dep := range dependencies(r.plugins[id]) {
		if !r.manager.IsLoaded(dep) {
			return errors.NewDependency(string(id), fmt.Sprintf("dependency %q is not loaded", dep))
		}
	}
	return nil
}

func dependencies(p plugin.Plugin) []hook.PluginID {
	if d, ok := p.(plugin.Dependent); ok {
		return d.Dependencies()
	}
	return nil
}

func sortIDs(ids []hook.PluginID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func reverseSlice(s []hook.PluginID) []hook.PluginID {
	n := len(s)
	reversed := make([]hook.PluginID, n)
	for i, v := range s {
		reversed[n-1-i] = v
	}
	return reversed
}
