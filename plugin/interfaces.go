package plugin

import (
	"context"

	"github.com/leeforge/hookkit/hook"
)

// Plugin is the minimal interface every plugin must implement.
type Plugin interface {
	// ID is stable for the lifetime of the plugin value.
	ID() hook.PluginID
	Description() string
	// Hooks lists the hooks to register on load. It is called once per load.
	Hooks() []hook.Contribution
}

// --- Optional Capability Interfaces ---
// The manager detects these via type assertion: if p, ok := plugin.(Loadable); ok { ... }

// Loadable -- setup before the plugin's hooks are registered.
// A failure leaves the plugin unloaded with nothing registered.
type Loadable interface {
	OnLoad(ctx context.Context, app *AppContext) error
}

// Unloadable -- cleanup after the plugin's hooks were removed.
// A failure is reported but the plugin is unloaded anyway.
type Unloadable interface {
	OnUnload(ctx context.Context, app *AppContext) error
}

// Namer -- human-readable name. Defaults to a title-cased ID.
type Namer interface {
	Name() string
}

// Dependent -- plugins that must be loaded first (runtime bootstrap only).
type Dependent interface {
	Dependencies() []hook.PluginID
}

// Configurable -- declare plugin options.
type Configurable interface {
	PluginOptions() PluginOptions
}

// PluginOptions holds declarative metadata about a plugin.
type PluginOptions struct {
	Optional bool // If true, failure does not abort runtime bootstrap.
}
