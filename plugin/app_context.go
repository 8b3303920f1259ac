package plugin

import (
	"github.com/google/uuid"
	"github.com/leeforge/hookkit/hook"
	"github.com/leeforge/hookkit/logging"
)

// AppContext is passed to a plugin's lifecycle callbacks.
type AppContext struct {
	Plugin   hook.PluginID
	Cycle    uuid.UUID // fresh for every load of the plugin
	Logger   logging.Logger
	Services *ServiceRegistry
	Config   ConfigProvider
	Events   EventBus
}

// ServiceKey namespaces name under the calling plugin, e.g. "audit.service".
func (a *AppContext) ServiceKey(name string) string {
	return ServiceKey(a.Plugin, name)
}
