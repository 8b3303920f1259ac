package hook

import (
	"github.com/leeforge/hookkit/errors"
)

// Hook is one registered implementation of a capability contract.
// The registry owns every Hook; callers only see the typed implementation
// through Get, Mutate or Lookup.
type Hook struct {
	id   HookID
	impl any
	seq  uint64 // registration order, assigned by the registry
}

// New builds a Hook of contract C owned by plugin.
func New[C any](plugin PluginID, impl C, discriminator string) (*Hook, error) {
	return Provide[C](impl, discriminator).Bind(plugin)
}

// ID returns the hook's identifier.
func (h *Hook) ID() HookID { return h.id }

// Seq returns the registration sequence number, zero before registration.
func (h *Hook) Seq() uint64 { return h.seq }

// Entry is one typed query result.
type Entry[C any] struct {
	ID   HookID
	Impl C
}

// Contribution is a hook a plugin wants registered, not yet bound to the
// plugin's ID: the extension point, the implementation and an optional
// discriminator.
type Contribution struct {
	point         ExtensionPointID
	impl          any
	discriminator string
}

// Provide declares impl as a hook for contract C. At most one
// discriminator is used; extra values are ignored.
func Provide[C any](impl C, discriminator ...string) Contribution {
	c := Contribution{point: PointOf[C](), impl: any(impl)}
	if len(discriminator) > 0 {
		c.discriminator = discriminator[0]
	}
	return c
}

// Point returns the extension point the contribution implements.
func (c Contribution) Point() ExtensionPointID { return c.point }

// Discriminator returns the contribution's discriminator, "" if none.
func (c Contribution) Discriminator() string { return c.discriminator }

// Bind attaches the contribution to its owning plugin.
func (c Contribution) Bind(plugin PluginID) (*Hook, error) {
	if c.point.IsZero() {
		return nil, errors.NewInvalidHook(string(plugin), "contribution has no extension point")
	}
	if !c.point.implementedBy(c.impl) {
		return nil, errors.NewInvalidHook(string(plugin), "nil implementation for "+c.point.String())
	}
	return &Hook{
		id:   HookID{Plugin: plugin, Point: c.point, Discriminator: c.discriminator},
		impl: c.impl,
	}, nil
}
