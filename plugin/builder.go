package plugin

import (
	"context"

	"github.com/leeforge/hookkit/hook"
)

// LifecycleFunc is a load or unload callback.
type LifecycleFunc func(ctx context.Context, app *AppContext) error

// Simple is a Plugin assembled by Define. It implements every optional
// capability; unset callbacks are no-ops.
type Simple struct {
	id           hook.PluginID
	name         string
	description  string
	hooks        []hook.Contribution
	onLoad       LifecycleFunc
	onUnload     LifecycleFunc
	dependencies []hook.PluginID
	optional     bool
}

var (
	_ Plugin       = (*Simple)(nil)
	_ Loadable     = (*Simple)(nil)
	_ Unloadable   = (*Simple)(nil)
	_ Namer        = (*Simple)(nil)
	_ Dependent    = (*Simple)(nil)
	_ Configurable = (*Simple)(nil)
)

func (s *Simple) ID() hook.PluginID   { return s.id }
func (s *Simple) Description() string { return s.description }

// Hooks returns a copy of the declared contributions.
func (s *Simple) Hooks() []hook.Contribution {
	return append([]hook.Contribution(nil), s.hooks...)
}

// Name returns the explicit name, or "" to fall back to the id.
func (s *Simple) Name() string { return s.name }

func (s *Simple) OnLoad(ctx context.Context, app *AppContext) error {
	if s.onLoad == nil {
		return nil
	}
	return s.onLoad(ctx, app)
}

func (s *Simple) OnUnload(ctx context.Context, app *AppContext) error {
	if s.onUnload == nil {
		return nil
	}
	return s.onUnload(ctx, app)
}

func (s *Simple) Dependencies() []hook.PluginID {
	return append([]hook.PluginID(nil), s.dependencies...)
}

func (s *Simple) PluginOptions() PluginOptions {
	return PluginOptions{Optional: s.optional}
}

// Builder assembles a Simple plugin.
//
//	p := plugin.Define("greeter").
//		Describe("says hello").
//		Provide(hook.Provide[Greeter](english{})).
//		Build()
type Builder struct {
	p Simple
}

// Define starts a plugin definition.
func Define(id hook.PluginID) *Builder {
	return &Builder{p: Simple{id: id}}
}

func (b *Builder) Describe(description string) *Builder {
	b.p.description = description
	return b
}

func (b *Builder) Named(name string) *Builder {
	b.p.name = name
	return b
}

// Provide appends hook contributions in order.
func (b *Builder) Provide(contributions ...hook.Contribution) *Builder {
	b.p.hooks = append(b.p.hooks, contributions...)
	return b
}

func (b *Builder) OnLoad(fn LifecycleFunc) *Builder {
	b.p.onLoad = fn
	return b
}

func (b *Builder) OnUnload(fn LifecycleFunc) *Builder {
	b.p.onUnload = fn
	return b
}

func (b *Builder) DependsOn(ids ...hook.PluginID) *Builder {
	b.p.dependencies = append(b.p.dependencies, ids...)
	return b
}

func (b *Builder) Optional() *Builder {
	b.p.optional = true
	return b
}

// Build returns the plugin. The builder may be reused; later changes do
// not affect plugins already built.
func (b *Builder) Build() *Simple {
	p := b.p
	p.hooks = append([]hook.Contribution(nil), b.p.hooks...)
	p.dependencies = append([]hook.PluginID(nil), b.p.dependencies...)
	return &p
}
