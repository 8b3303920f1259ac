package plugin

import (
	"context"
	"testing"

	"github.com/leeforge/hookkit/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefine_BuildsFullPlugin(t *testing.T) {
	var loaded, unloaded bool
	p := Define("greeter").
		Named("Greeter").
		Describe("says hello").
		Provide(hook.Provide[Greeter](greeter{prefix: "Hello"})).
		Provide(hook.Provide[Greeter](greeter{prefix: "Hi"}, "short")).
		DependsOn("clock").
		Optional().
		OnLoad(func(context.Context, *AppContext) error { loaded = true; return nil }).
		OnUnload(func(context.Context, *AppContext) error { unloaded = true; return nil }).
		Build()

	assert.Equal(t, hook.PluginID("greeter"), p.ID())
	assert.Equal(t, "Greeter", p.Name())
	assert.Equal(t, "says hello", p.Description())
	assert.Len(t, p.Hooks(), 2)
	assert.Equal(t, "short", p.Hooks()[1].Discriminator())
	assert.Equal(t, []hook.PluginID{"clock"}, p.Dependencies())
	assert.True(t, p.PluginOptions().Optional)

	ctx := context.Background()
	m := NewManager()
	require.NoError(t, m.LoadPlugin(ctx, p))
	require.NoError(t, m.EnablePlugin("greeter"))
	assert.Equal(t, []string{"Hello, Ann", "Hi, Ann"}, greetAll(m.Registry(), "Ann"))
	require.NoError(t, m.UnloadPlugin(ctx, "greeter"))

	assert.True(t, loaded)
	assert.True(t, unloaded)
}

func TestDefine_DefaultsAreNoops(t *testing.T) {
	p := Define("empty").Build()

	assert.NoError(t, p.OnLoad(context.Background(), nil))
	assert.NoError(t, p.OnUnload(context.Background(), nil))
	assert.Empty(t, p.Hooks())
	assert.False(t, p.PluginOptions().Optional)
	assert.Equal(t, "Empty", DisplayName(p))
}

func TestDefine_BuildIsIndependentOfLaterChanges(t *testing.T) {
	b := Define("x").Provide(hook.Provide[Greeter](greeter{prefix: "a"}, "a"))
	first := b.Build()
	b.Provide(hook.Provide[Greeter](greeter{prefix: "b"}, "b")).DependsOn("y")

	assert.Len(t, first.Hooks(), 1)
	assert.Empty(t, first.Dependencies())
	assert.Len(t, b.Build().Hooks(), 2)
}
