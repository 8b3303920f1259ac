package hook

import (
	"fmt"
	"testing"

	"github.com/leeforge/hookkit/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Greeter interface {
	Greet(name string) string
}

type Counter interface {
	Inc()
	Value() int
}

type englishGreeter struct{}

func (englishGreeter) Greet(name string) string { return "Hello, " + name + "!" }

type frenchGreeter struct{}

func (frenchGreeter) Greet(name string) string { return "Bonjour, " + name + "!" }

type counter struct{ n int }

func (c *counter) Inc()       { c.n++ }
func (c *counter) Value() int { return c.n }

func mustHook[C any](t *testing.T, plugin PluginID, impl C, discriminator string) *Hook {
	t.Helper()
	h, err := New[C](plugin, impl, discriminator)
	require.NoError(t, err)
	return h
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))

	entries := Get[Greeter](r)
	require.Len(t, entries, 1)
	assert.Equal(t, HookID{Plugin: "a", Point: PointOf[Greeter]()}, entries[0].ID)
	assert.Equal(t, "Hello, World!", entries[0].Impl.Greet("World"))
}

func TestRegistry_GetEmptyIsNotNil(t *testing.T) {
	r := NewRegistry()

	entries := Get[Greeter](r)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRegistry_DuplicateLeavesRegistryUnchanged(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", frenchGreeter{}, "fr")))
	require.NoError(t, r.Register(mustHook[Counter](t, "b", &counter{}, "")))

	before := r.Snapshot()
	beforeGet := Get[Greeter](r)

	err := r.Register(mustHook[Greeter](t, "a", frenchGreeter{}, "fr"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateHookID))

	assert.Equal(t, before, r.Snapshot())
	assert.Equal(t, beforeGet, Get[Greeter](r))
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_UniquenessAcrossSequences(t *testing.T) {
	r := NewRegistry()
	plugins := []PluginID{"a", "b", "a", "c", "b", "a"}
	discs := []string{"", "", "", "x", "", "x"}

	for i := range plugins {
		_ = r.Register(mustHook[Greeter](t, plugins[i], englishGreeter{}, discs[i]))
	}

	seen := make(map[HookID]bool)
	for _, id := range r.Snapshot() {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 4)
}

func TestRegistry_SamePointDifferentPlugins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "b", frenchGreeter{}, "")))

	entries := Get[Greeter](r)
	require.Len(t, entries, 2)
	assert.Equal(t, PluginID("a"), entries[0].ID.Plugin)
	assert.Equal(t, PluginID("b"), entries[1].ID.Plugin)
}

func TestRegistry_PointsAreTypeScoped(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))
	require.NoError(t, r.Register(mustHook[Counter](t, "a", &counter{}, "")))

	assert.Len(t, Get[Greeter](r), 1)
	assert.Len(t, Get[Counter](r), 1)
	assert.Len(t, r.Points(), 2)
}

func TestRegistry_QueryIsIdempotent(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Register(mustHook[Greeter](t, PluginID(fmt.Sprintf("p%d", i)), englishGreeter{}, "")))
	}

	first := Get[Greeter](r)
	second := Get[Greeter](r)
	assert.Equal(t, first, second)
}

func TestRegistry_OrderSurvivesRemoval(t *testing.T) {
	r := NewRegistry()
	for _, p := range []PluginID{"a", "b", "c", "d"} {
		require.NoError(t, r.Register(mustHook[Greeter](t, p, englishGreeter{}, "")))
	}
	require.NoError(t, r.Deregister(NewHookID[Greeter]("b", "")))

	var got []PluginID
	for _, e := range Get[Greeter](r) {
		got = append(got, e.ID.Plugin)
	}
	assert.Equal(t, []PluginID{"a", "c", "d"}, got)
}

func TestRegistry_DeregisterNotFound(t *testing.T) {
	r := NewRegistry()

	err := r.Deregister(NewHookID[Greeter]("ghost", ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrHookNotFound))
	assert.Equal(t, errors.ErrorTypeHookNotFound, errors.TypeOf(err))
}

func TestRegistry_DeregisterPlugin(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", frenchGreeter{}, "fr")))
	require.NoError(t, r.Register(mustHook[Counter](t, "a", &counter{}, "")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "b", englishGreeter{}, "")))

	assert.Len(t, r.ByPlugin("a"), 3)
	assert.Equal(t, 3, r.DeregisterPlugin("a"))

	assert.Empty(t, r.ByPlugin("a"))
	assert.Empty(t, Get[Counter](r))
	require.Len(t, Get[Greeter](r), 1)
	assert.Equal(t, PluginID("b"), Get[Greeter](r)[0].ID.Plugin)

	// idempotent
	assert.Equal(t, 0, r.DeregisterPlugin("a"))
	assert.Equal(t, 0, r.DeregisterPlugin("never-registered"))
}

func TestRegistry_GateFiltersQueries(t *testing.T) {
	visible := map[PluginID]bool{"a": true}
	r := NewRegistry(WithGate(GateFunc(func(p PluginID) bool { return visible[p] })))
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "b", frenchGreeter{}, "")))

	entries := Get[Greeter](r)
	require.Len(t, entries, 1)
	assert.Equal(t, PluginID("a"), entries[0].ID.Plugin)

	// gated hooks stay registered
	assert.Len(t, r.ByPlugin("b"), 1)
	_, ok := Lookup[Greeter](r, NewHookID[Greeter]("b", ""))
	assert.True(t, ok)
}

func TestFilter_SelectsByDiscriminator(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "log", englishGreeter{}, "console")))
	require.NoError(t, r.Register(mustHook[Greeter](t, "log", frenchGreeter{}, "file")))

	entries := Filter[Greeter](r, func(id HookID) bool { return id.Discriminator == "file" })
	require.Len(t, entries, 1)
	assert.Equal(t, NewHookID[Greeter]("log", "file"), entries[0].ID)
	assert.Equal(t, "Bonjour, World!", entries[0].Impl.Greet("World"))

	assert.Equal(t, Get[Greeter](r), Filter[Greeter](r, nil))
	assert.Empty(t, Filter[Greeter](r, func(HookID) bool { return false }))
}

func TestFilter_RespectsGateAndOrder(t *testing.T) {
	visible := map[PluginID]bool{"a": true, "c": true}
	r := NewRegistry(WithGate(GateFunc(func(p PluginID) bool { return visible[p] })))
	for _, p := range []PluginID{"c", "b", "a"} {
		require.NoError(t, r.Register(mustHook[Greeter](t, p, englishGreeter{}, "")))
	}

	entries := Filter[Greeter](r, func(id HookID) bool { return id.Plugin != "z" })
	require.Len(t, entries, 2)
	assert.Equal(t, []HookID{
		NewHookID[Greeter]("c", ""),
		NewHookID[Greeter]("a", ""),
	}, []HookID{entries[0].ID, entries[1].ID})
}

func TestMutate_WritesThrough(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Counter](t, "a", &counter{}, "")))
	require.NoError(t, r.Register(mustHook[Counter](t, "b", &counter{}, "")))

	Mutate[Counter](r, func(_ HookID, c Counter) { c.Inc() })
	Mutate[Counter](r, func(id HookID, c Counter) {
		if id.Plugin == "a" {
			c.Inc()
		}
	})

	a, ok := Lookup[Counter](r, NewHookID[Counter]("a", ""))
	require.True(t, ok)
	assert.Equal(t, 2, a.Value())

	impls := Impls[Counter](r)
	require.Len(t, impls, 2)
	assert.Equal(t, 1, impls[1].Value())
}

func TestLookup_WrongContract(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(mustHook[Greeter](t, "a", englishGreeter{}, "")))

	_, ok := Lookup[Counter](r, NewHookID[Greeter]("a", ""))
	assert.False(t, ok)
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()

	err := r.Register(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidHook))
}
