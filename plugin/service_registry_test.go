package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	Name string
}

func TestServiceRegistry_RegisterAndResolve(t *testing.T) {
	sr := NewServiceRegistry()
	require.NoError(t, sr.Register("audit.sink", &mockService{Name: "test"}))

	got, err := Resolve[*mockService](sr, "audit.sink")
	require.NoError(t, err)
	assert.Equal(t, "test", got.Name)
}

func TestServiceRegistry_DuplicateRegisterFails(t *testing.T) {
	sr := NewServiceRegistry()
	require.NoError(t, sr.Register("key", "a"))
	assert.Error(t, sr.Register("key", "b"))
	assert.Error(t, sr.RegisterFor("p", "key", "c"))
}

func TestServiceRegistry_ResolveErrors(t *testing.T) {
	sr := NewServiceRegistry()
	sr.MustRegister("key", "a string, not a *mockService")

	_, err := Resolve[*mockService](sr, "nonexistent")
	assert.ErrorContains(t, err, "not found")

	_, err = Resolve[*mockService](sr, "key")
	assert.ErrorContains(t, err, "want *plugin.mockService")
}

func TestServiceRegistry_MustVariantsPanic(t *testing.T) {
	sr := NewServiceRegistry()
	sr.MustRegister("key", "value")

	assert.Panics(t, func() { sr.MustRegister("key", "value2") })
	assert.Panics(t, func() { MustResolve[string](sr, "nope") })
	assert.Equal(t, "value", MustResolve[string](sr, "key"))
}

func TestServiceRegistry_RemoveOwner(t *testing.T) {
	sr := NewServiceRegistry()
	require.NoError(t, sr.Register("core.clock", "tick"))
	require.NoError(t, sr.RegisterFor("audit", ServiceKey("audit", "sink"), "sink"))
	require.NoError(t, sr.RegisterFor("audit", ServiceKey("audit", "store"), "store"))
	require.NoError(t, sr.RegisterFor("greeter", ServiceKey("greeter", "store"), "store"))

	assert.Equal(t, 2, sr.RemoveOwner("audit"))
	assert.Equal(t, []string{"core.clock", "greeter.store"}, sr.Keys())

	assert.Equal(t, 0, sr.RemoveOwner(""), "host services have no owner to remove")
	assert.True(t, sr.Has("core.clock"))
}
